package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/benflix/benflix/lib/store"
)

// Source is what the health check probes.
type Source interface {
	Ping(ctx context.Context) error
	Counts(ctx context.Context) (store.Counts, error)
}

// Health is the health check response. Catalog counts are included when
// the database answers.
type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DB        struct {
		Status  string `json:"status"`
		Message string `json:"message,omitempty"`
	} `json:"db"`
	Catalog *store.Counts `json:"catalog,omitempty"`
}

// Check returns a handler that pings the database and reports row counts.
// It answers 503 when the database is unreachable.
func Check(src Source, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := Health{
			Status:    "ok",
			Timestamp: time.Now(),
		}

		if err := src.Ping(ctx); err != nil {
			logger.ErrorContext(ctx, "Database ping failed", slog.Any("error", err))
			health.Status = "degraded"
			health.DB.Status = "error"
			health.DB.Message = "Database ping failed"
			writeHealth(w, health, http.StatusServiceUnavailable, logger)
			return
		}
		health.DB.Status = "ok"

		counts, err := src.Counts(ctx)
		if err != nil {
			logger.WarnContext(ctx, "Failed to count catalog rows", slog.Any("error", err))
			health.Status = "degraded"
			health.DB.Message = "Failed to count catalog rows"
		} else {
			health.Catalog = &counts
		}
		writeHealth(w, health, http.StatusOK, logger)
	}
}

func writeHealth(w http.ResponseWriter, health Health, status int, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(health); err != nil {
		logger.Error("Failed to encode health response", slog.Any("error", err))
	}
}
