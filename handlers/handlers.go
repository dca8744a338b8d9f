package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/benflix/benflix/lib/auth"
	"github.com/benflix/benflix/lib/catalog"
	"github.com/benflix/benflix/lib/favorites"
	"github.com/benflix/benflix/lib/store"
	"github.com/benflix/benflix/lib/validation"
	"github.com/benflix/benflix/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// respond writes v unless the client has already gone away. A request whose
// context is done gets nothing written, so a late store answer never
// reaches a caller that stopped waiting.
func respond(w http.ResponseWriter, r *http.Request, v interface{}, status int) {
	if r.Context().Err() != nil {
		return
	}
	validation.WriteJSON(w, v, status)
}

func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if r.Context().Err() != nil {
		logger.DebugContext(r.Context(), "Discarding result for cancelled request", slog.Any("error", err))
		return
	}

	var storeErr *store.Error
	switch {
	case errors.Is(err, store.ErrNotFound):
		validation.WriteError(w, errors.New("not found"), http.StatusNotFound)
	case errors.Is(err, auth.ErrUnauthenticated):
		validation.WriteError(w, errors.New("sign in required"), http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidCredentials):
		validation.WriteError(w, err, http.StatusUnauthorized)
	case errors.Is(err, auth.ErrEmailTaken), errors.Is(err, store.ErrDuplicate):
		validation.WriteError(w, err, http.StatusConflict)
	case errors.Is(err, auth.ErrInvalidInput):
		validation.WriteError(w, err, http.StatusBadRequest)
	case errors.As(err, &storeErr):
		logger.ErrorContext(r.Context(), "Store request failed", slog.String("op", storeErr.Op), slog.Any("error", err))
		validation.WriteError(w, errors.New("the catalog is temporarily unavailable, please retry"), http.StatusInternalServerError)
	default:
		logger.ErrorContext(r.Context(), "Request failed", slog.Any("error", err))
		validation.WriteError(w, errors.New("internal server error"), http.StatusInternalServerError)
	}
}

func showID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := validation.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		validation.WriteError(w, err, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type signInResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type favoriteState struct {
	Favorite bool `json:"favorite"`
}

type episodesResponse struct {
	Episodes []models.Episode      `json:"episodes"`
	Summary  catalog.EpisodeSummary `json:"summary"`
}

func HandleSignUp(svc *auth.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in credentials
		if err := validation.DecodeJSON(r, &in); err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}
		user, err := svc.SignUp(r.Context(), in.Email, in.Password)
		if err != nil {
			respondError(w, r, logger, err)
			return
		}
		respond(w, r, userResponse{ID: user.ID, Email: user.Email}, http.StatusCreated)
	}
}

func HandleSignIn(svc *auth.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in credentials
		if err := validation.DecodeJSON(r, &in); err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}
		token, sess, err := svc.SignIn(r.Context(), in.Email, in.Password)
		if err != nil {
			respondError(w, r, logger, err)
			return
		}
		respond(w, r, signInResponse{
			Token:     token,
			ExpiresAt: sess.ExpiresAt,
			User:      userResponse{ID: sess.UserID, Email: sess.Email},
		}, http.StatusOK)
	}
}

func HandleSignOut(svc *auth.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.SignOut(r.Context(), auth.FromContext(r.Context())); err != nil {
			respondError(w, r, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleMe(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := auth.FromContext(r.Context())
		if sess == nil {
			respondError(w, r, logger, auth.ErrUnauthenticated)
			return
		}
		respond(w, r, userResponse{ID: sess.UserID, Email: sess.Email}, http.StatusOK)
	}
}

func HandleCategories(c *catalog.Catalog, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := c.CategoriesWithShows(r.Context())
		if err != nil {
			respondError(w, r, logger, err)
			return
		}
		respond(w, r, rows, http.StatusOK)
	}
}

func HandleShow(c *catalog.Catalog, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := showID(w, r)
		if !ok {
			return
		}
		show, err := c.Show(r.Context(), id)
		if err != nil {
			respondError(w, r, logger, err)
			return
		}
		respond(w, r, show, http.StatusOK)
	}
}

func HandleEpisodes(c *catalog.Catalog, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := showID(w, r)
		if !ok {
			return
		}
		episodes, err := c.Episodes(r.Context(), id)
		if err != nil {
			respondError(w, r, logger, err)
			return
		}
		respond(w, r, episodesResponse{Episodes: episodes, Summary: catalog.Summarize(episodes)}, http.StatusOK)
	}
}

func HandleIsFavorite(f *favorites.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := showID(w, r)
		if !ok {
			return
		}
		fav, err := f.IsFavorite(r.Context(), auth.FromContext(r.Context()), id)
		if err != nil {
			respondError(w, r, logger, err)
			return
		}
		respond(w, r, favoriteState{Favorite: fav}, http.StatusOK)
	}
}

func HandleAddFavorite(f *favorites.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := showID(w, r)
		if !ok {
			return
		}
		if err := f.Add(r.Context(), auth.FromContext(r.Context()), id); err != nil {
			respondError(w, r, logger, err)
			return
		}
		respond(w, r, favoriteState{Favorite: true}, http.StatusOK)
	}
}

func HandleRemoveFavorite(f *favorites.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := showID(w, r)
		if !ok {
			return
		}
		if err := f.Remove(r.Context(), auth.FromContext(r.Context()), id); err != nil {
			respondError(w, r, logger, err)
			return
		}
		respond(w, r, favoriteState{Favorite: false}, http.StatusOK)
	}
}

// HandleToggleFavorite flips the state the client currently shows. The body
// carries that state; the response carries the new one.
func HandleToggleFavorite(f *favorites.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := showID(w, r)
		if !ok {
			return
		}
		var current favoriteState
		if err := validation.DecodeJSON(r, &current); err != nil {
			validation.WriteError(w, err, http.StatusBadRequest)
			return
		}
		state, err := f.Toggle(r.Context(), auth.FromContext(r.Context()), id, current.Favorite)
		if err != nil {
			respondError(w, r, logger, err)
			return
		}
		respond(w, r, favoriteState{Favorite: state}, http.StatusOK)
	}
}

func HandleFavorites(f *favorites.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shows, err := f.List(r.Context(), auth.FromContext(r.Context()))
		if err != nil {
			respondError(w, r, logger, err)
			return
		}
		respond(w, r, shows, http.StatusOK)
	}
}
