// Package seed loads popular TV shows from TMDB into the catalog.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benflix/benflix/lib/lock"
	"github.com/benflix/benflix/lib/store"
	"github.com/benflix/benflix/lib/tmdb"
	"github.com/benflix/benflix/models"
	"github.com/google/uuid"
)

const (
	DefaultMaxShows    = 15
	DefaultMaxEpisodes = 10

	defaultRuntime  = 45
	noSynopsis      = "No synopsis available."
	maxPopularPages = 10
	lockKey         = "seed"
	lockTimeout     = 5 * time.Second
)

// Source is the subset of the TMDB API the seeder reads.
type Source interface {
	TVGenres(ctx context.Context) ([]tmdb.Genre, error)
	PopularTV(ctx context.Context, page int) ([]tmdb.TVShow, error)
	TVDetails(ctx context.Context, showID int) (*tmdb.TVDetails, error)
	Season(ctx context.Context, showID, seasonNumber int) ([]tmdb.Episode, error)
}

type Seeder struct {
	store       store.Seeder
	source      Source
	lock        *lock.FileLock
	logger      *slog.Logger
	maxShows    int
	maxEpisodes int
}

type Option func(*Seeder)

func WithMaxShows(n int) Option {
	return func(s *Seeder) {
		if n > 0 {
			s.maxShows = n
		}
	}
}

func WithMaxEpisodes(n int) Option {
	return func(s *Seeder) {
		if n > 0 {
			s.maxEpisodes = n
		}
	}
}

// WithLock makes Run hold fl for its whole duration.
func WithLock(fl *lock.FileLock) Option {
	return func(s *Seeder) {
		s.lock = fl
	}
}

func New(st store.Seeder, source Source, logger *slog.Logger, opts ...Option) *Seeder {
	s := &Seeder{
		store:       st,
		source:      source,
		logger:      logger,
		maxShows:    DefaultMaxShows,
		maxEpisodes: DefaultMaxEpisodes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary reports what one run wrote and the table totals afterwards.
type Summary struct {
	Categories int          `json:"categories"`
	Shows      int          `json:"shows"`
	Episodes   int          `json:"episodes"`
	Skipped    int          `json:"skipped"`
	Totals     store.Counts `json:"totals"`
}

// Run seeds categories from the TMDB genres, then the most popular shows
// with their categories and first-season episodes. A failure on a single
// show is logged and the show skipped; failing to list genres or shows
// aborts the run.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, lockKey, lockTimeout)
		if err != nil {
			return summary, fmt.Errorf("failed to acquire seed lock: %w", err)
		}
		defer release()
	}

	categories, err := s.seedCategories(ctx)
	if err != nil {
		return summary, err
	}
	summary.Categories = len(categories)

	shows, err := s.popular(ctx)
	if err != nil {
		return summary, err
	}

	for _, tv := range shows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		episodes, err := s.seedShow(ctx, tv, categories)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping show",
				slog.Int("tmdb_id", tv.ID),
				slog.String("name", tv.Name),
				slog.Any("error", err))
			summary.Skipped++
			continue
		}
		summary.Shows++
		summary.Episodes += episodes
	}

	totals, err := s.store.Counts(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to count rows: %w", err)
	}
	summary.Totals = totals

	s.logger.InfoContext(ctx, "Seeding complete",
		slog.Int("categories", summary.Categories),
		slog.Int("shows", summary.Shows),
		slog.Int("episodes", summary.Episodes),
		slog.Int("skipped", summary.Skipped))
	return summary, nil
}

// seedCategories returns TMDB genre id -> category id.
func (s *Seeder) seedCategories(ctx context.Context) (map[int]uuid.UUID, error) {
	genres, err := s.source.TVGenres(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch genres: %w", err)
	}

	categories := make(map[int]uuid.UUID, len(genres))
	for _, g := range genres {
		category, err := s.store.EnsureCategory(ctx, g.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to ensure category %q: %w", g.Name, err)
		}
		categories[g.ID] = category.ID
	}
	s.logger.DebugContext(ctx, "Seeded categories", slog.Int("count", len(categories)))
	return categories, nil
}

func (s *Seeder) popular(ctx context.Context) ([]tmdb.TVShow, error) {
	var shows []tmdb.TVShow
	for page := 1; page <= maxPopularPages && len(shows) < s.maxShows; page++ {
		results, err := s.source.PopularTV(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch popular shows: %w", err)
		}
		if len(results) == 0 {
			break
		}
		shows = append(shows, results...)
	}
	if len(shows) > s.maxShows {
		shows = shows[:s.maxShows]
	}
	return shows, nil
}

func (s *Seeder) seedShow(ctx context.Context, tv tmdb.TVShow, categories map[int]uuid.UUID) (int, error) {
	synopsis := tv.Overview
	if synopsis == "" {
		synopsis = noSynopsis
	}
	show := models.Show{
		Title:       tv.Name,
		Synopsis:    &synopsis,
		PosterURL:   optional(tmdb.PosterURL(tv.PosterPath)),
		BackdropURL: optional(tmdb.BackdropURL(tv.BackdropPath)),
	}
	if err := s.store.CreateShow(ctx, &show); err != nil {
		return 0, fmt.Errorf("failed to create show: %w", err)
	}

	var categoryIDs []uuid.UUID
	for _, genreID := range tv.GenreIDs {
		if id, ok := categories[genreID]; ok {
			categoryIDs = append(categoryIDs, id)
		}
	}
	if err := s.store.LinkShowCategories(ctx, show.ID, categoryIDs); err != nil {
		return 0, fmt.Errorf("failed to link categories: %w", err)
	}

	details, err := s.source.TVDetails(ctx, tv.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch details: %w", err)
	}
	season, ok := firstRegularSeason(details.Seasons)
	if !ok {
		return 0, nil
	}

	tmdbEpisodes, err := s.source.Season(ctx, tv.ID, season)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch season %d: %w", season, err)
	}
	if len(tmdbEpisodes) > s.maxEpisodes {
		tmdbEpisodes = tmdbEpisodes[:s.maxEpisodes]
	}

	episodes := make([]models.Episode, 0, len(tmdbEpisodes))
	for _, ep := range tmdbEpisodes {
		runtime := defaultRuntime
		if ep.Runtime != nil && *ep.Runtime > 0 {
			runtime = *ep.Runtime
		}
		episodes = append(episodes, models.Episode{
			ShowID:        show.ID,
			Title:         ep.Name,
			EpisodeNumber: ep.EpisodeNumber,
			Duration:      &runtime,
			ThumbnailURL:  optional(tmdb.PosterURL(ep.StillPath)),
		})
	}
	if err := s.store.CreateEpisodes(ctx, episodes); err != nil {
		return 0, fmt.Errorf("failed to create episodes: %w", err)
	}

	s.logger.DebugContext(ctx, "Seeded show",
		slog.String("title", show.Title),
		slog.Int("categories", len(categoryIDs)),
		slog.Int("episodes", len(episodes)))
	return len(episodes), nil
}

// firstRegularSeason skips season 0, which TMDB uses for specials.
func firstRegularSeason(seasons []tmdb.Season) (int, bool) {
	for _, season := range seasons {
		if season.SeasonNumber > 0 {
			return season.SeasonNumber, true
		}
	}
	return 0, false
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
