// Package catalog builds the read-side views of the show catalog.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/benflix/benflix/lib/store"
	"github.com/benflix/benflix/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

type Catalog struct {
	store       store.Store
	logger      *slog.Logger
	concurrency int
}

type Option func(*Catalog)

// WithConcurrency bounds the number of per-category lookups in flight.
func WithConcurrency(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func New(s store.Store, logger *slog.Logger, opts ...Option) *Catalog {
	c := &Catalog{
		store:       s,
		logger:      logger,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CategoriesWithShows returns every category that has at least one show,
// in name order, each with its shows in store order.
//
// The per-category lookups run concurrently. The first failure cancels the
// rest and the whole call fails; there is no partial result.
func (c *Catalog) CategoriesWithShows(ctx context.Context) ([]models.CategoryWithShows, error) {
	categories, err := c.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	c.logger.DebugContext(ctx, "Fetched categories", slog.Int("count", len(categories)))

	// Each goroutine writes only its own slot.
	shows := make([][]models.Show, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, category := range categories {
		g.Go(func() error {
			found, err := c.store.ShowsByCategory(gctx, category.ID)
			if err != nil {
				return fmt.Errorf("failed to fetch shows for category %q: %w", category.Name, err)
			}
			shows[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]models.CategoryWithShows, 0, len(categories))
	for i, category := range categories {
		if len(shows[i]) == 0 {
			continue
		}
		result = append(result, models.CategoryWithShows{Category: category, Shows: shows[i]})
	}

	c.logger.DebugContext(ctx, "Aggregated categories",
		slog.Int("categories", len(categories)),
		slog.Int("non_empty", len(result)))
	return result, nil
}

// Episodes returns the show's episodes ordered by episode number. A show
// without episodes yields an empty slice.
func (c *Catalog) Episodes(ctx context.Context, showID uuid.UUID) ([]models.Episode, error) {
	episodes, err := c.store.EpisodesByShow(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch episodes: %w", err)
	}
	if episodes == nil {
		episodes = []models.Episode{}
	}
	return episodes, nil
}

// Show returns a single show. A missing show is reported as
// store.ErrNotFound.
func (c *Catalog) Show(ctx context.Context, showID uuid.UUID) (*models.Show, error) {
	show, err := c.store.GetShow(ctx, showID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch show: %w", err)
	}
	return show, nil
}
