// Package store is the remote store client: table-style reads and writes
// over the catalog, favorites and session tables.
package store

import (
	"context"

	"github.com/benflix/benflix/models"
	"github.com/google/uuid"
)

// Store is everything the catalog and favorites layers read and write.
type Store interface {
	// ListCategories returns every category ordered by name ascending.
	ListCategories(ctx context.Context) ([]models.Category, error)
	// ShowsByCategory returns the shows linked to a category in link order.
	ShowsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Show, error)
	// EpisodesByShow returns a show's episodes ordered by episode number.
	EpisodesByShow(ctx context.Context, showID uuid.UUID) ([]models.Episode, error)
	GetShow(ctx context.Context, showID uuid.UUID) (*models.Show, error)

	FavoriteExists(ctx context.Context, userID, showID uuid.UUID) (bool, error)
	// InsertFavorite inserts the (user, show) row unless it already exists.
	// created reports whether a new row was written.
	InsertFavorite(ctx context.Context, userID, showID uuid.UUID) (created bool, err error)
	DeleteFavorite(ctx context.Context, userID, showID uuid.UUID) error
	// FavoriteShows returns the user's favorite shows, newest favorite first.
	FavoriteShows(ctx context.Context, userID uuid.UUID) ([]models.Show, error)
}

// Accounts holds users and their sessions.
type Accounts interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateSession(ctx context.Context, sess *models.Session) error
	SessionByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

// Counts is a row count per catalog table.
type Counts struct {
	Categories int64 `json:"categories"`
	Shows      int64 `json:"shows"`
	Episodes   int64 `json:"episodes"`
	Links      int64 `json:"links"`
	Favorites  int64 `json:"favorites"`
	Users      int64 `json:"users"`
}

// Seeder is the write side used by the seeding job.
type Seeder interface {
	// EnsureCategory returns the category with the given name, creating it
	// if needed.
	EnsureCategory(ctx context.Context, name string) (*models.Category, error)
	CreateShow(ctx context.Context, show *models.Show) error
	LinkShowCategories(ctx context.Context, showID uuid.UUID, categoryIDs []uuid.UUID) error
	CreateEpisodes(ctx context.Context, episodes []models.Episode) error
	Counts(ctx context.Context) (Counts, error)
}
