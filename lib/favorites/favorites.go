// Package favorites tracks which shows a signed-in user has favorited.
//
// The session is passed in explicitly; a nil session is an anonymous
// caller. Reads degrade to "nothing favorited" for anonymous callers and
// writes fail with auth.ErrUnauthenticated.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/benflix/benflix/lib/auth"
	"github.com/benflix/benflix/lib/store"
	"github.com/benflix/benflix/models"
	"github.com/google/uuid"
)

type Service struct {
	store  store.Store
	logger *slog.Logger
}

func New(s store.Store, logger *slog.Logger) *Service {
	return &Service{store: s, logger: logger}
}

// IsFavorite reports whether the session's user has favorited the show.
// It is false, not an error, when nobody is signed in.
func (s *Service) IsFavorite(ctx context.Context, sess *auth.Session, showID uuid.UUID) (bool, error) {
	if sess == nil {
		return false, nil
	}
	exists, err := s.store.FavoriteExists(ctx, sess.UserID, showID)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

// Add favorites the show. Favoriting an already favorited show succeeds
// without writing a second row.
func (s *Service) Add(ctx context.Context, sess *auth.Session, showID uuid.UUID) error {
	if sess == nil {
		return auth.ErrUnauthenticated
	}
	created, err := s.store.InsertFavorite(ctx, sess.UserID, showID)
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with a concurrent insert of the same pair.
		created, err = false, nil
	}
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	s.logger.DebugContext(ctx, "Added favorite",
		slog.String("user_id", sess.UserID.String()),
		slog.String("show_id", showID.String()),
		slog.Bool("created", created))
	return nil
}

// Remove unfavorites the show. Removing a favorite that does not exist is a
// no-op.
func (s *Service) Remove(ctx context.Context, sess *auth.Session, showID uuid.UUID) error {
	if sess == nil {
		return auth.ErrUnauthenticated
	}
	if err := s.store.DeleteFavorite(ctx, sess.UserID, showID); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	s.logger.DebugContext(ctx, "Removed favorite",
		slog.String("user_id", sess.UserID.String()),
		slog.String("show_id", showID.String()))
	return nil
}

// Toggle flips the favorite state the caller currently displays and returns
// the new state. The new state is reported only once the store has
// accepted the change; on error the returned state is current, unchanged.
func (s *Service) Toggle(ctx context.Context, sess *auth.Session, showID uuid.UUID, current bool) (bool, error) {
	var err error
	if current {
		err = s.Remove(ctx, sess, showID)
	} else {
		err = s.Add(ctx, sess, showID)
	}
	if err != nil {
		return current, err
	}
	return !current, nil
}

// List returns the user's favorite shows, most recently favorited first.
// Anonymous callers get an empty list.
func (s *Service) List(ctx context.Context, sess *auth.Session) ([]models.Show, error) {
	if sess == nil {
		return []models.Show{}, nil
	}
	shows, err := s.store.FavoriteShows(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch favorites: %w", err)
	}
	if shows == nil {
		shows = []models.Show{}
	}
	return shows, nil
}
