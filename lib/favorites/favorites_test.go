package favorites

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benflix/benflix/lib/auth"
	"github.com/benflix/benflix/lib/db/dbtest"
	"github.com/benflix/benflix/lib/store"
	"github.com/benflix/benflix/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Service, *store.GormStore) {
	t.Helper()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	s := store.New(dbtest.New(t), store.WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}))
	return New(s, dbtest.Logger()), s
}

func createShow(t *testing.T, s *store.GormStore, title string) models.Show {
	t.Helper()
	show := models.Show{Title: title}
	require.NoError(t, s.CreateShow(context.Background(), &show))
	return show
}

func session() *auth.Session {
	return &auth.Session{ID: uuid.New(), UserID: uuid.New()}
}

func TestAnonymousCaller(t *testing.T) {
	ctx := context.Background()
	svc, s := setup(t)
	show := createShow(t, s, "A")

	fav, err := svc.IsFavorite(ctx, nil, show.ID)
	require.NoError(t, err)
	assert.False(t, fav)

	assert.ErrorIs(t, svc.Add(ctx, nil, show.ID), auth.ErrUnauthenticated)
	assert.ErrorIs(t, svc.Remove(ctx, nil, show.ID), auth.ErrUnauthenticated)

	state, err := svc.Toggle(ctx, nil, show.ID, false)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	assert.False(t, state)

	shows, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, shows)
	assert.Empty(t, shows)
}

func TestAddRemoveRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, s := setup(t)
	show := createShow(t, s, "A")
	sess := session()

	require.NoError(t, svc.Add(ctx, sess, show.ID))
	fav, err := svc.IsFavorite(ctx, sess, show.ID)
	require.NoError(t, err)
	assert.True(t, fav)

	// Another user's state is independent.
	fav, err = svc.IsFavorite(ctx, session(), show.ID)
	require.NoError(t, err)
	assert.False(t, fav)

	require.NoError(t, svc.Remove(ctx, sess, show.ID))
	fav, err = svc.IsFavorite(ctx, sess, show.ID)
	require.NoError(t, err)
	assert.False(t, fav)
}

func TestAddTwiceKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	svc, s := setup(t)
	show := createShow(t, s, "A")
	sess := session()

	require.NoError(t, svc.Add(ctx, sess, show.ID))
	require.NoError(t, svc.Add(ctx, sess, show.ID))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Favorites)
}

func TestConcurrentAddsKeepOneRow(t *testing.T) {
	ctx := context.Background()
	svc, s := setup(t)
	show := createShow(t, s, "A")
	sess := session()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = svc.Add(ctx, sess, show.ID)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Favorites)
}

func TestRemoveMissingIsNoop(t *testing.T) {
	svc, s := setup(t)
	show := createShow(t, s, "A")
	assert.NoError(t, svc.Remove(context.Background(), session(), show.ID))
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	svc, s := setup(t)
	show := createShow(t, s, "A")
	sess := session()

	state, err := svc.Toggle(ctx, sess, show.ID, false)
	require.NoError(t, err)
	assert.True(t, state)
	fav, err := svc.IsFavorite(ctx, sess, show.ID)
	require.NoError(t, err)
	assert.True(t, fav)

	state, err = svc.Toggle(ctx, sess, show.ID, true)
	require.NoError(t, err)
	assert.False(t, state)
	fav, err = svc.IsFavorite(ctx, sess, show.ID)
	require.NoError(t, err)
	assert.False(t, fav)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, s := setup(t)
	a := createShow(t, s, "A")
	b := createShow(t, s, "B")
	sess := session()

	require.NoError(t, svc.Add(ctx, sess, a.ID))
	require.NoError(t, svc.Add(ctx, sess, b.ID))

	shows, err := svc.List(ctx, sess)
	require.NoError(t, err)
	require.Len(t, shows, 2)
	assert.Equal(t, b.ID, shows[0].ID)
	assert.Equal(t, a.ID, shows[1].ID)
}

// failingStore fails every favorite write.
type failingStore struct {
	store.Store
	err error
}

func (f failingStore) InsertFavorite(ctx context.Context, userID, showID uuid.UUID) (bool, error) {
	return false, f.err
}

func (f failingStore) DeleteFavorite(ctx context.Context, userID, showID uuid.UUID) error {
	return f.err
}

func (f failingStore) FavoriteExists(ctx context.Context, userID, showID uuid.UUID) (bool, error) {
	return false, f.err
}

func TestToggleFailureKeepsPriorState(t *testing.T) {
	ctx := context.Background()
	boom := &store.Error{Op: "insert favorite", Err: errors.New("connection refused")}
	svc := New(failingStore{err: boom}, dbtest.Logger())

	state, err := svc.Toggle(ctx, session(), uuid.New(), false)
	assert.ErrorIs(t, err, boom)
	assert.False(t, state)

	state, err = svc.Toggle(ctx, session(), uuid.New(), true)
	assert.ErrorIs(t, err, boom)
	assert.True(t, state)

	_, err = svc.IsFavorite(ctx, session(), uuid.New())
	assert.ErrorIs(t, err, boom)
}

func TestDuplicateFromStoreIsSuccess(t *testing.T) {
	svc := New(failingStore{err: &store.Error{Op: "insert favorite", Err: store.ErrDuplicate}}, dbtest.Logger())
	assert.NoError(t, svc.Add(context.Background(), session(), uuid.New()))
}
