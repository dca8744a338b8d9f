package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/benflix/benflix/lib/db/dbtest"
	"github.com/benflix/benflix/lib/store"
	"github.com/benflix/benflix/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tick returns a clock that advances one second per call.
func tick() func() time.Time {
	t := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newStore(t *testing.T) *store.GormStore {
	return store.New(dbtest.New(t), store.WithClock(tick()))
}

func mustShow(t *testing.T, s *store.GormStore, title string) models.Show {
	t.Helper()
	show := models.Show{Title: title}
	require.NoError(t, s.CreateShow(context.Background(), &show))
	return show
}

func mustCategory(t *testing.T, s *store.GormStore, name string) models.Category {
	t.Helper()
	c, err := s.EnsureCategory(context.Background(), name)
	require.NoError(t, err)
	return *c
}

func intPtr(v int) *int { return &v }

func TestListCategoriesOrderedByName(t *testing.T) {
	s := newStore(t)
	for _, name := range []string{"Drama", "Action", "Comedy"} {
		mustCategory(t, s, name)
	}

	got, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Action", got[0].Name)
	assert.Equal(t, "Comedy", got[1].Name)
	assert.Equal(t, "Drama", got[2].Name)
}

func TestEnsureCategoryReusesExisting(t *testing.T) {
	s := newStore(t)
	first := mustCategory(t, s, "Drama")
	second := mustCategory(t, s, "Drama")
	assert.Equal(t, first.ID, second.ID)

	counts, err := s.Counts(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Categories)
}

func TestShowsByCategoryFollowsLinks(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	drama := mustCategory(t, s, "Drama")
	comedy := mustCategory(t, s, "Comedy")
	a := mustShow(t, s, "A")
	b := mustShow(t, s, "B")
	require.NoError(t, s.LinkShowCategories(ctx, b.ID, []uuid.UUID{drama.ID}))
	require.NoError(t, s.LinkShowCategories(ctx, a.ID, []uuid.UUID{drama.ID, comedy.ID}))
	// Linking twice is a no-op.
	require.NoError(t, s.LinkShowCategories(ctx, a.ID, []uuid.UUID{drama.ID}))

	shows, err := s.ShowsByCategory(ctx, drama.ID)
	require.NoError(t, err)
	require.Len(t, shows, 2)
	assert.Equal(t, "B", shows[0].Title)
	assert.Equal(t, "A", shows[1].Title)
	assert.Equal(t, a.ID, shows[1].ID)

	shows, err = s.ShowsByCategory(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, shows)
	assert.Empty(t, shows)
}

func TestEpisodesByShowOrderedByNumber(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	show := mustShow(t, s, "Show")
	other := mustShow(t, s, "Other")
	require.NoError(t, s.CreateEpisodes(ctx, []models.Episode{
		{ShowID: show.ID, EpisodeNumber: 3, Title: "three"},
		{ShowID: show.ID, EpisodeNumber: 1, Title: "one", Duration: intPtr(30)},
		{ShowID: show.ID, EpisodeNumber: 2, Title: "two"},
		{ShowID: other.ID, EpisodeNumber: 1, Title: "elsewhere"},
	}))

	eps, err := s.EpisodesByShow(ctx, show.ID)
	require.NoError(t, err)
	require.Len(t, eps, 3)
	for i, ep := range eps {
		assert.Equal(t, i+1, ep.EpisodeNumber)
	}
	require.NotNil(t, eps[0].Duration)
	assert.Equal(t, 30, *eps[0].Duration)
	assert.Nil(t, eps[1].Duration)
}

func TestGetShowNotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.GetShow(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)

	var storeErr *store.Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "get show", storeErr.Op)
}

func TestFavoritesInsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	show := mustShow(t, s, "Show")
	user := uuid.New()

	exists, err := s.FavoriteExists(ctx, user, show.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	created, err := s.InsertFavorite(ctx, user, show.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.InsertFavorite(ctx, user, show.ID)
	require.NoError(t, err)
	assert.False(t, created)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Favorites)

	exists, err = s.FavoriteExists(ctx, user, show.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.DeleteFavorite(ctx, user, show.ID))
	require.NoError(t, s.DeleteFavorite(ctx, user, show.ID))

	exists, err = s.FavoriteExists(ctx, user, show.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFavoriteShowsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	a := mustShow(t, s, "A")
	b := mustShow(t, s, "B")
	user := uuid.New()
	someoneElse := uuid.New()

	_, err := s.InsertFavorite(ctx, user, a.ID)
	require.NoError(t, err)
	_, err = s.InsertFavorite(ctx, user, b.ID)
	require.NoError(t, err)
	_, err = s.InsertFavorite(ctx, someoneElse, a.ID)
	require.NoError(t, err)

	shows, err := s.FavoriteShows(ctx, user)
	require.NoError(t, err)
	require.Len(t, shows, 2)
	assert.Equal(t, "B", shows[0].Title)
	assert.Equal(t, "A", shows[1].Title)
}

func TestUsersAndSessions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	user := models.User{Email: "viewer@example.com", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, &user))
	assert.NotEqual(t, uuid.Nil, user.ID)

	err := s.CreateUser(ctx, &models.User{Email: "viewer@example.com", PasswordHash: "y"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	byEmail, err := s.UserByEmail(ctx, "viewer@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := s.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	sess := models.Session{UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.CreateSession(ctx, &sess))

	found, err := s.SessionByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.UserID)

	require.NoError(t, s.DeleteSession(ctx, sess.ID))
	_, err = s.SessionByID(ctx, sess.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPing(t *testing.T) {
	assert.NoError(t, newStore(t).Ping(context.Background()))
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	drama := mustCategory(t, s, "Drama")
	comedy := mustCategory(t, s, "Comedy")
	mustCategory(t, s, "Empty")

	a := mustShow(t, s, "A")
	b := mustShow(t, s, "B")
	mustShow(t, s, "Loose")
	require.NoError(t, s.LinkShowCategories(ctx, a.ID, []uuid.UUID{drama.ID, comedy.ID}))
	require.NoError(t, s.LinkShowCategories(ctx, b.ID, []uuid.UUID{drama.ID}))
	require.NoError(t, s.CreateEpisodes(ctx, []models.Episode{
		{ShowID: a.ID, EpisodeNumber: 1, Duration: intPtr(30)},
		{ShowID: a.ID, EpisodeNumber: 2},
	}))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, st.TotalCategories)
	assert.EqualValues(t, 3, st.TotalShows)
	assert.EqualValues(t, 2, st.TotalEpisodes)
	assert.EqualValues(t, 1, st.EmptyCategories)
	assert.EqualValues(t, 1, st.ShowsWithoutCategory)
	assert.EqualValues(t, 2, st.ShowsWithoutEpisodes)
	assert.EqualValues(t, 1, st.EpisodesWithoutDuration)

	require.Len(t, st.CategoryDistribution, 2)
	assert.Equal(t, "Drama", st.CategoryDistribution[0].Category)
	assert.EqualValues(t, 2, st.CategoryDistribution[0].Count)
	assert.Equal(t, "Comedy", st.CategoryDistribution[1].Category)
}
