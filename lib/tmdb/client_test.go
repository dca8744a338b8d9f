package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benflix/benflix/lib/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", dbtest.Logger(), WithBaseURL(srv.URL), WithRateLimit(1000, 10))
}

func TestTVGenres(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/genre/tv/list", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		_, _ = w.Write([]byte(`{"genres":[{"id":18,"name":"Drama"},{"id":35,"name":"Comedy"}]}`))
	})

	genres, err := c.TVGenres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Genre{{ID: 18, Name: "Drama"}, {ID: 35, Name: "Comedy"}}, genres)
}

func TestPopularTVAndSeason(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tv/popular":
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			_, _ = w.Write([]byte(`{"results":[{"id":1,"name":"Show","overview":"o","poster_path":"/p.jpg","genre_ids":[18]}]}`))
		case "/tv/1":
			_, _ = w.Write([]byte(`{"id":1,"seasons":[{"season_number":0},{"season_number":1,"episode_count":2}]}`))
		case "/tv/1/season/1":
			_, _ = w.Write([]byte(`{"episodes":[{"episode_number":1,"name":"Pilot","runtime":42},{"episode_number":2,"name":"Two","runtime":null}]}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	shows, err := c.PopularTV(ctx, 2)
	require.NoError(t, err)
	require.Len(t, shows, 1)
	assert.Equal(t, []int{18}, shows[0].GenreIDs)

	details, err := c.TVDetails(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, details.Seasons, 2)

	eps, err := c.Season(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, eps, 2)
	require.NotNil(t, eps[0].Runtime)
	assert.Equal(t, 42, *eps[0].Runtime)
	assert.Nil(t, eps[1].Runtime)
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status_message":"Invalid API key"}`, http.StatusUnauthorized)
	})

	_, err := c.TVGenres(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "401")
}

func TestImageURLs(t *testing.T) {
	assert.Equal(t, "", PosterURL(""))
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/a.jpg", PosterURL("/a.jpg"))
	assert.Equal(t, "https://image.tmdb.org/t/p/original/b.jpg", BackdropURL("/b.jpg"))
	assert.Equal(t, "", BackdropURL(""))
}
