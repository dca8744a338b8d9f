package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://api.themoviedb.org/3"
	posterBaseURL     = "https://image.tmdb.org/t/p/w500"
	backdropBaseURL   = "https://image.tmdb.org/t/p/original"
	defaultRatePerSec = 4
)

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type TVShow struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	GenreIDs     []int   `json:"genre_ids"`
	VoteAverage  float64 `json:"vote_average"`
	FirstAirDate string  `json:"first_air_date"`
}

type Season struct {
	SeasonNumber int `json:"season_number"`
	EpisodeCount int `json:"episode_count"`
}

type TVDetails struct {
	ID      int      `json:"id"`
	Seasons []Season `json:"seasons"`
}

type Episode struct {
	ID            int    `json:"id"`
	EpisodeNumber int    `json:"episode_number"`
	SeasonNumber  int    `json:"season_number"`
	Name          string `json:"name"`
	Overview      string `json:"overview"`
	StillPath     string `json:"still_path"`
	Runtime       *int   `json:"runtime"`
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	StatusCode int
	Status     string
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("TMDB API error: %s: %s", e.Path, e.Status)
}

func NewClient(apiKey string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(defaultRatePerSec), 1),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TVGenres lists the TV genres.
func (c *Client) TVGenres(ctx context.Context) ([]Genre, error) {
	var result struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.get(ctx, "/genre/tv/list", nil, &result); err != nil {
		return nil, err
	}
	return result.Genres, nil
}

// PopularTV returns one page of the popular TV list.
func (c *Client) PopularTV(ctx context.Context, page int) ([]TVShow, error) {
	var result struct {
		Results []TVShow `json:"results"`
	}
	query := url.Values{}
	query.Set("language", "en-US")
	query.Set("page", strconv.Itoa(page))
	if err := c.get(ctx, "/tv/popular", query, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

func (c *Client) TVDetails(ctx context.Context, showID int) (*TVDetails, error) {
	var result TVDetails
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", showID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Season returns the episodes of one season of a show.
func (c *Client) Season(ctx context.Context, showID, seasonNumber int) ([]Episode, error) {
	var result struct {
		Episodes []Episode `json:"episodes"`
	}
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/season/%d", showID, seasonNumber), nil, &result); err != nil {
		return nil, err
	}
	return result.Episodes, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.DebugContext(ctx, "TMDB request", slog.String("path", path))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Path: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// PosterURL returns the w500 image URL for a poster or still path, or ""
// when the path is empty.
func PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return posterBaseURL + path
}

// BackdropURL returns the full-size image URL for a backdrop path.
func BackdropURL(path string) string {
	if path == "" {
		return ""
	}
	return backdropBaseURL + path
}
