// Package tmdb is the client for The Movie Database search and detail
// endpoints used when adding movies to the catalog.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL       = "https://api.themoviedb.org/3"
	DefaultPosterBaseURL = "https://image.tmdb.org/t/p/w500"

	defaultTimeout = 10 * time.Second
)

// SearchResult is one candidate returned by /search/movie.
type SearchResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Popularity  float64 `json:"popularity"`
}

type searchResponse struct {
	Page    int            `json:"page"`
	Results []SearchResult `json:"results"`
}

// MovieDetails is the payload of /movie/{id}.
type MovieDetails struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	ReleaseDate string `json:"release_date"`
	PosterPath  string `json:"poster_path"`
	Runtime     int    `json:"runtime"`
}

// LookupError reports a failed call to the movie database. StatusCode is 0
// when no response was received.
type LookupError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *LookupError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tmdb %s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("tmdb %s: %v", e.Op, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Client talks to the TMDB v3 API. It never retries; callers see the first
// failure.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRateLimit throttles outbound requests to perSecond. Zero or less
// disables throttling.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.rateLimiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.rateLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SearchMovie returns the first page of candidates matching title.
func (c *Client) SearchMovie(ctx context.Context, title string) ([]SearchResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title must not be empty")
	}
	params := url.Values{}
	params.Set("query", title)

	var payload searchResponse
	if err := c.doRequest(ctx, "search", "/search/movie", params, &payload); err != nil {
		return nil, err
	}
	if payload.Results == nil {
		payload.Results = []SearchResult{}
	}
	return payload.Results, nil
}

// GetMovieDetails fetches a single movie by its TMDB id.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	var payload MovieDetails
	endpoint := "/movie/" + strconv.FormatInt(movieID, 10)
	if err := c.doRequest(ctx, "movie details", endpoint, url.Values{}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) doRequest(ctx context.Context, op, endpoint string, params url.Values, result any) error {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return &LookupError{Op: op, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	params.Set("api_key", c.apiKey)
	fullURL := c.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return &LookupError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "TopMovies/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &LookupError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &LookupError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &LookupError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// ReleaseYear extracts the year from a YYYY-MM-DD release date.
func ReleaseYear(releaseDate string) (int, error) {
	head, _, _ := strings.Cut(strings.TrimSpace(releaseDate), "-")
	if head == "" {
		return 0, errors.New("release date is empty")
	}
	year, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("invalid release date %q", releaseDate)
	}
	return year, nil
}

// PosterURL joins the image base URL and a poster path like "/abc.jpg".
func PosterURL(baseURL, posterPath string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(posterPath, "/")
}
