package client

// http_client.go reads the movie list from a running web server's JSON API.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"topmovies/internal/microservices/http-api/dto"
	"topmovies/internal/microservices/http-api/models"
)

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type movieResponse struct {
	Data dto.MovieResponse `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ListMovies fetches the ranked list.
func (c *HTTPClient) ListMovies(ctx context.Context) ([]models.Movie, error) {
	var resp dto.MovieListResponse
	if err := c.get(ctx, "/api/movies", &resp); err != nil {
		return nil, err
	}
	movies := make([]models.Movie, 0, len(resp.Data))
	for _, m := range resp.Data {
		movies = append(movies, m.ToModel())
	}
	return movies, nil
}

// GetMovie fetches one movie by id.
func (c *HTTPClient) GetMovie(ctx context.Context, id int64) (*models.Movie, error) {
	var resp movieResponse
	if err := c.get(ctx, fmt.Sprintf("/api/movies/%d", id), &resp); err != nil {
		return nil, err
	}
	movie := resp.Data.ToModel()
	return &movie, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
