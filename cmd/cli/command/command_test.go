package command

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"topmovies/internal/ingestion/tmdb"
	"topmovies/internal/microservices/http-api/form"
	"topmovies/internal/microservices/http-api/repository"
	"topmovies/internal/microservices/http-api/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct{}

func (fakeLookup) SearchMovie(ctx context.Context, title string) ([]tmdb.SearchResult, error) {
	return []tmdb.SearchResult{{ID: 27205, Title: "Inception", ReleaseDate: "2010-07-16"}}, nil
}

func (fakeLookup) GetMovieDetails(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error) {
	return &tmdb.MovieDetails{ID: movieID, Title: "Inception", Overview: "Dreams.", ReleaseDate: "2010-07-16", PosterPath: "/p.jpg"}, nil
}

// useMemoryStore points every command at a fresh in-memory store.
func useMemoryStore(t *testing.T) {
	t.Helper()
	repo := repository.NewMovieMemoryRepository()
	prev := openService
	openService = func(ctx context.Context) (service.MovieService, func() error, error) {
		return service.NewMovieService(repo, fakeLookup{}, "", nil), nil, nil
	}
	t.Cleanup(func() {
		openService = prev
		closeService()
		apiURL = ""
	})
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSearchAddRateList(t *testing.T) {
	useMemoryStore(t)

	out, err := run(t, "search", "Inception")
	require.NoError(t, err)
	assert.Contains(t, out, "27205")

	out, err = run(t, "add", "27205")
	require.NoError(t, err)
	assert.Contains(t, out, `Added "Inception" (2010) as movie 1`)

	out, err = run(t, "rate", "1", "9.5", "Mind", "bending")
	require.NoError(t, err)
	assert.Contains(t, out, "9.5/10")

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Inception")
	assert.Contains(t, out, "Mind bending")

	out, err = run(t, "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Ranking: 1")
	assert.Contains(t, out, "Poster: https://image.tmdb.org/t/p/w500/p.jpg")

	_, err = run(t, "delete", "1")
	require.NoError(t, err)
	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No movies yet")
}

func TestCommandArgumentErrors(t *testing.T) {
	useMemoryStore(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "bad id", args: []string{"delete", "abc"}},
		{name: "unknown movie", args: []string{"delete", "42"}},
		{name: "rating too high", args: []string{"rate", "1", "11", "meh"}},
		{name: "rating not a number", args: []string{"rate", "1", "great", "meh"}},
		{name: "missing review", args: []string{"rate", "1", "5"}},
		{name: "too many decimal places", args: []string{"rate", "1", "9.555", "close"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRateSharesWebFormRules(t *testing.T) {
	useMemoryStore(t)
	_, err := run(t, "add", "27205")
	require.NoError(t, err)

	_, err = run(t, "rate", "1", "10.5", "too", "good")
	var verr *form.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Fields["rating"])

	_, err = run(t, "rate", "1", "7", strings.Repeat("a", 251))
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Fields["review"])

	out, err := run(t, "rate", "1", "7.25", "fine")
	require.NoError(t, err)
	assert.Contains(t, out, "7.25/10")
}

func TestListThroughAPI(t *testing.T) {
	useMemoryStore(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/movies", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":3,"title":"Alien","year":1979,"rating":"8.5","ranking":1}],"total":1}`))
	}))
	defer srv.Close()

	out, err := run(t, "list", "--api", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Alien")
	assert.Contains(t, out, "8.5/10")
}

func TestShowThroughAPINotFound(t *testing.T) {
	useMemoryStore(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Movie not found"}`))
	}))
	defer srv.Close()

	_, err := run(t, "show", "9", "--api", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Movie not found")
}
