package web

import (
	"bytes"
	"testing"

	"topmovies/internal/ingestion/tmdb"
	"topmovies/internal/microservices/http-api/form"
	"topmovies/internal/microservices/http-api/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesParse(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	for _, name := range []string{"index.html", "add.html", "select.html", "edit.html", "error.html"} {
		assert.NotNil(t, tmpl.Lookup(name), "missing template %s", name)
	}
}

func TestIndexRendersRankedMovies(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	rank := 1
	review := "Mind-bending"
	movies := []models.Movie{
		{ID: 3, Title: "Inception", Year: 2010, Ranking: &rank, Review: &review,
			Rating: decimal.NewNullDecimal(decimal.RequireFromString("9.5")), PosterURL: "https://img/inception.jpg"},
		{ID: 4, Title: "Alien", Year: 1979, PosterURL: "https://img/alien.jpg"},
	}

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "index.html", map[string]any{"Title": "My Top Movies", "Movies": movies}))
	out := buf.String()
	assert.Contains(t, out, "Inception")
	assert.Contains(t, out, "9.5/10")
	assert.Contains(t, out, "Not rated yet")
	assert.Contains(t, out, `href="/edit?id=3"`)
	assert.Contains(t, out, `href="/delete?id=4"`)
}

func TestEditRendersErrorsAndToken(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	f := form.EditMovieForm()
	sub, verr := f.Validate(map[string][]string{"rating": {"eleven"}})
	require.Error(t, verr)

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "edit.html", map[string]any{
		"Title": "Edit",
		"Movie": &models.Movie{ID: 7, Title: "Alien", Version: 2},
		"Form":  f,
		"Sub":   sub,
		"Token": "tok123",
	}))
	out := buf.String()
	assert.Contains(t, out, `action="/edit?id=7"`)
	assert.Contains(t, out, `name="csrf_token" value="tok123"`)
	assert.Contains(t, out, `name="version" value="2"`)
	assert.Contains(t, out, "Not a valid decimal value.")
	assert.Contains(t, out, "This field is required.")
	assert.Contains(t, out, `value="eleven"`)
}

func TestSelectListsCandidates(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "select.html", map[string]any{
		"Title":   "Select",
		"Query":   "Inception",
		"Results": []tmdb.SearchResult{{ID: 27205, Title: "Inception", ReleaseDate: "2010-07-16"}},
	}))
	assert.Contains(t, buf.String(), `href="/add_database?id=27205"`)
	assert.Contains(t, buf.String(), "Inception - 2010-07-16")
}

func TestRatingText(t *testing.T) {
	assert.Equal(t, "Not rated yet", RatingText(models.Movie{}))
	assert.Equal(t, "7/10", RatingText(models.Movie{Rating: decimal.NewNullDecimal(decimal.NewFromInt(7))}))
}
