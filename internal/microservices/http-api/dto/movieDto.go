package dto

import (
	"time"

	"topmovies/internal/microservices/http-api/models"

	"github.com/shopspring/decimal"
)

// MovieResponse DTO for GET /api/movies and /api/movies/:id
type MovieResponse struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	Year        int                 `json:"year"`
	Description string              `json:"description"`
	Rating      decimal.NullDecimal `json:"rating"`
	Ranking     *int                `json:"ranking,omitempty"`
	Review      *string             `json:"review,omitempty"`
	PosterURL   string              `json:"poster_url"`
	Version     int                 `json:"version"`
	CreatedAt   *time.Time          `json:"created_at,omitempty"`
	UpdatedAt   *time.Time          `json:"updated_at,omitempty"`
}

// MovieListResponse wraps the ranked list.
type MovieListResponse struct {
	Data  []MovieResponse `json:"data"`
	Total int             `json:"total"`
}

// Converters
func FromModelToResponse(m models.Movie) MovieResponse {
	resp := MovieResponse{
		ID:          m.ID,
		Title:       m.Title,
		Year:        m.Year,
		Description: m.Description,
		Rating:      m.Rating,
		Ranking:     m.Ranking,
		Review:      m.Review,
		PosterURL:   m.PosterURL,
		Version:     m.Version,
	}
	if !m.CreatedAt.IsZero() {
		created := m.CreatedAt
		resp.CreatedAt = &created
	}
	if !m.UpdatedAt.IsZero() {
		updated := m.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

func FromModelsToListResponse(movies []models.Movie) MovieListResponse {
	data := make([]MovieResponse, 0, len(movies))
	for _, m := range movies {
		data = append(data, FromModelToResponse(m))
	}
	return MovieListResponse{Data: data, Total: len(data)}
}

func (r MovieResponse) ToModel() models.Movie {
	m := models.Movie{
		ID:          r.ID,
		Title:       r.Title,
		Year:        r.Year,
		Description: r.Description,
		Rating:      r.Rating,
		Ranking:     r.Ranking,
		Review:      r.Review,
		PosterURL:   r.PosterURL,
		Version:     r.Version,
	}
	if r.CreatedAt != nil {
		m.CreatedAt = *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		m.UpdatedAt = *r.UpdatedAt
	}
	return m
}
