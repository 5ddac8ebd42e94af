package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Movie struct {
	ID          int64               `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string              `json:"title" gorm:"size:250;not null"`
	Year        int                 `json:"year" gorm:"not null"`
	Description string              `json:"description" gorm:"size:500;not null"`
	Rating      decimal.NullDecimal `json:"rating" gorm:"type:decimal(4,2)"`
	Ranking     *int                `json:"ranking,omitempty"`
	Review      *string             `json:"review,omitempty" gorm:"size:250"`
	PosterURL   string              `json:"poster_url" gorm:"column:img_url;size:250;not null"`
	Version     int                 `json:"version" gorm:"not null;default:1"`
	CreatedAt   time.Time           `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time           `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Movie) TableName() string {
	return "movies"
}

// Rated reports whether the user has given the movie a rating yet.
func (m *Movie) Rated() bool {
	return m.Rating.Valid
}

// ReviewText returns the review or "" when none was written.
func (m *Movie) ReviewText() string {
	if m.Review == nil {
		return ""
	}
	return *m.Review
}
