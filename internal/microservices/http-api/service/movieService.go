package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"topmovies/internal/ingestion/tmdb"
	"topmovies/internal/microservices/http-api/models"
	"topmovies/internal/microservices/http-api/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrIncompleteDetails means the movie database record lacks a field the
// catalog requires (release date or poster).
var ErrIncompleteDetails = errors.New("movie details incomplete")

// MovieLookup is the part of the TMDB client the workflow needs.
type MovieLookup interface {
	SearchMovie(ctx context.Context, title string) ([]tmdb.SearchResult, error)
	GetMovieDetails(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error)
}

type MovieService interface {
	ListRanked(ctx context.Context) ([]models.Movie, error)
	GetByID(ctx context.Context, id int64) (*models.Movie, error)
	SearchCandidates(ctx context.Context, title string) ([]tmdb.SearchResult, error)
	AddFromProvider(ctx context.Context, providerID int64) (*models.Movie, error)
	UpdateRatingAndReview(ctx context.Context, id int64, version int, rating decimal.Decimal, review string) (*models.Movie, error)
	Delete(ctx context.Context, id int64) error
}

type movieService struct {
	repo          repository.MovieRepository
	lookup        MovieLookup
	posterBaseURL string
	logger        *zap.Logger
}

func NewMovieService(repo repository.MovieRepository, lookup MovieLookup, posterBaseURL string, logger *zap.Logger) MovieService {
	if posterBaseURL == "" {
		posterBaseURL = tmdb.DefaultPosterBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &movieService{
		repo:          repo,
		lookup:        lookup,
		posterBaseURL: posterBaseURL,
		logger:        logger,
	}
}

// ListRanked returns the full catalog with freshly computed rankings.
func (s *movieService) ListRanked(ctx context.Context) ([]models.Movie, error) {
	movies, err := RecomputeRankings(ctx, s.repo)
	if err != nil {
		s.logger.Error("recompute rankings failed", zap.Error(err))
		return nil, err
	}
	return movies, nil
}

func (s *movieService) GetByID(ctx context.Context, id int64) (*models.Movie, error) {
	return s.repo.GetByID(ctx, id)
}

// SearchCandidates asks the movie database for titles matching title.
func (s *movieService) SearchCandidates(ctx context.Context, title string) ([]tmdb.SearchResult, error) {
	if s.lookup == nil {
		return nil, &tmdb.LookupError{Op: "search", Err: errors.New("movie database not configured")}
	}
	results, err := s.lookup.SearchMovie(ctx, strings.TrimSpace(title))
	if err != nil {
		s.logger.Warn("movie search failed", zap.String("title", title), zap.Error(err))
		return nil, err
	}
	return results, nil
}

// AddFromProvider fetches a movie from the database by its provider id,
// stores it unrated and returns the stored record.
func (s *movieService) AddFromProvider(ctx context.Context, providerID int64) (*models.Movie, error) {
	if s.lookup == nil {
		return nil, &tmdb.LookupError{Op: "movie details", Err: errors.New("movie database not configured")}
	}
	details, err := s.lookup.GetMovieDetails(ctx, providerID)
	if err != nil {
		s.logger.Warn("movie details lookup failed", zap.Int64("provider_id", providerID), zap.Error(err))
		return nil, err
	}

	year, err := tmdb.ReleaseYear(details.ReleaseDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteDetails, err)
	}
	if strings.TrimSpace(details.PosterPath) == "" {
		return nil, fmt.Errorf("%w: no poster", ErrIncompleteDetails)
	}
	if strings.TrimSpace(details.Title) == "" {
		return nil, fmt.Errorf("%w: no title", ErrIncompleteDetails)
	}

	m := &models.Movie{
		Title:       details.Title,
		Year:        year,
		Description: details.Overview,
		PosterURL:   tmdb.PosterURL(s.posterBaseURL, details.PosterPath),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	created, err := s.repo.GetByID(ctx, m.ID)
	if err != nil {
		s.logger.Error("created movie not found", zap.Int64("id", m.ID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("movie added",
		zap.Int64("id", created.ID),
		zap.Int64("provider_id", providerID),
		zap.String("title", created.Title))
	return created, nil
}

func (s *movieService) UpdateRatingAndReview(ctx context.Context, id int64, version int, rating decimal.Decimal, review string) (*models.Movie, error) {
	return s.repo.UpdateRatingAndReview(ctx, id, version, rating, strings.TrimSpace(review))
}

func (s *movieService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("movie deleted", zap.Int64("id", id))
	return nil
}
