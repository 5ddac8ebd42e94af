package repository

import (
	"context"
	"errors"
	"fmt"

	"topmovies/internal/microservices/http-api/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrRecordNotFound is returned when no movie has the requested id.
	ErrRecordNotFound = errors.New("movie not found")
	// ErrEditConflict is returned when the movie changed since it was read.
	ErrEditConflict = errors.New("edit conflict")
)

// MovieRepository is the movie catalog store. Every mutating call has been
// persisted by the time it returns.
type MovieRepository interface {
	ListAll(ctx context.Context) ([]models.Movie, error)
	GetByID(ctx context.Context, id int64) (*models.Movie, error)
	Create(ctx context.Context, m *models.Movie) error
	// UpdateRatingAndReview applies the edit only when the stored version
	// still equals version. A version <= 0 skips the check.
	UpdateRatingAndReview(ctx context.Context, id int64, version int, rating decimal.Decimal, review string) (*models.Movie, error)
	UpdateRanking(ctx context.Context, id int64, ranking int) error
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

type movieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) MovieRepository {
	return &movieRepository{db: db}
}

// ListAll returns every movie ordered by id
func (r *movieRepository) ListAll(ctx context.Context) ([]models.Movie, error) {
	var list []models.Movie
	if err := r.db.WithContext(ctx).Order("id asc").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return list, nil
}

func (r *movieRepository) GetByID(ctx context.Context, id int64) (*models.Movie, error) {
	var m models.Movie
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	return &m, nil
}

func (r *movieRepository) Create(ctx context.Context, m *models.Movie) error {
	// new movies always start unrated
	m.ID = 0
	m.Rating = decimal.NullDecimal{}
	m.Ranking = nil
	m.Review = nil
	m.Version = 1
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create movie: %w", err)
	}
	// GORM will populate m.ID and timestamps
	return nil
}

func (r *movieRepository) UpdateRatingAndReview(ctx context.Context, id int64, version int, rating decimal.Decimal, review string) (*models.Movie, error) {
	var updated models.Movie
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&updated, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return err
		}
		if version > 0 && updated.Version != version {
			return ErrEditConflict
		}

		result := tx.Model(&models.Movie{}).
			Where("id = ? AND version = ?", id, updated.Version).
			Updates(map[string]any{
				"rating":  decimal.NewNullDecimal(rating),
				"review":  review,
				"version": gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrEditConflict
		}
		return tx.First(&updated, id).Error
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrEditConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("update movie %d: %w", id, err)
	}
	return &updated, nil
}

func (r *movieRepository) UpdateRanking(ctx context.Context, id int64, ranking int) error {
	// UpdateColumn keeps updated_at untouched, ranking is derived data
	result := r.db.WithContext(ctx).Model(&models.Movie{}).Where("id = ?", id).UpdateColumn("ranking", ranking)
	if result.Error != nil {
		return fmt.Errorf("update ranking of movie %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *movieRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Movie{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete movie %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *movieRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
