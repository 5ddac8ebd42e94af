package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"topmovies/internal/microservices/http-api/models"

	"github.com/shopspring/decimal"
)

// MovieMemoryRepository keeps the catalog in process memory. Nothing
// survives a restart; it backs STORE_DRIVER=memory and tests.
type MovieMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	movies map[int64]models.Movie
}

var _ MovieRepository = (*MovieMemoryRepository)(nil)

func NewMovieMemoryRepository() *MovieMemoryRepository {
	return &MovieMemoryRepository{movies: map[int64]models.Movie{}}
}

func (r *MovieMemoryRepository) ListAll(_ context.Context) ([]models.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Movie, 0, len(r.movies))
	for _, m := range r.movies {
		list = append(list, cloneMovie(m))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *MovieMemoryRepository) GetByID(_ context.Context, id int64) (*models.Movie, error) {
	r.mu.RLock()
	m, ok := r.movies[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := cloneMovie(m)
	return &out, nil
}

func (r *MovieMemoryRepository) Create(_ context.Context, m *models.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now().UTC()
	m.ID = r.nextID
	m.Rating = decimal.NullDecimal{}
	m.Ranking = nil
	m.Review = nil
	m.Version = 1
	m.CreatedAt = now
	m.UpdatedAt = now
	r.movies[m.ID] = cloneMovie(*m)
	return nil
}

func (r *MovieMemoryRepository) UpdateRatingAndReview(_ context.Context, id int64, version int, rating decimal.Decimal, review string) (*models.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.movies[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	if version > 0 && m.Version != version {
		return nil, ErrEditConflict
	}
	m.Rating = decimal.NewNullDecimal(rating)
	m.Review = &review
	m.Version++
	m.UpdatedAt = time.Now().UTC()
	r.movies[id] = m

	out := cloneMovie(m)
	return &out, nil
}

func (r *MovieMemoryRepository) UpdateRanking(_ context.Context, id int64, ranking int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.movies[id]
	if !ok {
		return ErrRecordNotFound
	}
	m.Ranking = &ranking
	r.movies[id] = m
	return nil
}

func (r *MovieMemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.movies[id]; !ok {
		return ErrRecordNotFound
	}
	delete(r.movies, id)
	return nil
}

func (r *MovieMemoryRepository) Ping(_ context.Context) error {
	return nil
}

func cloneMovie(m models.Movie) models.Movie {
	if m.Ranking != nil {
		rank := *m.Ranking
		m.Ranking = &rank
	}
	if m.Review != nil {
		review := *m.Review
		m.Review = &review
	}
	return m
}
