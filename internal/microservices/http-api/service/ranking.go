package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"topmovies/internal/microservices/http-api/models"
	"topmovies/internal/microservices/http-api/repository"
)

// RankOrder sorts movies best first: rating descending, unrated movies after
// every rated one, ties broken by ascending id.
func RankOrder(movies []models.Movie) {
	sort.SliceStable(movies, func(i, j int) bool {
		a, b := movies[i], movies[j]
		switch {
		case a.Rating.Valid && !b.Rating.Valid:
			return true
		case !a.Rating.Valid && b.Rating.Valid:
			return false
		case a.Rating.Valid && b.Rating.Valid && !a.Rating.Decimal.Equal(b.Rating.Decimal):
			return a.Rating.Decimal.GreaterThan(b.Rating.Decimal)
		}
		return a.ID < b.ID
	})
}

// RecomputeRankings re-ranks the whole catalog and returns it in rank order.
// Only movies whose stored ranking changed are written back. A movie deleted
// after the catalog was listed is dropped and the rest renumbered.
func RecomputeRankings(ctx context.Context, repo repository.MovieRepository) ([]models.Movie, error) {
	movies, err := repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	RankOrder(movies)

	ranked := movies[:0]
	for _, m := range movies {
		rank := len(ranked) + 1
		if m.Ranking == nil || *m.Ranking != rank {
			err := repo.UpdateRanking(ctx, m.ID, rank)
			switch {
			case errors.Is(err, repository.ErrRecordNotFound):
				continue
			case err != nil:
				return nil, fmt.Errorf("rank movie %d: %w", m.ID, err)
			}
			m.Ranking = &rank
		}
		ranked = append(ranked, m)
	}
	return ranked, nil
}
