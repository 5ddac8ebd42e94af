package service

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"topmovies/internal/microservices/http-api/models"
	"topmovies/internal/microservices/http-api/repository"

	"github.com/shopspring/decimal"
)

func BenchmarkRankOrder(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("movies=%d", n), func(b *testing.B) {
			rng := rand.New(rand.NewSource(1))
			base := make([]models.Movie, n)
			for i := range base {
				base[i].ID = int64(i + 1)
				if rng.Intn(4) > 0 {
					base[i].Rating = decimal.NewNullDecimal(decimal.New(int64(rng.Intn(101)), -1))
				}
			}
			work := make([]models.Movie, n)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				copy(work, base)
				RankOrder(work)
			}
		})
	}
}

func BenchmarkRecomputeRankingsSteadyState(b *testing.B) {
	ctx := context.Background()
	repo := repository.NewMovieMemoryRepository()
	for i := 0; i < 250; i++ {
		m := &models.Movie{Title: fmt.Sprintf("movie-%d", i), Year: 2000, PosterURL: "https://img/x.jpg"}
		if err := repo.Create(ctx, m); err != nil {
			b.Fatal(err)
		}
		if _, err := repo.UpdateRatingAndReview(ctx, m.ID, 0, decimal.New(int64(i%101), -1), "ok"); err != nil {
			b.Fatal(err)
		}
	}
	if _, err := RecomputeRankings(ctx, repo); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := RecomputeRankings(ctx, repo); err != nil {
			b.Fatal(err)
		}
	}
}
