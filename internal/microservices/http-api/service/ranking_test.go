package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"topmovies/internal/microservices/http-api/models"
	"topmovies/internal/microservices/http-api/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMovie(t *testing.T, repo repository.MovieRepository, title string, rating string) *models.Movie {
	t.Helper()
	ctx := context.Background()
	m := &models.Movie{Title: title, Year: 2000, Description: title, PosterURL: "https://example.com/" + title + ".jpg"}
	require.NoError(t, repo.Create(ctx, m))
	if rating != "" {
		updated, err := repo.UpdateRatingAndReview(ctx, m.ID, 0, decimal.RequireFromString(rating), "review of "+title)
		require.NoError(t, err)
		m = updated
	}
	return m
}

func rankingsByTitle(t *testing.T, repo repository.MovieRepository) map[string]int {
	t.Helper()
	list, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	out := make(map[string]int, len(list))
	for _, m := range list {
		require.NotNil(t, m.Ranking, "movie %s has no ranking", m.Title)
		out[m.Title] = *m.Ranking
	}
	return out
}

func TestRecomputeRankingsScenario(t *testing.T) {
	repo := repository.NewMovieMemoryRepository()
	seedMovie(t, repo, "A", "7")
	seedMovie(t, repo, "B", "9")
	seedMovie(t, repo, "C", "")
	seedMovie(t, repo, "D", "")

	ranked, err := RecomputeRankings(context.Background(), repo)
	require.NoError(t, err)

	titles := make([]string, 0, len(ranked))
	for _, m := range ranked {
		titles = append(titles, m.Title)
	}
	assert.Equal(t, []string{"B", "A", "C", "D"}, titles)
	assert.Equal(t, map[string]int{"B": 1, "A": 2, "C": 3, "D": 4}, rankingsByTitle(t, repo))
}

func TestRecomputeRankingsTiesBrokenByID(t *testing.T) {
	repo := repository.NewMovieMemoryRepository()
	seedMovie(t, repo, "first", "8.5")
	seedMovie(t, repo, "second", "8.50")
	seedMovie(t, repo, "top", "9")

	_, err := RecomputeRankings(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"top": 1, "first": 2, "second": 3}, rankingsByTitle(t, repo))
}

func TestRecomputeRankingsPermutationProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		repo := repository.NewMovieMemoryRepository()
		n := 1 + rng.Intn(30)
		perm := rng.Perm(n)
		for i := 0; i < n; i++ {
			// distinct ratings in [0, 10)
			rating := decimal.NewFromInt(int64(perm[i])).Div(decimal.NewFromInt(int64(n))).Mul(decimal.NewFromInt(10))
			seedMovie(t, repo, string(rune('a'+i%26))+decimal.NewFromInt(int64(i)).String(), rating.String())
		}

		ranked, err := RecomputeRankings(context.Background(), repo)
		require.NoError(t, err)
		require.Len(t, ranked, n)

		for i, m := range ranked {
			require.NotNil(t, m.Ranking)
			assert.Equal(t, i+1, *m.Ranking)
			if i > 0 {
				assert.True(t, ranked[i-1].Rating.Decimal.GreaterThan(m.Rating.Decimal),
					"rank %d rating %s should exceed rank %d rating %s", i, ranked[i-1].Rating.Decimal, i+1, m.Rating.Decimal)
			}
		}
	}
}

func TestRecomputeRankingsIdempotent(t *testing.T) {
	repo := repository.NewMovieMemoryRepository()
	seedMovie(t, repo, "A", "3")
	seedMovie(t, repo, "B", "")
	seedMovie(t, repo, "C", "6.5")

	_, err := RecomputeRankings(context.Background(), repo)
	require.NoError(t, err)
	first := rankingsByTitle(t, repo)

	_, err = RecomputeRankings(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, first, rankingsByTitle(t, repo))
}

// countingRepo records UpdateRanking calls on top of the memory store.
type countingRepo struct {
	*repository.MovieMemoryRepository
	rankWrites int
	failRank   error
	// deleteOnRank removes this movie right before its ranking is written.
	deleteOnRank int64
}

func (r *countingRepo) UpdateRanking(ctx context.Context, id int64, ranking int) error {
	if r.failRank != nil {
		return r.failRank
	}
	if id == r.deleteOnRank {
		if err := r.MovieMemoryRepository.Delete(ctx, id); err != nil {
			return err
		}
	}
	r.rankWrites++
	return r.MovieMemoryRepository.UpdateRanking(ctx, id, ranking)
}

func TestRecomputeRankingsOnlyWritesChanges(t *testing.T) {
	repo := &countingRepo{MovieMemoryRepository: repository.NewMovieMemoryRepository()}
	seedMovie(t, repo, "A", "5")
	seedMovie(t, repo, "B", "6")

	_, err := RecomputeRankings(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.rankWrites)

	_, err = RecomputeRankings(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.rankWrites, "unchanged rankings must not be rewritten")

	seedMovie(t, repo, "C", "9")
	_, err = RecomputeRankings(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, 5, repo.rankWrites)
	assert.Equal(t, map[string]int{"C": 1, "B": 2, "A": 3}, rankingsByTitle(t, repo))
}

func TestRecomputeRankingsPropagatesStoreError(t *testing.T) {
	boom := errors.New("disk full")
	repo := &countingRepo{MovieMemoryRepository: repository.NewMovieMemoryRepository(), failRank: boom}
	seedMovie(t, repo, "A", "5")

	_, err := RecomputeRankings(context.Background(), repo)
	assert.ErrorIs(t, err, boom)
}

func TestRecomputeRankingsSkipsMovieDeletedMidway(t *testing.T) {
	repo := &countingRepo{MovieMemoryRepository: repository.NewMovieMemoryRepository()}
	seedMovie(t, repo, "A", "5")
	b := seedMovie(t, repo, "B", "9")
	seedMovie(t, repo, "C", "7")
	repo.deleteOnRank = b.ID

	ranked, err := RecomputeRankings(context.Background(), repo)
	require.NoError(t, err)

	require.Len(t, ranked, 2)
	assert.Equal(t, "C", ranked[0].Title)
	assert.Equal(t, 1, *ranked[0].Ranking)
	assert.Equal(t, "A", ranked[1].Title)
	assert.Equal(t, 2, *ranked[1].Ranking)
	assert.Equal(t, map[string]int{"C": 1, "A": 2}, rankingsByTitle(t, repo))
}

func TestRankOrderUnratedLast(t *testing.T) {
	movies := []models.Movie{
		{ID: 3},
		{ID: 1},
		{ID: 2, Rating: decimal.NewNullDecimal(decimal.Zero)},
	}
	RankOrder(movies)
	assert.Equal(t, []int64{2, 1, 3}, []int64{movies[0].ID, movies[1].ID, movies[2].ID})
}
