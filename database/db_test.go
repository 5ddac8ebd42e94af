package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"topmovies/internal/config"
	"topmovies/internal/microservices/http-api/models"
	"topmovies/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(driver, url string) *config.Config {
	return &config.Config{
		GoEnv:             "test",
		StoreDriver:       driver,
		DatabaseURL:       url,
		DBMaxOpenConns:    4,
		DBMaxIdleConns:    2,
		DBConnMaxLifetime: time.Minute,
	}
}

func TestOpenSQLiteFilePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "movies-collection.db")

	store, err := Open(ctx, testConfig(config.StoreSQLite, path), zap.NewNop())
	require.NoError(t, err)

	movie := &models.Movie{Title: "Alien", Year: 1979, Description: "Space horror", PosterURL: "https://img/alien.jpg"}
	require.NoError(t, store.Movies.Create(ctx, movie))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, testConfig(config.StoreSQLite, path), zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Movies.GetByID(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alien", got.Title)
	assert.NoError(t, reopened.Movies.Ping(ctx))
}

func TestOpenMemory(t *testing.T) {
	store, err := Open(context.Background(), testConfig(config.StoreMemory, ""), zap.NewNop())
	require.NoError(t, err)

	_, ok := store.Movies.(*repository.MovieMemoryRepository)
	assert.True(t, ok)
	assert.NoError(t, store.Close())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), testConfig("mysql", "x"), zap.NewNop())
	assert.Error(t, err)
}

func TestConnectRedisBadURL(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "not a url")
	assert.Error(t, err)
}
