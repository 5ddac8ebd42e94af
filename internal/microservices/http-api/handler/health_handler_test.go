package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"topmovies/internal/microservices/http-api/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		store  Pinger
		status int
	}{
		{name: "store answers", store: repository.NewMovieMemoryRepository(), status: http.StatusOK},
		{name: "store down", store: failingPinger{}, status: http.StatusServiceUnavailable},
		{name: "no store", store: nil, status: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			NewHealthHandler(tt.store).RegisterRoutes(r)

			w := get(r, "/healthz")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
