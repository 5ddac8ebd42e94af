package command

// root.go defines the root command for the moviesCLI application and opens
// the same store and movie database client the web server uses.

import (
	"context"
	"fmt"
	"os"

	"topmovies/database"
	"topmovies/internal/config"
	"topmovies/internal/ingestion/tmdb"
	"topmovies/internal/logger"
	"topmovies/internal/microservices/http-api/service"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	apiURL  string // when set, read commands go through the web server's JSON API
	envFile string // optional .env file

	svc     service.MovieService
	closers []func() error
)

// openService builds the workflow service from the environment. Tests swap it.
var openService = func(ctx context.Context) (service.MovieService, func() error, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := logger.New("warn", "console", false)
	if err != nil {
		return nil, nil, err
	}

	store, err := database.Open(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	var lookup service.MovieLookup
	if cfg.MoviesAPIKey != "" {
		client, err := tmdb.New(cfg.MoviesAPIKey, cfg.MoviesAPIURL,
			tmdb.WithTimeout(cfg.MoviesAPITimeout),
			tmdb.WithRateLimit(cfg.MoviesAPIRateLimit))
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		lookup = client
	}

	closeAll := func() error {
		_ = log.Sync()
		return store.Close()
	}
	return service.NewMovieService(store.Movies, lookup, cfg.PosterBaseURL, log.With(zap.String("component", "cli"))), closeAll, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "moviesCLI",
	Short: "moviesCLI - manage your top movies list",
	Long: `moviesCLI works on the same movie list as the web app. You can:
- List your movies in rank order
- Search the movie database and add a movie
- Rate, review and delete movies

Configuration is read from the environment (and .env), exactly like the web server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	closeService()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "web server URL for read commands, e.g. http://127.0.0.1:8080")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "extra .env file to load")
}

// movieService opens the store on first use.
func movieService(cmd *cobra.Command) (service.MovieService, error) {
	if svc != nil {
		return svc, nil
	}
	s, closeFn, err := openService(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("open movie store: %w", err)
	}
	svc = s
	if closeFn != nil {
		closers = append(closers, closeFn)
	}
	return svc, nil
}

func closeService() {
	for _, c := range closers {
		_ = c()
	}
	closers = nil
	svc = nil
}
