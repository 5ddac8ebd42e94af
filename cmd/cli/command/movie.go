package command

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"topmovies/cmd/cli/command/client"
	"topmovies/internal/microservices/http-api/form"
	"topmovies/internal/microservices/http-api/models"
	"topmovies/internal/microservices/http-api/web"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List movies in rank order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			movies []models.Movie
			err    error
		)
		if apiURL != "" {
			movies, err = client.NewHTTPClient(apiURL).ListMovies(cmd.Context())
		} else {
			s, serr := movieService(cmd)
			if serr != nil {
				return serr
			}
			movies, err = s.ListRanked(cmd.Context())
		}
		if err != nil {
			return fmt.Errorf("failed to list movies: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(movies) == 0 {
			fmt.Fprintln(out, "No movies yet. Add one with 'moviesCLI add'.")
			return nil
		}

		rows := make([][]string, 0, len(movies))
		for _, m := range movies {
			rank := ""
			if m.Ranking != nil {
				rank = strconv.Itoa(*m.Ranking)
			}
			rows = append(rows, []string{
				rank,
				strconv.FormatInt(m.ID, 10),
				m.Title,
				strconv.Itoa(m.Year),
				web.RatingText(m),
				m.ReviewText(),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Rank", "ID", "Title", "Year", "Rating", "Review"},
			rows,
			[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
		))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one movie",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		var movie *models.Movie
		if apiURL != "" {
			movie, err = client.NewHTTPClient(apiURL).GetMovie(cmd.Context(), id)
		} else {
			s, serr := movieService(cmd)
			if serr != nil {
				return serr
			}
			movie, err = s.GetByID(cmd.Context(), id)
		}
		if err != nil {
			return fmt.Errorf("failed to get movie: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID: %d\n", movie.ID)
		fmt.Fprintf(out, "Title: %s (%d)\n", movie.Title, movie.Year)
		fmt.Fprintf(out, "Rating: %s\n", web.RatingText(*movie))
		if movie.Ranking != nil {
			fmt.Fprintf(out, "Ranking: %d\n", *movie.Ranking)
		}
		if review := movie.ReviewText(); review != "" {
			fmt.Fprintf(out, "Review: %s\n", review)
		}
		fmt.Fprintf(out, "Description: %s\n", movie.Description)
		fmt.Fprintf(out, "Poster: %s\n", movie.PosterURL)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add [provider-id]",
	Short: "Add a movie by its movie database id (see 'moviesCLI search')",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		providerID, err := parseID(args[0])
		if err != nil {
			return err
		}
		s, err := movieService(cmd)
		if err != nil {
			return err
		}

		movie, err := s.AddFromProvider(cmd.Context(), providerID)
		if err != nil {
			return fmt.Errorf("failed to add movie: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %q (%d) as movie %d. Rate it with 'moviesCLI rate %d <rating> <review>'.\n",
			movie.Title, movie.Year, movie.ID, movie.ID)
		return nil
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate [id] [rating] [review...]",
	Short: "Rate (0-10) and review a movie",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		sub, err := form.EditMovieForm().Validate(url.Values{
			"rating": {args[1]},
			"review": {strings.Join(args[2:], " ")},
		})
		if err != nil {
			return err
		}
		rating, review := sub.Decimal("rating"), sub.Text("review")

		s, err := movieService(cmd)
		if err != nil {
			return err
		}
		movie, err := s.UpdateRatingAndReview(cmd.Context(), id, 0, rating, review)
		if err != nil {
			return fmt.Errorf("failed to rate movie: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rated %q %s.\n", movie.Title, web.RatingText(*movie))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a movie",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		s, err := movieService(cmd)
		if err != nil {
			return err
		}
		if err := s.Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete movie: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted movie %d.\n", id)
		return nil
	},
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie ID %q", raw)
	}
	return id, nil
}

func init() {
	rootCmd.AddCommand(listCmd, showCmd, addCmd, rateCmd, deleteCmd)
}
