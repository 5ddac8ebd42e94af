package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [title]",
	Short: "Search the movie database by title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.TrimSpace(strings.Join(args, " "))
		if title == "" {
			return fmt.Errorf("title must not be empty")
		}
		s, err := movieService(cmd)
		if err != nil {
			return err
		}

		results, err := s.SearchCandidates(cmd.Context(), title)
		if err != nil {
			return fmt.Errorf("failed to search: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintf(out, "No movies found for %q.\n", title)
			return nil
		}

		rows := make([][]string, 0, len(results))
		for _, r := range results {
			rows = append(rows, []string{strconv.FormatInt(r.ID, 10), r.Title, r.ReleaseDate})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Provider ID", "Title", "Released"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft},
		))
		fmt.Fprintln(out, "Add one with 'moviesCLI add <provider-id>'.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
