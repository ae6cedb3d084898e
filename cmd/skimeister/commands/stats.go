package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints how many resorts are stored and for which countries.",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeRepo, err := openRepository(cfg)
		if err != nil {
			return err
		}
		defer closeRepo()

		stats, err := repo.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Total resorts", "Countries"})
		t.AppendRow(table.Row{stats.TotalResorts, strings.Join(stats.Countries, ", ")})
		t.Render()
		return nil
	},
}
