package main

import (
	"github.com/spf13/cobra"

	"github.com/abatilo/triage/internal/rank"
)

// suggestCmd implements 'triage suggest'.
func suggestCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Show the top tasks from the last analysis",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			store, err := getStore()
			if err != nil {
				printError(err)
			}
			snap, err := store.LoadSnapshot()
			if err != nil {
				printError(err)
			}

			if limit == 0 {
				limit = cfg.SuggestLimit
			}
			suggestions, err := rank.Suggest(&snap.Result, limit)
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatSuggestions(suggestions))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of tasks to suggest (default from config, 3)")
	return cmd
}
