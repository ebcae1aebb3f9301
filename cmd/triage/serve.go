package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abatilo/triage/internal/server"
)

// serveCmd implements 'triage serve'.
func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if addr == "" {
				addr = cfg.Addr
			}
			holidays, err := cfg.Calendar()
			if err != nil {
				printError(err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.Options{
				Holidays:          holidays,
				DefaultStrategy:   cfg.Strategy,
				FallbackToDefault: cfg.FallbackEnabled(),
				SuggestLimit:      cfg.SuggestLimit,
				Now:               time.Now,
				Metrics:           metrics,
			})

			printOutput(formatter.FormatMessage("Listening on " + addr))
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				printError(err)
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}
