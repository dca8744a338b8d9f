package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/benflix/benflix/lib/lock"
	"github.com/benflix/benflix/lib/seed"
	"github.com/benflix/benflix/lib/tmdb"
	"github.com/spf13/cobra"
)

func newSeedCmd(a *app) *cobra.Command {
	var rps float64
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load popular TV shows from TMDB into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rps <= 0 {
				return fmt.Errorf("--rps must be positive, got %v", rps)
			}
			if err := a.cfg.ValidateSeed(); err != nil {
				return err
			}

			client := tmdb.NewClient(a.cfg.TMDB.APIKey, a.logger,
				tmdb.WithBaseURL(a.cfg.TMDB.BaseURL),
				tmdb.WithRateLimit(rps, 1))
			seeder := seed.New(a.store, client, a.logger,
				seed.WithMaxShows(a.cfg.Seed.MaxShows),
				seed.WithMaxEpisodes(a.cfg.Seed.MaxEpisodes),
				seed.WithLock(lock.NewFileLock(a.cfg.Seed.LockDir, a.logger)))

			summary, err := seeder.Run(cmd.Context())
			if err != nil {
				a.logger.Error("Seeding failed", slog.Any("error", err))
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
	cmd.Flags().Float64Var(&rps, "rps", 4, "maximum TMDB requests per second")
	return cmd
}
