package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Log an overview of the catalog and data-quality checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := a.logger
			st, err := a.store.Stats(cmd.Context())
			if err != nil {
				logger.Error("Failed to gather stats", slog.Any("error", err))
				return err
			}

			logger.Info("=== CATALOG OVERVIEW ===")
			logger.Info("Catalog contents",
				slog.Int64("categories", st.TotalCategories),
				slog.Int64("shows", st.TotalShows),
				slog.Int64("episodes", st.TotalEpisodes),
				slog.Int64("favorites", st.TotalFavorites),
				slog.Int64("users", st.TotalUsers))
			for _, d := range st.CategoryDistribution {
				logger.Info("Category", slog.String("name", d.Category), slog.Int64("shows", d.Count))
			}

			logger.Info("=== DATA VALIDATION ===")
			logger.Info("Categories without shows", slog.Int64("count", st.EmptyCategories))
			logger.Info("Shows without a category", slog.Int64("count", st.ShowsWithoutCategory))
			logger.Info("Shows without episodes", slog.Int64("count", st.ShowsWithoutEpisodes))
			logger.Info("Episodes without a duration", slog.Int64("count", st.EpisodesWithoutDuration))

			if st.TotalShows == 0 {
				logger.Info("ISSUE: The catalog is empty")
				logger.Info("SOLUTION: Run `benflix seed` with TMDB_API_KEY set")
			}
			return nil
		},
	}
}
