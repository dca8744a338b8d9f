package types

// StatsData is an overview of the catalog contents plus data-quality checks.
type StatsData struct {
	TotalCategories         int64
	TotalShows              int64
	TotalEpisodes           int64
	TotalFavorites          int64
	TotalUsers              int64
	EmptyCategories         int64
	ShowsWithoutCategory    int64
	ShowsWithoutEpisodes    int64
	EpisodesWithoutDuration int64
	CategoryDistribution    []struct {
		Category string
		Count    int64
	}
}
