package catalog

import (
	"fmt"

	"github.com/benflix/benflix/models"
)

// EpisodeSummary is the header line of a show's episode list.
type EpisodeSummary struct {
	Count        int    `json:"count"`
	TotalMinutes int    `json:"total_minutes"`
	Formatted    string `json:"formatted"`
}

// TotalDuration sums episode durations in minutes; a missing duration
// counts as zero.
func TotalDuration(episodes []models.Episode) int {
	total := 0
	for _, ep := range episodes {
		if ep.Duration != nil {
			total += *ep.Duration
		}
	}
	return total
}

// FormatDuration renders minutes as "Hh Mm", e.g. 125 -> "2h 5m".
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func Summarize(episodes []models.Episode) EpisodeSummary {
	total := TotalDuration(episodes)
	return EpisodeSummary{
		Count:        len(episodes),
		TotalMinutes: total,
		Formatted:    FormatDuration(total),
	}
}
