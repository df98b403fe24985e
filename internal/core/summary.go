package core

import "sort"

// RegionSummary aggregates regional stats for the export sheet.
type RegionSummary struct {
	Regions    int `json:"regions"`
	TotalUsers int `json:"total_users"`
	TotalLeaks int `json:"total_leaks"`
	// Health score averaged across regions, weighted by user count.
	WeightedHealth float64 `json:"weighted_health"`
	// Region with the most leaks per user; empty when no region has users.
	WorstRegion string `json:"worst_region"`
}

// SummarizeRegions folds stats into a RegionSummary. Regions with blank
// names are skipped.
func SummarizeRegions(stats []RegionalStat) RegionSummary {
	var (
		s         RegionSummary
		weighted  float64
		worstRate = -1.0
	)
	for _, r := range stats {
		if r.Validate() != nil {
			continue
		}
		s.Regions++
		s.TotalUsers += r.TotalUsers
		s.TotalLeaks += r.TotalLeaks
		weighted += r.AverageHealthScore * float64(r.TotalUsers)
		if r.TotalUsers > 0 {
			rate := float64(r.TotalLeaks) / float64(r.TotalUsers)
			if rate > worstRate {
				worstRate = rate
				s.WorstRegion = r.Region
			}
		}
	}
	if s.TotalUsers > 0 {
		s.WeightedHealth = weighted / float64(s.TotalUsers)
	}
	return s
}

// SortRegions orders stats by region name in place.
func SortRegions(stats []RegionalStat) {
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Region < stats[j].Region })
}
