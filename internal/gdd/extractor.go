package gdd

import "sort"

// ExtractBudBreak scans each historical year's series in increasing day
// order and records the first day whose cumulative GDD reaches the variety's
// threshold. Years that never reach the threshold (truncated or cold
// seasons) are dropped from the observation set; no synthetic value is
// produced for them. Results are ordered by year.
func ExtractBudBreak(variety string, threshold float64, years []Series) []Observation {
	var obs []Observation
	for _, s := range years {
		for _, d := range s.Days {
			if d.Cumulative >= threshold {
				obs = append(obs, Observation{
					Variety:    variety,
					Year:       s.Year,
					DOY:        d.DOY,
					GDDAtBreak: d.Cumulative,
				})
				break
			}
		}
	}
	sort.Slice(obs, func(i, j int) bool { return obs[i].Year < obs[j].Year })
	return obs
}
