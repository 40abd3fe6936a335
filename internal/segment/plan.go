// Package segment computes the audio intervals to keep after ad removal.
package segment

import "sort"

// Interval is a half-open [Start, End) time range in seconds.
type Interval struct {
	Start float64
	End   float64
}

// Length returns the interval duration in seconds.
func (i Interval) Length() float64 {
	return i.End - i.Start
}

// Plan converts detected ad intervals into the ordered list of keep-intervals
// covering the rest of the audio. Ad intervals may arrive unsorted and
// overlapping; overlaps merge implicitly while walking. An empty result means
// the ads cover the entire duration.
func Plan(totalDuration float64, ads []Interval) []Interval {
	sorted := make([]Interval, len(ads))
	copy(sorted, ads)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	keep := make([]Interval, 0, len(sorted)+1)
	cursor := 0.0
	for _, ad := range sorted {
		if ad.Start > cursor {
			end := ad.Start
			if end > totalDuration {
				end = totalDuration
			}
			if end > cursor {
				keep = append(keep, Interval{Start: cursor, End: end})
			}
		}
		if ad.End > cursor {
			cursor = ad.End
		}
	}
	if cursor < totalDuration {
		keep = append(keep, Interval{Start: cursor, End: totalDuration})
	}
	return keep
}

// TotalLength sums the lengths of the supplied intervals.
func TotalLength(intervals []Interval) float64 {
	var total float64
	for _, iv := range intervals {
		total += iv.Length()
	}
	return total
}
