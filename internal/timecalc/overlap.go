package timecalc

import (
	"sort"
)

// OverlapPair names two closed intervals whose ranges intersect. A starts no
// later than B.
type OverlapPair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// closedByStart returns the closed intervals sorted by start ascending.
// Running intervals never overlap anything since their end is unknown.
func closedByStart(ivs []Interval) []Interval {
	closed := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		if iv.End != nil {
			closed = append(closed, iv)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].Start.Before(closed[j].Start)
	})
	return closed
}

// OverlapPairs returns every pair of closed intervals where the later one
// starts strictly before the earlier one ends. Touching endpoints do not count.
func OverlapPairs(ivs []Interval) []OverlapPair {
	closed := closedByStart(ivs)
	var pairs []OverlapPair
	for i := 0; i < len(closed); i++ {
		for j := i + 1; j < len(closed); j++ {
			if !closed[j].Start.Before(*closed[i].End) {
				// Sorted by start: no later interval can overlap i either.
				break
			}
			pairs = append(pairs, OverlapPair{A: closed[i].ID, B: closed[j].ID})
		}
	}
	return pairs
}

// DetectOverlaps returns the IDs of all closed intervals that overlap at least
// one other closed interval. Both members of a pair are always included.
func DetectOverlaps(ivs []Interval) map[string]struct{} {
	set := make(map[string]struct{})
	for _, p := range OverlapPairs(ivs) {
		set[p.A] = struct{}{}
		set[p.B] = struct{}{}
	}
	return set
}

// SortedIDs returns the members of an ID set in ascending order.
func SortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LongDay is a day whose worked hours exceed a threshold.
type LongDay struct {
	DayKey string  `json:"day"`
	Hours  float64 `json:"hours"`
}

// DetectLongDays returns the days whose total strictly exceeds thresholdHours,
// newest first.
func DetectLongDays(dailyTotals map[string]int64, thresholdHours float64) []LongDay {
	var out []LongDay
	for day, secs := range dailyTotals {
		hours := float64(secs) / 3600
		if hours > thresholdHours {
			out = append(out, LongDay{DayKey: day, Hours: hours})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DayKey > out[j].DayKey
	})
	return out
}
