package timecalc

import (
	"sort"
	"strings"
	"time"
)

// NoTaskKey is the task key of entries with an empty (or blank) task.
const NoTaskKey = "no-task"

// Group aggregates intervals sharing a key: a project/task pair or a day.
type Group struct {
	Key                  string     `json:"key"`
	ProjectID            string     `json:"project_id,omitempty"`
	Task                 string     `json:"task,omitempty"`
	TotalDurationSeconds int64      `json:"total_duration_seconds"`
	EntryCount           int        `json:"entry_count"`
	IsRunning            bool       `json:"is_running"`
	LatestStart          time.Time  `json:"latest_start"`
	Entries              []Interval `json:"entries"`
}

func (g *Group) add(iv Interval) {
	g.TotalDurationSeconds += iv.DurationSeconds
	g.EntryCount++
	if iv.Running() {
		g.IsRunning = true
	}
	if g.EntryCount == 1 || iv.Start.After(g.LatestStart) {
		g.LatestStart = iv.Start
	}
	g.Entries = append(g.Entries, iv)
}

// TaskKey returns the grouping key of a task label.
func TaskKey(task string) string {
	t := strings.TrimSpace(task)
	if t == "" {
		return NoTaskKey
	}
	return t
}

type projectTask struct {
	project string
	task    string
}

// GroupByProjectAndTask buckets intervals by project and trimmed task label.
// Groups are ordered by their most recent start, newest first; groups with the
// same latest start keep the order in which they were first seen. Members are
// ordered newest first.
func GroupByProjectAndTask(ivs []Interval) []Group {
	index := make(map[projectTask]int)
	groups := make([]Group, 0)

	for _, iv := range ivs {
		k := projectTask{project: iv.ProjectID, task: TaskKey(iv.Task)}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{
				Key:       k.project + "/" + k.task,
				ProjectID: k.project,
				Task:      k.task,
			})
		}
		groups[i].add(iv)
	}

	for i := range groups {
		sortNewestFirst(groups[i].Entries)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].LatestStart.After(groups[j].LatestStart)
	})
	return groups
}

// GroupByDay buckets intervals by their day key.
func GroupByDay(ivs []Interval) map[string]Group {
	days := make(map[string]*Group)
	for _, iv := range ivs {
		g, ok := days[iv.DayKey]
		if !ok {
			g = &Group{Key: iv.DayKey}
			days[iv.DayKey] = g
		}
		g.add(iv)
	}

	out := make(map[string]Group, len(days))
	for k, g := range days {
		sortNewestFirst(g.Entries)
		out[k] = *g
	}
	return out
}

// DayKeys returns the keys of days sorted newest first.
func DayKeys(days map[string]Group) []string {
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	// Day keys are ISO dates, so string order is date order.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

// DailyTotals returns the summed seconds per day.
func DailyTotals(days map[string]Group) map[string]int64 {
	totals := make(map[string]int64, len(days))
	for k, g := range days {
		totals[k] = g.TotalDurationSeconds
	}
	return totals
}

func sortNewestFirst(ivs []Interval) {
	sort.SliceStable(ivs, func(i, j int) bool {
		return ivs[i].Start.After(ivs[j].Start)
	})
}
