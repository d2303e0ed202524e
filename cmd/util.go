package cmd

import (
	"strings"
	"time"

	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/report"
	"github.com/Tiliavir/worktime/internal/timecalc"
)

// projectNames maps the session user's project IDs to names.
func projectNames(s *session) (report.ProjectNames, error) {
	projects, err := s.store.ListProjects(s.ctx(), s.userID)
	if err != nil {
		return nil, err
	}
	names := make(report.ProjectNames, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return names, nil
}

// projectName returns the name of project id, or id itself when unknown.
func projectName(s *session, id string) string {
	p, err := s.store.GetProject(s.ctx(), s.userID, id)
	if err != nil {
		return id
	}
	return p.Name
}

// parseTags splits a comma-separated tag list.
func parseTags(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// parseDate parses a YYYY-MM-DD flag in the session zone. Empty means now.
func parseDate(s *session, flag, value string) (time.Time, error) {
	if value == "" {
		return s.now().In(s.loc), nil
	}
	t, err := timecalc.ParseDayKey(value, s.loc)
	if err != nil {
		return time.Time{}, usageError("invalid --%s value %q: %v", flag, value, err)
	}
	return t, nil
}

// parseAt parses an --at flag. Empty means now.
func parseAt(s *session, value string) (time.Time, error) {
	now := s.now()
	t, err := timecalc.ParseWhen(value, now, s.loc)
	if err != nil {
		return time.Time{}, usageError("invalid --at value %q: %v", value, err)
	}
	return t, nil
}

// elapsedOf returns the seconds an entry has accumulated at now.
func elapsedOf(s *session, e model.TimeEntry) int64 {
	iv, err := timecalc.Normalize(e, s.now(), s.loc)
	if err != nil {
		return 0
	}
	return iv.DurationSeconds
}
