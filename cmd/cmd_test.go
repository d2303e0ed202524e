package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/worktime/internal/config"
	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/report"
	"github.com/Tiliavir/worktime/internal/server"
	"github.com/Tiliavir/worktime/internal/storage"
)

// Wednesday of ISO week 2026-W09.
var testNow = time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC)

type testSession struct {
	*session
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestSession(t *testing.T) testSession {
	t.Helper()
	store, err := storage.Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.UpsertUser(context.Background(), &model.User{ID: "local"}))

	var stdout, stderr bytes.Buffer
	return testSession{
		session: &session{
			cfg:    config.Default(),
			store:  store,
			logger: zerolog.Nop(),
			userID: "local",
			loc:    time.UTC,
			now:    func() time.Time { return testNow },
			out:    &stdout,
			errOut: &stderr,
		},
		stdout: &stdout,
		stderr: &stderr,
	}
}

func (ts testSession) reset() {
	ts.stdout.Reset()
	ts.stderr.Reset()
}

func TestStartStop(t *testing.T) {
	ts := newTestSession(t)

	require.NoError(t, runStart(ts.session, "ECM", startOptions{task: "design", tags: "a, b", at: "08:00"}))
	assert.Equal(t, "Started timer for project \"ECM\" at 08:00:00\n", ts.stdout.String())

	ts.reset()
	require.NoError(t, runStart(ts.session, "Ops", startOptions{at: "09:00"}))
	assert.Contains(t, ts.stderr.String(), `auto-stopped active timer for project "ECM" after 1h 0m 0s`)

	ts.reset()
	require.NoError(t, runStop(ts.session, "done", "09:30"))
	assert.Equal(t, "Stopped timer for project \"Ops\". Elapsed: 30m 0s\n", ts.stdout.String())

	err := runStop(ts.session, "", "")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))

	entries, err := ts.store.ListEntries(context.Background(), storage.EntryFilter{UserID: "local"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"a", "b"}, entries[0].Tags)
	require.NotNil(t, entries[1].Comment)
	assert.Equal(t, "done", *entries[1].Comment)
}

func TestStartInvalidAt(t *testing.T) {
	ts := newTestSession(t)
	err := runStart(ts.session, "ECM", startOptions{at: "25:00"})
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestPauseResume(t *testing.T) {
	ts := newTestSession(t)

	require.NoError(t, runStart(ts.session, "ECM", startOptions{at: "08:00"}))
	ts.reset()
	require.NoError(t, runPause(ts.session, "09:00"))
	assert.Contains(t, ts.stdout.String(), `Paused timer for project "ECM" after 1h 0m 0s`)

	ts.reset()
	require.NoError(t, runResume(ts.session, "", ""))
	assert.Equal(t, "Resumed timer for project \"ECM\" (1h 0m 0s so far)\n", ts.stdout.String())

	ts.reset()
	require.NoError(t, runStop(ts.session, "", "10:30"))
	assert.Contains(t, ts.stdout.String(), "Elapsed: 1h 30m 0s")

	entries, err := ts.store.ListEntries(context.Background(), storage.EntryFilter{UserID: "local"})
	require.NoError(t, err)
	require.Len(t, entries, 1, "resume continues the same entry")
	assert.Equal(t, int64(5400), *entries[0].DurationSeconds)
}

func TestPauseWithoutTimer(t *testing.T) {
	ts := newTestSession(t)
	err := runPause(ts.session, "")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestResumeNothingToday(t *testing.T) {
	ts := newTestSession(t)
	err := runResume(ts.session, "", "")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))

	err = runResume(ts.session, "missing", "")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestStatus(t *testing.T) {
	ts := newTestSession(t)

	require.NoError(t, runStatus(ts.session))
	assert.Equal(t, "No active timer.\nToday: 0s of 7.40 h target (0%, under)\n", ts.stdout.String())

	require.NoError(t, runStart(ts.session, "ECM", startOptions{task: "design", at: "08:30"}))
	ts.reset()
	require.NoError(t, runStatus(ts.session))
	out := ts.stdout.String()
	assert.Contains(t, out, "Running:\n  Project: ECM\n  Task: design\n  Since: 08:30\n  Elapsed: 01:30:00\n")
	assert.Contains(t, out, "Today: 1h 30m of 7.40 h target (20%, under)")
}

// seedWeek stores two closed entries on Monday and Wednesday of the test week.
func seedWeek(t *testing.T, ts testSession) {
	t.Helper()
	ctx := context.Background()
	p, err := ts.store.EnsureProject(ctx, "local", "Acme, Inc")
	require.NoError(t, err)
	for _, span := range [][2]time.Time{
		{time.Date(2026, 2, 23, 8, 0, 0, 0, time.UTC), time.Date(2026, 2, 23, 9, 30, 0, 0, time.UTC)},
		{time.Date(2026, 2, 25, 8, 0, 0, 0, time.UTC), time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC)},
	} {
		end := span[1]
		require.NoError(t, ts.store.CreateEntry(ctx, &model.TimeEntry{
			UserID:    "local",
			ProjectID: p.ID,
			Task:      "design",
			Tags:      []string{"a", "b"},
			Start:     span[0],
			End:       &end,
		}))
	}
}

func TestReport(t *testing.T) {
	ts := newTestSession(t)
	seedWeek(t, ts)

	require.NoError(t, runReport(ts.session, report.RangeWeek, "", report.FormatMarkdown, nil, ""))
	out := ts.stdout.String()
	assert.Contains(t, out, "Week 2026-W09 (2026-02-23 to 2026-03-01)")
	assert.Contains(t, out, "Acme, Inc / design")
	assert.Contains(t, out, "2h 30m")

	ts.reset()
	require.NoError(t, runReport(ts.session, report.RangeDay, "2026-02-23", report.FormatCSV, nil, "Acme, Inc"))
	assert.Equal(t, "project,task,duration_minutes,entries,running\n\"Acme, Inc\",design,90,1,false\n", ts.stdout.String())

	ts.reset()
	require.NoError(t, runReport(ts.session, report.RangeDay, "2026-02-23", report.FormatMarkdown, nil, ""))
	assert.NotContains(t, ts.stdout.String(), "Long day:")

	ts.reset()
	require.NoError(t, runReport(ts.session, report.RangeDay, "2026-02-23", report.FormatMarkdown, hoursFlag(0), ""))
	assert.Contains(t, ts.stdout.String(), "Long day: 2026-02-23")
}

func hoursFlag(h float64) *float64 { return &h }

func TestReportErrors(t *testing.T) {
	ts := newTestSession(t)
	tests := []struct {
		name      string
		date      string
		format    string
		threshold *float64
		project   string
	}{
		{"bad date", "yesterday", "md", nil, ""},
		{"bad format", "", "xml", nil, ""},
		{"negative threshold", "", "md", hoursFlag(-1), ""},
		{"unknown project", "", "md", nil, "Nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runReport(ts.session, report.RangeWeek, tt.date, tt.format, tt.threshold, tt.project)
			require.Error(t, err)
			assert.Equal(t, 1, exitCode(err))
		})
	}
}

func TestList(t *testing.T) {
	ts := newTestSession(t)
	require.NoError(t, runList(ts.session, report.RangeDay))
	assert.Equal(t, "No entries found.\n", ts.stdout.String())

	seedWeek(t, ts)
	ts.reset()
	require.NoError(t, runList(ts.session, report.RangeWeek))
	assert.Equal(t,
		"2026-02-23\n08:00-09:30  Acme, Inc  design (1h 30m)\n"+
			"2026-02-25\n08:00-09:00  Acme, Inc  design (1h 0m)\n",
		ts.stdout.String())
}

func TestPrintListAcrossMidnight(t *testing.T) {
	start := time.Date(2026, 2, 23, 22, 0, 0, 0, time.UTC)
	end := start.Add(3*time.Hour + 30*time.Minute)
	d := int64(end.Sub(start) / time.Second)
	entries := []model.TimeEntry{{ProjectID: "p1", Task: "release", Start: start, End: &end, DurationSeconds: &d}}

	var buf bytes.Buffer
	printList(&buf, entries, report.ProjectNames{"p1": "Ops"}, time.UTC)
	assert.Equal(t, "2026-02-23\n22:00-2026-02-24 01:30  Ops  release (3h 30m)\n", buf.String())
}

func TestExportCSV(t *testing.T) {
	ts := newTestSession(t)
	seedWeek(t, ts)

	require.NoError(t, runExport(ts.session, report.FormatCSV, "2026-02-25", ""))
	assert.Equal(t,
		"date,project,task,comment,tags,start,end,duration_minutes,source\n"+
			"2026-02-25,\"Acme, Inc\",design,,a;b,2026-02-25T08:00:00Z,2026-02-25T09:00:00Z,60,manual\n",
		ts.stdout.String())

	err := runExport(ts.session, report.FormatCSV, "", "2026-02-25")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestSettings(t *testing.T) {
	ts := newTestSession(t)

	require.NoError(t, runSettingsShow(ts.session))
	assert.Contains(t, ts.stdout.String(), "Work hours per day:  07:24\n")

	err := runSettingsSet(ts.session, "8h", "")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))

	err = runSettingsSet(ts.session, "", "")
	require.Error(t, err)

	ts.reset()
	require.NoError(t, runSettingsSet(ts.session, "08:00", ""))
	assert.Contains(t, ts.stdout.String(), "Work hours per day:  08:00\nWork hours per week: 37:00\n")
	assert.Contains(t, ts.stdout.String(), "by local")

	st, err := ts.store.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "08:00", st.WorkHoursPerDay)
}

func TestUsers(t *testing.T) {
	ts := newTestSession(t)

	require.NoError(t, runUsersRole(ts.session, "local", model.RoleAdmin))
	assert.Equal(t, "User local is now admin\n", ts.stdout.String())

	ts.reset()
	require.NoError(t, runUsersList(ts.session))
	assert.Contains(t, ts.stdout.String(), "local")
	assert.Contains(t, ts.stdout.String(), "admin")

	assert.Equal(t, 1, exitCode(runUsersRole(ts.session, "ghost", model.RoleUser)))
	assert.Equal(t, 1, exitCode(runUsersRole(ts.session, "local", "owner")))
}

func TestToken(t *testing.T) {
	ts := newTestSession(t)
	assert.Equal(t, 1, exitCode(runToken(ts.session, "", "", "", time.Hour)))

	secret := "0123456789abcdef0123456789abcdef"
	ts.cfg.Auth.JWTSecret = secret
	require.NoError(t, runToken(ts.session, "", "alice@example.com", "", time.Hour))

	tok := bytes.TrimSpace(ts.stdout.Bytes())
	claims, err := server.ValidateToken(server.AuthConfig{Mode: server.AuthJWT, Secret: []byte(secret)}, string(tok))
	require.NoError(t, err)
	assert.Equal(t, "local", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestServerConfig(t *testing.T) {
	ts := newTestSession(t)
	ts.cfg.Auth.JWTSecret = "s3cret"
	ts.cfg.Auth.AdminUsers = []string{"alice"}

	cfg := serverConfig(ts.session, ":9999")
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, []byte("s3cret"), cfg.Auth.Secret)
	assert.Equal(t, []string{"alice"}, cfg.Auth.AdminUsers)
	require.NotNil(t, cfg.ThresholdHours)
	assert.Equal(t, float64(config.DefaultLongDayThresholdHours), *cfg.ThresholdHours)
	assert.Equal(t, time.UTC, cfg.Location)

	assert.Equal(t, ":8080", serverConfig(ts.session, "").ListenAddr)
}

func TestSyncWindow(t *testing.T) {
	ts := newTestSession(t)
	day := func(d, h, m, s int) time.Time { return time.Date(2026, 2, d, h, m, s, 0, time.UTC) }

	from, to, err := syncWindow(ts.session, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, day(25, 0, 0, 0), from)
	assert.Equal(t, day(26, 0, 0, 0), to)

	from, to, err = syncWindow(ts.session, "", "2026-02-20", "")
	require.NoError(t, err)
	assert.Equal(t, day(20, 0, 0, 0), from)
	assert.Equal(t, day(26, 0, 0, 0), to)

	from, _, err = syncWindow(ts.session, "2026-02-21", "", "")
	require.NoError(t, err)
	assert.Equal(t, day(21, 0, 0, 0), from)

	_, _, err = syncWindow(ts.session, "", "", "2026-02-21")
	assert.Equal(t, 1, exitCode(err))
	_, _, err = syncWindow(ts.session, "", "2026-02-22", "2026-02-21")
	assert.Equal(t, 1, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 1, exitCode(usageError("bad flag")))
	assert.Equal(t, 2, exitCode(storageError(storage.ErrConflict)))
	assert.Equal(t, 1, exitCode(context.Canceled))
	assert.ErrorIs(t, storageError(storage.ErrConflict), storage.ErrConflict)
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{}, parseTags(""))
	assert.Equal(t, []string{"a", "b"}, parseTags(" a, ,b "))
}
