package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/report"
	"github.com/Tiliavir/worktime/internal/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testNow = time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC)

// testServer creates a server over an in-memory store with a fixed clock.
func testServer(t *testing.T, auth AuthConfig) (*Server, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	threshold := 9.0
	srv := NewServer(Config{
		Auth:           auth,
		Location:       time.UTC,
		ThresholdHours: &threshold,
	}, store, nil, zerolog.Nop())
	srv.now = func() time.Time { return testNow }
	return srv, store
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func as(user string) map[string]string {
	return map[string]string{"X-User-ID": user}
}

func bearer(t *testing.T, claims *Claims) map[string]string {
	t.Helper()
	token, err := IssueToken([]byte(testSecret), claims, time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func createProject(t *testing.T, app *fiber.App, user, name string) model.Project {
	t.Helper()
	resp := do(t, app, "POST", "/api/v1/projects", `{"name":"`+name+`"}`, as(user))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p model.Project
	decode(t, resp, &p)
	return p
}

func TestServer_Probes(t *testing.T) {
	srv, _ := testServer(t, AuthConfig{Mode: AuthJWT, Secret: []byte(testSecret)})
	app := srv.App()

	resp := do(t, app, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])

	resp = do(t, app, "GET", "/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, app, "GET", "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "worktime_timers_started_total")

	assert.NotEmpty(t, do(t, app, "GET", "/health", "", nil).Header.Get("X-Request-ID"))
}

func TestServer_UnknownRoute(t *testing.T) {
	srv, _ := testServer(t, AuthConfig{Mode: AuthNone})
	resp := do(t, srv.App(), "GET", "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var problem ProblemDetail
	decode(t, resp, &problem)
	assert.Equal(t, http.StatusNotFound, problem.Status)
}

func TestServer_Projects(t *testing.T) {
	srv, _ := testServer(t, AuthConfig{Mode: AuthNone})
	app := srv.App()

	p := createProject(t, app, "alice", "ECM")
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "alice", p.UserID)

	resp := do(t, app, "POST", "/api/v1/projects", `{"name":"ECM"}`, as("alice"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, app, "POST", "/api/v1/projects", `{"color":"red"}`, as("alice"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var problem ProblemDetail
	decode(t, resp, &problem)
	assert.Equal(t, "missing_name", problem.Type)

	// Other users cannot see it.
	resp = do(t, app, "GET", "/api/v1/projects/"+p.ID, "", as("bob"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, app, "PATCH", "/api/v1/projects/"+p.ID, `{"color":"#ff0000","archived":true}`, as("alice"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated model.Project
	decode(t, resp, &updated)
	assert.Equal(t, "ECM", updated.Name)
	assert.Equal(t, "#ff0000", updated.Color)
	assert.True(t, updated.Archived)

	resp = do(t, app, "GET", "/api/v1/projects", "", as("alice"))
	var list []model.Project
	decode(t, resp, &list)
	assert.Len(t, list, 1)

	resp = do(t, app, "DELETE", "/api/v1/projects/"+p.ID, "", as("alice"))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, app, "DELETE", "/api/v1/projects/"+p.ID, "", as("alice"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Entries(t *testing.T) {
	srv, _ := testServer(t, AuthConfig{Mode: AuthNone})
	app := srv.App()
	p := createProject(t, app, "alice", "ECM")

	body := `{"project_id":"` + p.ID + `","task":"design","tags":["x"],` +
		`"start":"2026-02-25T09:00:00Z","end":"2026-02-25T10:30:00Z"}`
	resp := do(t, app, "POST", "/api/v1/time-entries", body, as("alice"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var e model.TimeEntry
	decode(t, resp, &e)
	require.NotNil(t, e.DurationSeconds)
	assert.Equal(t, int64(5400), *e.DurationSeconds)
	assert.False(t, e.IsRunning)
	assert.Equal(t, model.SourceManual, e.Source)

	// End before start.
	bad := `{"project_id":"` + p.ID + `","start":"2026-02-25T11:00:00Z","end":"2026-02-25T10:00:00Z"}`
	resp = do(t, app, "POST", "/api/v1/time-entries", bad, as("alice"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Someone else's project.
	resp = do(t, app, "POST", "/api/v1/time-entries", body, as("bob"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, "PATCH", "/api/v1/time-entries/"+e.ID, `{"end":"2026-02-25T11:00:00Z","comment":"done"}`, as("alice"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var patched model.TimeEntry
	decode(t, resp, &patched)
	assert.Equal(t, int64(7200), *patched.DurationSeconds)
	assert.Equal(t, "done", *patched.Comment)

	resp = do(t, app, "GET", "/api/v1/time-entries?from=2026-02-25&to=2026-02-25", "", as("alice"))
	var list []model.TimeEntry
	decode(t, resp, &list)
	assert.Len(t, list, 1)

	resp = do(t, app, "GET", "/api/v1/time-entries?from=2026-02-26", "", as("alice"))
	decode(t, resp, &list)
	assert.Empty(t, list)

	resp = do(t, app, "GET", "/api/v1/time-entries?from=yesterday", "", as("alice"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, "DELETE", "/api/v1/time-entries/"+e.ID, "", as("alice"))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, app, "GET", "/api/v1/time-entries/"+e.ID, "", as("alice"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_TimerFlow(t *testing.T) {
	srv, _ := testServer(t, AuthConfig{Mode: AuthNone})
	app := srv.App()

	resp := do(t, app, "GET", "/api/v1/time-entries/running", "", as("alice"))
	var running runningResponse
	decode(t, resp, &running)
	assert.Nil(t, running.Entry)

	resp = do(t, app, "POST", "/api/v1/time-entries/start",
		`{"project":"ECM","task":"design","at":"2026-02-25T11:30:00Z"}`, as("alice"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var started startResponse
	decode(t, resp, &started)
	require.NotNil(t, started.Entry)
	assert.True(t, started.Entry.IsRunning)
	assert.Nil(t, started.Stopped)
	first := started.Entry.ID

	resp = do(t, app, "GET", "/api/v1/time-entries/running", "", as("alice"))
	decode(t, resp, &running)
	require.NotNil(t, running.Entry)
	assert.Equal(t, first, running.Entry.ID)
	assert.Equal(t, int64(1800), running.ElapsedSeconds)

	// Starting again stops the first timer.
	resp = do(t, app, "POST", "/api/v1/time-entries/start",
		`{"project":"ECM","task":"review","at":"2026-02-25T11:45:00Z"}`, as("alice"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &started)
	require.NotNil(t, started.Stopped)
	assert.Equal(t, first, started.Stopped.ID)
	assert.Equal(t, int64(900), *started.Stopped.DurationSeconds)

	resp = do(t, app, "POST", "/api/v1/time-entries/pause", "", as("alice"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var paused model.TimeEntry
	decode(t, resp, &paused)
	assert.False(t, paused.IsRunning)
	assert.Equal(t, int64(900), *paused.DurationSeconds)

	resp = do(t, app, "POST", "/api/v1/time-entries/stop", "", as("alice"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, app, "POST", "/api/v1/time-entries/"+first+"/resume", "", as("alice"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var resumed model.TimeEntry
	decode(t, resp, &resumed)
	assert.True(t, resumed.IsRunning)
	assert.Equal(t, int64(900), *resumed.DurationSeconds)

	resp = do(t, app, "POST", "/api/v1/time-entries/stop",
		`{"comment":"wrap up","at":"2026-02-25T12:30:00Z"}`, as("alice"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stopped model.TimeEntry
	decode(t, resp, &stopped)
	// 15 minutes before the pause plus 30 minutes after resuming.
	assert.Equal(t, int64(2700), *stopped.DurationSeconds)
	assert.Equal(t, "wrap up", *stopped.Comment)

	resp = do(t, app, "POST", "/api/v1/time-entries/start", `{"task":"x"}`, as("alice"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_PatchResumedEntry(t *testing.T) {
	srv, _ := testServer(t, AuthConfig{Mode: AuthNone})
	app := srv.App()

	resp := do(t, app, "POST", "/api/v1/time-entries/start",
		`{"project":"ECM","at":"2026-02-25T09:00:00Z"}`, as("alice"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var started startResponse
	decode(t, resp, &started)
	id := started.Entry.ID

	resp = do(t, app, "POST", "/api/v1/time-entries/pause", `{"at":"2026-02-25T10:00:00Z"}`, as("alice"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, app, "POST", "/api/v1/time-entries/"+id+"/resume", `{"at":"2026-02-25T11:00:00Z"}`, as("alice"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Ending the running entry keeps the hour logged before the pause.
	resp = do(t, app, "PATCH", "/api/v1/time-entries/"+id, `{"end":"2026-02-25T11:30:00Z"}`, as("alice"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var e model.TimeEntry
	decode(t, resp, &e)
	assert.False(t, e.IsRunning)
	require.NotNil(t, e.DurationSeconds)
	assert.Equal(t, int64(5400), *e.DurationSeconds)

	resp = do(t, app, "GET", "/api/v1/time-entries/running", "", as("alice"))
	var running runningResponse
	decode(t, resp, &running)
	assert.Nil(t, running.Entry)

	// Moving the start of the closed entry shifts only the current span.
	resp = do(t, app, "PATCH", "/api/v1/time-entries/"+id, `{"start":"2026-02-25T11:15:00Z"}`, as("alice"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &e)
	assert.Equal(t, int64(4500), *e.DurationSeconds)

	resp = do(t, app, "PATCH", "/api/v1/time-entries/"+id, `{"end":"2026-02-25T11:00:00Z"}`, as("alice"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Stats(t *testing.T) {
	srv, store := testServer(t, AuthConfig{Mode: AuthNone})
	app := srv.App()
	ctx := context.Background()
	p := createProject(t, app, "alice", "ECM")

	add := func(start, end time.Time) {
		e := &model.TimeEntry{UserID: "alice", ProjectID: p.ID, Task: "design", Start: start, End: &end}
		require.NoError(t, store.CreateEntry(ctx, e))
	}
	day := func(d, h, m int) time.Time { return time.Date(2026, 2, d, h, m, 0, 0, time.UTC) }

	add(day(25, 9, 0), day(25, 10, 0))
	add(day(25, 9, 30), day(25, 11, 0))
	add(day(24, 8, 0), day(24, 18, 0))
	add(day(28, 10, 0), day(28, 12, 0))
	_, err := store.StartTimer(ctx, &model.TimeEntry{UserID: "alice", ProjectID: p.ID, Task: "design", Start: day(25, 11, 30)})
	require.NoError(t, err)

	resp := do(t, app, "GET", "/api/v1/time-entries/stats?range=week&date=2026-02-25&tz=UTC", "", as("alice"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var s report.Summary
	decode(t, resp, &s)

	assert.Equal(t, "2026-W09", s.Week)
	require.Len(t, s.Days, 7)
	assert.True(t, s.IsRunning)
	assert.Equal(t, 1, s.OverlapPairs)
	require.Len(t, s.LongDays, 1)
	assert.Equal(t, "2026-02-24", s.LongDays[0].DayKey)

	saturday := s.Days[1]
	assert.Equal(t, "2026-02-28", saturday.Day)
	assert.Equal(t, "exceeded", saturday.Progress.Status)

	wed := s.Days[4]
	assert.Equal(t, "2026-02-25", wed.Day)
	// 1h + 1.5h closed, 30m running at the fixed clock.
	assert.Equal(t, int64(10800), wed.TotalDurationSeconds)
	require.Len(t, wed.Groups, 1)
	assert.Equal(t, 3, wed.Groups[0].EntryCount)

	resp = do(t, app, "GET", "/api/v1/time-entries/stats?range=day&date=2026-02-25&threshold=2", "", as("alice"))
	decode(t, resp, &s)
	require.Len(t, s.Days, 1)
	assert.True(t, s.Days[0].LongDay)

	// A zero threshold flags every day with worked time.
	resp = do(t, app, "GET", "/api/v1/time-entries/stats?range=day&date=2026-02-28&threshold=0", "", as("alice"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &s)
	assert.Equal(t, 0.0, s.ThresholdHours)
	require.Len(t, s.Days, 1)
	assert.True(t, s.Days[0].LongDay)
	require.Len(t, s.LongDays, 1)
	assert.Equal(t, "2026-02-28", s.LongDays[0].DayKey)

	resp = do(t, app, "GET", "/api/v1/time-entries/stats?range=day&date=2026-02-28", "", as("alice"))
	decode(t, resp, &s)
	assert.Equal(t, 9.0, s.ThresholdHours)
	assert.Empty(t, s.LongDays)

	resp = do(t, app, "GET", "/api/v1/time-entries/stats?threshold=NaN", "", as("alice"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = do(t, app, "GET", "/api/v1/time-entries/stats?range=month", "", as("alice"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = do(t, app, "GET", "/api/v1/time-entries/stats?tz=Mars/Olympus", "", as("alice"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = do(t, app, "GET", "/api/v1/time-entries/stats?threshold=-1", "", as("alice"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Settings(t *testing.T) {
	srv, _ := testServer(t, AuthConfig{Mode: AuthNone})
	app := srv.App()

	resp := do(t, app, "GET", "/api/v1/settings", "", nil)
	var st model.SiteSettings
	decode(t, resp, &st)
	assert.Equal(t, model.DefaultWorkHoursPerDay, st.WorkHoursPerDay)

	resp = do(t, app, "PUT", "/api/v1/settings", `{"work_hours_per_day":"08:00","work_hours_per_week":"40:00"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &st)
	assert.Equal(t, DefaultUserID, st.UpdatedBy)

	resp = do(t, app, "PUT", "/api/v1/settings", `{"work_hours_per_day":"8h","work_hours_per_week":"40:00"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, app, "GET", "/api/v1/settings", "", nil)
	decode(t, resp, &st)
	assert.Equal(t, "08:00", st.WorkHoursPerDay)
}

func TestServer_NoAuthAdminIsNotStored(t *testing.T) {
	srv, store := testServer(t, AuthConfig{Mode: AuthNone})
	app := srv.App()
	ctx := context.Background()

	resp := do(t, app, "GET", "/api/v1/me", "", as("bob"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me model.User
	decode(t, resp, &me)
	assert.Equal(t, model.RoleAdmin, me.Role)

	stored, err := store.GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, stored.Role)

	// The same store served in jwt mode does not inherit the dev admin.
	threshold := 9.0
	jwtSrv := NewServer(Config{
		Auth:           AuthConfig{Mode: AuthJWT, Secret: []byte(testSecret)},
		Location:       time.UTC,
		ThresholdHours: &threshold,
	}, store, nil, zerolog.Nop())
	bob := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "bob"}}
	resp = do(t, jwtSrv.App(), "GET", "/api/v1/me", "", bearer(t, bob))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &me)
	assert.Equal(t, model.RoleUser, me.Role)
	resp = do(t, jwtSrv.App(), "GET", "/api/v1/users", "", bearer(t, bob))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Dev requests do not undo a demotion.
	require.NoError(t, store.SetUserRole(ctx, "bob", model.RoleAdmin))
	do(t, app, "GET", "/api/v1/me", "", as("bob"))
	require.NoError(t, store.SetUserRole(ctx, "bob", model.RoleUser))
	do(t, app, "GET", "/api/v1/me", "", as("bob"))
	stored, err = store.GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, stored.Role)
}

func TestServer_JWTAuth(t *testing.T) {
	srv, _ := testServer(t, AuthConfig{
		Mode:       AuthJWT,
		Secret:     []byte(testSecret),
		Issuer:     "https://id.example.com",
		AdminUsers: []string{"root"},
	})
	app := srv.App()

	resp := do(t, app, "GET", "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var problem ProblemDetail
	decode(t, resp, &problem)
	assert.Equal(t, "missing_auth", problem.Type)

	resp = do(t, app, "GET", "/api/v1/me", "", map[string]string{"Authorization": "Basic abc"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, app, "GET", "/api/v1/me", "", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// X-User-ID is ignored in jwt mode.
	resp = do(t, app, "GET", "/api/v1/me", "", as("alice"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	alice := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", Issuer: "https://id.example.com"},
		Email:            "alice@example.com",
		Name:             "Alice",
	}
	resp = do(t, app, "GET", "/api/v1/me", "", bearer(t, alice))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me model.User
	decode(t, resp, &me)
	assert.Equal(t, "alice", me.ID)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, model.RoleUser, me.Role)

	resp = do(t, app, "PUT", "/api/v1/settings", `{"work_hours_per_day":"08:00","work_hours_per_week":"40:00"}`, bearer(t, alice))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = do(t, app, "GET", "/api/v1/users", "", bearer(t, alice))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	wrongIssuer := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", Issuer: "https://evil.example.com"}}
	resp = do(t, app, "GET", "/api/v1/me", "", bearer(t, wrongIssuer))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	root := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "root", Issuer: "https://id.example.com"}}
	resp = do(t, app, "GET", "/api/v1/users", "", bearer(t, root))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var users []model.User
	decode(t, resp, &users)
	assert.Len(t, users, 2)

	resp = do(t, app, "PATCH", "/api/v1/users/alice/role", `{"role":"admin"}`, bearer(t, root))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var promoted model.User
	decode(t, resp, &promoted)
	assert.Equal(t, model.RoleAdmin, promoted.Role)

	resp = do(t, app, "PATCH", "/api/v1/users/alice/role", `{"role":"owner"}`, bearer(t, root))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = do(t, app, "PATCH", "/api/v1/users/nobody/role", `{"role":"user"}`, bearer(t, root))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestValidateToken(t *testing.T) {
	cfg := AuthConfig{Mode: AuthJWT, Secret: []byte(testSecret)}

	token, err := IssueToken(cfg.Secret, &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}}, time.Hour)
	require.NoError(t, err)
	claims, err := ValidateToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)

	// Expired.
	token, err = IssueToken(cfg.Secret, &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}}, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(cfg, token)
	assert.Error(t, err)

	// Missing subject.
	token, err = IssueToken(cfg.Secret, &Claims{}, time.Hour)
	require.NoError(t, err)
	_, err = ValidateToken(cfg, token)
	assert.Error(t, err)

	// Wrong secret.
	token, err = IssueToken([]byte("another-secret-another-secret-xx"), &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}}, time.Hour)
	require.NoError(t, err)
	_, err = ValidateToken(cfg, token)
	assert.Error(t, err)

	// Unsigned tokens are rejected.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ValidateToken(cfg, unsigned)
	assert.Error(t, err)
}
