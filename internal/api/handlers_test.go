package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Strangemortal/Holistiq/internal/domain"
	"github.com/Strangemortal/Holistiq/internal/persistence/memory"
)

var exportTime = time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)

func newTestServer(t *testing.T, repo domain.SessionRepository) *httptest.Server {
	t.Helper()
	svc := domain.NewService(repo, domain.WithClock(func() time.Time { return exportTime }))
	mux := http.NewServeMux()
	NewHandler(svc, log.New(testWriter{t}, "", 0)).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func TestRecordSessionUnifiedRoute(t *testing.T) {
	repo := memory.NewRepository()
	srv := newTestServer(t, repo)

	resp, body := postJSON(t, srv.URL+"/api/sessions",
		`{"surface":"meditation","activity_kind":"breathing","duration_minutes":12,"session_token":"0b5f2d1c-7a43-4f6b-9c1e-2d3f4a5b6c7d"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["success"])
	require.Equal(t, "Meditation saved successfully", body["message"])
	require.Equal(t, "0b5f2d1c-7a43-4f6b-9c1e-2d3f4a5b6c7d", body["session_id"])

	records, _, err := repo.ListBySurface(context.Background(), domain.SurfaceMeditation, nil, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 12, records[0].DurationMin)
}

func TestRecordSessionReplayDoesNotDuplicate(t *testing.T) {
	repo := memory.NewRepository()
	srv := newTestServer(t, repo)
	body := `{"surface":"workout","activity_kind":"cardio","duration_minutes":2,"session_token":"9a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"}`

	for i := 0; i < 2; i++ {
		resp, payload := postJSON(t, srv.URL+"/api/sessions", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "Workout saved successfully", payload["message"])
	}

	records, _, err := repo.ListBySurface(context.Background(), domain.SurfaceWorkout, nil, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestLegacyRoutes(t *testing.T) {
	repo := memory.NewRepository()
	srv := newTestServer(t, repo)

	resp, body := postJSON(t, srv.URL+"/api/save-workout", `{"exercise_type":"strength","duration":25}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Workout saved successfully", body["message"])
	require.NotEmpty(t, body["session_id"])

	resp, body = postJSON(t, srv.URL+"/api/save-meditation", `{"meditation_type":"mindfulness","duration":10}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Meditation saved successfully", body["message"])

	workouts, _, err := repo.ListBySurface(context.Background(), domain.SurfaceWorkout, nil, 10)
	require.NoError(t, err)
	require.Equal(t, "strength", workouts[0].ActivityKind)
}

func TestRecordSessionValidation(t *testing.T) {
	srv := newTestServer(t, memory.NewRepository())

	cases := []struct {
		name  string
		path  string
		body  string
		error string
	}{
		{"unknown surface", "/api/sessions", `{"surface":"sleep","duration_minutes":5}`, domain.ErrInvalidSurface.Error()},
		{"zero minutes", "/api/sessions", `{"surface":"workout","duration_minutes":0}`, domain.ErrInvalidDuration.Error()},
		{"legacy zero minutes", "/api/save-meditation", `{"meditation_type":"x","duration":0}`, domain.ErrInvalidDuration.Error()},
		{"malformed body", "/api/save-workout", `{"duration":`, "unable to parse body"},
		{"wrong type", "/api/save-workout", `{"duration":"ten"}`, "unable to parse body"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := postJSON(t, srv.URL+tc.path, tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Equal(t, false, body["success"])
			require.Equal(t, tc.error, body["error"])
		})
	}
}

func TestRecordSessionStorageFailure(t *testing.T) {
	srv := newTestServer(t, failingRepo{err: errors.New("connection refused")})

	resp, body := postJSON(t, srv.URL+"/api/sessions", `{"surface":"workout","duration_minutes":3}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, false, body["success"])
	require.Equal(t, "session could not be stored", body["error"])

	resp, body = postJSON(t, srv.URL+"/api/save-workout", `{"exercise_type":"run","duration":3}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, false, body["success"])
}

func TestListSessionsPaginates(t *testing.T) {
	repo := memory.NewRepository()
	base := time.Date(2026, 1, 1, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(context.Background(), domain.SessionRecord{
			ID:          string(rune('a' + i)),
			Surface:     domain.SurfaceWorkout,
			DurationMin: i + 1,
			RecordedAt:  base.Add(time.Duration(i) * time.Hour),
		}))
	}
	srv := newTestServer(t, repo)

	var page ListSessionsResponse
	getJSON(t, srv.URL+"/api/sessions?surface=workout&limit=2", &page)
	require.True(t, page.Success)
	require.Len(t, page.Items, 2)
	require.Equal(t, "c", page.Items[0].SessionID)
	require.Equal(t, "2026-01-01 09:00:00", page.Items[0].RecordedAt)
	require.NotEmpty(t, page.NextCursor)

	var rest ListSessionsResponse
	getJSON(t, srv.URL+"/api/sessions?surface=workout&limit=2&cursor="+page.NextCursor, &rest)
	require.Len(t, rest.Items, 1)
	require.Equal(t, "a", rest.Items[0].SessionID)
	require.Empty(t, rest.NextCursor)
}

func TestListSessionsRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, memory.NewRepository())

	for _, query := range []string{"surface=yoga", "surface=workout&cursor=bm90LWEtY3Vyc29y"} {
		resp, err := http.Get(srv.URL + "/api/sessions?" + query)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
	}
}

func TestReportsDataLimitsEachSurface(t *testing.T) {
	repo := memory.NewRepository()
	base := time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		require.NoError(t, repo.Create(context.Background(), domain.SessionRecord{
			ID:           string(rune('A' + i)),
			Surface:      domain.SurfaceWorkout,
			ActivityKind: "cardio",
			DurationMin:  5,
			RecordedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(context.Background(), domain.SessionRecord{
		ID: "m", Surface: domain.SurfaceMeditation, ActivityKind: "sleep", DurationMin: 20, RecordedAt: base,
	}))
	srv := newTestServer(t, repo)

	var report ReportsResponse
	getJSON(t, srv.URL+"/api/reports-data", &report)
	require.True(t, report.Success)
	require.Len(t, report.WorkoutRecords, 10)
	require.Equal(t, "2026-02-01 06:11:00", report.WorkoutRecords[0].Timestamp)
	require.Equal(t, "cardio", report.WorkoutRecords[0].ExerciseType)
	require.Len(t, report.MeditationRecords, 1)
	require.Equal(t, "sleep", report.MeditationRecords[0].MeditationType)
	require.Equal(t, 20, report.MeditationRecords[0].Duration)
}

func TestExportJSONIsAnAttachment(t *testing.T) {
	repo := memory.NewRepository()
	require.NoError(t, repo.Create(context.Background(), domain.SessionRecord{
		ID: "w", Surface: domain.SurfaceWorkout, ActivityKind: "hiit", DurationMin: 15, RecordedAt: exportTime.Add(-time.Hour),
	}))
	srv := newTestServer(t, repo)

	resp, err := http.Get(srv.URL + "/api/export-json")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `attachment; filename="health_report_20260314_092653.json"`, resp.Header.Get("Content-Disposition"))

	var doc ExportDocument
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	require.Equal(t, "2026-03-14 09:26:53", doc.ExportDate)
	require.Len(t, doc.WorkoutRecords, 1)
	require.NotNil(t, doc.MeditationRecords)
	require.Empty(t, doc.MeditationRecords)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, memory.NewRepository())

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/sessions", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/save-workout")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	rr := httptest.NewRecorder()
	healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func getJSON(t *testing.T, url string, dst any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

type failingRepo struct {
	err error
}

func (f failingRepo) Create(context.Context, domain.SessionRecord) error { return f.err }

func (f failingRepo) Get(context.Context, string) (domain.SessionRecord, error) {
	return domain.SessionRecord{}, f.err
}

func (f failingRepo) ListBySurface(context.Context, domain.Surface, *domain.Cursor, int) ([]domain.SessionRecord, *domain.Cursor, error) {
	return nil, nil, f.err
}

type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (int, error) {
	tw.t.Log(string(p))
	return len(p), nil
}
