// Package api exposes the HTTP endpoints the timer views commit sessions to.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Strangemortal/Holistiq/internal/domain"
	"github.com/Strangemortal/Holistiq/internal/observability"
	"github.com/Strangemortal/Holistiq/internal/persistence"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	reportLimit      = 10

	legacyTimestamp = "2006-01-02 15:04:05"
	exportFileStamp = "20060102_150405"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  *log.Logger
}

// NewHandler builds a Handler. A nil logger uses the standard logger.
func NewHandler(service *domain.Service, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(log.Writer(), "[api] ", log.LstdFlags)
	}
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/sessions", h.sessions)
	mux.HandleFunc("/api/save-workout", h.saveWorkout)
	mux.HandleFunc("/api/save-meditation", h.saveMeditation)
	mux.HandleFunc("/api/reports-data", h.reportsData)
	mux.HandleFunc("/api/export-json", h.exportJSON)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) sessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req RecordSessionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		h.record(w, r, domain.RecordSessionInput{
			Token:        req.SessionToken,
			Surface:      domain.Surface(strings.TrimSpace(req.Surface)),
			ActivityKind: req.ActivityKind,
			DurationMin:  req.DurationMinutes,
		}, "")
	case http.MethodGet:
		h.listSessions(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
	}
}

func (h *Handler) saveWorkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}
	var req SaveWorkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.record(w, r, domain.RecordSessionInput{
		Surface:      domain.SurfaceWorkout,
		ActivityKind: req.ExerciseType,
		DurationMin:  req.Duration,
	}, "Workout saved successfully")
}

func (h *Handler) saveMeditation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}
	var req SaveMeditationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.record(w, r, domain.RecordSessionInput{
		Surface:      domain.SurfaceMeditation,
		ActivityKind: req.MeditationType,
		DurationMin:  req.Duration,
	}, "Meditation saved successfully")
}

// record stores input and acknowledges it with message, or with the surface's
// default message when message is empty.
func (h *Handler) record(w http.ResponseWriter, r *http.Request, input domain.RecordSessionInput, message string) {
	rec, err := h.service.RecordSession(r.Context(), input)
	switch {
	case errors.Is(err, domain.ErrInvalidSurface):
		observability.RecordSessionRejected("invalid_surface")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrInvalidDuration):
		observability.RecordSessionRejected("invalid_duration")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		observability.RecordSessionRejected("storage")
		h.logger.Printf("record %s session: %v", input.Surface, err)
		writeError(w, http.StatusInternalServerError, "session could not be stored")
		return
	}

	observability.RecordSessionAccepted(string(rec.Surface))
	if message == "" {
		message = savedMessage(rec.Surface)
	}
	writeJSON(w, http.StatusOK, RecordSessionResponse{
		Success:   true,
		Message:   message,
		SessionID: rec.ID,
	})
}

func savedMessage(surface domain.Surface) string {
	if surface == domain.SurfaceMeditation {
		return "Meditation saved successfully"
	}
	return "Workout saved successfully"
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	surface := domain.Surface(r.URL.Query().Get("surface"))
	if !surface.Valid() {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidSurface.Error())
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cursor")
		return
	}

	records, next, err := h.service.ListSessions(r.Context(), surface, cursor, limit)
	if err != nil {
		h.logger.Printf("list %s sessions: %v", surface, err)
		writeError(w, http.StatusInternalServerError, "sessions could not be loaded")
		return
	}

	items := make([]SessionView, 0, len(records))
	for _, rec := range records {
		items = append(items, toSessionView(rec))
	}
	writeJSON(w, http.StatusOK, ListSessionsResponse{
		Success:    true,
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) reportsData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	report, err := h.service.Reports(r.Context(), reportLimit)
	if err != nil {
		h.logger.Printf("reports: %v", err)
		writeError(w, http.StatusInternalServerError, "reports could not be loaded")
		return
	}

	writeJSON(w, http.StatusOK, ReportsResponse{
		Success:           true,
		WorkoutRecords:    toWorkoutViews(report.Sessions[domain.SurfaceWorkout]),
		MeditationRecords: toMeditationViews(report.Sessions[domain.SurfaceMeditation]),
	})
}

func (h *Handler) exportJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	report, err := h.service.Export(r.Context())
	if err != nil {
		h.logger.Printf("export: %v", err)
		writeError(w, http.StatusInternalServerError, "export could not be generated")
		return
	}

	body, err := json.MarshalIndent(ExportDocument{
		ExportDate:        report.GeneratedAt.Format(legacyTimestamp),
		WorkoutRecords:    toWorkoutViews(report.Sessions[domain.SurfaceWorkout]),
		MeditationRecords: toMeditationViews(report.Sessions[domain.SurfaceMeditation]),
	}, "", "  ")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := fmt.Sprintf("health_report_%s.json", report.GeneratedAt.Format(exportFileStamp))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// RecordSessionRequest is the payload for POST /api/sessions.
type RecordSessionRequest struct {
	Surface         string `json:"surface"`
	ActivityKind    string `json:"activity_kind"`
	DurationMinutes int    `json:"duration_minutes"`
	SessionToken    string `json:"session_token"`
}

// SaveWorkoutRequest is the payload for POST /api/save-workout.
type SaveWorkoutRequest struct {
	ExerciseType string `json:"exercise_type"`
	Duration     int    `json:"duration"`
}

// SaveMeditationRequest is the payload for POST /api/save-meditation.
type SaveMeditationRequest struct {
	MeditationType string `json:"meditation_type"`
	Duration       int    `json:"duration"`
}

// RecordSessionResponse acknowledges a stored session.
type RecordSessionResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// SessionView exposes a stored session.
type SessionView struct {
	SessionID       string `json:"session_id"`
	Surface         string `json:"surface"`
	ActivityKind    string `json:"activity_kind"`
	DurationMinutes int    `json:"duration_minutes"`
	RecordedAt      string `json:"recorded_at"`
}

// ListSessionsResponse packages list results.
type ListSessionsResponse struct {
	Success    bool          `json:"success"`
	Items      []SessionView `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// WorkoutView is the report shape of a workout session.
type WorkoutView struct {
	ID           string `json:"id"`
	ExerciseType string `json:"exercise_type"`
	Duration     int    `json:"duration"`
	Timestamp    string `json:"timestamp"`
}

// MeditationView is the report shape of a meditation session.
type MeditationView struct {
	ID             string `json:"id"`
	MeditationType string `json:"meditation_type"`
	Duration       int    `json:"duration"`
	Timestamp      string `json:"timestamp"`
}

// ReportsResponse lists the most recent sessions of each surface.
type ReportsResponse struct {
	Success           bool             `json:"success"`
	WorkoutRecords    []WorkoutView    `json:"workout_records"`
	MeditationRecords []MeditationView `json:"meditation_records"`
}

// ExportDocument is the downloadable report.
type ExportDocument struct {
	ExportDate        string           `json:"export_date"`
	WorkoutRecords    []WorkoutView    `json:"workout_records"`
	MeditationRecords []MeditationView `json:"meditation_records"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		observability.RecordSessionRejected("invalid_body")
		writeError(w, http.StatusBadRequest, "unable to parse body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Success: false, Error: detail})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toSessionView(rec domain.SessionRecord) SessionView {
	return SessionView{
		SessionID:       rec.ID,
		Surface:         string(rec.Surface),
		ActivityKind:    rec.ActivityKind,
		DurationMinutes: rec.DurationMin,
		RecordedAt:      rec.RecordedAt.UTC().Format(legacyTimestamp),
	}
}

func toWorkoutViews(records []domain.SessionRecord) []WorkoutView {
	out := make([]WorkoutView, 0, len(records))
	for _, rec := range records {
		out = append(out, WorkoutView{
			ID:           rec.ID,
			ExerciseType: rec.ActivityKind,
			Duration:     rec.DurationMin,
			Timestamp:    rec.RecordedAt.UTC().Format(legacyTimestamp),
		})
	}
	return out
}

func toMeditationViews(records []domain.SessionRecord) []MeditationView {
	out := make([]MeditationView, 0, len(records))
	for _, rec := range records {
		out = append(out, MeditationView{
			ID:             rec.ID,
			MeditationType: rec.ActivityKind,
			Duration:       rec.DurationMin,
			Timestamp:      rec.RecordedAt.UTC().Format(legacyTimestamp),
		})
	}
	return out
}
