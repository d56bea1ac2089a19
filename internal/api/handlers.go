// Package api exposes the planner's HTTP handlers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/runplan/internal/auth"
	"example.com/runplan/internal/domain"
)

// Handler coordinates HTTP requests with the planner service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/schedule", h.schedule)
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/catalog", h.catalog)
	mux.HandleFunc("/v1/activities/", h.activityByID)
	mux.HandleFunc("/v1/plan", h.plan)
	mux.HandleFunc("/v1/plan/check", h.planCheck)
	mux.HandleFunc("/v1/completions", h.completions)
	mux.HandleFunc("/v1/completions/rest", h.restDay)
	mux.HandleFunc("/v1/mileage", h.mileage)
	mux.HandleFunc("/v1/paces", h.paces)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopePlannerRead)
	if !ok {
		return
	}

	view, err := h.service.Schedule(r.Context(), claims.Subject)
	if errors.Is(err, domain.ErrNotConfigured) {
		// No plan yet: prompt creation instead of failing.
		writeJSON(w, http.StatusOK, ScheduleResponse{Configured: false})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := ScheduleResponse{
		Configured:         true,
		Days:               toDayViews(view.Days),
		Unresolved:         toDayViews(view.Unresolved),
		ResolutionRequired: len(view.Unresolved) > 0,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listActivities(w, r)
	case http.MethodPost:
		h.createActivity(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopePlannerRead); !ok {
		return
	}
	items := make([]CatalogEntry, 0, len(domain.KindCatalog))
	for _, info := range domain.KindCatalog {
		items = append(items, CatalogEntry{
			Kind:        string(info.Kind),
			Title:       info.Title,
			Description: info.Description,
		})
	}
	writeJSON(w, http.StatusOK, CatalogResponse{Items: items})
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopePlannerRead)
	if !ok {
		return
	}
	activities, err := h.service.ListActivities(r.Context(), claims.Subject)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	items := make([]ActivityView, 0, len(activities))
	for _, a := range activities {
		items = append(items, toActivityView(a))
	}
	writeJSON(w, http.StatusOK, ListActivitiesResponse{Items: items})
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopePlannerWrite)
	if !ok {
		return
	}
	var req ActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	created, err := h.service.CreateActivity(r.Context(), claims.Subject, req.toActivity(), req.goalInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityView(*created))
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/activities/")
	rawID, sub, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid activity id")
		return
	}

	if sub == "goal" {
		h.setGoal(w, r, claims, id)
		return
	}
	if sub != "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getActivity(w, r, claims, id)
	case http.MethodPut:
		h.updateActivity(w, r, claims, id)
	case http.MethodDelete:
		h.deleteActivity(w, r, claims, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request, claims *auth.Claims, id int64) {
	if !hasScope(w, claims, auth.ScopePlannerRead) {
		return
	}
	activity, err := h.service.GetActivity(r.Context(), claims.Subject, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request, claims *auth.Claims, id int64) {
	if !hasScope(w, claims, auth.ScopePlannerWrite) {
		return
	}
	var req ActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	updated := req.toActivity()
	updated.ID = id
	saved, err := h.service.UpdateActivity(r.Context(), claims.Subject, updated, req.goalInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*saved))
}

func (h *Handler) deleteActivity(w http.ResponseWriter, r *http.Request, claims *auth.Claims, id int64) {
	if !hasScope(w, claims, auth.ScopePlannerWrite) {
		return
	}
	if err := h.service.DeleteActivity(r.Context(), claims.Subject, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setGoal(w http.ResponseWriter, r *http.Request, claims *auth.Claims, id int64) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !hasScope(w, claims, auth.ScopePlannerWrite) {
		return
	}
	var req GoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	activity, err := h.service.SetGoal(r.Context(), claims.Subject, id, req.toGoalInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) plan(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getPlan(w, r)
	case http.MethodPut:
		h.savePlan(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopePlannerRead)
	if !ok {
		return
	}
	plan, err := h.service.LoadPlan(r.Context(), claims.Subject)
	if errors.Is(err, domain.ErrNotConfigured) {
		writeError(w, http.StatusNotFound, "plan_not_configured", "create a training plan first")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PlanPayload{Weeks: plan.Weeks, Days: plan.DayMap()})
}

func (h *Handler) savePlan(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopePlannerWrite)
	if !ok {
		return
	}
	var req PlanPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := h.service.SavePlan(r.Context(), claims.Subject, req.Weeks, req.Days); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) planCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopePlannerRead)
	if !ok {
		return
	}
	var req PlanPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	report, err := h.service.CheckPlan(r.Context(), claims.Subject, req.Weeks, req.Days)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := PlanCheckResponse{WeeklyDistance: report.WeeklyDistance}
	for _, warning := range report.Warnings {
		resp.Warnings = append(resp.Warnings, SpacingWarningView{Day: warning.Day, Message: warning.Message})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) completions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopePlannerWrite)
	if !ok {
		return
	}
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	result, err := h.service.SubmitCompletion(r.Context(), claims.Subject, domain.SubmissionInput{
		EventID:    r.Header.Get("Idempotency-Key"),
		ActivityID: req.ActivityID,
		Date:       req.Date,
		Difficulty: req.Difficulty,
		GoalMet:    req.GoalMet,
		Minutes:    req.Minutes,
		Seconds:    req.Seconds,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubmitResponse(result))
}

func (h *Handler) restDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopePlannerWrite)
	if !ok {
		return
	}
	var req RestDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	result, err := h.service.MarkRestDay(r.Context(), claims.Subject, req.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubmitResponse(result))
}

func (h *Handler) mileage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopePlannerRead)
	if !ok {
		return
	}
	entries, err := h.service.MileageHistory(r.Context(), claims.Subject)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := MileageResponse{Entries: make([]WeekEntryView, 0, len(entries))}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, WeekEntryView{
			WeekStart: entry.WeekStart.Format(time.DateOnly),
			Distance:  entry.Distance,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) paces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopePlannerWrite)
	if !ok {
		return
	}
	var req PacesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := h.service.UpdatePaces(r.Context(), claims.Subject, req.Paces); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// claimsFrom extracts claims or writes a 401.
func claimsFrom(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	return claims, true
}

// requireScope extracts claims and enforces a scope in one step. Write scope
// implies read.
func requireScope(w http.ResponseWriter, r *http.Request, scope string) (*auth.Claims, bool) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return nil, false
	}
	if !hasScope(w, claims, scope) {
		return nil, false
	}
	return claims, true
}

func hasScope(w http.ResponseWriter, claims *auth.Claims, scope string) bool {
	if claims.HasScope(scope) {
		return true
	}
	if scope == auth.ScopePlannerRead && claims.HasScope(auth.ScopePlannerWrite) {
		return true
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
	return false
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrNotConfigured):
		writeError(w, http.StatusNotFound, "plan_not_configured", "create a training plan first")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{
		"type":   code,
		"detail": detail,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
