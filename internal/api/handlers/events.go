package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/PredictChain/server/internal/api/pagination"
	"github.com/PredictChain/server/internal/api/problem"
	"github.com/PredictChain/server/internal/audit"
	"github.com/PredictChain/server/internal/auth"
	"github.com/PredictChain/server/internal/domain/events"
	"github.com/PredictChain/server/internal/metrics"
)

type EventsHandler struct {
	Repo  *events.Repository
	Audit *audit.Logger
	Env   string
}

func NewEventsHandler(repo *events.Repository, auditLogger *audit.Logger, env string) *EventsHandler {
	if auditLogger == nil {
		auditLogger = audit.Nop()
	}
	return &EventsHandler{Repo: repo, Audit: auditLogger, Env: env}
}

type listResponse struct {
	Items  []events.Response `json:"items"`
	Limit  *int              `json:"limit,omitempty"`
	Offset *int              `json:"offset,omitempty"`
	Total  int64             `json:"total"`
}

type eventResponse struct {
	Event events.Response `json:"event"`
}

type createRequest struct {
	Event *events.Submission `json:"event"`
}

type approveRequest struct {
	EventPublicKey string `json:"eventPublicKey"`
}

// List serves the public catalogue of approved events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Repo == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, "")
		return
	}

	page := pagination.ParsePage(r.URL.Query())
	result, err := h.Repo.ListApproved(r.Context(), page)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(result, page))
}

// ListPending serves the review queue. Only allowlisted callers get through.
func (h *EventsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Repo == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, "")
		return
	}

	page := pagination.ParsePage(r.URL.Query())
	result, err := h.Repo.ListPending(r.Context(), auth.CallerOrAnonymous(r), page)
	if err != nil {
		h.fail(w, r, "list_pending", "", err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(result, page))
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Repo == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, "")
		return
	}

	event, err := h.Repo.GetByID(r.Context(), auth.CallerOrAnonymous(r), pathParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{Event: events.ToResponse(*event)})
}

// CreatePending accepts a submission from any identified caller, who is
// recorded as the event's wallet.
func (h *EventsHandler) CreatePending(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Repo == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, "")
		return
	}

	caller, err := auth.CallerFromRequest(r)
	if err != nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, h.Env,
			problem.WithDetail(auth.CallerHeader+" header is required"))
		return
	}

	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badBody(w, r, err)
		return
	}
	if req.Event == nil {
		writeError(w, r, events.ValidationError{Field: "event", Message: "is required"}, h.Env)
		return
	}

	event, err := events.NewFromSubmission(*req.Event, caller)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	stored, err := h.Repo.AddPending(r.Context(), event)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	metrics.EventsSubmitted.Inc()
	writeJSON(w, http.StatusCreated, eventResponse{Event: events.ToResponse(*stored)})
}

func (h *EventsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Repo == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, "")
		return
	}

	id := pathParam(r, "id")
	var req approveRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.badBody(w, r, err)
		return
	}

	event, err := h.Repo.Approve(r.Context(), auth.CallerOrAnonymous(r), id, req.EventPublicKey)
	if err != nil {
		h.fail(w, r, "approve", id, err)
		return
	}

	metrics.EventsApproved.Inc()
	h.Audit.LogFromRequest(r, audit.ActionApprove, id, audit.StatusSuccess, map[string]string{
		"event_public_key": event.EventPublicKey,
	})
	writeJSON(w, http.StatusOK, eventResponse{Event: events.ToResponse(*event)})
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Repo == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, "")
		return
	}

	id := pathParam(r, "id")
	event, err := h.Repo.Delete(r.Context(), auth.CallerOrAnonymous(r), id)
	if err != nil {
		h.fail(w, r, "delete", id, err)
		return
	}

	state := string(event.State())
	metrics.EventsDeleted.WithLabelValues(state).Inc()
	h.Audit.LogFromRequest(r, audit.ActionDelete, id, audit.StatusSuccess, map[string]string{"state": state})
	writeJSON(w, http.StatusOK, eventResponse{Event: events.ToResponse(*event)})
}

// ResetFixtures reseeds the store. The router only mounts it outside
// production; the check here covers direct use of the handler.
func (h *EventsHandler) ResetFixtures(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Repo == nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", nil, "")
		return
	}
	if h.Env == "production" {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", nil, h.Env)
		return
	}

	seeded, err := h.Repo.ResetFixtures(r.Context())
	if err != nil {
		h.Audit.LogFromRequest(r, audit.ActionFixturesReset, "", audit.StatusFailure, nil)
		writeError(w, r, err, h.Env)
		return
	}

	metrics.FixtureResets.Inc()
	h.Audit.LogFromRequest(r, audit.ActionFixturesReset, "", audit.StatusSuccess, nil)
	writeJSON(w, http.StatusOK, listResponse{
		Items: events.ToResponses(seeded),
		Total: int64(len(seeded)),
	})
}

// fail writes err for an admin-only operation, recording refusals.
func (h *EventsHandler) fail(w http.ResponseWriter, r *http.Request, operation, resourceID string, err error) {
	if errors.Is(err, events.ErrForbidden) {
		metrics.AuthorizationDenied.WithLabelValues(operation).Inc()
		h.Audit.LogFromRequest(r, audit.ActionDenied, resourceID, audit.StatusDenied, map[string]string{
			"operation": operation,
		})
	}
	writeError(w, r, err, h.Env)
}

func (h *EventsHandler) badBody(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, r, err, h.Env)
		return
	}
	problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
		problem.WithDetail("request body must be a JSON object"))
}

func newListResponse(result events.ListResult, page events.Page) listResponse {
	return listResponse{
		Items:  events.ToResponses(result.Events),
		Limit:  page.Limit,
		Offset: page.Offset,
		Total:  result.Total,
	}
}
