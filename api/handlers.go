/*
handlers.go - HTTP API handlers for the allocation service

PURPOSE:
  Exposes the allocation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the dispatcher
  and the store.

ENDPOINTS:
  Runs:
    POST   /api/runs               Submit an allocation run (async)
    GET    /api/runs               List runs, newest first
    GET    /api/runs/{id}          Run status
    GET    /api/runs/{id}/result   Result matrix of a completed run

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Dispatch or query
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Run or result not found
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - dispatcher.go: Background run execution
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chefomid/ATLAS-2/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Dispatcher *Dispatcher
}

// NewHandler creates a new handler over the store and dispatcher.
func NewHandler(store *sqlite.Store, dispatcher *Dispatcher) *Handler {
	return &Handler{Store: store, Dispatcher: dispatcher}
}

// =============================================================================
// RUN ENDPOINTS
// =============================================================================

// SubmitRun accepts an allocation run and dispatches it.
// POST /api/runs
func (h *Handler) SubmitRun(w http.ResponseWriter, r *http.Request) {
	var req SubmitRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	run, err := h.Dispatcher.Submit(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid run submission", err)
		return
	}

	writeJSON(w, http.StatusAccepted, toRunDTO(run))
}

// ListRuns returns runs newest first. ?limit=N caps the count.
// GET /api/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i := range runs {
		dtos[i] = toRunDTO(&runs[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns a single run's status.
// GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get run", err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toRunDTO(run))
}

// GetResult returns the matrix of a completed run.
// GET /api/runs/{id}/result
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	res, err := h.Store.GetResult(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get result", err)
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "Result not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toResultDTO(res))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
