/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  Decouples the wire format from domain types. Handlers translate between
  these DTOs and the store/engine types; domain packages never see JSON
  tags.

SEE ALSO:
  - handlers.go: Translation and endpoint logic
  - store/sqlite/sqlite.go: The persisted shapes these mirror
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/chefomid/ATLAS-2/dataset"
	"github.com/chefomid/ATLAS-2/store/sqlite"
)

// =============================================================================
// REQUESTS
// =============================================================================

// SubmitRunRequest submits an allocation run. Input rows come either inline
// (headers + records) or as a server-side CSV path; exactly one is required.
// Mode overrides the profile's mode when set.
type SubmitRunRequest struct {
	Mode    string          `json:"mode,omitempty"` // ras, tiv or skeleton
	CSVPath string          `json:"csv_path,omitempty"`
	Headers []string        `json:"headers,omitempty"`
	Records [][]string      `json:"records,omitempty"`
	Profile json.RawMessage `json:"profile,omitempty"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// RunDTO is the wire form of a run record.
type RunDTO struct {
	ID           string `json:"id"`
	Mode         string `json:"mode"`
	Status       string `json:"status"`
	InputPath    string `json:"input_path,omitempty"`
	ArtifactPath string `json:"artifact_path,omitempty"`
	Error        string `json:"error,omitempty"`
	Iterations   int    `json:"iterations,omitempty"`
	Converged    bool   `json:"converged"`
	CreatedAt    string `json:"created_at"`
	StartedAt    string `json:"started_at,omitempty"`
	CompletedAt  string `json:"completed_at,omitempty"`
}

// ResultDTO is the wire form of a completed run's matrix. Cells are dollar
// strings with two decimals, row-major Locations x Coverages.
type ResultDTO struct {
	RunID     string                 `json:"run_id"`
	Locations []string               `json:"locations"`
	Coverages []string               `json:"coverages"`
	Cells     [][]string             `json:"cells"`
	RowTotals []string               `json:"row_totals"`
	ColTotals []string               `json:"col_totals"`
	Meta      dataset.MetaByLocation `json:"meta,omitempty"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// TRANSLATION
// =============================================================================

func toRunDTO(run *sqlite.RunRecord) RunDTO {
	dto := RunDTO{
		ID:           run.ID,
		Mode:         run.Mode,
		Status:       run.Status,
		InputPath:    run.InputPath,
		ArtifactPath: run.ArtifactPath,
		Error:        run.Error,
		Iterations:   run.Iterations,
		Converged:    run.Converged,
		CreatedAt:    run.CreatedAt.Format(time.RFC3339),
	}
	if run.StartedAt != nil {
		dto.StartedAt = run.StartedAt.Format(time.RFC3339)
	}
	if run.CompletedAt != nil {
		dto.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return dto
}

func toResultDTO(res *sqlite.RunResult) ResultDTO {
	return ResultDTO{
		RunID:     res.RunID,
		Locations: res.Locations,
		Coverages: res.Coverages,
		Cells:     res.Cells,
		RowTotals: res.RowTotals,
		ColTotals: res.ColTotals,
		Meta:      res.Meta,
	}
}
