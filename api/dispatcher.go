/*
dispatcher.go - Asynchronous allocation run execution

PURPOSE:
  Turns a submitted run into a background computation: one goroutine per
  run, status transitions recorded to the store, the finished matrix saved
  and rendered to a CSV artifact.

DESIGN:
  - Submission validates the request, persists a queued record, and returns
    immediately with the run id; the caller polls GET /api/runs/{id}.
  - Each run reaches exactly one terminal state (completed or failed),
    written in a single store update. There is no retry: a failed run is
    re-submitted as a new run.
  - No timeout beyond the fitting iteration cap; the run context is
    plumbed through the engine for future cancellation.

MODES:
  ras        Balanced synthesis from marginal totals
  skeleton   Balanced frame with a zero interior
  tiv        Insured-value-weighted distribution

USAGE:
  d := NewDispatcher(store, "./output")
  run, err := d.Submit(SubmitRunRequest{Mode: "ras", CSVPath: "in.csv"})
  // ... at shutdown
  d.Wait()

SEE ALSO:
  - handlers.go: The HTTP surface over Submit and the store
  - factory/profile.go: Per-run tuning and header overrides
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chefomid/ATLAS-2/dataset"
	"github.com/chefomid/ATLAS-2/factory"
	"github.com/chefomid/ATLAS-2/ras"
	"github.com/chefomid/ATLAS-2/render"
	"github.com/chefomid/ATLAS-2/store/sqlite"
	"github.com/chefomid/ATLAS-2/tiv"
)

// Dispatcher executes allocation runs in the background.
type Dispatcher struct {
	Store     *sqlite.Store
	OutputDir string

	factory *factory.ProfileFactory
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher writing artifacts to outputDir.
func NewDispatcher(store *sqlite.Store, outputDir string) *Dispatcher {
	return &Dispatcher{
		Store:     store,
		OutputDir: outputDir,
		factory:   factory.NewProfileFactory(),
	}
}

// Submit validates the request, records a queued run, and starts a worker.
// Validation failures return an error and record nothing.
func (d *Dispatcher) Submit(req SubmitRunRequest) (*sqlite.RunRecord, error) {
	profile, err := d.factory.ParseProfile(string(req.Profile))
	if err != nil {
		return nil, err
	}
	if req.Mode != "" {
		switch req.Mode {
		case factory.ModeBalanced, factory.ModeWeighted, factory.ModeSkeleton:
			profile.Mode = req.Mode
		default:
			return nil, fmt.Errorf("unknown mode %q", req.Mode)
		}
	}

	hasInline := len(req.Headers) > 0
	if req.CSVPath == "" && !hasInline {
		return nil, errors.New("run needs either csv_path or inline headers and records")
	}
	if req.CSVPath != "" && hasInline {
		return nil, errors.New("run accepts csv_path or inline rows, not both")
	}

	run := sqlite.RunRecord{
		ID:        uuid.NewString(),
		Mode:      profile.Mode,
		Status:    sqlite.StatusQueued,
		InputPath: req.CSVPath,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.Store.SaveRun(context.Background(), run); err != nil {
		return nil, err
	}

	log.Printf("[Dispatcher] Run %s queued (mode=%s)", run.ID, run.Mode)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.execute(run, req, profile)
	}()

	return &run, nil
}

// Wait blocks until every in-flight run has reached a terminal state.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) execute(run sqlite.RunRecord, req SubmitRunRequest, profile *factory.Profile) {
	ctx := context.Background()

	started := time.Now().UTC()
	run.Status = sqlite.StatusRunning
	run.StartedAt = &started
	if err := d.Store.SaveRun(ctx, run); err != nil {
		log.Printf("[Dispatcher] Run %s: failed to mark running: %v", run.ID, err)
	}

	artifact, iterations, converged, err := d.compute(ctx, run.ID, req, profile)

	completed := time.Now().UTC()
	run.CompletedAt = &completed
	run.Iterations = iterations
	run.Converged = converged
	if err != nil {
		run.Status = sqlite.StatusFailed
		run.Error = err.Error()
		log.Printf("[Dispatcher] Run %s failed: %v", run.ID, err)
	} else {
		run.Status = sqlite.StatusCompleted
		run.ArtifactPath = artifact
		log.Printf("[Dispatcher] Run %s completed in %v (artifact=%s)",
			run.ID, completed.Sub(started), artifact)
	}

	if err := d.Store.SaveRun(ctx, run); err != nil {
		log.Printf("[Dispatcher] Run %s: failed to record terminal state: %v", run.ID, err)
	}
}

// compute loads the input, runs the selected engine, persists the result
// matrix, and renders the CSV artifact.
func (d *Dispatcher) compute(ctx context.Context, runID string, req SubmitRunRequest, profile *factory.Profile) (artifact string, iterations int, converged bool, err error) {
	table, warnings, err := d.loadTable(req)
	if err != nil {
		return "", 0, false, err
	}
	for _, w := range warnings {
		log.Printf("[Dispatcher] Run %s: %s", runID, w)
	}

	var sheet render.Sheet
	var base string

	switch profile.Mode {
	case factory.ModeWeighted:
		rows, rerr := tiv.RowsFromTableSchema(table, profile.ApplyOverrides(tiv.Fields()))
		if rerr != nil {
			return "", 0, false, rerr
		}
		res, berr := tiv.Build(rows)
		if berr != nil {
			return "", 0, false, berr
		}
		converged = true
		base = render.WeightedBaseName
		sheet = render.Sheet{
			Locations:  res.Locations,
			Coverages:  res.Coverages,
			Cells:      res.Cells,
			RowTotals:  res.RowTotals,
			ColTotals:  res.ColTotals,
			Meta:       res.Meta,
			MetaSchema: tiv.MetaSchema(),
		}

	default: // balanced or skeleton
		rows, rerr := ras.RowsFromTableSchema(table, profile.ApplyOverrides(ras.Fields()))
		if rerr != nil {
			return "", 0, false, rerr
		}
		res, berr := ras.Build(ctx, rows, ras.Options{
			Skeleton: profile.Mode == factory.ModeSkeleton,
			Fit:      profile.Fit,
		})
		if berr != nil {
			return "", 0, false, berr
		}
		iterations = res.Iterations
		converged = res.Converged
		base = render.BalancedBaseName
		sheet = render.Sheet{
			Locations:  res.Locations,
			Coverages:  res.Coverages,
			Cells:      res.Cells,
			RowTotals:  res.RowTotals,
			ColTotals:  res.ColTotals,
			Meta:       res.Meta,
			MetaSchema: ras.MetaSchema(),
		}
	}

	if err := d.saveResult(ctx, runID, sheet); err != nil {
		return "", iterations, converged, err
	}

	path, err := render.WriteArtifact(d.OutputDir, base, sheet)
	if err != nil {
		return "", iterations, converged, err
	}
	return path, iterations, converged, nil
}

func (d *Dispatcher) loadTable(req SubmitRunRequest) (*dataset.Table, []string, error) {
	if req.CSVPath != "" {
		return dataset.LoadCSV(req.CSVPath)
	}
	return &dataset.Table{Headers: req.Headers, Records: req.Records}, nil, nil
}

func (d *Dispatcher) saveResult(ctx context.Context, runID string, sheet render.Sheet) error {
	cells := make([][]string, len(sheet.Cells))
	for i, row := range sheet.Cells {
		out := make([]string, len(row))
		for j, v := range row {
			out[j] = v.StringFixed(2)
		}
		cells[i] = out
	}
	rowTotals := make([]string, len(sheet.RowTotals))
	for i, v := range sheet.RowTotals {
		rowTotals[i] = v.StringFixed(2)
	}
	colTotals := make([]string, len(sheet.ColTotals))
	for j, v := range sheet.ColTotals {
		colTotals[j] = v.StringFixed(2)
	}

	return d.Store.SaveResult(ctx, sqlite.RunResult{
		RunID:     runID,
		Locations: sheet.Locations,
		Coverages: sheet.Coverages,
		Cells:     cells,
		RowTotals: rowTotals,
		ColTotals: colTotals,
		Meta:      sheet.Meta,
	})
}
