/*
Package factory provides JSON to Go allocation profile conversion.

PURPOSE:
  Converts JSON profile definitions into engine options and input-schema
  overrides. This enables run configuration without code changes - an
  operator can tune tolerance, the iteration cap, and header aliases for a
  carrier's odd template in JSON, and the factory creates the proper Go
  structs.

WHY JSON?
  - Non-developers can adjust per-carrier templates
  - Easy integration with an admin UI
  - Version control for profile definitions
  - Profiles travel inside run submissions

JSON SCHEMA:
  {
    "name": "acme-standard",
    "mode": "ras",
    "tolerance": 1e-10,
    "max_iterations": 5000,
    "header_overrides": {
      "location": ["Bldg #"],
      "tiv": ["Stated Value"]
    }
  }

KEY FEATURES:
  - Validates the mode
  - Falls back to engine defaults for omitted tuning knobs
  - Appends alias overrides after the built-in aliases, so built-ins win

USAGE:
  f := NewProfileFactory()
  profile, err := f.ParseProfile(jsonString)
  fields := profile.ApplyOverrides(ras.Fields())

SEE ALSO:
  - allocation/ipf.go: FitOptions consumed by the profile
  - dataset/schema.go: Field aliases the overrides extend
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/chefomid/ATLAS-2/allocation"
	"github.com/chefomid/ATLAS-2/dataset"
)

// Run modes a profile can select.
const (
	ModeBalanced = "ras"
	ModeWeighted = "tiv"
	ModeSkeleton = "skeleton"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ProfileJSON is the JSON representation of an allocation profile.
type ProfileJSON struct {
	Name            string              `json:"name"`
	Mode            string              `json:"mode,omitempty"`
	Tolerance       float64             `json:"tolerance,omitempty"`
	MaxIterations   int                 `json:"max_iterations,omitempty"`
	HeaderOverrides map[string][]string `json:"header_overrides,omitempty"`
}

// Profile is the parsed, validated form.
type Profile struct {
	Name            string
	Mode            string
	Fit             allocation.FitOptions
	HeaderOverrides map[string][]string
}

// ProfileFactory creates profiles from JSON configurations.
type ProfileFactory struct{}

// NewProfileFactory creates a new profile factory.
func NewProfileFactory() *ProfileFactory {
	return &ProfileFactory{}
}

// ParseProfile converts a JSON string to a Profile. An empty string yields
// the default balanced profile.
func (f *ProfileFactory) ParseProfile(jsonStr string) (*Profile, error) {
	var pj ProfileJSON
	if jsonStr != "" {
		if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
			return nil, fmt.Errorf("invalid profile JSON: %w", err)
		}
	}

	mode := pj.Mode
	if mode == "" {
		mode = ModeBalanced
	}
	switch mode {
	case ModeBalanced, ModeWeighted, ModeSkeleton:
	default:
		return nil, fmt.Errorf("unknown mode %q (want %s, %s or %s)",
			mode, ModeBalanced, ModeWeighted, ModeSkeleton)
	}

	if pj.Tolerance < 0 {
		return nil, fmt.Errorf("tolerance must be non-negative, got %g", pj.Tolerance)
	}
	if pj.MaxIterations < 0 {
		return nil, fmt.Errorf("max_iterations must be non-negative, got %d", pj.MaxIterations)
	}

	return &Profile{
		Name: pj.Name,
		Mode: mode,
		Fit: allocation.FitOptions{
			Tolerance:     pj.Tolerance,
			MaxIterations: pj.MaxIterations,
		},
		HeaderOverrides: pj.HeaderOverrides,
	}, nil
}

// ApplyOverrides returns a copy of fields with the profile's extra aliases
// appended. Built-in aliases keep precedence: overrides only extend the
// list, they never remove or reorder it.
func (p *Profile) ApplyOverrides(fields []dataset.Field) []dataset.Field {
	if len(p.HeaderOverrides) == 0 {
		return fields
	}

	out := make([]dataset.Field, len(fields))
	for i, f := range fields {
		out[i] = f
		if extra, ok := p.HeaderOverrides[f.Name]; ok {
			aliases := make([]string, 0, len(f.Aliases)+len(extra))
			aliases = append(aliases, f.Aliases...)
			aliases = append(aliases, extra...)
			out[i].Aliases = aliases
		}
	}
	return out
}
