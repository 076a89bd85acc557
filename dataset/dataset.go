/*
Package dataset shapes raw tabular input into the containers the allocation
engine consumes.

PURPOSE:
  Input arrives as loosely formatted tabular rows: header names vary between
  templates, numeric cells may hold text, labels carry stray whitespace and
  spreadsheet "nan" placeholders. This package owns all of that cleanup:

  - Header alias resolution into a fixed field-index mapping (schema.go)
  - Ordered de-duplication of dimension labels (OrderedSet)
  - Silent numeric coercion with a zero fallback (ParseNumericOrDefault)
  - Location label normalization ("1.0" -> "1")
  - First-non-blank-wins metadata merging (MetaByLocation)

ERROR POLICY:
  Missing required columns are the ONLY fatal condition and name both the
  missing fields and the headers that were found. Bad numeric cells default
  to zero and never interrupt a run.

SEE ALSO:
  - ras/:  Balanced matrix aggregation built on these primitives
  - tiv/:  Weighted allocation aggregation built on these primitives
*/
package dataset

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TEXT CLEANUP
// =============================================================================

// CleanText trims whitespace (including non-breaking spaces) and maps
// spreadsheet missing-value placeholders ("nan", "none", any case) to the
// empty string.
func CleanText(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, " ", " "))
	switch strings.ToLower(s) {
	case "nan", "none":
		return ""
	}
	return s
}

// NormalizeLocation cleans a location label and collapses float-formatted
// integers: spreadsheet readers often render the label 1 as "1.0".
func NormalizeLocation(s string) string {
	s = CleanText(s)
	if s == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

// ParseNumericOrDefault parses a currency or weight cell, returning zero on
// any failure. The zero fallback is deliberate: a text or blank cell in a
// numeric column reduces that row's contribution to nothing instead of
// aborting the whole allocation.
func ParseNumericOrDefault(s string) decimal.Decimal {
	s = CleanText(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// ORDERED SET - Insertion-ordered label de-duplication
// =============================================================================

// OrderedSet is an insertion-ordered string set with O(1) membership.
// Blank values are rejected; callers clean labels first so "nan"-style
// placeholders never become dimension labels.
type OrderedSet struct {
	seen  map[string]struct{}
	order []string
}

// NewOrderedSet creates an empty set.
func NewOrderedSet() *OrderedSet {
	return &OrderedSet{seen: make(map[string]struct{})}
}

// Add inserts v if non-blank and unseen. Returns true if v was inserted.
func (s *OrderedSet) Add(v string) bool {
	if v == "" {
		return false
	}
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.order = append(s.order, v)
	return true
}

// Contains reports membership.
func (s *OrderedSet) Contains(v string) bool {
	_, ok := s.seen[v]
	return ok
}

// Values returns the members in first-seen order.
func (s *OrderedSet) Values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the member count.
func (s *OrderedSet) Len() int { return len(s.order) }

// =============================================================================
// LOCATION METADATA - Descriptive fields, first non-blank wins
// =============================================================================

// MetaField pairs a metadata key with its rendered header label.
type MetaField struct {
	Key    string
	Header string
}

// MetaByLocation accumulates descriptive fields per location label. The
// first non-blank value for a key wins; later values never overwrite it.
type MetaByLocation map[string]map[string]string

// Merge records value under loc/key if the slot is still blank.
func (m MetaByLocation) Merge(loc, key, value string) {
	if loc == "" {
		return
	}
	fields, ok := m[loc]
	if !ok {
		fields = make(map[string]string)
		m[loc] = fields
	}
	if fields[key] == "" && value != "" {
		fields[key] = value
	}
}

// Get returns the value for loc/key, or "".
func (m MetaByLocation) Get(loc, key string) string {
	return m[loc][key]
}

// AnyValue reports whether any of the given locations carries a non-blank
// value for key. Renderers use this to drop entirely empty columns.
func (m MetaByLocation) AnyValue(locs []string, key string) bool {
	for _, loc := range locs {
		if m[loc][key] != "" {
			return true
		}
	}
	return false
}
