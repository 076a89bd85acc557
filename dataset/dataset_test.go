package dataset_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/chefomid/ATLAS-2/dataset"
)

// =============================================================================
// LABEL CLEANUP AND ORDERING
// =============================================================================

func TestOrderedSet_FirstSeenOrder_BlanksExcluded(t *testing.T) {
	// GIVEN: Labels ["L2", "L1", "L2", "", "L1"]
	// WHEN: Adding them in order
	// THEN: Values are exactly ["L2", "L1"]

	s := dataset.NewOrderedSet()
	for _, v := range []string{"L2", "L1", "L2", "", "L1"} {
		s.Add(dataset.CleanText(v))
	}

	got := s.Values()
	want := []string{"L2", "L1"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestCleanText_PlaceholdersBecomeBlank(t *testing.T) {
	cases := map[string]string{
		"  Acme Corp ": "Acme Corp",
		"nan":          "",
		"NaN":          "",
		"None":         "",
		"":             "",
	}
	for in, want := range cases {
		if got := dataset.CleanText(in); got != want {
			t.Errorf("CleanText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeLocation_FloatLabelsCollapse(t *testing.T) {
	cases := map[string]string{
		"1.0":      "1",
		"12":       "12",
		"3.5":      "3.5",
		" Bldg A ": "Bldg A",
		"nan":      "",
	}
	for in, want := range cases {
		if got := dataset.NormalizeLocation(in); got != want {
			t.Errorf("NormalizeLocation(%q) = %q, want %q", in, got, want)
		}
	}
}

// =============================================================================
// NUMERIC COERCION
// =============================================================================

func TestParseNumericOrDefault_FallsBackToZero(t *testing.T) {
	if got := dataset.ParseNumericOrDefault("1234.56"); got.StringFixed(2) != "1234.56" {
		t.Errorf("got %s, want 1234.56", got.StringFixed(2))
	}
	for _, bad := range []string{"", "n/a", "TBD", "nan", "12x4"} {
		if got := dataset.ParseNumericOrDefault(bad); !got.IsZero() {
			t.Errorf("ParseNumericOrDefault(%q) = %s, want 0", bad, got)
		}
	}
}

// =============================================================================
// METADATA MERGE
// =============================================================================

func TestMetaByLocation_FirstNonBlankWins(t *testing.T) {
	// GIVEN: Three rows for L1: blank entity, "Acme", then "Other"
	// WHEN: Merging in order
	// THEN: "Acme" sticks; "Other" never overrides

	meta := dataset.MetaByLocation{}
	meta.Merge("L1", "entity", "")
	meta.Merge("L1", "entity", "Acme")
	meta.Merge("L1", "entity", "Other")

	if got := meta.Get("L1", "entity"); got != "Acme" {
		t.Fatalf("got %q, want Acme", got)
	}
}

func TestMetaByLocation_AnyValue(t *testing.T) {
	meta := dataset.MetaByLocation{}
	meta.Merge("L1", "entity", "Acme")

	if !meta.AnyValue([]string{"L1", "L2"}, "entity") {
		t.Error("expected entity column to be present")
	}
	if meta.AnyValue([]string{"L1", "L2"}, "address") {
		t.Error("expected address column to be absent")
	}
}

// =============================================================================
// HEADER RESOLUTION
// =============================================================================

func TestResolveFields_AliasesAndSubstrings(t *testing.T) {
	headers := []string{"Loc #", "Enitity Name", "TIV ($ USD)", "Premium Amount"}
	fields := []dataset.Field{
		{Name: "location", Aliases: []string{"Loc #", "Location #"}, Required: true},
		{Name: "tiv", Aliases: []string{"Insurable Value", "TIV"}, Required: true},
		{Name: "premium", Aliases: []string{"Premium Amount", "Premium"}, Required: true},
		{Name: "city", Aliases: []string{"City"}},
	}

	idx, err := dataset.ResolveFields(headers, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx["location"] != 0 || idx["tiv"] != 2 || idx["premium"] != 3 {
		t.Fatalf("unexpected mapping: %v", idx)
	}
	if idx["city"] != -1 {
		t.Errorf("optional absent field should map to -1, got %d", idx["city"])
	}
}

func TestResolveFields_MissingRequired_ErrorNamesBothSides(t *testing.T) {
	headers := []string{"Loc #", "Premium Amount"}
	fields := []dataset.Field{
		{Name: "location", Aliases: []string{"Loc #"}, Required: true},
		{Name: "tiv", Aliases: []string{"TIV", "Insurable Value"}, Required: true},
	}

	_, err := dataset.ResolveFields(headers, fields)

	var missingErr *dataset.MissingColumnsError
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if len(missingErr.Missing) != 1 || missingErr.Missing[0] != "tiv" {
		t.Errorf("missing = %v, want [tiv]", missingErr.Missing)
	}
	if !strings.Contains(err.Error(), "Loc #") {
		t.Errorf("error should list found headers, got: %v", err)
	}
}

// =============================================================================
// CSV INGESTION
// =============================================================================

func TestReadCSV_SkipsBadLinesWithWarnings(t *testing.T) {
	input := "Loc #,Total\nL1,100\nL3,300\nL2,\"200\n"

	table, warnings, err := dataset.ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Records) != 2 {
		t.Fatalf("expected 2 good records, got %d", len(table.Records))
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
}

func TestTable_Cell_ShortRecordsSafe(t *testing.T) {
	table := &dataset.Table{Headers: []string{"a", "b"}}
	record := []string{"only"}

	if got := table.Cell(record, 1); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if got := table.Cell(record, -1); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
