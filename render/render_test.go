package render_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefomid/ATLAS-2/dataset"
	"github.com/chefomid/ATLAS-2/render"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func testSheet() render.Sheet {
	meta := dataset.MetaByLocation{}
	meta.Merge("L1", "entity", "Acme")

	return render.Sheet{
		Locations: []string{"L1", "L2"},
		Coverages: []string{"Property", "Liability"},
		Cells: [][]decimal.Decimal{
			{d("30.00"), d("20.00")},
			{d("30.00"), d("20.00")},
		},
		RowTotals: []decimal.Decimal{d("50.00"), d("50.00")},
		ColTotals: []decimal.Decimal{d("60.00"), d("40.00")},
		Meta:      meta,
		MetaSchema: []dataset.MetaField{
			{Key: "entity", Header: "Entity Name"},
			{Key: "address", Header: "Address"},
		},
	}
}

func TestWriteCSV_LayoutAndTotals(t *testing.T) {
	// GIVEN: A 2x2 matrix with entity metadata but no addresses
	// WHEN: Rendering
	// THEN: The address column is dropped, the totals row carries the
	//       column totals and a grand total

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, render.WriteCSV(path, testSheet()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4) // header + 2 locations + totals
	assert.Equal(t, []string{"Loc #", "Entity Name", "Property", "Liability", "Total"}, records[0])
	assert.Equal(t, []string{"L1", "Acme", "30.00", "20.00", "50.00"}, records[1])
	assert.Equal(t, []string{"L2", "", "30.00", "20.00", "50.00"}, records[2])
	assert.Equal(t, []string{"Total", "", "60.00", "40.00", "100.00"}, records[3])
}

func TestWriteCSV_NoMetadataValues_NoMetaColumns(t *testing.T) {
	sheet := testSheet()
	sheet.Meta = dataset.MetaByLocation{}

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, render.WriteCSV(path, sheet))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"Loc #", "Property", "Liability", "Total"}, records[0])
}

func TestWriteArtifact_SkipsExistingWithoutTruncating(t *testing.T) {
	// GIVEN: RAS_ALG_Output(1).csv already exists
	// WHEN: Writing a new artifact
	// THEN: The writer claims (2) and leaves (1) untouched

	dir := t.TempDir()
	taken := filepath.Join(dir, "RAS_ALG_Output(1).csv")
	require.NoError(t, os.WriteFile(taken, []byte("earlier run"), 0o644))

	p, err := render.WriteArtifact(dir, render.BalancedBaseName, testSheet())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "RAS_ALG_Output(2).csv"), p)

	kept, err := os.ReadFile(taken)
	require.NoError(t, err)
	assert.Equal(t, "earlier run", string(kept))
}

func TestWriteArtifact_ConsecutiveWritesClaimDistinctPaths(t *testing.T) {
	dir := t.TempDir()

	first, err := render.WriteArtifact(dir, render.WeightedBaseName, testSheet())
	require.NoError(t, err)
	second, err := render.WriteArtifact(dir, render.WeightedBaseName, testSheet())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "TIV_Weighted_Matrix(1).csv"), first)
	assert.Equal(t, filepath.Join(dir, "TIV_Weighted_Matrix(2).csv"), second)
}
