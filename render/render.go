/*
Package render writes a finished allocation matrix to a CSV artifact.

PURPOSE:
  The engine hands over labels, the dollar interior, totals, and location
  metadata; this package lays them out as a flat file: header row, one row
  per location, a bottom totals row with a grand total. Metadata columns
  appear only when at least one location carries a value for them.

  Output naming avoids collisions by claiming the first free "Name(n).csv"
  in the output directory with an exclusive create, so concurrent runs can
  never truncate each other's artifact.
*/
package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/chefomid/ATLAS-2/dataset"
)

// Output base names per mode.
const (
	BalancedBaseName = "RAS_ALG_Output"
	WeightedBaseName = "TIV_Weighted_Matrix"
)

// WriteArtifact renders the sheet to dir/base(n).csv for the first free n
// and returns the claimed path. Each candidate is opened with O_EXCL, so a
// name taken by a concurrent run just moves the probe to the next n.
func WriteArtifact(dir, base string, sheet Sheet) (string, error) {
	for n := 1; ; n++ {
		p := filepath.Join(dir, fmt.Sprintf("%s(%d).csv", base, n))
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("unable to create output: %w", err)
		}

		werr := writeSheet(f, sheet)
		cerr := f.Close()
		if werr != nil {
			return "", werr
		}
		if cerr != nil {
			return "", cerr
		}
		return p, nil
	}
}

// Sheet is everything the writer needs, already in render order.
type Sheet struct {
	Locations  []string
	Coverages  []string
	Cells      [][]decimal.Decimal
	RowTotals  []decimal.Decimal
	ColTotals  []decimal.Decimal
	Meta       dataset.MetaByLocation
	MetaSchema []dataset.MetaField
}

// WriteCSV renders the sheet to an explicit path, replacing any existing
// file. Artifact runs go through WriteArtifact instead.
func WriteCSV(path string, sheet Sheet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create output: %w", err)
	}
	defer f.Close()
	return writeSheet(f, sheet)
}

func writeSheet(out io.Writer, sheet Sheet) error {
	w := csv.NewWriter(out)

	// Only metadata columns with at least one value anywhere.
	var metaKeys []dataset.MetaField
	for _, mf := range sheet.MetaSchema {
		if sheet.Meta.AnyValue(sheet.Locations, mf.Key) {
			metaKeys = append(metaKeys, mf)
		}
	}

	header := []string{"Loc #"}
	for _, mf := range metaKeys {
		header = append(header, mf.Header)
	}
	header = append(header, sheet.Coverages...)
	header = append(header, "Total")
	if err := w.Write(header); err != nil {
		return err
	}

	for i, loc := range sheet.Locations {
		record := []string{loc}
		for _, mf := range metaKeys {
			record = append(record, sheet.Meta.Get(loc, mf.Key))
		}
		for j := range sheet.Coverages {
			record = append(record, money(sheet.Cells[i][j]))
		}
		record = append(record, money(totalAt(sheet.RowTotals, i)))
		if err := w.Write(record); err != nil {
			return err
		}
	}

	// Bottom totals row with grand total.
	totals := []string{"Total"}
	for range metaKeys {
		totals = append(totals, "")
	}
	grand := decimal.Zero
	for j := range sheet.Coverages {
		v := totalAt(sheet.ColTotals, j)
		grand = grand.Add(v)
		totals = append(totals, money(v))
	}
	totals = append(totals, money(grand))
	if err := w.Write(totals); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func totalAt(totals []decimal.Decimal, i int) decimal.Decimal {
	if i < len(totals) {
		return totals[i]
	}
	return decimal.Zero
}
