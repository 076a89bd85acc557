/*
schema.go - Header alias resolution

PURPOSE:
  Input templates name the same logical field many ways ("TIV", "Total
  Insured Value", "Insurable Value", ...). Each logical field declares an
  ordered alias list; resolution happens ONCE per table and produces a fixed
  field-to-column-index mapping, so no string matching leaks into the
  numeric pipeline.

MATCHING:
  Headers and aliases are compared on their lowercased alphanumeric
  characters only ("Zip-Code" == "zip code"). Exact normalized matches win
  over substring matches, and earlier aliases win over later ones.
*/
package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Field declares one logical input field and the header spellings that can
// supply it.
type Field struct {
	Name     string
	Aliases  []string
	Required bool
}

// MissingColumnsError is the fatal input-shape error: one or more required
// fields could not be matched to any header. It names both sides so the
// caller can fix the sheet.
type MissingColumnsError struct {
	Missing []string
	Found   []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required column(s): %s; headers found: %s",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

// normalizeHeader lowercases and strips everything but letters and digits.
func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(CleanText(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolveFields maps each field to a column index in headers, or -1 when an
// optional field is absent. A MissingColumnsError is returned when any
// required field cannot be resolved.
func ResolveFields(headers []string, fields []Field) (map[string]int, error) {
	normToIdx := make(map[string]int, len(headers))
	var normKeys []string
	for i, h := range headers {
		key := normalizeHeader(h)
		if _, ok := normToIdx[key]; !ok {
			normToIdx[key] = i
			normKeys = append(normKeys, key)
		}
	}
	sort.Strings(normKeys)

	resolved := make(map[string]int, len(fields))
	var missing []string
	for _, f := range fields {
		idx := resolveOne(f.Aliases, normToIdx, normKeys)
		resolved[f.Name] = idx
		if idx < 0 && f.Required {
			missing = append(missing, f.Name)
		}
	}

	if len(missing) > 0 {
		found := make([]string, len(headers))
		for i, h := range headers {
			found[i] = CleanText(h)
		}
		return nil, &MissingColumnsError{Missing: missing, Found: found}
	}
	return resolved, nil
}

func resolveOne(aliases []string, normToIdx map[string]int, normKeys []string) int {
	// Pass 1: exact normalized match.
	for _, a := range aliases {
		if idx, ok := normToIdx[normalizeHeader(a)]; ok {
			return idx
		}
	}
	// Pass 2: alias contained in a header, e.g. "TIV" inside "TIV ($ USD)".
	for _, a := range aliases {
		key := normalizeHeader(a)
		if key == "" {
			continue
		}
		for _, nk := range normKeys {
			if strings.Contains(nk, key) {
				return normToIdx[nk]
			}
		}
	}
	return -1
}
