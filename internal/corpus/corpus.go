// Package corpus bundles the reference-text dumps the bootstrap ingests.
// Each dump is a self-contained batch of SQL producing the fixed raw import
// table layout; packaging swaps in the full per-translation dumps at build
// time, the repository ships working samples.
package corpus

import (
	"embed"
	"fmt"

	"github.com/versedb/versedb/internal/storage"
)

//go:embed data/*.sql
var dumps embed.FS

// manifest describes the bundled datasets in ingestion order.
var manifest = []struct {
	name        string
	language    string
	translation string
	file        string
	hasAltText  bool
}{
	{name: "web-en", language: "en", translation: "WEB", file: "data/web_en.sql", hasAltText: false},
	{name: "rvr-es", language: "es", translation: "RVR", file: "data/rvr_es.sql", hasAltText: true},
}

// Datasets returns the bundled datasets for the requested languages, in
// manifest order. An empty language list selects everything.
func Datasets(languages []string) ([]storage.Dataset, error) {
	want := make(map[string]bool, len(languages))
	for _, l := range languages {
		want[l] = true
	}

	var out []storage.Dataset
	for _, m := range manifest {
		if len(want) > 0 && !want[m.language] {
			continue
		}
		raw, err := dumps.ReadFile(m.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read bundled dump %s: %w", m.file, err)
		}
		out = append(out, storage.Dataset{
			Name:        m.name,
			Language:    m.language,
			Translation: m.translation,
			SQL:         string(raw),
			HasAltText:  m.hasAltText,
		})
	}
	return out, nil
}

// Languages lists every bundled language tag.
func Languages() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range manifest {
		if !seen[m.language] {
			seen[m.language] = true
			out = append(out, m.language)
		}
	}
	return out
}
