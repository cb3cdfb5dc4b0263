package batch

import (
	"encoding/json"
	"os"
)

// Manifest summarizes a batch run.
type Manifest struct {
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Results   []Result `json:"materials"`
}

// WriteManifest writes the run results as indented JSON.
func WriteManifest(path string, results []Result) error {
	m := Manifest{Total: len(results), Results: results}
	for _, r := range results {
		if r.Success {
			m.Succeeded++
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
