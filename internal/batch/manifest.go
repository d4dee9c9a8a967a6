package batch

import (
	"encoding/json"
	"os"
)

// WriteManifest writes the outcome of every job to path.
func WriteManifest(path string, outcomes []Outcome) error {
	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
