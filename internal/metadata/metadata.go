// Package metadata writes JSON sidecars next to pipeline artifacts so every
// produced file carries its own provenance.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Record describes how one artifact was produced. Extra carries
// stage-specific fields (voice, prompt version) flattened into the JSON.
type Record struct {
	Keyword   string `json:"keyword"`
	Pipeline  string `json:"pipeline"`
	Mode      string `json:"mode"` // "production" or "dry_run"
	Timestamp string `json:"timestamp"`
	Model     string `json:"model,omitempty"`
	FileSize  int64  `json:"file_size,omitempty"`

	Extra map[string]any `json:"-"`
}

// SidecarPath returns the metadata location for an artifact.
func SidecarPath(artifactPath string) string {
	return artifactPath + ".metadata.json"
}

// Write stores the record as <artifact>.metadata.json. The artifact's size is
// captured at write time when the file exists.
func Write(artifactPath string, rec Record) error {
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().Format(time.RFC3339)
	}
	if info, err := os.Stat(artifactPath); err == nil {
		rec.FileSize = info.Size()
	}

	data, err := marshalRecord(rec)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if err := os.WriteFile(SidecarPath(artifactPath), data, 0644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Read loads the sidecar for an artifact.
func Read(artifactPath string) (map[string]any, error) {
	data, err := os.ReadFile(SidecarPath(artifactPath))
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return out, nil
}

func marshalRecord(rec Record) ([]byte, error) {
	fields := map[string]any{
		"keyword":   rec.Keyword,
		"pipeline":  rec.Pipeline,
		"mode":      rec.Mode,
		"timestamp": rec.Timestamp,
	}
	if rec.Model != "" {
		fields["model"] = rec.Model
	}
	if rec.FileSize > 0 {
		fields["file_size"] = rec.FileSize
	}
	for k, v := range rec.Extra {
		fields[k] = v
	}
	return json.MarshalIndent(fields, "", "  ")
}
