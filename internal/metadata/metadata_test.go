package metadata

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAndRead(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "Bulguksa.md")
	if err := os.WriteFile(artifact, []byte("# Bulguksa\n"), 0644); err != nil {
		t.Fatal(err)
	}

	rec := Record{
		Keyword:  "Bulguksa",
		Pipeline: "info_retrieval",
		Mode:     "production",
		Model:    "gpt-4.1",
		Extra:    map[string]any{"prompt_version": "default"},
	}
	if err := Write(artifact, rec); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if _, err := os.Stat(artifact + ".metadata.json"); err != nil {
		t.Fatalf("sidecar not written: %v", err)
	}

	got, err := Read(artifact)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got["keyword"] != "Bulguksa" {
		t.Errorf("keyword = %v", got["keyword"])
	}
	if got["pipeline"] != "info_retrieval" {
		t.Errorf("pipeline = %v", got["pipeline"])
	}
	if got["prompt_version"] != "default" {
		t.Errorf("prompt_version = %v", got["prompt_version"])
	}
	if got["timestamp"] == "" || got["timestamp"] == nil {
		t.Error("timestamp should be filled in")
	}
	if size, ok := got["file_size"].(float64); !ok || size != float64(len("# Bulguksa\n")) {
		t.Errorf("file_size = %v", got["file_size"])
	}
}

func TestWriteMissingArtifact(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "ghost.md")

	// Sidecar still written; size is simply unknown.
	if err := Write(artifact, Record{Keyword: "x", Pipeline: "info_retrieval", Mode: "dry_run"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := Read(artifact)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if _, present := got["file_size"]; present {
		t.Error("file_size should be omitted for a missing artifact")
	}
}

func TestReadMissingSidecar(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "none.md")); err == nil {
		t.Error("Read() should fail without a sidecar")
	}
}
