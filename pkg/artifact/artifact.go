// Package artifact defines the compiler's output unit and a filesystem sink
// for emitted artifact sets.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// Artifact is one compiler output: a path-addressed blob of text or binary
// content.
type Artifact struct {
	Path      string `json:"path"`
	Content   []byte `json:"content"`
	MediaType string `json:"mediaType,omitempty"`
}

// Text builds a UTF-8 text artifact.
func Text(path, content, mediaType string) Artifact {
	return Artifact{Path: path, Content: []byte(content), MediaType: mediaType}
}

// WriteAll persists an artifact set under dir.
//
// Each file is written to a temp path and renamed into place so a failed
// write never leaves a truncated artifact behind.
func WriteAll(dir string, artifacts map[string]Artifact) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure artifact dir: %w", err)
	}
	for _, a := range artifacts {
		path := filepath.Join(dir, filepath.FromSlash(a.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("ensure dir for %s: %w", a.Path, err)
		}
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, a.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", a.Path, err)
		}
		if err := os.Rename(tmp, path); err != nil {
			return fmt.Errorf("commit %s: %w", a.Path, err)
		}
	}
	return nil
}
