// Package store is the file-based artifact cache shared by pipeline stages.
// Each stage writes one JSON document addressed solely by its stage name;
// the next stage (and resumption logic) reads it back. Single-writer only:
// two pipelines against the same working directory corrupt each other.
package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Store persists stage artifacts as <stage>_result.json files inside a
// working directory.
type Store struct {
	dir string
}

// New creates a Store rooted at dir, creating the directory and the media
// subdirectories the stages expect.
func New(dir string) (*Store, error) {
	for _, d := range []string{dir, filepath.Join(dir, "images"), filepath.Join(dir, "videos"), filepath.Join(dir, "audio")} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("create artifact dir %s: %w", d, err)
		}
	}
	return &Store{dir: dir}, nil
}

// Dir returns the working directory the store is rooted at.
func (s *Store) Dir() string { return s.dir }

// MediaDir returns the subdirectory for a media kind ("images", "videos",
// "audio").
func (s *Store) MediaDir(kind string) string { return filepath.Join(s.dir, kind) }

func (s *Store) path(stage string) string {
	return filepath.Join(s.dir, stage+"_result.json")
}

// Put serializes payload under the stage name, replacing any previous
// artifact for that stage.
func (s *Store) Put(stage string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s artifact: %w", stage, err)
	}
	if err := os.WriteFile(s.path(stage), data, 0644); err != nil {
		return fmt.Errorf("write %s artifact: %w", stage, err)
	}
	return nil
}

// Get deserializes the artifact for stage into out. A missing artifact is
// not an error: Get returns (false, nil) so callers can treat it as
// data-not-found. A present but malformed artifact fails fast at read time.
func (s *Store) Get(stage string, out any) (bool, error) {
	data, err := os.ReadFile(s.path(stage))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s artifact: %w", stage, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s artifact: %w", stage, err)
	}
	return true, nil
}

// Has reports whether an artifact exists for the stage. Presence is the
// only signal the runner uses to infer upstream completion.
func (s *Store) Has(stage string) bool {
	_, err := os.Stat(s.path(stage))
	return err == nil
}

// Clear removes every file under the working directory, keeping the
// directory structure. Used before a fresh run starting at the first stage.
func (s *Store) Clear() error {
	deleted, total := 0, 0
	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		total++
		if rmErr := os.Remove(path); rmErr != nil {
			log.Printf("[store] could not remove %s: %v", path, rmErr)
			return nil
		}
		deleted++
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear artifact dir: %w", err)
	}
	if total > 0 {
		log.Printf("[store] cleared %d/%d files in %s", deleted, total, s.dir)
	}
	return nil
}

// WriteSummary persists the run summary next to the stage artifacts,
// overwriting the previous run's summary.
func (s *Store) WriteSummary(summary any) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, "pipeline_summary.json"), data, 0644)
}

// SanitizeName turns free text into a safe filename fragment.
func SanitizeName(text string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", " ", "_", ":", "")
	return replacer.Replace(strings.TrimSpace(text))
}
