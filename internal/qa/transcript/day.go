// Package transcript persists the daily transcript cache and the per-child
// transcript documents. The day file is a shared mutable resource across
// requests; writers do a read-check-then-write and accept last-writer-wins,
// since at most one transcript build runs at a time in this deployment.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const dayFilePrefix = "transcript_"

// Student is one child observed in a video section, identified by outfit.
type Student struct {
	Name    string `json:"name,omitempty"`
	Clothes string `json:"clothes,omitempty"`
}

// DaySection is the per-video portion of the day transcript.
type DaySection struct {
	Activity       string    `json:"activity"`
	Skills         []string  `json:"skills"`
	Students       []Student `json:"students"`
	DistressEvents []string  `json:"distress_events"`
	EvidenceTimes  []string  `json:"evidence_times"`
}

// EmptySection is the placeholder stored when per-video synthesis fails.
func EmptySection() DaySection {
	return DaySection{
		Skills:         []string{},
		Students:       []Student{},
		DistressEvents: []string{},
		EvidenceTimes:  []string{},
	}
}

type DayMeta struct {
	PromptVersion string `json:"prompt_version"`
}

// DayDocument is the single JSON document cached per day, keyed by video id.
type DayDocument struct {
	Date   string                `json:"date"`
	Videos map[string]DaySection `json:"videos"`
	Meta   DayMeta               `json:"meta"`
}

// DayStore reads and writes day transcripts under one directory.
type DayStore struct {
	Dir string
}

func NewDayStore(dir string) *DayStore {
	return &DayStore{Dir: dir}
}

// Today returns the store's date key for the current day.
func Today() string {
	return time.Now().Format("2006-01-02")
}

// PathFor is the deterministic JSON path for a given date.
func (s *DayStore) PathFor(date string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s%s.json", dayFilePrefix, date))
}

// Exists reports whether the day's JSON document is already on disk.
func (s *DayStore) Exists(date string) bool {
	_, err := os.Stat(s.PathFor(date))
	return err == nil
}

// Latest returns the most recently modified transcript file (.json or .txt),
// preferring a pre-generated text transcript over rebuilding.
func (s *DayStore) Latest() (string, bool) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return "", false
	}
	var best string
	var bestMod time.Time
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, dayFilePrefix) {
			continue
		}
		if !strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".txt") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best = filepath.Join(s.Dir, name)
			bestMod = info.ModTime()
		}
	}
	return best, best != ""
}

// Save persists the day document and returns its path.
func (s *DayStore) Save(doc *DayDocument) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal day transcript: %w", err)
	}
	path := s.PathFor(doc.Date)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write day transcript: %w", err)
	}
	return path, nil
}

// SaveText writes a plain-text day transcript (used by the one-shot
// generation command) and returns its path.
func (s *DayStore) SaveText(date, content string) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("%s%s.txt", dayFilePrefix, date))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write day transcript text: %w", err)
	}
	return path, nil
}

// LoadRaw reads a transcript file, returning compact JSON when the content
// parses as JSON and the raw text otherwise.
func (s *DayStore) LoadRaw(path string) (content string, isJSON bool, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	var obj any
	if jerr := json.Unmarshal(raw, &obj); jerr == nil {
		compact, merr := json.Marshal(obj)
		if merr == nil {
			return string(compact), true, nil
		}
	}
	return string(raw), false, nil
}
