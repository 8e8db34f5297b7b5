package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const byImageDir = "by_image"

// ChildVideoEntry is one per-(video,child) observation document, the schema
// produced by the image-guided child analyzer.
type ChildVideoEntry struct {
	VideoID         string   `json:"video_id"`
	ChildLabel      string   `json:"child_label"`
	Observed        bool     `json:"observed"`
	EngagementLevel string   `json:"engagement_level"`
	Mood            []string `json:"mood"`
	Behaviors       []string `json:"behaviors"`
	Participated    *bool    `json:"participated,omitempty"`
	DistressEvents  []string `json:"distress_events"`
	EvidenceTimes   []string `json:"evidence_times"`
	Summary         string   `json:"short_per_video_summary"`
}

// DefaultChildEntry is the fallback document when the analyzer output is
// unusable for a video.
func DefaultChildEntry(videoID string) ChildVideoEntry {
	return ChildVideoEntry{
		VideoID:         videoID,
		EngagementLevel: "unknown",
		Mood:            []string{},
		Behaviors:       []string{},
		DistressEvents:  []string{},
		EvidenceTimes:   []string{},
		Summary:         "Child not confidently observed.",
	}
}

// ChildDocument combines all per-video entries for one child on one date.
type ChildDocument struct {
	Date       string            `json:"date"`
	Child      string            `json:"child"`
	SourcePath string            `json:"source_path,omitempty"`
	Videos     []ChildVideoEntry `json:"videos"`
}

// Entry returns the per-video entry for the given id, if present.
func (d *ChildDocument) Entry(videoID string) (ChildVideoEntry, bool) {
	for _, v := range d.Videos {
		if v.VideoID == videoID {
			return v, true
		}
	}
	return ChildVideoEntry{}, false
}

// ChildStore reads and writes child transcript documents under a
// date-scoped directory tree.
type ChildStore struct {
	Dir string
}

func NewChildStore(dir string) *ChildStore {
	return &ChildStore{Dir: dir}
}

// LoadForDate loads the per-video child transcripts for the given date from
// by_image/<date>/<child-slug>/. When multiple child folders exist, the one
// whose name contains the child's name wins; otherwise the first sorted
// folder is used. Returns (nil, nil) when nothing is on disk.
func (s *ChildStore) LoadForDate(childName, date string) (*ChildDocument, error) {
	root := filepath.Join(s.Dir, byImageDir, date)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) == 0 {
		return nil, nil
	}
	sort.Strings(dirs)

	chosen := dirs[0]
	if needle := strings.ToLower(strings.TrimSpace(childName)); needle != "" {
		for _, d := range dirs {
			if strings.Contains(strings.ToLower(d), needle) {
				chosen = d
				break
			}
		}
	}

	chosenPath := filepath.Join(root, chosen)
	files, err := os.ReadDir(chosenPath)
	if err != nil {
		return nil, err
	}

	doc := &ChildDocument{Date: date, Child: childName, SourcePath: chosenPath}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(chosenPath, f.Name()))
		if err != nil {
			continue
		}
		var entry ChildVideoEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		doc.Videos = append(doc.Videos, entry)
	}
	if len(doc.Videos) == 0 {
		return nil, nil
	}
	return doc, nil
}

// SaveByImage writes one per-video entry under
// by_image/<date>/<child-slug>/<video>.json.
func (s *ChildStore) SaveByImage(date, childSlug string, entry ChildVideoEntry) (string, error) {
	dir := filepath.Join(s.Dir, byImageDir, date, childSlug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create child transcript dir: %w", err)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal child entry: %w", err)
	}
	path := filepath.Join(dir, entry.VideoID+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write child entry: %w", err)
	}
	return path, nil
}

// SaveByLabel writes one per-(video,child-label) entry under
// <date>/<video>/<label-slug>.json, replacing any prior document.
func (s *ChildStore) SaveByLabel(date, videoID, labelSlug string, entry ChildVideoEntry) (string, error) {
	dir := filepath.Join(s.Dir, date, videoID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create child transcript dir: %w", err)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal child entry: %w", err)
	}
	path := filepath.Join(dir, labelSlug+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write child entry: %w", err)
	}
	return path, nil
}

var (
	labelStripRE    = regexp.MustCompile(`[^a-z0-9\s-]`)
	labelSpacesRE   = regexp.MustCompile(`\s+`)
	slugCollapsedRE = regexp.MustCompile(`-+`)
)

// NormalizeLabel lowercases an outfit label and strips punctuation so
// near-identical labels from different videos compare equal.
func NormalizeLabel(s string) string {
	s = strings.ToLower(s)
	s = labelStripRE.ReplaceAllString(s, "")
	s = labelSpacesRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Slugify turns a label or filename stem into a filesystem-safe slug.
func Slugify(s string) string {
	s = NormalizeLabel(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = slugCollapsedRE.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "child"
	}
	return s
}
