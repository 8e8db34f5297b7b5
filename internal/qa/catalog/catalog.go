// Package catalog loads the day's video catalog from YAML and validates it
// at startup. Load failures are fatal for the process.
package catalog

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	errx "github.com/daycare-qa/server/internal/core/error"
	logx "github.com/daycare-qa/server/pkg/logger"
)

// Video is one catalog entry.
type Video struct {
	ID          string `yaml:"id"`
	URI         string `yaml:"gcs_uri"`
	SessionType string `yaml:"session-type"`
	StartTime   string `yaml:"start-time"`
	EndTime     string `yaml:"end-time"`
	Description string `yaml:"act-description"`
}

type catalogFile struct {
	Videos []Video `yaml:"videos"`
}

// Catalog is an ordered, validated set of videos.
type Catalog struct {
	videos []Video
	byID   map[string]Video
}

// New validates the entries and builds a catalog. IDs must be unique and
// every URI must be gs:// or https://.
func New(videos []Video) (*Catalog, error) {
	if len(videos) == 0 {
		return nil, errx.New(fmt.Errorf("no videos found"), http.StatusInternalServerError, errx.CatalogErrorMessage)
	}
	byID := make(map[string]Video, len(videos))
	for _, v := range videos {
		if _, dup := byID[v.ID]; dup {
			return nil, errx.New(fmt.Errorf("duplicate video id %q", v.ID), http.StatusInternalServerError, errx.CatalogErrorMessage)
		}
		if !strings.HasPrefix(v.URI, "gs://") && !strings.HasPrefix(v.URI, "https://") {
			return nil, errx.New(fmt.Errorf("invalid uri for video %q: %q", v.ID, v.URI), http.StatusInternalServerError, errx.CatalogErrorMessage)
		}
		byID[v.ID] = v
	}
	return &Catalog{videos: videos, byID: byID}, nil
}

// Load reads and validates the catalog YAML at path.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c, err := New(file.Videos)
	if err != nil {
		return nil, err
	}
	logx.Info().Int("videos", len(c.videos)).Str("path", path).Msg("Loaded video catalog")
	return c, nil
}

// List returns all videos in catalog order.
func (c *Catalog) List() []Video {
	out := make([]Video, len(c.videos))
	copy(out, c.videos)
	return out
}

// Has reports whether the id exists.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// URI returns the remote location for a video id.
func (c *Catalog) URI(id string) (string, error) {
	v, ok := c.byID[id]
	if !ok {
		return "", fmt.Errorf("video id %q not found in catalog", id)
	}
	return v.URI, nil
}

// Metadata returns the full entry for a video id.
func (c *Catalog) Metadata(id string) (Video, error) {
	v, ok := c.byID[id]
	if !ok {
		return Video{}, fmt.Errorf("video id %q not found in catalog", id)
	}
	return v, nil
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.videos)
}
