package viewmodel

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrEmptyRoster = errors.New("roster has no cameras")

// DefaultRoster is the grid order used when no roster file is configured.
var DefaultRoster = []string{
	"CAM-042", "CAM-128", "CAM-089", "CAM-156",
	"CAM-283", "CAM-074", "CAM-195", "CAM-267",
	"CAM-341", "CAM-412", "CAM-523", "CAM-604",
}

// rosterFile is the on-disk shape:
//
//	cameras:
//	  - CAM-042
//	  - CAM-128
type rosterFile struct {
	Cameras []string `yaml:"cameras"`
}

// ParseRoster decodes a roster file. IDs are trimmed; blanks and duplicates
// are dropped (first occurrence keeps its position).
func ParseRoster(data []byte) ([]string, error) {
	var f rosterFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Cameras))
	out := make([]string, 0, len(f.Cameras))
	for _, id := range f.Cameras {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, ErrEmptyRoster
	}
	return out, nil
}
