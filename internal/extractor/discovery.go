package extractor

import (
	"encoding/json"
	"fmt"
	"os"
)

// Video is one record of the discovery artifact.
type Video struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Author string `json:"author"`
}

// LoadDiscovery reads the discovery artifact and deduplicates records by
// id, preserving first-seen order.
func LoadDiscovery(path string) ([]Video, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read discovery artifact %s: %w", path, err)
	}

	var videos []Video
	if err := json.Unmarshal(raw, &videos); err != nil {
		return nil, fmt.Errorf("parse discovery artifact %s: %w", path, err)
	}

	seen := make(map[string]bool, len(videos))
	out := videos[:0]
	for _, v := range videos {
		if v.ID == "" || seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	return out, nil
}

// Titles returns an id -> title lookup for the discovery artifact.
// A missing artifact is not an error; titles are optional.
func Titles(path string) map[string]string {
	videos, err := LoadDiscovery(path)
	if err != nil {
		return nil
	}
	titles := make(map[string]string, len(videos))
	for _, v := range videos {
		titles[v.ID] = v.Title
	}
	return titles
}
