package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog lists the activity kinds each timer view offers.
type Catalog struct {
	Workout    []string `yaml:"workout"`
	Meditation []string `yaml:"meditation"`
}

// DefaultCatalog returns the built-in activity kinds.
func DefaultCatalog() Catalog {
	return Catalog{
		Workout:    []string{"cardio", "strength", "flexibility", "hiit"},
		Meditation: []string{"mindfulness", "breathing", "body-scan", "sleep"},
	}
}

// Kinds returns the kinds for surface, or nil for an unknown surface.
func (c Catalog) Kinds(surface string) []string {
	switch surface {
	case "workout":
		return c.Workout
	case "meditation":
		return c.Meditation
	}
	return nil
}

// LoadCatalog reads a YAML catalog from path. An empty path yields the
// defaults; a surface missing from the file keeps its default kinds.
func LoadCatalog(path string) (Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("reading catalog: %w", err)
	}

	var parsed Catalog
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Catalog{}, fmt.Errorf("parsing catalog: %w", err)
	}

	if kinds := clean(parsed.Workout); len(kinds) > 0 {
		cat.Workout = kinds
	}
	if kinds := clean(parsed.Meditation); len(kinds) > 0 {
		cat.Meditation = kinds
	}
	return cat, nil
}

func clean(kinds []string) []string {
	seen := make(map[string]struct{}, len(kinds))
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
