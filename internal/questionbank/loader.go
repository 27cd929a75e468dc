package questionbank

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pelviu-funnel/internal/models"
)

type fileFormat struct {
	Version string                       `yaml:"version"`
	Shared  []models.Question            `yaml:"shared"`
	Tracks  map[string][]models.Question `yaml:"tracks"`
}

// LoadFile builds a bank from a YAML catalog. Shared questions are prepended
// to every track.
func LoadFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Bank, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBank, err)
	}

	tracks := make(map[models.Gender][]models.Question, len(f.Tracks))
	for name, questions := range f.Tracks {
		g, ok := models.ParseGender(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown track %q", ErrInvalidBank, name)
		}
		tracks[g] = append(append([]models.Question{}, f.Shared...), questions...)
	}

	version := f.Version
	if version == "" {
		version = "custom"
	}
	return New(version, tracks)
}

// Load returns the override catalog at path, or the built-in one when path is empty.
func Load(path string) (*Bank, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
