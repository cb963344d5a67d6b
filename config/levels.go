package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const LevelsVersion = 1

//go:embed levels.yaml
var defaultLevels []byte

// Levels is the versioned, strength-ordered list of difficulty levels.
type Levels struct {
	Version int                `yaml:"version" json:"version"`
	Levels  []DifficultyConfig `yaml:"levels" json:"levels"`
}

// Default returns the built-in levels.
func Default() Levels {
	levels, err := Parse(defaultLevels)
	if err != nil {
		panic(fmt.Sprintf("built-in levels are invalid: %v", err))
	}
	return levels
}

// Load reads levels from a YAML file.
func Load(path string) (Levels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Levels{}, fmt.Errorf("failed to read levels file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Levels, error) {
	var levels Levels
	if err := yaml.Unmarshal(data, &levels); err != nil {
		return Levels{}, fmt.Errorf("failed to parse levels: %w", err)
	}
	if levels.Version != LevelsVersion {
		return Levels{}, fmt.Errorf("%w: unsupported levels version %d", ErrInvalidConfig, levels.Version)
	}
	if len(levels.Levels) == 0 {
		return Levels{}, fmt.Errorf("%w: no levels defined", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(levels.Levels))
	for i, level := range levels.Levels {
		if level.Name == "" {
			return Levels{}, fmt.Errorf("%w: level %d has no name", ErrInvalidConfig, i)
		}
		if seen[level.Name] {
			return Levels{}, fmt.Errorf("%w: duplicate level %q", ErrInvalidConfig, level.Name)
		}
		seen[level.Name] = true
		if err := level.Validate(); err != nil {
			return Levels{}, fmt.Errorf("level %q: %w", level.Name, err)
		}
	}
	return levels, nil
}

// Get looks a level up by name.
func (l Levels) Get(name string) (DifficultyConfig, bool) {
	for _, level := range l.Levels {
		if level.Name == name {
			return level, true
		}
	}
	return DifficultyConfig{}, false
}

// Rank is the strength position of the named level, or -1.
func (l Levels) Rank(name string) int {
	for i, level := range l.Levels {
		if level.Name == name {
			return i
		}
	}
	return -1
}

func (l Levels) Names() []string {
	names := make([]string, len(l.Levels))
	for i, level := range l.Levels {
		names[i] = level.Name
	}
	return names
}

// Marshal renders the levels back to YAML.
func (l Levels) Marshal() ([]byte, error) {
	return yaml.Marshal(l)
}
