package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a scenario file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Loader reads scenario files.
type Loader struct {
	// ExpandEnv enables ${VAR} expansion before parsing.
	ExpandEnv bool
	// StrictEnv fails on unset variables that have no default.
	StrictEnv bool
}

// NewLoader returns a loader with expansion on and strict mode off.
func NewLoader() *Loader {
	return &Loader{ExpandEnv: true}
}

// LoadFile loads a scenario from path. A missing name defaults to the file
// name without extension; a missing field size defaults to 20x50.
func (l *Loader) LoadFile(path string) (Scenario, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Scenario{}, err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied scenario path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Scenario{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	s, err := l.Load(bytes.NewReader(data), format)
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Load parses a scenario from r.
func (l *Loader) Load(r io.Reader, format Format) (Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	if l.ExpandEnv {
		expanded, err := expandEnv(string(data), l.StrictEnv)
		if err != nil {
			return Scenario{}, err
		}
		data = []byte(expanded)
	}

	var s Scenario
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &s)
	case FormatJSON:
		err = json.Unmarshal(data, &s)
	case FormatTOML:
		err = toml.Unmarshal(data, &s)
	default:
		return Scenario{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Scenario{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if s.Width == 0 && s.Height == 0 {
		s.Width, s.Height = DefaultWidth, DefaultHeight
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// LoadString parses a scenario from a string.
func (l *Loader) LoadString(content string, format Format) (Scenario, error) {
	return l.Load(strings.NewReader(content), format)
}
