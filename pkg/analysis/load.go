package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format represents an analysis file format
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatUnknown Format = "unknown"
)

// DetectFormat detects the format of an analysis file from its extension
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent guesses the format from the first significant byte
func DetectFormatFromContent(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatUnknown
	}
	if trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

// Decode parses an analysis result. Validation is left to the exporters.
func Decode(data []byte, format Format) (*Result, error) {
	if format == FormatUnknown {
		format = DetectFormatFromContent(data)
	}

	var r Result
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to parse analysis JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to parse analysis YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("cannot decode analysis: unknown format")
	}
	return &r, nil
}

// Load reads and decodes an analysis file
func Load(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis file: %w", err)
	}
	return Decode(data, DetectFormat(path))
}
