package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/analysis"
)

// Kind selects which artifact ExportFile produces
type Kind string

const (
	KindMarkers  Kind = "markers"
	KindTemplate Kind = "template"
)

// WriteArtifact stores an artifact in dir under its suggested name and
// returns the written path
func WriteArtifact(dir string, a Artifact) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, a.Name)
	if err := os.WriteFile(path, a.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	return path, nil
}

// ExportFile reads an analysis file, builds the requested artifact and
// writes it to outputDir. originalName defaults to the analysis file name.
func (e *Exporter) ExportFile(kind Kind, analysisPath, originalName, outputDir string) (string, error) {
	result, err := analysis.Load(analysisPath)
	if err != nil {
		return "", err
	}
	if originalName == "" {
		originalName = filepath.Base(analysisPath)
	}

	var a Artifact
	switch kind {
	case KindMarkers:
		a, err = e.MarkerFile(result, originalName)
	case KindTemplate:
		a, err = e.TemplateArchive(result, originalName)
	default:
		return "", fmt.Errorf("unsupported export: %s", kind)
	}
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	return WriteArtifact(outputDir, a)
}
