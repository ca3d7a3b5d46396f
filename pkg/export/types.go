// Package export turns an analysis result into downloadable DAW artifacts:
// a structure marker MIDI file and a multi-track template archive
package export

import (
	"regexp"

	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/tracks"
)

// Content types of the produced artifacts
const (
	ContentTypeMIDI = "audio/midi"
	ContentTypeZip  = "application/zip"
)

// Artifact is a finished file: a suggested name and its bytes
type Artifact struct {
	Name        string
	Data        []byte
	ContentType string
}

// Outcome is delivered by the asynchronous export calls
type Outcome struct {
	Artifact Artifact
	Err      error
}

var (
	extensionPattern = regexp.MustCompile(`\.[^/.]+$`)
	unsafeRunes      = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// BaseName drops the final extension of an uploaded file name and replaces
// every character outside [A-Za-z0-9_-] with an underscore
func BaseName(originalName string) string {
	base := extensionPattern.ReplaceAllString(originalName, "")
	base = unsafeRunes.ReplaceAllString(base, "_")
	if base == "" {
		return "untitled"
	}
	return base
}

// MarkerFileName returns "{base}_structure_markers.mid"
func MarkerFileName(originalName string) string {
	return BaseName(originalName) + "_structure_markers.mid"
}

// TemplateArchiveName returns "{base}_ableton_template.zip"
func TemplateArchiveName(originalName string) string {
	return BaseName(originalName) + "_ableton_template.zip"
}

// InstrumentFileName returns the archive entry name for an instrument, for
// example "drums.mid"
func InstrumentFileName(instrument string) string {
	return tracks.FileName(instrument)
}
