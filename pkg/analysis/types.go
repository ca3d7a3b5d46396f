// Package analysis holds the music-structure analysis consumed by the exporters
package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/timecode"
)

var (
	// ErrEmptyStructure is returned when a result has no sections
	ErrEmptyStructure = errors.New("empty structure")
	// ErrInvalidSection is returned for a malformed or out-of-order section
	ErrInvalidSection = errors.New("invalid section")
)

// Section is a labeled time range of the analyzed audio
type Section struct {
	Label     string  `json:"label" yaml:"label"`
	StartTime float64 `json:"start_time" yaml:"start_time"`
	EndTime   float64 `json:"end_time" yaml:"end_time"`
}

// Duration returns EndTime - StartTime
func (s Section) Duration() float64 {
	return s.EndTime - s.StartTime
}

// Result is the output of the external analysis service.
// Exporters treat it as read-only.
type Result struct {
	Tempo      float64   `json:"tempo" yaml:"tempo"`
	Structure  []Section `json:"structure" yaml:"structure"`
	Duration   float64   `json:"duration,omitempty" yaml:"duration,omitempty"`
	SampleRate int       `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// Validate checks that the tempo can be written to a MIDI file and checks
// every section. Overlapping sections are accepted; only the order of start
// times is enforced.
func (r *Result) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil result", ErrEmptyStructure)
	}
	if _, err := timecode.MicrosecondsPerQuarter(r.Tempo); err != nil {
		return err
	}
	if len(r.Structure) == 0 {
		return ErrEmptyStructure
	}

	prevStart := 0.0
	for i, s := range r.Structure {
		if strings.TrimSpace(s.Label) == "" {
			return fmt.Errorf("%w: section %d has no label", ErrInvalidSection, i+1)
		}
		if err := timecode.CheckTime(s.StartTime); err != nil {
			return fmt.Errorf("section %d start: %w", i+1, err)
		}
		if err := timecode.CheckTime(s.EndTime); err != nil {
			return fmt.Errorf("section %d end: %w", i+1, err)
		}
		if s.EndTime <= s.StartTime {
			return fmt.Errorf("%w: section %d (%s) ends at %v, not after its start %v",
				ErrInvalidSection, i+1, s.Label, s.EndTime, s.StartTime)
		}
		if i > 0 && s.StartTime < prevStart {
			return fmt.Errorf("%w: section %d (%s) starts at %v, before the previous section",
				ErrInvalidSection, i+1, s.Label, s.StartTime)
		}
		prevStart = s.StartTime
	}
	return nil
}

// End returns the end time of the last section, which is the nominal end of
// the exported timeline
func (r *Result) End() float64 {
	if len(r.Structure) == 0 {
		return 0
	}
	return r.Structure[len(r.Structure)-1].EndTime
}
