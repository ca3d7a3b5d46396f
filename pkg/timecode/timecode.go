// Package timecode converts wall-clock seconds into MIDI tick positions
package timecode

import (
	"errors"
	"fmt"
	"math"
)

// Resolution is the default number of ticks per quarter note
const Resolution uint16 = 480

// MaxMicrosPerQuarter is the largest value a set-tempo meta event can hold
const MaxMicrosPerQuarter = 0xFFFFFF

var (
	// ErrInvalidTempo is returned for a tempo that is not a positive finite number
	ErrInvalidTempo = errors.New("invalid tempo")
	// ErrInvalidTime is returned for a negative or non-finite time value
	ErrInvalidTime = errors.New("invalid time")
)

// Converter maps seconds to ticks for a fixed tempo and resolution.
// It holds no mutable state and is safe to share.
type Converter struct {
	tempo      float64
	resolution uint16
}

// New creates a Converter at the default resolution
func New(tempo float64) (Converter, error) {
	return NewWithResolution(tempo, Resolution)
}

// NewWithResolution creates a Converter with an explicit ticks-per-quarter value
func NewWithResolution(tempo float64, resolution uint16) (Converter, error) {
	if err := CheckTempo(tempo); err != nil {
		return Converter{}, err
	}
	if resolution == 0 {
		return Converter{}, errors.New("resolution must be positive")
	}
	return Converter{tempo: tempo, resolution: resolution}, nil
}

// CheckTempo reports whether tempo is usable
func CheckTempo(tempo float64) error {
	if math.IsNaN(tempo) || math.IsInf(tempo, 0) || tempo <= 0 {
		return fmt.Errorf("%w: %v BPM", ErrInvalidTempo, tempo)
	}
	return nil
}

// CheckTime reports whether seconds is usable as a timeline position
func CheckTime(seconds float64) error {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return fmt.Errorf("%w: %v s", ErrInvalidTime, seconds)
	}
	return nil
}

// MicrosecondsPerQuarter returns the set-tempo value for tempo. Tempos whose
// value rounds outside 1..MaxMicrosPerQuarter (below about 3.58 BPM or above
// 120,000,000 BPM) cannot be written to a MIDI file.
func MicrosecondsPerQuarter(tempo float64) (uint32, error) {
	if err := CheckTempo(tempo); err != nil {
		return 0, err
	}
	mpq := math.Round(60e6 / tempo)
	if mpq < 1 || mpq > MaxMicrosPerQuarter {
		return 0, fmt.Errorf("%w: %v BPM has no MIDI set-tempo value", ErrInvalidTempo, tempo)
	}
	return uint32(mpq), nil
}

// TicksPerSecond returns resolution * tempo / 60
func (c Converter) TicksPerSecond() float64 {
	return float64(c.resolution) * c.tempo / 60
}

// Ticks converts an absolute time to an absolute tick, rounding half away
// from zero. Positions are never derived from a previous result.
func (c Converter) Ticks(seconds float64) (int64, error) {
	if err := CheckTime(seconds); err != nil {
		return 0, err
	}
	ticks := math.Round(seconds * c.TicksPerSecond())
	if math.IsNaN(ticks) || ticks >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v s at %v BPM overflows the tick range", ErrInvalidTime, seconds, c.tempo)
	}
	return int64(ticks), nil
}

// Format renders seconds as m:ss with unpadded minutes
func Format(seconds float64) string {
	mins := int64(math.Floor(seconds / 60))
	secs := int64(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%d:%02d", mins, secs)
}
