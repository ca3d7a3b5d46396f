package tracks

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/midifile"
)

// ErrInstrument is returned for an unusable instrument definition
var ErrInstrument = errors.New("invalid instrument")

var unsafeRunes = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// FileName returns the file an instrument track is written to, for example
// "drums.mid" or "lead_synth.mid"
func FileName(instrument string) string {
	return strings.ToLower(unsafeRunes.ReplaceAllString(instrument, "_")) + ".mid"
}

// PercussionChannel is the General MIDI drum channel (channel 10, zero-based 9)
const PercussionChannel = 9

// Instrument is a placeholder track definition. The generated notes are
// fixed scaffolding and do not depend on the analyzed audio.
type Instrument struct {
	Name    string
	Channel uint8 // 0-15
	Program uint8 // General MIDI program, zero-based
	Pattern Pattern
}

// DefaultInstruments returns the standard template set: Drums, Bass,
// Synth and Keys, each on its own channel
func DefaultInstruments() []Instrument {
	drums, _ := PatternByName("drums")
	bass, _ := PatternByName("bass")
	synth, _ := PatternByName("synth")
	keys, _ := PatternByName("keys")

	return []Instrument{
		{Name: "Drums", Channel: PercussionChannel, Program: 0, Pattern: drums},
		{Name: "Bass", Channel: 0, Program: 33, Pattern: bass},   // Electric Bass (finger)
		{Name: "Synth", Channel: 1, Program: 81, Pattern: synth}, // Lead 2 (sawtooth)
		{Name: "Keys", Channel: 2, Program: 0, Pattern: keys},    // Acoustic Grand Piano
	}
}

// Clone returns a deep copy so callers cannot alter a shared pattern
func (in Instrument) Clone() Instrument {
	out := in
	out.Pattern.Steps = make([]Step, len(in.Pattern.Steps))
	for i, step := range in.Pattern.Steps {
		step.Keys = append([]uint8(nil), step.Keys...)
		out.Pattern.Steps[i] = step
	}
	return out
}

// Validate checks ranges and pattern bounds
func (in Instrument) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInstrument)
	}
	if in.Channel > 15 {
		return fmt.Errorf("%w: %s uses channel %d, want 0-15", ErrInstrument, in.Name, in.Channel)
	}
	if in.Program > 127 {
		return fmt.Errorf("%w: %s uses program %d, want 0-127", ErrInstrument, in.Name, in.Program)
	}
	for i, step := range in.Pattern.Steps {
		length := step.Length
		if length < 1 {
			length = 1
		}
		if step.Index < 0 || step.Index+length > StepsPerBar {
			return fmt.Errorf("%w: %s step %d does not fit in the bar", ErrInstrument, in.Name, i+1)
		}
		if len(step.Keys) == 0 {
			return fmt.Errorf("%w: %s step %d has no keys", ErrInstrument, in.Name, i+1)
		}
		for _, key := range step.Keys {
			if key > 127 {
				return fmt.Errorf("%w: %s step %d key %d out of range", ErrInstrument, in.Name, i+1, key)
			}
		}
		if step.Velocity > 127 {
			return fmt.Errorf("%w: %s step %d velocity %d out of range", ErrInstrument, in.Name, i+1, step.Velocity)
		}
	}
	return nil
}

// ValidateInstruments checks every instrument and that no two share a
// channel or a file name
func ValidateInstruments(instruments []Instrument) error {
	if len(instruments) == 0 {
		return fmt.Errorf("%w: no instruments configured", ErrInstrument)
	}

	channels := make(map[uint8]string, len(instruments))
	names := make(map[string]string, len(instruments))
	for _, in := range instruments {
		if err := in.Validate(); err != nil {
			return err
		}
		if other, ok := channels[in.Channel]; ok {
			return fmt.Errorf("%w: %s and %s both use channel %d", ErrInstrument, other, in.Name, in.Channel)
		}
		channels[in.Channel] = in.Name

		file := FileName(in.Name)
		if other, ok := names[file]; ok {
			return fmt.Errorf("%w: %s and %s both write %s", ErrInstrument, other, in.Name, file)
		}
		names[file] = in.Name
	}
	return nil
}

// Track builds the placeholder track: program change, name and tempo at
// tick 0, one bar of the pattern, then end-of-track at the bar line.
func (in Instrument) Track(tempo float64, resolution uint16) (midifile.Track, error) {
	if err := in.Validate(); err != nil {
		return midifile.Track{}, err
	}
	tempoEvent, err := midifile.Tempo(0, tempo)
	if err != nil {
		return midifile.Track{}, err
	}

	// Each step is a 16th note = 1/4 of a quarter note
	ticksPerStep := int64(resolution) / 4
	if ticksPerStep == 0 {
		ticksPerStep = 1
	}
	// 75% of a step for a short note, like a 303 gate
	shortNote := ticksPerStep * 3 / 4
	if shortNote == 0 {
		shortNote = 1
	}

	events := []midifile.Event{
		midifile.ProgramChange(0, in.Channel, in.Program),
		midifile.TrackName(0, in.Name),
		tempoEvent,
	}

	for _, step := range in.Pattern.Steps {
		start := int64(step.Index) * ticksPerStep
		length := shortNote
		if step.Length > 1 {
			// Slight gap before the next note
			length = int64(step.Length)*ticksPerStep - ticksPerStep/8
		}

		velocity := step.Velocity
		if velocity == 0 {
			velocity = defaultVel
		}
		if step.Accent {
			velocity = 127
		}

		for _, key := range step.Keys {
			events = append(events, midifile.NoteOn(start, in.Channel, key, velocity))
		}
		for _, key := range step.Keys {
			events = append(events, midifile.NoteOff(start+length, in.Channel, key))
		}
	}

	events = append(events, midifile.EndOfTrack(StepsPerBar*ticksPerStep))
	return midifile.NewChannelTrack(in.Name, in.Channel, in.Program, events), nil
}
