// Package midifile models MIDI events and tracks and encodes them as
// Standard MIDI Files
package midifile

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/timecode"
)

// Kind identifies the type of an Event
type Kind uint8

const (
	KindMarker Kind = iota
	KindText
	KindTrackName
	KindTempo
	KindTimeSignature
	KindProgramChange
	KindNote
	KindEndOfTrack

	// KindOther marks decoded events with no builder counterpart
	KindOther Kind = 0xFF
)

func (k Kind) String() string {
	switch k {
	case KindMarker:
		return "marker"
	case KindText:
		return "text"
	case KindTrackName:
		return "track name"
	case KindTempo:
		return "tempo"
	case KindTimeSignature:
		return "time signature"
	case KindProgramChange:
		return "program change"
	case KindNote:
		return "note"
	case KindEndOfTrack:
		return "end of track"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// endOfTrack is the meta message FF 2F 00
var endOfTrack = []byte{0xFF, 0x2F, 0x00}

// Event is a MIDI message at an absolute tick. Deltas are computed by the
// Encoder, never stored here.
type Event struct {
	Tick    int64
	Kind    Kind
	Message []byte
}

func newEvent(tick int64, kind Kind, msg []byte) Event {
	return Event{Tick: tick, Kind: kind, Message: append([]byte(nil), msg...)}
}

// Marker creates a marker meta event
func Marker(tick int64, text string) Event {
	return newEvent(tick, KindMarker, smf.MetaMarker(text))
}

// Text creates a text meta event
func Text(tick int64, text string) Event {
	return newEvent(tick, KindText, smf.MetaText(text))
}

// TrackName creates a sequence/track name meta event
func TrackName(tick int64, name string) Event {
	return newEvent(tick, KindTrackName, smf.MetaTrackSequenceName(name))
}

// Tempo creates a set-tempo meta event. smf.MetaTempo truncates values
// past 24 bits, so tempos outside the writable range are refused here.
func Tempo(tick int64, bpm float64) (Event, error) {
	if _, err := timecode.MicrosecondsPerQuarter(bpm); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return newEvent(tick, KindTempo, smf.MetaTempo(bpm)), nil
}

// TimeSignature creates a time signature meta event
func TimeSignature(tick int64, numerator, denominator uint8) Event {
	return newEvent(tick, KindTimeSignature, smf.MetaMeter(numerator, denominator))
}

// ProgramChange creates a program change on channel
func ProgramChange(tick int64, channel, program uint8) Event {
	return newEvent(tick, KindProgramChange, midi.ProgramChange(channel, program))
}

// NoteOn creates a note-on event
func NoteOn(tick int64, channel, key, velocity uint8) Event {
	return newEvent(tick, KindNote, midi.NoteOn(channel, key, velocity))
}

// NoteOff creates a note-off event
func NoteOff(tick int64, channel, key uint8) Event {
	return newEvent(tick, KindNote, midi.NoteOff(channel, key))
}

// EndOfTrack creates the end-of-track meta event
func EndOfTrack(tick int64) Event {
	return newEvent(tick, KindEndOfTrack, endOfTrack)
}
