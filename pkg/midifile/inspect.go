package midifile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2/smf"
)

// Summary is what Inspect recovers from an encoded file
type Summary struct {
	Format     uint16
	Resolution uint16
	Tracks     []TrackSummary
}

// TrackSummary lists the events of one track with absolute ticks
type TrackSummary struct {
	Name   string
	Events []InspectedEvent
}

// InspectedEvent is a decoded event. Text is set for marker, text and
// track name events.
type InspectedEvent struct {
	Tick    int64
	Kind    Kind
	Text    string
	Message []byte
}

// Markers returns the marker events of the track
func (t TrackSummary) Markers() []InspectedEvent {
	var out []InspectedEvent
	for _, ev := range t.Events {
		if ev.Kind == KindMarker {
			out = append(out, ev)
		}
	}
	return out
}

// Inspect parses a Standard MIDI File with gomidi's reader
func Inspect(data []byte) (sum *Summary, err error) {
	// smf.ReadFrom can panic on some malformed input
	defer func() {
		if r := recover(); r != nil {
			sum = nil
			err = fmt.Errorf("failed to parse MIDI: %v", r)
		}
	}()

	if len(data) < 14 || string(data[:4]) != "MThd" {
		return nil, errors.New("not a MIDI file")
	}

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	sum = &Summary{Format: binary.BigEndian.Uint16(data[8:10])}
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		sum.Resolution = mt.Resolution()
	}

	for _, track := range s.Tracks {
		var ts TrackSummary
		var tick int64
		for _, ev := range track {
			tick += int64(ev.Delta)
			ie := classify(tick, ev.Message)
			if ie.Kind == KindTrackName && ts.Name == "" {
				ts.Name = ie.Text
			}
			ts.Events = append(ts.Events, ie)
		}
		sum.Tracks = append(sum.Tracks, ts)
	}
	return sum, nil
}

func classify(tick int64, msg smf.Message) InspectedEvent {
	ie := InspectedEvent{Tick: tick, Kind: KindOther, Message: append([]byte(nil), msg...)}
	if len(msg) == 0 {
		return ie
	}

	status := msg[0]
	switch {
	case status == 0xFF && len(msg) >= 2:
		switch msg[1] {
		case 0x01:
			ie.Kind, ie.Text = KindText, metaText(msg)
		case 0x03:
			ie.Kind, ie.Text = KindTrackName, metaText(msg)
		case 0x06:
			ie.Kind, ie.Text = KindMarker, metaText(msg)
		case 0x2F:
			ie.Kind = KindEndOfTrack
		case 0x51:
			ie.Kind = KindTempo
		case 0x58:
			ie.Kind = KindTimeSignature
		}
	case status&0xF0 == 0xC0:
		ie.Kind = KindProgramChange
	case status&0xF0 == 0x80 || status&0xF0 == 0x90:
		ie.Kind = KindNote
	}
	return ie
}

// metaText extracts the payload of FF <type> <vlq length> <data>
func metaText(msg []byte) string {
	i := 2
	var length int
	for i < len(msg) {
		b := msg[i]
		i++
		length = length<<7 | int(b&0x7F)
		if b&0x80 == 0 {
			break
		}
	}
	if i+length > len(msg) {
		return string(msg[i:])
	}
	return string(msg[i : i+length])
}
