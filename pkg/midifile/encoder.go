package midifile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrEncoding is returned when tracks cannot be written as a MIDI file
var ErrEncoding = errors.New("midi encoding error")

// Encoder writes Standard MIDI Files. It is stateless apart from the
// resolution and may be shared between goroutines.
type Encoder struct {
	resolution uint16
}

// NewEncoder creates an encoder writing the given ticks per quarter note
func NewEncoder(resolution uint16) Encoder {
	return Encoder{resolution: resolution}
}

// Resolution returns the ticks per quarter note written to the header
func (e Encoder) Resolution() uint16 {
	return e.resolution
}

// Encode writes a header chunk followed by one track chunk per track.
// A single track is written as format 0, anything more as format 1.
func (e Encoder) Encode(tracks []Track) ([]byte, error) {
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no tracks", ErrEncoding)
	}
	if len(tracks) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d tracks exceed the header limit", ErrEncoding, len(tracks))
	}
	if e.resolution == 0 || e.resolution > 0x7FFF {
		return nil, fmt.Errorf("%w: resolution %d out of range", ErrEncoding, e.resolution)
	}

	format := uint16(1)
	if len(tracks) == 1 {
		format = 0
	}

	var buf bytes.Buffer
	buf.WriteString("MThd")
	header := make([]byte, 10)
	binary.BigEndian.PutUint32(header[0:4], 6)
	binary.BigEndian.PutUint16(header[4:6], format)
	binary.BigEndian.PutUint16(header[6:8], uint16(len(tracks)))
	binary.BigEndian.PutUint16(header[8:10], e.resolution)
	buf.Write(header)

	for i, track := range tracks {
		body, err := encodeTrack(track)
		if err != nil {
			return nil, fmt.Errorf("track %d (%s): %w", i+1, track.Name(), err)
		}
		buf.WriteString("MTrk")
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(body)))
		buf.Write(length[:])
		buf.Write(body)
	}

	return buf.Bytes(), nil
}

// encodeTrack converts absolute ticks to deltas. Events sharing a tick keep
// the order the builder gave them. End-of-track events are folded into a
// single trailing FF 2F 00 at the latest tick seen.
func encodeTrack(track Track) ([]byte, error) {
	events := track.events
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: empty track", ErrEncoding)
	}

	order := make([]int, len(events))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return events[order[a]].Tick < events[order[b]].Tick
	})

	var body []byte
	var last, end int64
	for _, idx := range order {
		ev := events[idx]
		if ev.Tick < 0 {
			return nil, fmt.Errorf("%w: negative tick %d on %s event", ErrEncoding, ev.Tick, ev.Kind)
		}
		if ev.Tick > end {
			end = ev.Tick
		}
		if ev.Kind == KindEndOfTrack {
			continue
		}
		if err := checkMessage(ev); err != nil {
			return nil, err
		}
		if channel, program, ok := track.Channel(); ok {
			if err := checkAssignment(ev, channel, program); err != nil {
				return nil, err
			}
		}

		var err error
		if body, err = appendDelta(body, ev.Tick-last); err != nil {
			return nil, err
		}
		body = append(body, ev.Message...)
		last = ev.Tick
	}

	var err error
	if body, err = appendDelta(body, end-last); err != nil {
		return nil, err
	}
	return append(body, endOfTrack...), nil
}

func appendDelta(body []byte, delta int64) ([]byte, error) {
	if delta > maxVLQ {
		return nil, fmt.Errorf("%w: delta %d exceeds the variable-length limit", ErrEncoding, delta)
	}
	return appendVLQ(body, uint32(delta)), nil
}

// checkMessage rejects messages that would corrupt the stream: empty
// payloads, missing status bytes and sysex or realtime status values that
// are not valid inside a track chunk.
func checkMessage(ev Event) error {
	if len(ev.Message) == 0 {
		return fmt.Errorf("%w: empty %s message at tick %d", ErrEncoding, ev.Kind, ev.Tick)
	}
	status := ev.Message[0]
	switch {
	case status == 0xFF:
		if len(ev.Message) < 3 {
			return fmt.Errorf("%w: truncated meta message at tick %d", ErrEncoding, ev.Tick)
		}
	case status >= 0x80 && status < 0xF0:
		if len(ev.Message) < 2 {
			return fmt.Errorf("%w: truncated channel message at tick %d", ErrEncoding, ev.Tick)
		}
	default:
		return fmt.Errorf("%w: unsupported status byte %#02x at tick %d", ErrEncoding, status, ev.Tick)
	}
	return nil
}

// checkAssignment keeps a channel track's voice messages on its channel and
// its program changes on its program
func checkAssignment(ev Event, channel, program uint8) error {
	status := ev.Message[0]
	if status < 0x80 || status >= 0xF0 {
		return nil
	}
	if got := status & 0x0F; got != channel {
		return fmt.Errorf("%w: %s message on channel %d in a channel %d track at tick %d",
			ErrEncoding, ev.Kind, got, channel, ev.Tick)
	}
	if status&0xF0 == 0xC0 && ev.Message[1] != program {
		return fmt.Errorf("%w: program change to %d in a program %d track at tick %d",
			ErrEncoding, ev.Message[1], program, ev.Tick)
	}
	return nil
}
