package midifile

import (
	"bytes"
	"errors"
	"testing"

	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/timecode"
)

func TestAppendVLQ(t *testing.T) {
	tests := []struct {
		value    uint32
		expected []byte
	}{
		{0x00, []byte{0x00}},
		{0x40, []byte{0x40}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x81, 0x00}},
		{0x2000, []byte{0xC0, 0x00}},
		{0x3FFF, []byte{0xFF, 0x7F}},
		{0x4000, []byte{0x81, 0x80, 0x00}},
		{0x1FFFFF, []byte{0xFF, 0xFF, 0x7F}},
		{0x200000, []byte{0x81, 0x80, 0x80, 0x00}},
		{0x0FFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}

	for _, tt := range tests {
		got := appendVLQ(nil, tt.value)
		if !bytes.Equal(got, tt.expected) {
			t.Errorf("appendVLQ(%#x) = % X, want % X", tt.value, got, tt.expected)
		}
	}
}

func TestEncodeSingleTrackBytes(t *testing.T) {
	track := NewTrack("t", []Event{
		Marker(0, "A"),
		EndOfTrack(10),
	})

	data, err := NewEncoder(480).Encode([]Track{track})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	expected := []byte{
		'M', 'T', 'h', 'd', 0x00, 0x00, 0x00, 0x06,
		0x00, 0x00, // format 0
		0x00, 0x01, // one track
		0x01, 0xE0, // 480 PPQ
		'M', 'T', 'r', 'k', 0x00, 0x00, 0x00, 0x09,
		0x00, 0xFF, 0x06, 0x01, 'A',
		0x0A, 0xFF, 0x2F, 0x00,
	}
	if !bytes.Equal(data, expected) {
		t.Errorf("Encode() =\n% X\nwant\n% X", data, expected)
	}
}

func TestEncodeMultiTrackHeader(t *testing.T) {
	a := NewTrack("a", []Event{EndOfTrack(0)})
	b := NewTrack("b", []Event{Text(5, "x"), EndOfTrack(5)})

	data, err := NewEncoder(96).Encode([]Track{a, b})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if data[9] != 1 {
		t.Errorf("format = %d, want 1", data[9])
	}
	if data[11] != 2 {
		t.Errorf("track count = %d, want 2", data[11])
	}
	if bytes.Count(data, []byte("MTrk")) != 2 {
		t.Errorf("expected two track chunks")
	}
}

func TestEncodeSortsByTickStably(t *testing.T) {
	track := NewTrack("order", []Event{
		Marker(960, "second"),
		Marker(0, "first"),
		Text(960, "second text"),
		Marker(480, "middle"),
		EndOfTrack(960),
	})

	data, err := NewEncoder(480).Encode([]Track{track})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	sum, err := Inspect(data)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}

	var got []string
	var ticks []int64
	for _, ev := range sum.Tracks[0].Events {
		if ev.Kind == KindMarker || ev.Kind == KindText {
			got = append(got, ev.Text)
			ticks = append(ticks, ev.Tick)
		}
	}

	wantTexts := []string{"first", "middle", "second", "second text"}
	wantTicks := []int64{0, 480, 960, 960}
	if len(got) != len(wantTexts) {
		t.Fatalf("decoded %d text events, want %d", len(got), len(wantTexts))
	}
	for i := range wantTexts {
		if got[i] != wantTexts[i] || ticks[i] != wantTicks[i] {
			t.Errorf("event %d = %q@%d, want %q@%d", i, got[i], ticks[i], wantTexts[i], wantTicks[i])
		}
	}
}

func TestEncodeSingleTrailingEndOfTrack(t *testing.T) {
	track := NewTrack("eot", []Event{
		EndOfTrack(100),
		Marker(50, "m"),
		EndOfTrack(20),
	})

	data, err := NewEncoder(480).Encode([]Track{track})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if bytes.Count(data, endOfTrack) != 1 {
		t.Errorf("expected exactly one end-of-track, got %d", bytes.Count(data, endOfTrack))
	}
	// delta 50 to the marker, then 50 to the end
	if !bytes.HasSuffix(data, []byte{0x32, 0xFF, 0x2F, 0x00}) {
		t.Errorf("track does not end 50 ticks after the marker: % X", data[len(data)-8:])
	}
}

func TestEncodeAppendsMissingEndOfTrack(t *testing.T) {
	track := NewTrack("no eot", []Event{Marker(7, "m")})

	data, err := NewEncoder(480).Encode([]Track{track})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.HasSuffix(data, []byte{0x00, 0xFF, 0x2F, 0x00}) {
		t.Errorf("missing end-of-track: % X", data)
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		tracks []Track
	}{
		{"no tracks", nil},
		{"empty track", []Track{NewTrack("empty", nil)}},
		{"negative tick", []Track{NewTrack("neg", []Event{Marker(-1, "x")})}},
		{"huge delta", []Track{NewTrack("far", []Event{Marker(maxVLQ+1, "x")})}},
		{"empty message", []Track{NewTrack("blank", []Event{{Tick: 0, Kind: KindText}})}},
		{"sysex", []Track{NewTrack("sysex", []Event{{Tick: 0, Kind: KindText, Message: []byte{0xF0, 0x7E, 0xF7}}})}},
		{"second track empty", []Track{NewTrack("ok", []Event{EndOfTrack(0)}), NewTrack("bad", nil)}},
		{"wrong channel", []Track{NewChannelTrack("bass", 0, 33, []Event{NoteOn(0, 3, 36, 100), NoteOff(90, 3, 36)})}},
		{"program mismatch", []Track{NewChannelTrack("bass", 0, 33, []Event{ProgramChange(0, 0, 34)})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := NewEncoder(480).Encode(tt.tracks)
			if !errors.Is(err, ErrEncoding) {
				t.Errorf("Encode() error = %v, want ErrEncoding", err)
			}
			if data != nil {
				t.Errorf("Encode() returned %d bytes alongside an error", len(data))
			}
		})
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	track := NewChannelTrack("keys", 2, 0, []Event{
		ProgramChange(0, 2, 0),
		NoteOn(0, 2, 60, 100),
		NoteOff(360, 2, 60),
		EndOfTrack(1920),
	})
	enc := NewEncoder(480)

	a, err := enc.Encode([]Track{track})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	b, _ := enc.Encode([]Track{track})
	if !bytes.Equal(a, b) {
		t.Error("Encode() output differs between runs")
	}
}

func TestTrackIsImmutable(t *testing.T) {
	events := []Event{Marker(0, "original"), EndOfTrack(0)}
	track := NewTrack("imm", events)

	events[0] = Marker(99, "changed")
	got := track.Events()
	got[1].Tick = 1234
	got[0].Message[len(got[0].Message)-1] = 'X'

	again := track.Events()
	if again[0].Tick != 0 || again[1].Tick != 0 {
		t.Errorf("track events were mutated: %+v", again)
	}
	if string(again[0].Message[len(again[0].Message)-8:]) != "original" {
		t.Errorf("track message was mutated: %q", again[0].Message)
	}
}

func TestChannelTrack(t *testing.T) {
	ch, prog, ok := NewChannelTrack("drums", 9, 0, nil).Channel()
	if !ok || ch != 9 || prog != 0 {
		t.Errorf("Channel() = %d, %d, %v; want 9, 0, true", ch, prog, ok)
	}
	if _, _, ok := NewTrack("markers", nil).Channel(); ok {
		t.Error("plain track should carry no channel")
	}
}

func TestInspectChannelEvents(t *testing.T) {
	track := NewChannelTrack("bass", 0, 33, []Event{
		ProgramChange(0, 0, 33),
		TrackName(0, "Bass"),
		NoteOn(0, 0, 36, 100),
		NoteOff(90, 0, 36),
		EndOfTrack(1920),
	})
	data, err := NewEncoder(480).Encode([]Track{track})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	sum, err := Inspect(data)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if sum.Format != 0 || sum.Resolution != 480 || len(sum.Tracks) != 1 {
		t.Fatalf("Inspect() = format %d, resolution %d, %d tracks", sum.Format, sum.Resolution, len(sum.Tracks))
	}
	if sum.Tracks[0].Name != "Bass" {
		t.Errorf("track name = %q, want Bass", sum.Tracks[0].Name)
	}

	kinds := map[Kind]int{}
	for _, ev := range sum.Tracks[0].Events {
		kinds[ev.Kind]++
	}
	if kinds[KindProgramChange] != 1 || kinds[KindNote] != 2 {
		t.Errorf("decoded kinds = %v", kinds)
	}
}

func TestTempo(t *testing.T) {
	ev, err := Tempo(0, 120)
	if err != nil {
		t.Fatalf("Tempo(120) error = %v", err)
	}
	want := []byte{0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20}
	if !bytes.Equal(ev.Message, want) {
		t.Errorf("Tempo(120) = % X, want % X", ev.Message, want)
	}

	for _, bpm := range []float64{1, 0.5, 3.5, 0} {
		if _, err := Tempo(0, bpm); !errors.Is(err, ErrEncoding) || !errors.Is(err, timecode.ErrInvalidTempo) {
			t.Errorf("Tempo(%v) error = %v, want ErrEncoding and ErrInvalidTempo", bpm, err)
		}
	}
}

func TestInspectRejectsGarbage(t *testing.T) {
	if _, err := Inspect([]byte("RIFF0000WAVEfmt ")); err == nil {
		t.Error("Inspect() accepted a non-MIDI buffer")
	}
}
