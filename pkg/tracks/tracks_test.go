package tracks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/analysis"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/midifile"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/timecode"
)

func sampleResult() *analysis.Result {
	return &analysis.Result{
		Tempo: 120,
		Structure: []analysis.Section{
			{Label: "Intro", StartTime: 0, EndTime: 15.2},
			{Label: "Verse", StartTime: 15.2, EndTime: 47.9},
			{Label: "Chorus", StartTime: 47.9, EndTime: 125.5},
		},
	}
}

func TestMarkers(t *testing.T) {
	track, err := Markers(sampleResult(), timecode.Resolution)
	require.NoError(t, err)
	assert.Equal(t, MarkerTrackName, track.Name())

	type item struct {
		tick int64
		kind midifile.Kind
	}
	var got []item
	for _, ev := range track.Events() {
		got = append(got, item{ev.Tick, ev.Kind})
	}

	want := []item{
		{0, midifile.KindTrackName},
		{0, midifile.KindTempo},
		{0, midifile.KindTimeSignature},
		{0, midifile.KindMarker},
		{0, midifile.KindText},
		{14592, midifile.KindMarker},
		{14592, midifile.KindText},
		{45984, midifile.KindMarker},
		{45984, midifile.KindText},
		{120480, midifile.KindMarker},
		{120480, midifile.KindEndOfTrack},
	}
	assert.Equal(t, want, got)

	for _, ev := range track.Events() {
		assert.NotEqual(t, midifile.KindNote, ev.Kind, "marker track must not carry notes")
		assert.NotEqual(t, midifile.KindProgramChange, ev.Kind)
	}
}

func TestMarkerTexts(t *testing.T) {
	r := sampleResult()
	assert.Equal(t, "Intro (0:00)", MarkerLabel(r.Structure[0]))
	assert.Equal(t, "Verse (0:15)", MarkerLabel(r.Structure[1]))
	assert.Equal(t, "Section 1: Intro - Duration: 0:15", SectionText(0, r.Structure[0]))
	assert.Equal(t, "Section 3: Chorus - Duration: 1:17", SectionText(2, r.Structure[2]))
	assert.Equal(t, "End (2:05)", EndLabel(r.End()))
}

func TestMarkersEmptyStructure(t *testing.T) {
	_, err := Markers(&analysis.Result{Tempo: 120}, timecode.Resolution)
	assert.True(t, errors.Is(err, analysis.ErrEmptyStructure))

	_, err = Markers(nil, timecode.Resolution)
	assert.True(t, errors.Is(err, analysis.ErrEmptyStructure))
}

func TestMarkersBadTempo(t *testing.T) {
	r := sampleResult()
	r.Tempo = -5
	_, err := Markers(r, timecode.Resolution)
	assert.True(t, errors.Is(err, timecode.ErrInvalidTempo))
}

func TestMarkersUnwritableTempo(t *testing.T) {
	for _, bpm := range []float64{1, 0.5, 3.5} {
		r := sampleResult()
		r.Tempo = bpm
		_, err := Markers(r, timecode.Resolution)
		assert.True(t, errors.Is(err, timecode.ErrInvalidTempo), "tempo %v: error = %v", bpm, err)
	}
}

func TestMarkersOverlapStillEncodes(t *testing.T) {
	r := &analysis.Result{
		Tempo: 100,
		Structure: []analysis.Section{
			{Label: "A", StartTime: 0, EndTime: 30},
			{Label: "B", StartTime: 10, EndTime: 20},
		},
	}
	track, err := Markers(r, timecode.Resolution)
	require.NoError(t, err)

	_, err = midifile.NewEncoder(timecode.Resolution).Encode([]midifile.Track{track})
	assert.NoError(t, err)
}

func TestDefaultInstruments(t *testing.T) {
	instruments := DefaultInstruments()
	require.Len(t, instruments, 4)

	names := []string{"Drums", "Bass", "Synth", "Keys"}
	for i, in := range instruments {
		assert.Equal(t, names[i], in.Name)
	}
	assert.Equal(t, uint8(PercussionChannel), instruments[0].Channel)
	assert.NoError(t, ValidateInstruments(instruments))

	// Each call hands out independent values
	instruments[0].Pattern.Steps[0].Keys[0] = 1
	again := DefaultInstruments()
	assert.Equal(t, uint8(kick), again[0].Pattern.Steps[0].Keys[0])
}

func TestValidateInstruments(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]Instrument) []Instrument
	}{
		{"empty", func([]Instrument) []Instrument { return nil }},
		{"duplicate channel", func(in []Instrument) []Instrument { in[1].Channel = in[2].Channel; return in }},
		{"duplicate name", func(in []Instrument) []Instrument { in[3].Name = "drums"; return in }},
		{"same file name", func(in []Instrument) []Instrument { in[1].Name = "Lead Synth"; in[2].Name = "Lead_Synth"; return in }},
		{"channel out of range", func(in []Instrument) []Instrument { in[0].Channel = 16; return in }},
		{"program out of range", func(in []Instrument) []Instrument { in[0].Program = 128; return in }},
		{"blank name", func(in []Instrument) []Instrument { in[0].Name = ""; return in }},
		{"step past bar", func(in []Instrument) []Instrument {
			in[2].Pattern.Steps = append(in[2].Pattern.Steps, Step{Index: 15, Length: 2, Keys: []uint8{60}})
			return in
		}},
		{"step without keys", func(in []Instrument) []Instrument {
			in[2].Pattern.Steps[0].Keys = nil
			return in
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInstruments(tt.mutate(DefaultInstruments()))
			assert.True(t, errors.Is(err, ErrInstrument), "ValidateInstruments() error = %v", err)
		})
	}
}

func TestInstrumentTrack(t *testing.T) {
	bass := DefaultInstruments()[1]
	track, err := bass.Track(120, timecode.Resolution)
	require.NoError(t, err)

	events := track.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, midifile.KindProgramChange, events[0].Kind, "track must begin with a program change")
	assert.Equal(t, []byte{0xC0, 33}, events[0].Message)

	ch, prog, ok := track.Channel()
	assert.True(t, ok)
	assert.Equal(t, uint8(0), ch)
	assert.Equal(t, uint8(33), prog)

	last := events[len(events)-1]
	assert.Equal(t, midifile.KindEndOfTrack, last.Kind)
	assert.Equal(t, int64(1920), last.Tick)

	var ons, offs int
	for _, ev := range events {
		if ev.Kind != midifile.KindNote {
			continue
		}
		switch ev.Message[0] & 0xF0 {
		case 0x90:
			ons++
		case 0x80:
			offs++
		}
		assert.Equal(t, byte(0), ev.Message[0]&0x0F, "note on wrong channel")
		assert.LessOrEqual(t, ev.Tick, int64(1920))
	}
	assert.Equal(t, 6, ons)
	assert.Equal(t, ons, offs)
}

func TestInstrumentTrackNoteLengths(t *testing.T) {
	keys := DefaultInstruments()[3]
	track, err := keys.Track(90, 480)
	require.NoError(t, err)

	var offTicks []int64
	for _, ev := range track.Events() {
		if ev.Kind == midifile.KindNote && ev.Message[0]&0xF0 == 0x80 {
			offTicks = append(offTicks, ev.Tick)
		}
	}
	// 8 steps * 120 ticks - 15 tick gap
	assert.Equal(t, []int64{945, 945, 945, 1905, 1905, 1905}, offTicks)
}

func TestInstrumentTrackIsDeterministic(t *testing.T) {
	for _, in := range DefaultInstruments() {
		a, err := in.Track(133, timecode.Resolution)
		require.NoError(t, err)
		b, err := in.Track(133, timecode.Resolution)
		require.NoError(t, err)
		assert.Equal(t, a.Events(), b.Events(), in.Name)
	}
}

func TestInstrumentTrackEncodes(t *testing.T) {
	enc := midifile.NewEncoder(timecode.Resolution)
	for _, in := range DefaultInstruments() {
		track, err := in.Track(120, timecode.Resolution)
		require.NoError(t, err)

		data, err := enc.Encode([]midifile.Track{track})
		require.NoError(t, err)

		sum, err := midifile.Inspect(data)
		require.NoError(t, err)
		require.Len(t, sum.Tracks, 1)
		assert.Equal(t, in.Name, sum.Tracks[0].Name)
	}
}

func TestInstrumentTrackBadTempo(t *testing.T) {
	for _, bpm := range []float64{0, 1} {
		_, err := DefaultInstruments()[0].Track(bpm, timecode.Resolution)
		assert.True(t, errors.Is(err, timecode.ErrInvalidTempo), "tempo %v: error = %v", bpm, err)
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "drums.mid", FileName("Drums"))
	assert.Equal(t, "lead_synth.mid", FileName("Lead Synth"))
	assert.Equal(t, "lead_synth.mid", FileName("Lead_Synth"))
}

func TestPatternByName(t *testing.T) {
	for _, name := range PatternNames() {
		p, ok := PatternByName(name)
		assert.True(t, ok, name)
		assert.NotEmpty(t, p.Steps, name)
	}
	_, ok := PatternByName("theremin")
	assert.False(t, ok)
}
