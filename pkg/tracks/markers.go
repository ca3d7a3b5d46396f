// Package tracks builds the MIDI tracks that make up an export: the
// structure marker track and the placeholder instrument tracks
package tracks

import (
	"fmt"

	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/analysis"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/midifile"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/timecode"
)

// MarkerTrackName is the name written to the marker track
const MarkerTrackName = "Structure"

// Markers builds the structure marker track: a marker and a text event per
// section, then a terminal "End" marker at the last section's end time.
func Markers(result *analysis.Result, resolution uint16) (midifile.Track, error) {
	if result == nil || len(result.Structure) == 0 {
		return midifile.Track{}, analysis.ErrEmptyStructure
	}

	conv, err := timecode.NewWithResolution(result.Tempo, resolution)
	if err != nil {
		return midifile.Track{}, err
	}

	tempo, err := midifile.Tempo(0, result.Tempo)
	if err != nil {
		return midifile.Track{}, err
	}

	events := make([]midifile.Event, 0, 2*len(result.Structure)+5)
	events = append(events,
		midifile.TrackName(0, MarkerTrackName),
		tempo,
		midifile.TimeSignature(0, 4, 4),
	)

	for i, section := range result.Structure {
		tick, err := conv.Ticks(section.StartTime)
		if err != nil {
			return midifile.Track{}, fmt.Errorf("section %d: %w", i+1, err)
		}
		events = append(events,
			midifile.Marker(tick, MarkerLabel(section)),
			midifile.Text(tick, SectionText(i, section)),
		)
	}

	last := result.Structure[len(result.Structure)-1]
	endTick, err := conv.Ticks(last.EndTime)
	if err != nil {
		return midifile.Track{}, fmt.Errorf("end marker: %w", err)
	}
	events = append(events,
		midifile.Marker(endTick, EndLabel(last.EndTime)),
		midifile.EndOfTrack(endTick),
	)

	return midifile.NewTrack(MarkerTrackName, events), nil
}

// MarkerLabel returns "{label} ({m:ss start})"
func MarkerLabel(s analysis.Section) string {
	return fmt.Sprintf("%s (%s)", s.Label, timecode.Format(s.StartTime))
}

// SectionText returns "Section {n}: {label} - Duration: {m:ss}" for the
// zero-based index i
func SectionText(i int, s analysis.Section) string {
	return fmt.Sprintf("Section %d: %s - Duration: %s", i+1, s.Label, timecode.Format(s.Duration()))
}

// EndLabel returns "End ({m:ss end})"
func EndLabel(end float64) string {
	return fmt.Sprintf("End (%s)", timecode.Format(end))
}
