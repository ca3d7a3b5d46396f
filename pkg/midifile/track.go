package midifile

// Track is an ordered list of events with an optional channel assignment.
// A Track is immutable: events are copied in on construction and copied
// out by Events.
type Track struct {
	name       string
	channel    uint8
	program    uint8
	hasChannel bool
	events     []Event
}

// NewTrack creates a track carrying no channel assignment
func NewTrack(name string, events []Event) Track {
	return Track{name: name, events: copyEvents(events)}
}

// NewChannelTrack creates a track bound to a channel and program. The
// encoder rejects channel messages on any other channel and program changes
// to any other program.
func NewChannelTrack(name string, channel, program uint8, events []Event) Track {
	return Track{
		name:       name,
		channel:    channel,
		program:    program,
		hasChannel: true,
		events:     copyEvents(events),
	}
}

// Name returns the track name
func (t Track) Name() string {
	return t.name
}

// Channel returns the assigned channel and program, if any
func (t Track) Channel() (channel, program uint8, ok bool) {
	return t.channel, t.program, t.hasChannel
}

// Events returns a copy of the events in builder order
func (t Track) Events() []Event {
	return copyEvents(t.events)
}

func copyEvents(events []Event) []Event {
	out := make([]Event, len(events))
	for i, ev := range events {
		out[i] = Event{Tick: ev.Tick, Kind: ev.Kind, Message: append([]byte(nil), ev.Message...)}
	}
	return out
}
