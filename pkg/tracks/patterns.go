package tracks

import "strings"

// StepsPerBar is the length of every placeholder pattern (16th notes in 4/4)
const StepsPerBar = 16

// Step is one hit in a sixteen-step pattern
type Step struct {
	Index    int     `yaml:"index"`            // position in the bar (0-15)
	Length   int     `yaml:"length,omitempty"` // steps held; 0 or 1 is a short note
	Keys     []uint8 `yaml:"keys,flow"`        // MIDI note numbers sounded together
	Velocity uint8   `yaml:"velocity,omitempty"`
	Accent   bool    `yaml:"accent,omitempty"`
}

// Pattern is a fixed one-bar note pattern
type Pattern struct {
	Name  string `yaml:"name,omitempty"`
	Steps []Step `yaml:"steps"`
}

// General MIDI percussion keys
const (
	kick       = 36
	snare      = 38
	closedHat  = 42
	defaultVel = 100
)

// PatternByName returns a built-in pattern. Each call returns a fresh value.
func PatternByName(name string) (Pattern, bool) {
	switch strings.ToLower(name) {
	case "drums":
		return Pattern{Name: "drums", Steps: []Step{
			{Index: 0, Keys: []uint8{kick, closedHat}, Accent: true},
			{Index: 2, Keys: []uint8{closedHat}},
			{Index: 4, Keys: []uint8{snare, closedHat}},
			{Index: 6, Keys: []uint8{closedHat}},
			{Index: 8, Keys: []uint8{kick, closedHat}, Accent: true},
			{Index: 10, Keys: []uint8{closedHat}},
			{Index: 12, Keys: []uint8{snare, closedHat}},
			{Index: 14, Keys: []uint8{closedHat}},
		}}, true
	case "bass":
		return Pattern{Name: "bass", Steps: []Step{
			{Index: 0, Length: 2, Keys: []uint8{36}, Accent: true},
			{Index: 3, Keys: []uint8{36}},
			{Index: 6, Length: 2, Keys: []uint8{36}},
			{Index: 8, Length: 2, Keys: []uint8{41}},
			{Index: 11, Keys: []uint8{41}},
			{Index: 14, Length: 2, Keys: []uint8{43}},
		}}, true
	case "synth":
		return Pattern{Name: "synth", Steps: []Step{
			{Index: 0, Length: 2, Keys: []uint8{72}},
			{Index: 4, Length: 2, Keys: []uint8{76}},
			{Index: 8, Length: 2, Keys: []uint8{79}},
			{Index: 12, Length: 2, Keys: []uint8{84}},
		}}, true
	case "keys":
		return Pattern{Name: "keys", Steps: []Step{
			{Index: 0, Length: 8, Keys: []uint8{60, 64, 67}, Velocity: 80},
			{Index: 8, Length: 8, Keys: []uint8{65, 69, 72}, Velocity: 80},
		}}, true
	default:
		return Pattern{}, false
	}
}

// PatternNames lists the built-in patterns
func PatternNames() []string {
	return []string{"drums", "bass", "synth", "keys"}
}
