package export

import (
	"fmt"
	"io"
	"log"

	"github.com/klauspost/compress/flate"

	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/analysis"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/archive"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/config"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/midifile"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/timecode"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/tracks"
)

// Exporter sequences track building, encoding and archiving. It keeps no
// state between calls, so one Exporter may serve concurrent exports.
type Exporter struct {
	encoder     midifile.Encoder
	instruments []tracks.Instrument
	assembler   archive.Assembler
	logger      *log.Logger
}

// Option configures an Exporter
type Option func(*Exporter)

// WithResolution sets the ticks per quarter note of every written file
func WithResolution(resolution uint16) Option {
	return func(e *Exporter) {
		e.encoder = midifile.NewEncoder(resolution)
	}
}

// WithInstruments replaces the template instrument set
func WithInstruments(instruments []tracks.Instrument) Option {
	return func(e *Exporter) {
		e.instruments = make([]tracks.Instrument, len(instruments))
		for i, in := range instruments {
			e.instruments[i] = in.Clone()
		}
	}
}

// WithCompression sets the flate level used for the template archive
func WithCompression(level int) Option {
	return func(e *Exporter) {
		e.assembler = archive.NewAssembler(level)
	}
}

// WithLogger sets the logger used for export progress
func WithLogger(logger *log.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Exporter with the default instruments, 480 PPQ and best
// compression, then applies opts
func New(opts ...Option) (*Exporter, error) {
	e := &Exporter{
		encoder:     midifile.NewEncoder(timecode.Resolution),
		instruments: tracks.DefaultInstruments(),
		assembler:   archive.NewAssembler(flate.BestCompression),
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}

	if r := e.encoder.Resolution(); r == 0 || r > 0x7FFF {
		return nil, fmt.Errorf("%w: resolution %d out of range", midifile.ErrEncoding, r)
	}
	if err := tracks.ValidateInstruments(e.instruments); err != nil {
		return nil, err
	}
	return e, nil
}

// FromConfig creates an Exporter from a loaded configuration. Options
// given after the configuration win.
func FromConfig(cfg *config.Config, opts ...Option) (*Exporter, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	instruments, err := cfg.InstrumentSet()
	if err != nil {
		return nil, err
	}

	base := []Option{WithResolution(cfg.Resolution), WithInstruments(instruments)}
	if cfg.Compression != nil {
		base = append(base, WithCompression(*cfg.Compression))
	}
	return New(append(base, opts...)...)
}

// Instruments returns a copy of the configured instrument set
func (e *Exporter) Instruments() []tracks.Instrument {
	out := make([]tracks.Instrument, len(e.instruments))
	for i, in := range e.instruments {
		out[i] = in.Clone()
	}
	return out
}

// MarkerFile builds a single-track (format 0) MIDI file holding the
// structure markers
func (e *Exporter) MarkerFile(result *analysis.Result, originalName string) (Artifact, error) {
	if err := result.Validate(); err != nil {
		return Artifact{}, err
	}

	data, err := e.markerMIDI(result)
	if err != nil {
		return Artifact{}, err
	}

	a := Artifact{Name: MarkerFileName(originalName), Data: data, ContentType: ContentTypeMIDI}
	e.logger.Printf("exported %s (%d sections, %d bytes)", a.Name, len(result.Structure), len(a.Data))
	return a, nil
}

// TemplateArchive builds the marker file plus one placeholder MIDI file per
// instrument and packs them, marker file first, into a zip archive
func (e *Exporter) TemplateArchive(result *analysis.Result, originalName string) (Artifact, error) {
	if err := result.Validate(); err != nil {
		return Artifact{}, err
	}

	markers, err := e.markerMIDI(result)
	if err != nil {
		return Artifact{}, err
	}
	entries := make([]archive.Entry, 0, len(e.instruments)+1)
	entries = append(entries, archive.File(MarkerFileName(originalName), markers))

	for _, in := range e.instruments {
		track, err := in.Track(result.Tempo, e.encoder.Resolution())
		if err != nil {
			return Artifact{}, fmt.Errorf("instrument %s: %w", in.Name, err)
		}
		data, err := e.encoder.Encode([]midifile.Track{track})
		if err != nil {
			return Artifact{}, fmt.Errorf("instrument %s: %w", in.Name, err)
		}
		entries = append(entries, archive.File(InstrumentFileName(in.Name), data))
	}

	zipped, err := e.assembler.Assemble(entries)
	if err != nil {
		return Artifact{}, err
	}

	a := Artifact{Name: TemplateArchiveName(originalName), Data: zipped, ContentType: ContentTypeZip}
	e.logger.Printf("exported %s (%d files, %d bytes)", a.Name, len(entries), len(a.Data))
	return a, nil
}

// MarkerFileAsync runs MarkerFile on its own goroutine. The channel
// receives exactly one Outcome. There is no cancellation; result must not
// be modified until the Outcome arrives.
func (e *Exporter) MarkerFileAsync(result *analysis.Result, originalName string) <-chan Outcome {
	return async(func() (Artifact, error) { return e.MarkerFile(result, originalName) })
}

// TemplateArchiveAsync runs TemplateArchive on its own goroutine, with the
// same contract as MarkerFileAsync
func (e *Exporter) TemplateArchiveAsync(result *analysis.Result, originalName string) <-chan Outcome {
	return async(func() (Artifact, error) { return e.TemplateArchive(result, originalName) })
}

func async(run func() (Artifact, error)) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		a, err := run()
		ch <- Outcome{Artifact: a, Err: err}
	}()
	return ch
}

func (e *Exporter) markerMIDI(result *analysis.Result) ([]byte, error) {
	track, err := tracks.Markers(result, e.encoder.Resolution())
	if err != nil {
		return nil, err
	}
	return e.encoder.Encode([]midifile.Track{track})
}
