// Package main is the entry point for the structure2daw CLI
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/analysis"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/api"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/config"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/export"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/midifile"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputDir       string
	originalName    string
	instrumentsFile string
	serverPort      int
	verbose         bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "structure2daw",
	Short: "Export music-structure analyses as MIDI markers and DAW templates",
	Long: `structure2daw turns a tempo + labeled section analysis into files a DAW
can import: a MIDI file with one marker per section, or a zip template with the
marker file and placeholder instrument tracks.

Examples:
  structure2daw markers analysis.json -n "My Song.mp3" -o out/
  structure2daw template analysis.json -i instruments.yaml
  structure2daw inspect out/My_Song_structure_markers.mid
  structure2daw tui analysis.json
  structure2daw serve --port 8080`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var markersCmd = &cobra.Command{
	Use:   "markers <analysis.json>",
	Short: "Write the structure marker MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(export.KindMarkers, args[0])
	},
}

var templateCmd = &cobra.Command{
	Use:   "template <analysis.json>",
	Short: "Write the DAW template archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(export.KindTemplate, args[0])
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid>",
	Short: "List the markers and events of a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "List the template instrument tracks",
	Args:  cobra.NoArgs,
	RunE:  runInstruments,
}

var tuiCmd = &cobra.Command{
	Use:   "tui <analysis.json>",
	Short: "Launch interactive terminal UI",
	Args:  cobra.ExactArgs(1),
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&instrumentsFile, "instruments", "i", "", "YAML file with the template instrument set")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log export details")

	for _, cmd := range []*cobra.Command{markersCmd, templateCmd, tuiCmd} {
		cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory")
		cmd.Flags().StringVarP(&originalName, "name", "n", "", "Original audio file name (defaults to the analysis file name)")
	}

	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	rootCmd.AddCommand(markersCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(instrumentsCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func newExporter() (*export.Exporter, error) {
	cfg := config.Default()
	if instrumentsFile != "" {
		var err error
		if cfg, err = config.Load(instrumentsFile); err != nil {
			return nil, err
		}
	}

	var opts []export.Option
	if verbose {
		opts = append(opts, export.WithLogger(log.New(os.Stderr, "structure2daw: ", log.LstdFlags)))
	}
	return export.FromConfig(cfg, opts...)
}

func runExport(kind export.Kind, input string) error {
	exporter, err := newExporter()
	if err != nil {
		return err
	}

	fmt.Printf("Exporting %s from %s\n", kind, input)
	path, err := exporter.ExportFile(kind, input, originalName, outputDir)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	sum, err := midifile.Inspect(data)
	if err != nil {
		return err
	}

	fmt.Printf("Format %d, %d track(s), %d ticks per quarter\n", sum.Format, len(sum.Tracks), sum.Resolution)
	for i, track := range sum.Tracks {
		fmt.Printf("\nTrack %d: %s\n", i+1, track.Name)
		for _, ev := range track.Events {
			if ev.Text != "" {
				fmt.Printf("  %8d  %-14s %s\n", ev.Tick, ev.Kind, ev.Text)
			} else {
				fmt.Printf("  %8d  %-14s % X\n", ev.Tick, ev.Kind, ev.Message)
			}
		}
	}
	return nil
}

func runInstruments(cmd *cobra.Command, args []string) error {
	exporter, err := newExporter()
	if err != nil {
		return err
	}
	for _, in := range exporter.Instruments() {
		fmt.Printf("%-12s channel %2d  program %3d  %s\n", in.Name, in.Channel, in.Program, export.InstrumentFileName(in.Name))
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	exporter, err := newExporter()
	if err != nil {
		return err
	}
	result, err := analysis.Load(args[0])
	if err != nil {
		return err
	}
	return tui.Run(tui.New(exporter, result, args[0], originalName, outputDir))
}

func runServe(cmd *cobra.Command, args []string) error {
	exporter, err := newExporter()
	if err != nil {
		return err
	}
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort, exporter)
}
