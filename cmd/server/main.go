// Package main is the entry point for the structure2daw API server
package main

import (
	"flag"
	"log"

	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/api"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/config"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/export"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	instruments := flag.String("instruments", "", "YAML file with the template instrument set")
	flag.Parse()

	cfg := config.Default()
	if *instruments != "" {
		var err error
		if cfg, err = config.Load(*instruments); err != nil {
			log.Fatalf("Config error: %v", err)
		}
	}

	exporter, err := export.FromConfig(cfg, export.WithLogger(log.Default()))
	if err != nil {
		log.Fatalf("Exporter error: %v", err)
	}

	log.Printf("Starting structure2daw API server on port %d...", *port)
	log.Printf("Swagger docs available at http://localhost:%d/swagger/index.html", *port)

	if err := api.StartServer(*port, exporter); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
