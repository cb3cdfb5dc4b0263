package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"parkan-material/internal/batch"
	"parkan-material/internal/config"
	"parkan-material/internal/material"
	"parkan-material/internal/nres"
	"parkan-material/internal/texture"
)

// materialType is the NRes item type of material payloads.
const materialType = "MAT0"

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	archive := flag.String("archive", "", "Material NRes archive")
	texDir := flag.String("textures", "", "Texture image directory (default: archive directory)")
	outputDir := flag.String("output", "", "Output directory (default: <archive>-swatches)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	logLevel := flag.String("log", "", "Log level: debug, info, warn, error")
	testN := flag.Int("test", 0, "Render only first N materials for testing")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		Archive:    *archive,
		TextureDir: *texDir,
		OutputDir:  *outputDir,
		Workers:    *workers,
		LogLevel:   *logLevel,
	})

	level, err := cfg.Level()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	material.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if cfg.ArchivePath == "" {
		fmt.Fprintln(os.Stderr, "Error: no material archive. Use -archive flag or config.json.")
		os.Exit(1)
	}

	arc, err := nres.Open(cfg.ArchivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading archive: %v\n", err)
		os.Exit(1)
	}

	names := flag.Args()
	if len(names) == 0 {
		names = arc.Names(materialType)
	}

	// Limit for testing
	if *testN > 0 && *testN < len(names) {
		names = names[:*testN]
	}

	if len(names) == 0 {
		fmt.Println("No materials to render.")
		os.Exit(0)
	}

	// Texture sources: loose files first, then the texture archive
	sources := texture.Sources{}
	if cfg.TextureDir != "" {
		idx := texture.BuildIndex(cfg.TextureDir)
		sources = append(sources, idx)
		fmt.Printf("Textures: %d indexed in %s\n", idx.Len(), cfg.TextureDir)
	}
	if cfg.TextureArchive != "" {
		texArc, err := nres.Open(cfg.TextureArchive)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: texture archive: %v\n", err)
		} else {
			sources = append(sources, texture.ArchiveSource{Archive: texArc})
			fmt.Printf("Textures: %d in %s\n", texArc.Len(), cfg.TextureArchive)
		}
	}
	texCache := texture.NewCache(sources)

	table := material.NewTable(arc, texCache, &material.TableOptions{
		Capacity:    cfg.TableCapacity,
		Environment: cfg.Environment(),
		Strict:      cfg.Strict,
	})

	fmt.Printf("Material swatches → WebP\n")
	fmt.Printf("Materials: %d, Workers: %d\n", len(names), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	results := batch.Run(batch.Config{
		Table:       table,
		Textures:    texCache,
		OutputDir:   cfg.OutputDir,
		SwatchSize:  cfg.SwatchSize,
		Supersample: cfg.Supersample,
		Frames:      cfg.Frames,
		FrameStep:   cfg.FrameStep(),
		Workers:     cfg.Workers,
	}, names)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	var failures []batch.Result
	for _, r := range results {
		if !r.Success {
			failures = append(failures, r)
		}
	}

	fmt.Printf("Rendered: %d/%d (textures loaded: %d)\n", len(results)-len(failures), len(results), texCache.Len())

	if len(failures) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(failures))
		for _, e := range failures[:min(20, len(failures))] {
			fmt.Printf("  %s: %s\n", e.Name, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	os.MkdirAll(cfg.OutputDir, 0755)
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if len(failures) > 0 {
		os.Exit(1)
	}
}
