package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"tessfold/pkg/config"
	"tessfold/pkg/pipeline"
)

func main() {
	// Parse command line arguments; flags override config file values
	configPath := flag.String("config", "tessfold.yaml", "Path to YAML configuration file")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration file and exit")
	tpfURL := flag.String("url", "", "Target Pixel File URL (default: Pi Mensae sector 1)")
	cacheDir := flag.String("cache", "", "Directory for downloaded files")
	period := flag.Float64("period", 0, "Orbital period in days")
	epoch := flag.Float64("epoch", 0, "Reference transit epoch (Julian date)")
	percentile := flag.Float64("percentile", 0, "Aperture threshold percentile of the median image")
	outputDir := flag.String("output", "", "Directory for plots and the report")
	noReport := flag.Bool("no-report", false, "Skip the interactive HTML report")
	quiet := flag.Bool("quiet", false, "Suppress per-step progress output")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config file: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *tpfURL != "" {
		cfg.Target.URL = *tpfURL
	}
	if *cacheDir != "" {
		cfg.Target.CacheDir = *cacheDir
	}
	if *period > 0 {
		cfg.Transit.PeriodDays = *period
	}
	if *epoch > 0 {
		cfg.Transit.EpochJD = *epoch
	}
	if *percentile > 0 {
		cfg.Aperture.Percentile = *percentile
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *noReport {
		cfg.Output.HTMLReport = false
	}
	if *quiet {
		cfg.Output.Verbose = false
	}

	if cfg.Output.Verbose {
		fmt.Println("================================")
		fmt.Println("TESSFOLD: APERTURE PHOTOMETRY AND TRANSIT FOLDING FOR TESS TARGET PIXEL FILES")
		fmt.Println("================================")
	}

	params := &pipeline.Params{
		TPFURL:     cfg.Target.URL,
		CacheDir:   cfg.Target.CacheDir,
		PeriodDays: cfg.Transit.PeriodDays,
		EpochJD:    cfg.Transit.EpochJD,
		Percentile: cfg.Aperture.Percentile,
		PhaseBins:  cfg.Output.PhaseBins,
		OutputDir:  cfg.Output.Dir,
		HTMLReport: cfg.Output.HTMLReport,
		Verbose:    cfg.Output.Verbose,
	}

	p := pipeline.New(params)

	startTime := time.Now()
	if err := p.Process(context.Background()); err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}
	elapsed := time.Since(startTime)

	stats := p.Stats()
	fmt.Printf("\nPipeline completed in %.2f seconds\n\n", elapsed.Seconds())
	fmt.Printf("Run summary:\n")
	fmt.Printf("============\n")
	fmt.Printf("Cadences in file:     %d\n", stats.Cadences)
	fmt.Printf("Cadences used:        %d\n", stats.Used)
	fmt.Printf("Aperture pixels:      %d\n", stats.MaskPixels)
	fmt.Printf("Median flux:          %.1f e-/s\n", stats.MedianFlux)
	fmt.Printf("Folded dip depth:     %.0f ppm at phase %.3f\n", stats.DepthPPM, stats.DepthPhase)

	fmt.Println("\nOutput files:")
	for _, f := range p.Outputs() {
		fmt.Printf("- %s\n", f)
	}
}
