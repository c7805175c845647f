// cmd/rollsim/main.go
// rollsim FILE FILE...  — prints how similar the files are. With two files
// it prints one score; with more it prints every pair, most similar first.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	json "github.com/goccy/go-json"

	"github.com/dattu/rollsim/pkg/compare"
	"github.com/dattu/rollsim/pkg/config"
	"github.com/dattu/rollsim/pkg/storage"
)

type report struct {
	Created time.Time        `json:"created"`
	Params  string           `json:"params"`
	Results []compare.Result `json:"results"`
}

func main() {
	cfgPath := flag.String("config", "", "YAML config file (optional)")
	window := flag.Int("window", 0, "bytes per hash window")
	base := flag.Uint64("base", 0, "polynomial base")
	modulus := flag.Uint64("modulus", 0, "checksum modulus")
	selector := flag.Int64("selector", -1, "selector mask (0 keeps every checksum)")
	workers := flag.Int("workers", 0, "files fingerprinted in parallel")
	out := flag.String("out", "", "write a JSON report to this file")
	flag.Parse()

	paths := flag.Args()
	if len(paths) < 2 {
		fmt.Fprintln(os.Stderr, "usage: rollsim [flags] FILE FILE...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	fp := cfg.Engine()
	if *window > 0 {
		fp.WindowSize = *window
		if fp.BufferSize <= fp.WindowSize {
			fp.BufferSize = 2 * fp.WindowSize
		}
	}
	if *base > 0 {
		fp.Base = *base
	}
	if *modulus > 0 {
		fp.Modulus = *modulus
	}
	if *selector >= 0 {
		fp.SelectorMask = uint64(*selector)
	}
	if *workers == 0 {
		*workers = cfg.Compare.Workers
	}
	if err := fp.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := compare.Matrix(ctx, paths, fp, *workers)
	if err != nil {
		log.Fatalf("compare: %v", err)
	}

	if len(paths) == 2 {
		fmt.Printf("%.4f\n", results[0].Score)
	} else {
		for _, r := range results {
			fmt.Printf("%.4f  %s ~ %s\n", r.Score, r.A, r.B)
		}
	}

	if *out != "" {
		raw, err := json.MarshalIndent(report{Created: time.Now(), Params: fp.Params().String(), Results: results}, "", "  ")
		if err != nil {
			log.Fatalf("report: %v", err)
		}
		if err := storage.AtomicWrite(*out, raw, 0o644); err != nil {
			log.Fatalf("write %s: %v", *out, err)
		}
		log.Printf("report written to %s", *out)
	}
}
