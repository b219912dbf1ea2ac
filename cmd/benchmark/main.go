package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gdmigrate/config"
	"gdmigrate/internal/adapter/fs"
	"gdmigrate/internal/usecase"
)

type fileTiming struct {
	rel     string
	lines   int
	elapsed time.Duration
}

func main() {
	dir := flag.String("dir", ".", "Project directory to run the pipeline over")
	rounds := flag.Int("n", 5, "Rounds over the whole project")
	top := flag.Int("top", 5, "Slowest files to list")
	flag.Parse()

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	pipeline, err := usecase.NewPipeline(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building pipeline: %v\n", err)
		os.Exit(1)
	}

	walker := fs.NewWalker(cfg.Migrate.Includes, cfg.Migrate.ExcludeDirs, cfg.Migrate.ExcludeFiles)
	files, err := walker.Walk(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error walking %s: %v\n", *dir, err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("No .gd files found.")
		os.Exit(1)
	}

	sources := make(map[string]string, len(files))
	totalLines := 0
	for _, f := range files {
		content, err := fs.ReadFile(f.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", f.Rel, err)
			continue
		}
		sources[f.Rel] = content
		totalLines += strings.Count(content, "\n") + 1
	}

	fmt.Println("PIPELINE BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Files: %d  Lines: %d  Rounds: %d\n\n", len(sources), totalLines, *rounds)

	timings := make(map[string]*fileTiming, len(sources))
	unstable := 0
	fixes := 0
	start := time.Now()
	for round := 0; round < *rounds; round++ {
		for rel, content := range sources {
			t0 := time.Now()
			sf, err := pipeline.Run(rel, content)
			elapsed := time.Since(t0)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", rel, err)
				continue
			}

			ft, ok := timings[rel]
			if !ok {
				ft = &fileTiming{rel: rel, lines: len(sf.Lines)}
				timings[rel] = ft
			}
			ft.elapsed += elapsed

			if round == 0 {
				fixes += sf.Report.Fixes()
				again, err := pipeline.Run(rel, sf.Render())
				if err == nil && (again.Render() != sf.Render() || again.Report.Fixes() != 0) {
					unstable++
					fmt.Printf("  not idempotent: %s\n", rel)
				}
			}
		}
	}
	total := time.Since(start)

	ordered := make([]*fileTiming, 0, len(timings))
	for _, ft := range timings {
		ordered = append(ordered, ft)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].elapsed > ordered[j].elapsed })

	fmt.Printf("Slowest files:\n\n")
	for i, ft := range ordered {
		if i >= *top {
			break
		}
		avg := ft.elapsed / time.Duration(*rounds)
		fmt.Printf("%d. %-40s %6d lines  %v/run\n", i+1, ft.rel, ft.lines, avg.Round(time.Microsecond))
	}

	perRound := total / time.Duration(*rounds)
	fmt.Println()
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("RESULTS:\n")
	fmt.Printf("  Time per round:   %v\n", perRound.Round(time.Microsecond))
	fmt.Printf("  Lines per second: %.0f\n", float64(totalLines)/perRound.Seconds())
	fmt.Printf("  Fixes (1 round):  %d\n", fixes)

	if unstable == 0 {
		fmt.Println("  Status: GOOD - every file is stable on a second pass")
	} else {
		fmt.Printf("  Status: POOR - %d files change again on a second pass\n", unstable)
	}
}
