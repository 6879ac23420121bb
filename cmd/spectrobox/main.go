package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/mjibson/go-dsp/fft"
	"github.com/neurlang/spectrobox/audio"
	"github.com/neurlang/spectrobox/batch"
	"github.com/neurlang/spectrobox/config"
	"github.com/neurlang/spectrobox/render"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

func main() {
	var (
		dest       string
		workers    int
		configPath string
		raw        bool
		progress   bool
	)
	flag.StringVar(&dest, "d", "", "destination root (shorthand)")
	flag.StringVar(&dest, "destination", "", "destination root; defaults to Spectrogrambox_result next to the source")
	flag.IntVar(&workers, "w", 1, "number of workers (shorthand)")
	flag.IntVar(&workers, "workers", 1, "number of workers; 0 uses every CPU, other values are clamped to the CPU count")
	flag.StringVar(&configPath, "config", "", "optional YAML config file")
	flag.BoolVar(&raw, "raw", false, "also write the dB matrix as <image>.f16")
	flag.BoolVar(&progress, "progress", false, "show a progress bar on stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <source>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	source := filepath.Clean(flag.Arg(0))

	runID := uuid.New().String()[:8]
	log.SetPrefix("[" + runID + "] ")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	cfg.ApplyEnv()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "w", "workers":
			cfg.Workers = workers
		case "raw":
			cfg.Raw = raw
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if dest == "" {
		dest = filepath.Join(filepath.Dir(source), "Spectrogrambox_result")
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		log.Fatalf("creating destination: %v", err)
	}

	console := log.New(os.Stdout, "", 0)
	console.Print("\nSTART\n")
	start := time.Now()

	tasks, err := batch.Discover(source, dest)
	if err != nil {
		log.Fatalf("scanning %s: %v", source, err)
	}
	console.Printf("Audio files found: %d", len(tasks))

	n := batch.EffectiveWorkers(cfg.Workers, runtime.NumCPU())
	console.Printf("Using %d workers\n", n)
	if n > 1 {
		// the batch pool already fills the CPUs
		fft.SetWorkerPoolSize(1)
	}

	style := cfg.Render.Style()
	sched := &batch.Scheduler{
		Workers: n,
		NewDriver: func(worker int) (*batch.Driver, error) {
			r, err := render.New(style)
			if err != nil {
				return nil, err
			}
			return &batch.Driver{
				Decoder:  audio.Default,
				Params:   cfg.STFT,
				Renderer: r,
				Raw:      cfg.Raw,
				Worker:   worker,
				Logf:     console.Printf,
			}, nil
		},
	}

	var bars *mpb.Progress
	var bar *mpb.Bar
	if progress {
		bars = mpb.New(mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
		bar = bars.AddBar(int64(len(tasks)),
			mpb.PrependDecorators(
				decor.Name("Rendering: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.EwmaETA(decor.ET_STYLE_GO, 60),
			),
		)
	}
	sched.OnOutcome = func(o batch.Outcome) {
		console.Print(o.Log)
		if bar != nil {
			bar.EwmaIncrement(o.Elapsed)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcomes, err := sched.Run(ctx, tasks)
	if bars != nil {
		if err != nil {
			bar.Abort(false)
		}
		bars.Wait()
	}
	if err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
	if ctx.Err() != nil {
		log.Printf("interrupted, %d of %d files handled", len(outcomes), len(tasks))
	}

	elapsed := time.Since(start)
	summary := batch.Summarize(outcomes, elapsed)
	console.Printf("[TOTAL TIME] %d seconds for %d audio files", int(elapsed.Round(time.Second).Seconds()), len(tasks))
	console.Print(summary)
	console.Print("\n\nEND")
}
