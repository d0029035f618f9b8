// p1203 scores one or more HTTP adaptive streaming input reports against
// the P.1203 quality model.
//
// Usage:
//
//	p1203 -config config.yaml report1.json report2.json
//	p1203 -fast-mode -device mobile report.json
//
// Exit codes:
//   - 0: every report scored successfully
//   - 1: one or more reports failed to score
//   - 2: usage error (bad flags, no input files)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/qualitylab/p1203go/internal/config"
	"github.com/qualitylab/p1203go/internal/log"
	"github.com/qualitylab/p1203go/internal/pipeline"
	"github.com/qualitylab/p1203go/internal/report"
	"github.com/qualitylab/p1203go/internal/rf"
	"github.com/qualitylab/p1203go/internal/store"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("p1203", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional YAML configuration file")
	fastMode := fs.Bool("fast-mode", false, "score with one sample per segment instead of the measurement window")
	device := fs.String("device", "", "override the scoring device class (pc, mobile, tv)")
	displayRes := fs.String("display-resolution", "", "override the display resolution (WIDTHxHEIGHT)")
	treePath := fs.String("tree-path", "", "directory containing the random-forest tree*.csv files")
	storePath := fs.String("store", "", "optional sqlite path to persist results under")
	serveMetrics := fs.Bool("metrics", false, "serve Prometheus metrics while scoring")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	opts, err := config.Loader{ConfigPath: *configPath}.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "p1203: %v\n", err)
		return 2
	}
	if *fastMode {
		opts.FastMode = true
	}
	if *device != "" {
		opts.Device = *device
	}
	if *displayRes != "" {
		opts.DisplayResolution = *displayRes
	}
	if *treePath != "" {
		opts.TreePath = *treePath
	}
	if *storePath != "" {
		opts.StorePath = *storePath
	}

	logLevel := opts.LogLevel
	if opts.Debug {
		logLevel = "debug"
	}
	log.Configure(log.Config{Level: logLevel})

	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "p1203: no input report files given")
		return 2
	}

	if *serveMetrics && opts.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(opts.MetricsAddr, mux); err != nil {
				log.L().Warn().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	treeWatcher, err := rf.WatchEnsemble(opts.TreePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "p1203: loading tree ensemble from %s: %v\n", opts.TreePath, err)
		return 2
	}
	defer treeWatcher.Stop()

	var resultStore *store.Store
	if opts.StorePath != "" {
		resultStore, err = store.Open(opts.StorePath, store.DefaultConfig())
		if err != nil {
			fmt.Fprintf(os.Stderr, "p1203: opening result store: %v\n", err)
			return 2
		}
		defer resultStore.Close()
	}

	p := pipeline.New(pipeline.Config{
		FastMode:           opts.FastMode,
		Amendment1AV:       opts.Amendment1AV,
		Amendment1Stalling: opts.Amendment1Stalling,
		Amendment1App2:     opts.Amendment1App2,
		Ensemble:           treeWatcher.Ensemble(),
	})

	results := make([]report.Result, len(files))
	failed := make([]error, len(files))

	g, ctx := errgroup.WithContext(context.Background())
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			result, err := scoreFile(ctx, p, resultStore, opts, path)
			if err != nil {
				failed[i] = err
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	exitCode := 0
	output := make(map[string]any, len(files))
	for i, path := range files {
		if failed[i] != nil {
			output[path] = map[string]string{"error": failed[i].Error()}
			exitCode = 1
			continue
		}
		output[path] = results[i]
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		fmt.Fprintf(os.Stderr, "p1203: encoding output: %v\n", err)
		return 1
	}

	return exitCode
}

func scoreFile(ctx context.Context, p *pipeline.Pipeline, resultStore *store.Store, opts config.Options, path string) (report.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return report.Result{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var ir report.InputReport
	if err := json.Unmarshal(data, &ir); err != nil {
		return report.Result{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if ir.IGen.DisplaySize == "" {
		ir.IGen.DisplaySize = opts.DisplayResolution
	}
	if ir.IGen.Device == "" {
		ir.IGen.Device = opts.Device
	}

	sessionID := uuid.NewString()
	sessionCtx := log.ContextWithSessionID(ctx, sessionID)

	result, err := p.Run(sessionCtx, ir)
	if err != nil {
		return report.Result{}, fmt.Errorf("scoring %s: %w", path, err)
	}

	if resultStore != nil {
		if err := resultStore.Put(sessionCtx, sessionID, result); err != nil {
			log.L().Warn().Err(err).Str("session_id", sessionID).Msg("failed to persist result")
		}
	}

	return result, nil
}
