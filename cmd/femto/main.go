// Command femto runs a two-particle correlation analysis over a JSON-lines
// event stream and writes correlation-function plots and a results
// database.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/femtoscopy/internal/config"
	"github.com/banshee-data/femtoscopy/internal/db"
	"github.com/banshee-data/femtoscopy/internal/femto/analysis"
	"github.com/banshee-data/femtoscopy/internal/femto/hist"
	"github.com/banshee-data/femtoscopy/internal/femto/ingest"
	"github.com/banshee-data/femtoscopy/internal/femto/report"
	"github.com/banshee-data/femtoscopy/internal/fsutil"
	"github.com/banshee-data/femtoscopy/internal/monitoring"
	"github.com/banshee-data/femtoscopy/internal/version"
)

var (
	configPath = flag.String("config", "", "analysis config JSON (default: "+config.DefaultConfigPath+" values)")
	inputPath  = flag.String("input", "-", "JSON-lines event stream, - for stdin")
	dbPath     = flag.String("db", "", "SQLite results database (empty: do not persist)")
	plotsDir   = flag.String("plots", "", "directory for per-bin correlation PNGs (empty: skip)")
	htmlPath   = flag.String("html", "", "HTML correlation report path (empty: skip)")
	kindName   = flag.String("kind", "qinv", "projection to plot: qinv, qout, qside, qlong")
	seed       = flag.Int64("seed", 0, "mixer random seed (0: time based)")
	listRuns   = flag.Bool("list-runs", false, "list the runs stored in -db and exit")
	verbose    = flag.Bool("verbose", false, "enable debug logging")
	showVer    = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()
	if *showVer {
		fmt.Println(version.String())
		return
	}
	monitoring.SetVerbose(*verbose)

	if *listRuns {
		if err := printRuns(os.Stdout, *dbPath); err != nil {
			log.Fatalf("Failed to list runs: %v", err)
		}
		return
	}

	cfg := config.EmptyFemtoConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFemtoConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	kind, err := parseKind(*kindName)
	if err != nil {
		log.Fatalf("Invalid -kind: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, kind); err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.FemtoConfig, kind hist.Kind) error {
	in, closeIn, err := openInput(*inputPath)
	if err != nil {
		return err
	}
	defer closeIn()

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	log.Printf("femto %s, mixer seed %d", version.Version, s)

	a, err := analysis.New(cfg, rand.New(rand.NewSource(s)), nil)
	if err != nil {
		return err
	}

	var store *db.DB
	var runID string
	if *dbPath != "" {
		if store, err = db.NewDB(*dbPath); err != nil {
			return err
		}
		defer store.Close()
		cfgJSON, err := cfg.JSON()
		if err != nil {
			return err
		}
		if runID, err = store.CreateRun(cfgJSON, *inputPath); err != nil {
			return err
		}
		log.Printf("run %s", runID)
	}

	if err := a.Run(ctx, ingest.NewReader(in)); err != nil {
		return err
	}

	out := fsutil.OSFileSystem{}
	curves := report.Curves(a.Accumulator(), kind)
	if *plotsDir != "" {
		n, err := report.WritePNGs(out, *plotsDir, curves)
		if err != nil {
			return err
		}
		log.Printf("wrote %d plots to %s", n, *plotsDir)
	}
	if *htmlPath != "" {
		if err := writeHTML(out, *htmlPath, curves); err != nil {
			return err
		}
		log.Printf("wrote %s", *htmlPath)
	}
	if store != nil {
		if err := a.Save(store, runID); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
	}
	return nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func writeHTML(fsys fsutil.FileSystem, path string, curves []report.Curve) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := report.WriteHTML(f, "Correlation functions", curves); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func parseKind(name string) (hist.Kind, error) {
	for _, k := range hist.Kinds {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown projection %q", name)
}

func printRuns(w io.Writer, path string) error {
	if path == "" {
		return fmt.Errorf("-list-runs needs -db")
	}
	store, err := db.NewDB(path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs()
	if err != nil {
		return err
	}
	for _, r := range runs {
		status := "open"
		if r.Finished() {
			status = "finished"
		}
		fmt.Fprintf(w, "%s  %s  %-8s  events=%d accepted=%d signal=%d background=%d  %s\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), status,
			r.Summary.EventsSeen, r.Summary.EventsAccepted,
			r.Summary.SignalPairs, r.Summary.BackgroundPairs, r.Input)
	}
	return nil
}
