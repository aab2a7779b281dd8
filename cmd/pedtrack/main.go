// Command pedtrack replays recorded detector output through the pedestrian
// tracker, fusing LiDAR depth where a scan is available.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/socialnavi/pedtrack/internal/config"
	"github.com/socialnavi/pedtrack/internal/debug"
	"github.com/socialnavi/pedtrack/internal/detection"
	"github.com/socialnavi/pedtrack/internal/fusion"
	"github.com/socialnavi/pedtrack/internal/monitoring"
	"github.com/socialnavi/pedtrack/internal/pipeline"
	"github.com/socialnavi/pedtrack/internal/recorder"
	"github.com/socialnavi/pedtrack/internal/report"
	"github.com/socialnavi/pedtrack/internal/tracking"
	"github.com/socialnavi/pedtrack/internal/version"
)

var (
	dataDir    = flag.String("dir", "data", "Data directory containing frames/")
	configFile = flag.String("config", "", "Tuning config JSON (default: config/tuning.defaults.json if present)")
	dbFile     = flag.String("db", "", "SQLite file to record tracks to (optional)")
	outDir     = flag.String("out", "", "Directory for per-frame snapshot JSON (optional)")
	reportDir  = flag.String("report", "", "Directory for trajectory HTML/PNG (optional)")
	debugMode  = flag.Bool("debug", false, "Log association decisions")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

type options struct {
	DataDir   string
	Config    string
	DB        string
	OutDir    string
	ReportDir string
	Debug     bool
}

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.String())
		return
	}

	opts := options{
		DataDir:   *dataDir,
		Config:    *configFile,
		DB:        *dbFile,
		OutDir:    *outDir,
		ReportDir: *reportDir,
		Debug:     *debugMode,
	}
	if err := run(opts); err != nil {
		var unknown *tracking.UnknownTrackError
		if errors.As(err, &unknown) {
			log.Fatalf("tracker state corrupted: %v", err)
		}
		log.Fatalf("pedtrack: %v", err)
	}
}

func loadConfig(path string) (*config.TuningConfig, error) {
	if path != "" {
		return config.LoadTuningConfig(path)
	}
	cfg, err := config.LoadTuningConfig(config.DefaultConfigPath)
	if err != nil {
		monitoring.Logf("no tuning config at %s (%v); using built-in defaults", config.DefaultConfigPath, err)
		return config.EmptyTuningConfig(), nil
	}
	return cfg, nil
}

func run(opts options) error {
	monitoring.SetDebug(opts.Debug)
	monitoring.Logf("%s", version.String())

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return err
	}

	framesDir := filepath.Join(opts.DataDir, "frames")
	replay := detection.NewReplayDetector(framesDir, cfg.GetClassFilter())
	det := detection.NewDepthDetector(replay, fusion.NewFuser(fusion.ConfigFromTuning(cfg)), cfg.GetFusionWorkers())
	if err := det.Open(); err != nil {
		return fmt.Errorf("failed to open detector: %w", err)
	}
	defer det.Close()

	pcfg := pipeline.Config{
		Detector: det,
		Tracker:  tracking.NewTracker(tracking.TrackerConfigFromTuning(cfg)),
		Classes:  cfg.GetClassFilter(),
	}
	if opts.Debug {
		collector := debug.NewCollector()
		collector.SetEnabled(true)
		pcfg.Debug = collector
	}
	p := pipeline.New(pcfg)

	if opts.OutDir != "" {
		sink, err := newSnapshotWriter(opts.OutDir)
		if err != nil {
			return err
		}
		p.AddSink(sink)
	}

	if opts.DB != "" {
		rec, err := recorder.Open(opts.DB)
		if err != nil {
			return err
		}
		defer rec.Close()
		if _, err := rec.BeginRun(framesDir, cfg); err != nil {
			return err
		}
		p.AddSink(rec)
	}

	var traj *report.Trajectories
	if opts.ReportDir != "" {
		if err := os.MkdirAll(opts.ReportDir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
		traj = report.NewTrajectories()
		p.AddSink(traj)
	}

	if err := p.Run(replay.Frames()); err != nil {
		return err
	}

	if traj != nil {
		title := fmt.Sprintf("Pedestrian tracks: %s", filepath.Base(opts.DataDir))
		if err := traj.WriteHTML(filepath.Join(opts.ReportDir, "trajectories.html"), title); err != nil {
			return err
		}
		if err := traj.WritePNG(filepath.Join(opts.ReportDir, "trajectories.png"), title); err != nil {
			return err
		}
		monitoring.Logf("wrote trajectory report to %s", opts.ReportDir)
	}
	return nil
}
