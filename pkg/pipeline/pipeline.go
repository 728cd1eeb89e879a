package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pranavkoushik/vaccination-project/pkg/clean"
	"github.com/pranavkoushik/vaccination-project/pkg/metrics"
	"github.com/pranavkoushik/vaccination-project/pkg/report"
	"github.com/pranavkoushik/vaccination-project/pkg/source"
	"github.com/pranavkoushik/vaccination-project/pkg/sqlite"
	"github.com/pranavkoushik/vaccination-project/pkg/warehouse"
)

// Stages selects which pipeline stages a run executes.
type Stages struct {
	LoadClean bool
	Rebuild   bool
	Analyze   bool
	ExportBI  bool
}

func (s Stages) none() bool {
	return !s.LoadClean && !s.Rebuild && !s.Analyze && !s.ExportBI
}

type Config struct {
	Logger      *slog.Logger
	Clock       clockwork.Clock
	DataDir     string
	CleanedDir  string
	ReportsDir  string
	DBPath      string
	MetricsPath string
	// ConfigFile optionally points at a YAML FileConfig.
	ConfigFile string
	// Stages defaults to all stages when none are selected.
	Stages Stages
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.CleanedDir == "" {
		cfg.CleanedDir = "cleaned_data"
	}
	if cfg.ReportsDir == "" {
		cfg.ReportsDir = "reports"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "vaccination_database.db"
	}
	if cfg.Stages.none() {
		cfg.Stages = Stages{LoadClean: true, Rebuild: true, Analyze: true, ExportBI: true}
	}
	return nil
}

// Pipeline runs the batch stages in order: load+clean, warehouse rebuild,
// analysis, BI export. Stages hand off through the filesystem (cleaned CSVs,
// the SQLite file), so any subset can run against a previous run's output.
// A stage that produces no usable output halts the run.
type Pipeline struct {
	log     *slog.Logger
	clock   clockwork.Clock
	cfg     Config
	metrics *metrics.Metrics
}

func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		log:     cfg.Logger,
		clock:   cfg.Clock,
		cfg:     cfg,
		metrics: metrics.New(),
	}, nil
}

func (p *Pipeline) Run(ctx context.Context) error {
	runID := uuid.New().String()
	log := p.log.With("run_id", runID)
	log.Info("starting pipeline run",
		"data_dir", p.cfg.DataDir,
		"db", p.cfg.DBPath,
		"stages", fmt.Sprintf("%+v", p.cfg.Stages),
	)

	fileCfg, err := LoadFileConfig(p.cfg.ConfigFile)
	if err != nil {
		return err
	}

	runErr := p.runStages(ctx, log, runID, fileCfg)

	if p.cfg.MetricsPath != "" {
		if err := p.metrics.WriteTextfile(p.cfg.MetricsPath); err != nil {
			log.Error("failed to write metrics textfile", "error", err)
		}
	}
	return runErr
}

func (p *Pipeline) runStages(ctx context.Context, log *slog.Logger, runID string, fileCfg *FileConfig) error {
	if p.cfg.Stages.LoadClean {
		if err := p.stage(log, "load_clean", func() error {
			return p.loadClean(ctx, log, fileCfg)
		}); err != nil {
			return err
		}
	}

	if p.cfg.Stages.Rebuild {
		if err := p.stage(log, "rebuild", func() error {
			return p.rebuild(ctx, log, fileCfg)
		}); err != nil {
			return err
		}
	}

	if p.cfg.Stages.Analyze {
		if err := p.stage(log, "analyze", func() error {
			return p.analyze(ctx, log, runID)
		}); err != nil {
			return err
		}
	}

	if p.cfg.Stages.ExportBI {
		if err := p.stage(log, "export_bi", func() error {
			return p.exportBI(ctx, log)
		}); err != nil {
			return err
		}
	}

	log.Info("pipeline run completed")
	return nil
}

func (p *Pipeline) stage(log *slog.Logger, name string, fn func() error) error {
	start := p.clock.Now()
	err := fn()
	elapsed := p.clock.Since(start)
	p.metrics.ObserveStage(name, err, elapsed)

	if err != nil {
		log.Error("stage failed", "stage", name, "duration", elapsed, "error", err)
		return fmt.Errorf("stage %s: %w", name, err)
	}
	log.Info("stage completed", "stage", name, "duration", elapsed)
	return nil
}

func (p *Pipeline) loadClean(ctx context.Context, log *slog.Logger, fileCfg *FileConfig) error {
	files, err := fileCfg.SourceFiles()
	if err != nil {
		return err
	}
	loader, err := source.NewLoader(source.LoaderConfig{
		Logger:  log,
		DataDir: p.cfg.DataDir,
		Files:   files,
	})
	if err != nil {
		return err
	}

	tables := loader.LoadAll(ctx)
	if len(tables) == 0 {
		return errors.New("no datasets could be loaded")
	}
	for kind, profile := range loader.Profiles(tables) {
		log.Info("source dataset profile",
			"kind", kind,
			"rows", profile.RowCount,
			"columns", profile.ColumnCount,
			"missing_cells", profile.MissingCells,
		)
		p.metrics.AddRows("load", string(kind), profile.RowCount)
	}

	cleaner, err := clean.NewCleaner(clean.Config{Logger: log})
	if err != nil {
		return err
	}
	data := cleaner.CleanAll(tables)
	for kind, kr := range clean.QualityReport(data) {
		p.metrics.AddRows("clean", string(kind), kr.TotalRecords)
	}

	return clean.WriteAll(log, p.cfg.CleanedDir, data)
}

func (p *Pipeline) rebuild(ctx context.Context, log *slog.Logger, fileCfg *FileConfig) error {
	data, err := clean.ReadAll(log, p.cfg.CleanedDir)
	if err != nil {
		return err
	}
	if empty := func() bool {
		for _, kind := range source.Kinds() {
			if data.Has(kind) {
				return false
			}
		}
		return true
	}(); empty {
		return errors.New("no cleaned datasets available")
	}

	client, err := sqlite.NewClient(ctx, log, p.cfg.DBPath)
	if err != nil {
		return err
	}
	defer client.Close()

	store, err := warehouse.NewStore(warehouse.Config{
		Logger:   log,
		Client:   client,
		Pairings: fileCfg.Pairings,
	})
	if err != nil {
		return err
	}
	return store.Rebuild(ctx, data)
}

func (p *Pipeline) analyze(ctx context.Context, log *slog.Logger, runID string) error {
	client, err := sqlite.NewClient(ctx, log, p.cfg.DBPath)
	if err != nil {
		return err
	}
	defer client.Close()

	runner, err := report.NewRunner(report.Config{Logger: log, DB: client.DB()})
	if err != nil {
		return err
	}
	results := runner.RunAll(ctx)
	for _, r := range results {
		p.metrics.AddRows("analyze", r.Analysis.Name, r.Result.Count)
	}

	// Quality section comes from the cleaned files on disk so analyze can
	// run standalone against a previous run's output.
	data, err := clean.ReadAll(log, p.cfg.CleanedDir)
	if err != nil {
		return err
	}
	quality := clean.QualityReport(data)

	if err := report.WriteCSVs(log, filepath.Join(p.cfg.ReportsDir, "analysis"), results); err != nil {
		return err
	}
	meta := report.Meta{RunID: runID, GeneratedAt: p.clock.Now()}
	return report.WriteText(filepath.Join(p.cfg.ReportsDir, "analysis_report.txt"), meta, results, quality)
}

func (p *Pipeline) exportBI(ctx context.Context, log *slog.Logger) error {
	client, err := sqlite.NewClient(ctx, log, p.cfg.DBPath)
	if err != nil {
		return err
	}
	defer client.Close()

	return report.WriteBIBundle(ctx, log, client.DB(), filepath.Join(p.cfg.ReportsDir, "powerbi"), p.cfg.DBPath)
}
