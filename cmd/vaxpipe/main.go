package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/pranavkoushik/vaccination-project/pkg/logger"
	"github.com/pranavkoushik/vaccination-project/pkg/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load a .env file if one exists; flags and env vars still win.
	_ = godotenv.Load()

	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")

	dataDirFlag := flag.String("data-dir", "data", "directory containing the raw spreadsheet files (or set VAX_DATA_DIR env var)")
	cleanedDirFlag := flag.String("cleaned-dir", "cleaned_data", "directory for cleaned CSV hand-off files (or set VAX_CLEANED_DIR env var)")
	reportsDirFlag := flag.String("reports-dir", "reports", "directory for generated reports and exports (or set VAX_REPORTS_DIR env var)")
	dbFlag := flag.String("db", "vaccination_database.db", "SQLite database file path (or set VAX_DB env var)")
	metricsFlag := flag.String("metrics-file", "", "write Prometheus textfile metrics to this path (or set VAX_METRICS_FILE env var)")
	configFlag := flag.String("config", "", "pipeline YAML config file (file mapping, antigen/disease pairings) (or set VAX_CONFIG env var)")

	// Stage selectors; with none set the full pipeline runs.
	loadCleanFlag := flag.Bool("load-clean", false, "load raw files and write cleaned CSVs")
	rebuildFlag := flag.Bool("rebuild-db", false, "drop and rebuild the warehouse from cleaned CSVs")
	analyzeFlag := flag.Bool("analyze", false, "run the analysis catalogue and write reports")
	exportBIFlag := flag.Bool("export-bi", false, "export the BI dataset bundle")
	allFlag := flag.Bool("all", false, "run every stage (default when no stage is selected)")

	flag.Parse()

	log := logger.New(*verboseFlag)

	if env := os.Getenv("VAX_DATA_DIR"); env != "" {
		*dataDirFlag = env
	}
	if env := os.Getenv("VAX_CLEANED_DIR"); env != "" {
		*cleanedDirFlag = env
	}
	if env := os.Getenv("VAX_REPORTS_DIR"); env != "" {
		*reportsDirFlag = env
	}
	if env := os.Getenv("VAX_DB"); env != "" {
		*dbFlag = env
	}
	if env := os.Getenv("VAX_METRICS_FILE"); env != "" {
		*metricsFlag = env
	}
	if env := os.Getenv("VAX_CONFIG"); env != "" {
		*configFlag = env
	}

	stages := pipeline.Stages{
		LoadClean: *loadCleanFlag,
		Rebuild:   *rebuildFlag,
		Analyze:   *analyzeFlag,
		ExportBI:  *exportBIFlag,
	}
	if *allFlag {
		stages = pipeline.Stages{LoadClean: true, Rebuild: true, Analyze: true, ExportBI: true}
	}

	p, err := pipeline.New(pipeline.Config{
		Logger:      log,
		DataDir:     *dataDirFlag,
		CleanedDir:  *cleanedDirFlag,
		ReportsDir:  *reportsDirFlag,
		DBPath:      *dbFlag,
		MetricsPath: *metricsFlag,
		ConfigFile:  *configFlag,
		Stages:      stages,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return p.Run(ctx)
}
