package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoaderConfig configures the raw dataset loader.
type LoaderConfig struct {
	Logger  *slog.Logger
	DataDir string
	// Files maps each kind to its file name inside DataDir. Defaults to
	// DefaultFiles when empty.
	Files map[Kind]string
}

func (cfg *LoaderConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.DataDir == "" {
		return errors.New("data dir is required")
	}
	if cfg.Files == nil {
		cfg.Files = DefaultFiles()
	}
	return nil
}

// Loader reads the raw spreadsheet files into in-memory tables, one per
// dataset kind. Loading is fault-tolerant per kind: a missing or unparseable
// file is logged and that kind is simply absent from the result.
type Loader struct {
	log *slog.Logger
	cfg LoaderConfig
}

func NewLoader(cfg LoaderConfig) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Loader{log: cfg.Logger, cfg: cfg}, nil
}

// LoadAll attempts to load every configured kind. The returned map contains
// only the kinds that loaded successfully.
func (l *Loader) LoadAll(ctx context.Context) map[Kind]*Table {
	tables := make(map[Kind]*Table)
	for _, kind := range Kinds() {
		select {
		case <-ctx.Done():
			l.log.Warn("load cancelled", "error", ctx.Err())
			return tables
		default:
		}

		name, ok := l.cfg.Files[kind]
		if !ok {
			l.log.Warn("no file configured for dataset kind", "kind", kind)
			continue
		}
		table, err := l.Load(kind, filepath.Join(l.cfg.DataDir, name))
		if err != nil {
			l.log.Error("failed to load dataset", "kind", kind, "file", name, "error", err)
			continue
		}
		l.log.Info("loaded dataset", "kind", kind, "rows", len(table.Rows), "columns", len(table.Columns))
		tables[kind] = table
	}
	return tables
}

// Load parses a single file into a table, dispatching on extension:
// .xlsx workbooks (first sheet) or .csv files. The first row is the header.
func (l *Loader) Load(kind Kind, path string) (*Table, error) {
	var records [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		records, err = readXLSX(path)
	case ".csv":
		records, err = readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file %s has no header row", path)
	}
	return NewTable(string(kind), records[0], records[1:]), nil
}

// Profiles returns a descriptive summary per loaded kind.
func (l *Loader) Profiles(tables map[Kind]*Table) map[Kind]Profile {
	profiles := make(map[Kind]Profile, len(tables))
	for kind, table := range tables {
		profiles[kind] = table.Profile(kind)
	}
	return profiles
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return records, nil
}
