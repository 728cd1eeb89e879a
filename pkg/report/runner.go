package report

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pranavkoushik/vaccination-project/pkg/dataset"
	"github.com/pranavkoushik/vaccination-project/pkg/sqlite"
)

type Config struct {
	Logger *slog.Logger
	DB     sqlite.DB
	// Analyses defaults to the full Catalogue.
	Analyses []Analysis
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.DB == nil {
		return errors.New("database is required")
	}
	if len(cfg.Analyses) == 0 {
		cfg.Analyses = Catalogue()
	}
	return nil
}

// Result pairs one catalogue analysis with its outcome. A failed analysis
// keeps an empty result and its error; downstream rendering treats it as
// "no finding".
type Result struct {
	Analysis Analysis
	Result   *dataset.QueryResult
	Err      error
}

// Runner executes the catalogue against the warehouse, read-only. Analyses
// are fault-isolated from one another.
type Runner struct {
	log      *slog.Logger
	db       sqlite.DB
	analyses []Analysis
}

func NewRunner(cfg Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{log: cfg.Logger, db: cfg.DB, analyses: cfg.Analyses}, nil
}

// RunAll executes every analysis in catalogue order. One failure never stops
// the rest; it is logged and recorded on the result.
func (r *Runner) RunAll(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.analyses))
	for _, a := range r.analyses {
		res, err := a.Run(ctx, r.db)
		if err != nil {
			r.log.Error("analysis failed", "analysis", a.Name, "error", err)
			results = append(results, Result{Analysis: a, Result: &dataset.QueryResult{}, Err: err})
			continue
		}
		r.log.Info("analysis completed", "analysis", a.Name, "rows", res.Count)
		results = append(results, Result{Analysis: a, Result: res})
	}
	return results
}
