package dataset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pranavkoushik/vaccination-project/pkg/sqlite"
)

// ViewDataset wraps a ViewSchema with create/drop helpers. Views are derived
// joins recomputed on each query; they carry no data of their own.
type ViewDataset struct {
	log    *slog.Logger
	schema ViewSchema
}

func NewViewDataset(log *slog.Logger, schema ViewSchema) *ViewDataset {
	return &ViewDataset{log: log, schema: schema}
}

func (v *ViewDataset) Name() string {
	return v.schema.Name()
}

func (v *ViewDataset) CreateSQL() string {
	return fmt.Sprintf("CREATE VIEW IF NOT EXISTS %s AS\n%s", v.schema.Name(), v.schema.SelectSQL())
}

func (v *ViewDataset) DropSQL() string {
	return fmt.Sprintf("DROP VIEW IF EXISTS %s", v.schema.Name())
}

// Create drops and recreates the view so a rebuild always picks up the
// current definition.
func (v *ViewDataset) Create(ctx context.Context, db sqlite.DB) error {
	if _, err := db.ExecContext(ctx, v.DropSQL()); err != nil {
		return fmt.Errorf("failed to drop view %s: %w", v.schema.Name(), err)
	}
	if _, err := db.ExecContext(ctx, v.CreateSQL()); err != nil {
		return fmt.Errorf("failed to create view %s: %w", v.schema.Name(), err)
	}
	v.log.Debug("created view", "view", v.schema.Name())
	return nil
}
