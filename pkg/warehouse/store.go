package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pranavkoushik/vaccination-project/pkg/clean"
	"github.com/pranavkoushik/vaccination-project/pkg/dataset"
	"github.com/pranavkoushik/vaccination-project/pkg/sqlite"
)

type Config struct {
	Logger *slog.Logger
	Client *sqlite.Client
	// Pairings drives the effectiveness view. Defaults to DefaultPairings.
	Pairings []Pairing
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Client == nil {
		return errors.New("sqlite client is required")
	}
	if len(cfg.Pairings) == 0 {
		cfg.Pairings = DefaultPairings()
	}
	return nil
}

// Store owns the warehouse database file. Rebuild is the only write path:
// it drops and recreates the entire star schema from cleaned data in a single
// transaction, since partial state is unsafe to query.
type Store struct {
	log    *slog.Logger
	client *sqlite.Client

	countries *dataset.DimensionDataset
	antigens  *dataset.DimensionDataset
	diseases  *dataset.DimensionDataset
	years     *dataset.DimensionDataset

	coverage     *dataset.FactDataset
	incidence    *dataset.FactDataset
	cases        *dataset.FactDataset
	introduction *dataset.FactDataset
	schedule     *dataset.FactDataset

	views []*dataset.ViewDataset
}

func NewStore(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Store{log: cfg.Logger, client: cfg.Client}

	var err error
	dims := []struct {
		target **dataset.DimensionDataset
		schema dataset.DimensionSchema
	}{
		{&s.countries, countriesSchema{}},
		{&s.antigens, antigensSchema{}},
		{&s.diseases, diseasesSchema{}},
		{&s.years, yearsSchema{}},
	}
	for _, d := range dims {
		if *d.target, err = dataset.NewDimensionDataset(cfg.Logger, d.schema); err != nil {
			return nil, fmt.Errorf("failed to build dimension %s: %w", d.schema.Name(), err)
		}
	}

	facts := []struct {
		target **dataset.FactDataset
		schema dataset.FactSchema
	}{
		{&s.coverage, coverageFactSchema{}},
		{&s.incidence, incidenceFactSchema{}},
		{&s.cases, casesFactSchema{}},
		{&s.introduction, introductionFactSchema{}},
		{&s.schedule, scheduleFactSchema{}},
	}
	for _, f := range facts {
		if *f.target, err = dataset.NewFactDataset(cfg.Logger, f.schema); err != nil {
			return nil, fmt.Errorf("failed to build fact %s: %w", f.schema.Name(), err)
		}
	}

	s.views = []*dataset.ViewDataset{
		dataset.NewViewDataset(cfg.Logger, coverageViewSchema{}),
		dataset.NewViewDataset(cfg.Logger, burdenViewSchema{}),
		dataset.NewViewDataset(cfg.Logger, effectivenessViewSchema{pairings: cfg.Pairings}),
	}

	return s, nil
}

// DB exposes the underlying database for the read-only query layer.
func (s *Store) DB() sqlite.DB {
	return s.client.DB()
}

// TableNames lists every dimension and fact table, dimensions first.
func (s *Store) TableNames() []string {
	names := make([]string, 0, len(s.dimensions())+len(s.facts()))
	for _, d := range s.dimensions() {
		names = append(names, d.TableName())
	}
	for _, f := range s.facts() {
		names = append(names, f.TableName())
	}
	return names
}

// ViewNames lists the analytical views in creation order.
func (s *Store) ViewNames() []string {
	names := make([]string, 0, len(s.views))
	for _, v := range s.views {
		names = append(names, v.Name())
	}
	return names
}

func (s *Store) dimensions() []*dataset.DimensionDataset {
	return []*dataset.DimensionDataset{s.countries, s.antigens, s.diseases, s.years}
}

func (s *Store) facts() []*dataset.FactDataset {
	return []*dataset.FactDataset{s.coverage, s.incidence, s.cases, s.introduction, s.schedule}
}

// Rebuild drops and recreates the whole schema from cleaned data. Every
// table and view is always created, even for kinds with no cleaned rows, so
// the query layer can rely on the schema existing. Any SQL failure aborts
// and rolls back.
func (s *Store) Rebuild(ctx context.Context, data *clean.Data) error {
	s.log.Info("rebuilding warehouse", "path", s.client.Path())

	err := s.client.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.recreateSchema(ctx, tx); err != nil {
			return err
		}
		if err := s.populateDimensions(ctx, tx, data); err != nil {
			return err
		}
		if err := s.populateFacts(ctx, tx, data); err != nil {
			return err
		}
		for _, v := range s.views {
			if err := v.Create(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild warehouse: %w", err)
	}

	s.log.Info("warehouse rebuilt",
		"tables", len(s.TableNames()),
		"views", len(s.views),
	)
	return nil
}

func (s *Store) recreateSchema(ctx context.Context, tx *sql.Tx) error {
	for _, v := range s.views {
		if _, err := tx.ExecContext(ctx, v.DropSQL()); err != nil {
			return fmt.Errorf("failed to drop view %s: %w", v.Name(), err)
		}
	}
	for _, f := range s.facts() {
		if _, err := tx.ExecContext(ctx, f.DropSQL()); err != nil {
			return fmt.Errorf("failed to drop %s: %w", f.TableName(), err)
		}
	}
	for _, d := range s.dimensions() {
		if _, err := tx.ExecContext(ctx, d.DropSQL()); err != nil {
			return fmt.Errorf("failed to drop %s: %w", d.TableName(), err)
		}
	}

	for _, d := range s.dimensions() {
		stmt, err := d.CreateSQL()
		if err != nil {
			return fmt.Errorf("failed to build DDL for %s: %w", d.TableName(), err)
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create %s: %w", d.TableName(), err)
		}
	}
	for _, f := range s.facts() {
		stmt, err := f.CreateSQL()
		if err != nil {
			return fmt.Errorf("failed to build DDL for %s: %w", f.TableName(), err)
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create %s: %w", f.TableName(), err)
		}
		for _, idx := range f.IndexSQL() {
			if _, err := tx.ExecContext(ctx, idx); err != nil {
				return fmt.Errorf("failed to create index on %s: %w", f.TableName(), err)
			}
		}
	}
	return nil
}

func (s *Store) populateDimensions(ctx context.Context, tx *sql.Tx, data *clean.Data) error {
	countries := deriveCountries(data)
	if err := s.countries.Replace(ctx, tx, len(countries), func(i int) ([]any, error) {
		c := countries[i]
		var region any
		if c.HasRegion {
			region = c.WHORegion
		}
		return []any{c.Code, c.Name, region}, nil
	}); err != nil {
		return err
	}

	antigens := deriveAntigens(data)
	if err := s.antigens.Replace(ctx, tx, len(antigens), func(i int) ([]any, error) {
		return []any{antigens[i].Code, antigens[i].Description}, nil
	}); err != nil {
		return err
	}

	diseases := deriveDiseases(data)
	if err := s.diseases.Replace(ctx, tx, len(diseases), func(i int) ([]any, error) {
		return []any{diseases[i].Code, diseases[i].Description}, nil
	}); err != nil {
		return err
	}

	years := deriveYears(data)
	if err := s.years.Replace(ctx, tx, len(years), func(i int) ([]any, error) {
		return []any{years[i].Year, years[i].Decade, years[i].Period}, nil
	}); err != nil {
		return err
	}

	s.log.Info("populated dimensions",
		"countries", len(countries),
		"antigens", len(antigens),
		"diseases", len(diseases),
		"years", len(years),
	)
	return nil
}

func (s *Store) populateFacts(ctx context.Context, tx *sql.Tx, data *clean.Data) error {
	if err := s.coverage.Replace(ctx, tx, len(data.Coverage), func(i int) ([]any, error) {
		r := data.Coverage[i]
		return []any{r.Code, r.Year, r.Antigen, r.CoverageCategory,
			r.CoverageCategoryDescription, r.TargetNumber, r.Doses, r.Coverage}, nil
	}); err != nil {
		return err
	}

	if err := s.incidence.Replace(ctx, tx, len(data.Incidence), func(i int) ([]any, error) {
		r := data.Incidence[i]
		return []any{r.Code, r.Year, r.Disease, r.Denominator, r.IncidenceRate}, nil
	}); err != nil {
		return err
	}

	if err := s.cases.Replace(ctx, tx, len(data.Cases), func(i int) ([]any, error) {
		r := data.Cases[i]
		return []any{r.Code, r.Year, r.Disease, r.Cases}, nil
	}); err != nil {
		return err
	}

	if err := s.introduction.Replace(ctx, tx, len(data.Introduction), func(i int) ([]any, error) {
		r := data.Introduction[i]
		return []any{r.ISO3Code, r.Year, r.Description, r.Intro}, nil
	}); err != nil {
		return err
	}

	if err := s.schedule.Replace(ctx, tx, len(data.Schedule), func(i int) ([]any, error) {
		r := data.Schedule[i]
		return []any{r.ISO3Code, r.Year, r.VaccineCode, r.VaccineDescription,
			r.ScheduleRounds, r.TargetPop, r.TargetPopDesc, r.GeoArea,
			r.AgeAdministered, r.SourceComment}, nil
	}); err != nil {
		return err
	}

	s.log.Info("populated facts",
		"coverage", len(data.Coverage),
		"incidence", len(data.Incidence),
		"reported_cases", len(data.Cases),
		"vaccine_introduction", len(data.Introduction),
		"vaccine_schedule", len(data.Schedule),
	)
	return nil
}
