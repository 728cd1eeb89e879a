package clean

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/pranavkoushik/vaccination-project/pkg/source"
)

type Config struct {
	Logger *slog.Logger
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Cleaner turns raw tables into typed, validated rows. Rules are fixed per
// kind: canonical uppercase headers, rows missing essential cells dropped,
// measures coerced to numbers with 0 for anything unparseable, years coerced
// to integers with unparseable years dropping the row.
type Cleaner struct {
	log *slog.Logger
}

func NewCleaner(cfg Config) (*Cleaner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Cleaner{log: cfg.Logger}, nil
}

// CleanAll cleans every present kind. Absent kinds stay empty in the result.
func (c *Cleaner) CleanAll(tables map[source.Kind]*source.Table) *Data {
	data := &Data{}
	if t, ok := tables[source.KindCoverage]; ok {
		data.Coverage = c.CleanCoverage(t)
	}
	if t, ok := tables[source.KindIncidence]; ok {
		data.Incidence = c.CleanIncidence(t)
	}
	if t, ok := tables[source.KindReportedCases]; ok {
		data.Cases = c.CleanReportedCases(t)
	}
	if t, ok := tables[source.KindVaccineIntroduction]; ok {
		data.Introduction = c.CleanIntroduction(t)
	}
	if t, ok := tables[source.KindVaccineSchedule]; ok {
		data.Schedule = c.CleanSchedule(t)
	}
	return data
}

func (c *Cleaner) CleanCoverage(raw *source.Table) []CoverageRow {
	t := raw.UpperColumns()
	rows := make([]CoverageRow, 0, len(t.Rows))
	for i := range t.Rows {
		if hasEmpty(t, i, "CODE", "NAME", "YEAR", "ANTIGEN") {
			continue
		}
		year, ok := parseYear(t.Cell(i, "YEAR"))
		if !ok {
			continue
		}
		coverage := parseMeasure(t.Cell(i, "COVERAGE"))
		if coverage < 0 || coverage > 200 {
			continue
		}
		rows = append(rows, CoverageRow{
			Code:                        t.Cell(i, "CODE"),
			Name:                        t.Cell(i, "NAME"),
			Year:                        year,
			Antigen:                     t.Cell(i, "ANTIGEN"),
			AntigenDescription:          t.Cell(i, "ANTIGEN_DESCRIPTION"),
			CoverageCategory:            t.Cell(i, "COVERAGE_CATEGORY"),
			CoverageCategoryDescription: t.Cell(i, "COVERAGE_CATEGORY_DESCRIPTION"),
			TargetNumber:                parseMeasure(t.Cell(i, "TARGET_NUMBER")),
			Doses:                       parseMeasure(t.Cell(i, "DOSES")),
			Coverage:                    coverage,
		})
	}
	c.log.Info("cleaned coverage data", "raw_rows", len(raw.Rows), "clean_rows", len(rows))
	return rows
}

func (c *Cleaner) CleanIncidence(raw *source.Table) []IncidenceRow {
	t := raw.UpperColumns()
	rows := make([]IncidenceRow, 0, len(t.Rows))
	for i := range t.Rows {
		if hasEmpty(t, i, "CODE", "NAME", "YEAR", "DISEASE") {
			continue
		}
		year, ok := parseYear(t.Cell(i, "YEAR"))
		if !ok {
			continue
		}
		rate := parseMeasure(t.Cell(i, "INCIDENCE_RATE"))
		if rate < 0 {
			continue
		}
		rows = append(rows, IncidenceRow{
			Code:               t.Cell(i, "CODE"),
			Name:               t.Cell(i, "NAME"),
			Year:               year,
			Disease:            t.Cell(i, "DISEASE"),
			DiseaseDescription: t.Cell(i, "DISEASE_DESCRIPTION"),
			Denominator:        t.Cell(i, "DENOMINATOR"),
			IncidenceRate:      rate,
		})
	}
	c.log.Info("cleaned incidence data", "raw_rows", len(raw.Rows), "clean_rows", len(rows))
	return rows
}

func (c *Cleaner) CleanReportedCases(raw *source.Table) []CasesRow {
	t := raw.UpperColumns()
	rows := make([]CasesRow, 0, len(t.Rows))
	for i := range t.Rows {
		if hasEmpty(t, i, "CODE", "NAME", "YEAR", "DISEASE") {
			continue
		}
		year, ok := parseYear(t.Cell(i, "YEAR"))
		if !ok {
			continue
		}
		cases := parseMeasure(t.Cell(i, "CASES"))
		if cases < 0 {
			continue
		}
		rows = append(rows, CasesRow{
			Code:               t.Cell(i, "CODE"),
			Name:               t.Cell(i, "NAME"),
			Year:               year,
			Disease:            t.Cell(i, "DISEASE"),
			DiseaseDescription: t.Cell(i, "DISEASE_DESCRIPTION"),
			Cases:              cases,
		})
	}
	c.log.Info("cleaned reported cases data", "raw_rows", len(raw.Rows), "clean_rows", len(rows))
	return rows
}

func (c *Cleaner) CleanIntroduction(raw *source.Table) []IntroductionRow {
	t := raw.UpperColumns()
	rows := make([]IntroductionRow, 0, len(t.Rows))
	for i := range t.Rows {
		if hasEmpty(t, i, "ISO_3_CODE", "COUNTRYNAME", "YEAR") {
			continue
		}
		year, ok := parseYear(t.Cell(i, "YEAR"))
		if !ok {
			continue
		}
		intro := t.Cell(i, "INTRO")
		if intro == "" {
			intro = "Unknown"
		}
		rows = append(rows, IntroductionRow{
			ISO3Code:    t.Cell(i, "ISO_3_CODE"),
			CountryName: t.Cell(i, "COUNTRYNAME"),
			WHORegion:   t.Cell(i, "WHO_REGION"),
			Year:        year,
			Description: t.Cell(i, "DESCRIPTION"),
			Intro:       intro,
		})
	}
	c.log.Info("cleaned vaccine introduction data", "raw_rows", len(raw.Rows), "clean_rows", len(rows))
	return rows
}

func (c *Cleaner) CleanSchedule(raw *source.Table) []ScheduleRow {
	t := raw.UpperColumns()
	rows := make([]ScheduleRow, 0, len(t.Rows))
	for i := range t.Rows {
		if hasEmpty(t, i, "ISO_3_CODE", "COUNTRYNAME", "YEAR") {
			continue
		}
		year, ok := parseYear(t.Cell(i, "YEAR"))
		if !ok {
			continue
		}
		rows = append(rows, ScheduleRow{
			ISO3Code:           t.Cell(i, "ISO_3_CODE"),
			CountryName:        t.Cell(i, "COUNTRYNAME"),
			Year:               year,
			VaccineCode:        t.Cell(i, "VACCINECODE"),
			VaccineDescription: t.Cell(i, "VACCINE_DESCRIPTION"),
			ScheduleRounds:     t.Cell(i, "SCHEDULEROUNDS"),
			TargetPop:          t.Cell(i, "TARGETPOP"),
			TargetPopDesc:      t.Cell(i, "TARGETPOP_DESCRIPTION"),
			GeoArea:            t.Cell(i, "GEOAREA"),
			AgeAdministered:    t.Cell(i, "AGEADMINISTERED"),
			SourceComment:      t.Cell(i, "SOURCECOMMENT"),
		})
	}
	c.log.Info("cleaned vaccine schedule data", "raw_rows", len(raw.Rows), "clean_rows", len(rows))
	return rows
}

func hasEmpty(t *source.Table, row int, cols ...string) bool {
	for _, col := range cols {
		if t.Cell(row, col) == "" {
			return true
		}
	}
	return false
}

// parseMeasure treats anything unparseable, including an empty cell, as 0.
// No reading is recorded as zero rather than unknown.
func parseMeasure(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseYear has no default. An unparseable year drops the whole row.
func parseYear(s string) (int, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}
