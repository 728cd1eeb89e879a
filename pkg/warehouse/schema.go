package warehouse

import (
	"fmt"
	"strings"

	"github.com/pranavkoushik/vaccination-project/pkg/dataset"
)

// Star schema definitions: four dimensions, five facts, three analytical
// views. Fact tables reference dimensions by natural key only; nothing is
// enforced at the storage layer.

type countriesSchema struct{}

func (countriesSchema) Name() string { return "countries" }
func (countriesSchema) KeyColumns() []string {
	return []string{"country_code:TEXT"}
}
func (countriesSchema) PayloadColumns() []string {
	return []string{
		"country_name:TEXT NOT NULL",
		"who_region:TEXT",
	}
}

type antigensSchema struct{}

func (antigensSchema) Name() string { return "antigens" }
func (antigensSchema) KeyColumns() []string {
	return []string{"antigen_code:TEXT"}
}
func (antigensSchema) PayloadColumns() []string {
	return []string{"antigen_description:TEXT"}
}

type diseasesSchema struct{}

func (diseasesSchema) Name() string { return "diseases" }
func (diseasesSchema) KeyColumns() []string {
	return []string{"disease_code:TEXT"}
}
func (diseasesSchema) PayloadColumns() []string {
	return []string{"disease_description:TEXT"}
}

type yearsSchema struct{}

func (yearsSchema) Name() string { return "years" }
func (yearsSchema) KeyColumns() []string {
	return []string{"year:INTEGER"}
}
func (yearsSchema) PayloadColumns() []string {
	return []string{
		"decade:INTEGER",
		"period:TEXT",
	}
}

type coverageFactSchema struct{}

func (coverageFactSchema) Name() string { return "vaccination_coverage" }
func (coverageFactSchema) Columns() []string {
	return []string{
		"country_code:TEXT",
		"year:INTEGER",
		"antigen_code:TEXT",
		"coverage_category:TEXT",
		"coverage_category_description:TEXT",
		"target_number:INTEGER",
		"doses:INTEGER",
		"coverage:REAL",
	}
}
func (coverageFactSchema) Indexes() []dataset.Index {
	return []dataset.Index{
		{Name: "idx_coverage_country_year", Columns: []string{"country_code", "year"}},
		{Name: "idx_coverage_antigen", Columns: []string{"antigen_code"}},
	}
}

type incidenceFactSchema struct{}

func (incidenceFactSchema) Name() string { return "disease_incidence" }
func (incidenceFactSchema) Columns() []string {
	return []string{
		"country_code:TEXT",
		"year:INTEGER",
		"disease_code:TEXT",
		"denominator:TEXT",
		"incidence_rate:REAL",
	}
}
func (incidenceFactSchema) Indexes() []dataset.Index {
	return []dataset.Index{
		{Name: "idx_incidence_country_year", Columns: []string{"country_code", "year"}},
		{Name: "idx_incidence_disease", Columns: []string{"disease_code"}},
	}
}

type casesFactSchema struct{}

func (casesFactSchema) Name() string { return "reported_cases" }
func (casesFactSchema) Columns() []string {
	return []string{
		"country_code:TEXT",
		"year:INTEGER",
		"disease_code:TEXT",
		"cases:INTEGER",
	}
}
func (casesFactSchema) Indexes() []dataset.Index {
	return []dataset.Index{
		{Name: "idx_cases_country_year", Columns: []string{"country_code", "year"}},
	}
}

type introductionFactSchema struct{}

func (introductionFactSchema) Name() string { return "vaccine_introduction" }
func (introductionFactSchema) Columns() []string {
	return []string{
		"country_code:TEXT",
		"year:INTEGER",
		"vaccine_description:TEXT",
		"introduction_status:TEXT",
	}
}
func (introductionFactSchema) Indexes() []dataset.Index { return nil }

type scheduleFactSchema struct{}

func (scheduleFactSchema) Name() string { return "vaccine_schedule" }
func (scheduleFactSchema) Columns() []string {
	return []string{
		"country_code:TEXT",
		"year:INTEGER",
		"vaccine_code:TEXT",
		"vaccine_description:TEXT",
		"schedule_rounds:TEXT",
		"target_population:TEXT",
		"target_population_description:TEXT",
		"geo_area:TEXT",
		"age_administered:TEXT",
		"source_comment:TEXT",
	}
}
func (scheduleFactSchema) Indexes() []dataset.Index { return nil }

type coverageViewSchema struct{}

func (coverageViewSchema) Name() string { return "v_coverage_analysis" }
func (coverageViewSchema) SelectSQL() string {
	return `SELECT
    fc.country_code,
    dc.country_name,
    dc.who_region,
    fc.year,
    dy.decade,
    dy.period,
    fc.antigen_code,
    da.antigen_description,
    fc.coverage,
    fc.target_number,
    fc.doses,
    CASE
        WHEN fc.coverage >= 95 THEN 'High'
        WHEN fc.coverage >= 80 THEN 'Medium'
        ELSE 'Low'
    END AS coverage_level
FROM fact_vaccination_coverage fc
JOIN dim_countries dc ON fc.country_code = dc.country_code
JOIN dim_years dy ON fc.year = dy.year
JOIN dim_antigens da ON fc.antigen_code = da.antigen_code`
}

type burdenViewSchema struct{}

func (burdenViewSchema) Name() string { return "v_disease_burden" }
func (burdenViewSchema) SelectSQL() string {
	return `SELECT
    fdi.country_code,
    dc.country_name,
    dc.who_region,
    fdi.year,
    dy.decade,
    fdi.disease_code,
    dd.disease_description,
    fdi.incidence_rate,
    frc.cases,
    CASE
        WHEN fdi.incidence_rate > 100 THEN 'High'
        WHEN fdi.incidence_rate > 10 THEN 'Medium'
        ELSE 'Low'
    END AS incidence_level
FROM fact_disease_incidence fdi
JOIN dim_countries dc ON fdi.country_code = dc.country_code
JOIN dim_years dy ON fdi.year = dy.year
JOIN dim_diseases dd ON fdi.disease_code = dd.disease_code
LEFT JOIN fact_reported_cases frc ON fdi.country_code = frc.country_code
    AND fdi.year = frc.year AND fdi.disease_code = frc.disease_code`
}

// effectivenessViewSchema joins coverage to disease burden restricted to the
// configured antigen/disease pairings; combinations outside the allow-list
// never appear even when otherwise joinable.
type effectivenessViewSchema struct {
	pairings []Pairing
}

func (effectivenessViewSchema) Name() string { return "v_vaccination_effectiveness" }
func (s effectivenessViewSchema) SelectSQL() string {
	conds := make([]string, 0, len(s.pairings))
	for _, p := range s.pairings {
		conds = append(conds, p.condition())
	}
	return fmt.Sprintf(`SELECT
    vc.country_code,
    vc.country_name,
    vc.who_region,
    vc.year,
    vc.antigen_code,
    vc.antigen_description,
    vc.coverage,
    db.disease_code,
    db.disease_description,
    db.incidence_rate,
    db.cases
FROM v_coverage_analysis vc
LEFT JOIN v_disease_burden db ON vc.country_code = db.country_code
    AND vc.year = db.year
WHERE (
    %s
)`, strings.Join(conds, " OR\n    "))
}
