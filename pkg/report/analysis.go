package report

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pranavkoushik/vaccination-project/pkg/dataset"
	"github.com/pranavkoushik/vaccination-project/pkg/sqlite"
)

// Analysis is one entry in the fixed analytical catalogue. Each analysis is
// independent and idempotent; Run reads from the warehouse views only.
type Analysis struct {
	// Name is the file-safe identifier used for CSV exports.
	Name string
	// Title is the human-readable heading in the text report.
	Title string
	// Run produces the result set.
	Run func(ctx context.Context, db sqlite.DB) (*dataset.QueryResult, error)
}

// minCorrelationPoints is the sample size an antigen/disease pair must
// exceed before its correlation is reported.
const minCorrelationPoints = 20

// Catalogue returns the full analysis catalogue in report order.
func Catalogue() []Analysis {
	return []Analysis{
		{
			Name:  "effectiveness_correlation",
			Title: "Vaccination Coverage vs Disease Incidence Correlation",
			Run:   runCorrelation,
		},
		{
			Name:  "dose_dropoff",
			Title: "Drop-off Rate Between Vaccine Doses",
			Run:   sqlAnalysis(doseDropoffSQL),
		},
		{
			Name:  "regional_disparities",
			Title: "Regional Vaccination Disparities",
			Run:   sqlAnalysis(regionalDisparitiesSQL),
		},
		{
			Name:  "introduction_impact",
			Title: "Vaccine Introduction Impact on Reported Cases",
			Run:   sqlAnalysis(introductionImpactSQL),
		},
		{
			Name:  "resource_allocation",
			Title: "Resource Allocation Priority",
			Run:   sqlAnalysis(resourceAllocationSQL),
		},
		{
			Name:  "target_progress",
			Title: "Progress Toward the 95% Coverage Target",
			Run:   sqlAnalysis(targetProgressSQL),
		},
		{
			Name:  "kpi_metrics",
			Title: "Key Performance Indicators by Year",
			Run:   sqlAnalysis(kpiMetricsSQL),
		},
	}
}

func sqlAnalysis(query string) func(ctx context.Context, db sqlite.DB) (*dataset.QueryResult, error) {
	return func(ctx context.Context, db sqlite.DB) (*dataset.QueryResult, error) {
		return dataset.Query(ctx, db, query)
	}
}

// runCorrelation pulls coverage/incidence pairs per antigen and disease from
// the effectiveness view and computes the Pearson coefficient in Go. SQLite
// has no CORR aggregate.
func runCorrelation(ctx context.Context, db sqlite.DB) (*dataset.QueryResult, error) {
	res, err := dataset.Query(ctx, db, `SELECT
    antigen_code,
    disease_code,
    coverage,
    incidence_rate
FROM v_vaccination_effectiveness
WHERE coverage IS NOT NULL
    AND incidence_rate IS NOT NULL
    AND year >= 2010`)
	if err != nil {
		return nil, fmt.Errorf("failed to query effectiveness pairs: %w", err)
	}

	type key struct{ antigen, disease string }
	samples := make(map[key][2][]float64)
	for _, row := range res.Rows {
		antigen, _ := dataset.String(row, "antigen_code")
		disease, _ := dataset.String(row, "disease_code")
		coverage, ok1 := dataset.Float(row, "coverage")
		incidence, ok2 := dataset.Float(row, "incidence_rate")
		if !ok1 || !ok2 {
			continue
		}
		k := key{antigen, disease}
		s := samples[k]
		s[0] = append(s[0], coverage)
		s[1] = append(s[1], incidence)
		samples[k] = s
	}

	keys := make([]key, 0, len(samples))
	for k, s := range samples {
		if len(s[0]) > minCorrelationPoints {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := samples[keys[i]], samples[keys[j]]
		return correlation(a[0], a[1]) < correlation(b[0], b[1])
	})

	out := &dataset.QueryResult{
		Columns: []string{"antigen_code", "disease_code", "data_points", "correlation_coefficient"},
	}
	for _, k := range keys {
		s := samples[k]
		out.Rows = append(out.Rows, map[string]any{
			"antigen_code":            k.antigen,
			"disease_code":            k.disease,
			"data_points":             int64(len(s[0])),
			"correlation_coefficient": math.Round(correlation(s[0], s[1])*10000) / 10000,
		})
	}
	out.Count = len(out.Rows)
	return out, nil
}

func correlation(x, y []float64) float64 {
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

const doseDropoffSQL = `WITH dose_analysis AS (
    SELECT
        country_code,
        year,
        coverage,
        CASE
            WHEN antigen_code LIKE '%1' THEN 1
            WHEN antigen_code LIKE '%2' THEN 2
            WHEN antigen_code LIKE '%3' THEN 3
        END AS dose_number,
        SUBSTR(antigen_code, 1, 3) AS vaccine_type
    FROM v_coverage_analysis
    WHERE (antigen_code LIKE '%1' OR antigen_code LIKE '%2' OR antigen_code LIKE '%3')
        AND year >= 2020
),
dose_comparison AS (
    SELECT
        vaccine_type,
        country_code,
        year,
        MAX(CASE WHEN dose_number = 1 THEN coverage END) AS dose1_coverage,
        MAX(CASE WHEN dose_number = 2 THEN coverage END) AS dose2_coverage,
        MAX(CASE WHEN dose_number = 3 THEN coverage END) AS dose3_coverage
    FROM dose_analysis
    GROUP BY vaccine_type, country_code, year
)
SELECT
    vaccine_type,
    ROUND(AVG(dose1_coverage), 2) AS avg_dose1_coverage,
    ROUND(AVG(dose2_coverage), 2) AS avg_dose2_coverage,
    ROUND(AVG(dose3_coverage), 2) AS avg_dose3_coverage,
    ROUND(AVG(dose1_coverage - dose2_coverage), 2) AS avg_dropout_dose1_to_2,
    ROUND(AVG(dose2_coverage - dose3_coverage), 2) AS avg_dropout_dose2_to_3,
    COUNT(*) AS num_observations
FROM dose_comparison
WHERE dose1_coverage IS NOT NULL AND dose2_coverage IS NOT NULL
GROUP BY vaccine_type
ORDER BY avg_dropout_dose1_to_2 DESC`

const regionalDisparitiesSQL = `SELECT
    who_region,
    ROUND(AVG(coverage), 2) AS avg_coverage,
    MIN(coverage) AS min_coverage,
    MAX(coverage) AS max_coverage,
    MAX(coverage) - MIN(coverage) AS coverage_gap,
    COUNT(DISTINCT country_code) AS num_countries
FROM v_coverage_analysis
WHERE year >= 2020 AND who_region IS NOT NULL
GROUP BY who_region
ORDER BY avg_coverage DESC`

const introductionImpactSQL = `WITH intro_impact AS (
    SELECT
        fvi.country_code,
        fvi.vaccine_description,
        fvi.year AS intro_year,
        AVG(CASE WHEN frc.year BETWEEN fvi.year-3 AND fvi.year-1 THEN frc.cases END) AS avg_cases_before,
        AVG(CASE WHEN frc.year BETWEEN fvi.year+1 AND fvi.year+3 THEN frc.cases END) AS avg_cases_after
    FROM fact_vaccine_introduction fvi
    JOIN dim_countries dc ON fvi.country_code = dc.country_code
    LEFT JOIN fact_reported_cases frc ON fvi.country_code = frc.country_code
    WHERE fvi.introduction_status = 'Yes'
        AND fvi.year >= 2000
        AND frc.year BETWEEN fvi.year-3 AND fvi.year+3
    GROUP BY fvi.country_code, fvi.vaccine_description, fvi.year
    HAVING avg_cases_before IS NOT NULL AND avg_cases_after IS NOT NULL
)
SELECT
    vaccine_description,
    COUNT(*) AS num_countries,
    ROUND(AVG(avg_cases_before), 2) AS avg_cases_before_intro,
    ROUND(AVG(avg_cases_after), 2) AS avg_cases_after_intro,
    ROUND(AVG((avg_cases_before - avg_cases_after) / NULLIF(avg_cases_before, 0) * 100), 2) AS avg_reduction_percent
FROM intro_impact
WHERE avg_cases_before > 0
GROUP BY vaccine_description
ORDER BY avg_reduction_percent DESC`

const resourceAllocationSQL = `WITH resource_priority AS (
    SELECT
        vc.country_code,
        vc.country_name,
        vc.who_region,
        AVG(vc.coverage) AS avg_coverage,
        AVG(db.incidence_rate) AS avg_incidence_rate,
        COUNT(*) AS data_points
    FROM v_coverage_analysis vc
    LEFT JOIN v_disease_burden db ON vc.country_code = db.country_code
        AND vc.year = db.year
    WHERE vc.year >= 2020
    GROUP BY vc.country_code, vc.country_name, vc.who_region
)
SELECT
    country_name,
    who_region,
    ROUND(avg_coverage, 2) AS avg_coverage,
    ROUND(avg_incidence_rate, 2) AS avg_incidence_rate,
    CASE
        WHEN avg_coverage < 70 AND avg_incidence_rate > 20 THEN 'Critical Priority'
        WHEN avg_coverage < 80 AND avg_incidence_rate > 10 THEN 'High Priority'
        WHEN avg_coverage < 90 OR avg_incidence_rate > 5 THEN 'Medium Priority'
        ELSE 'Low Priority'
    END AS resource_priority
FROM resource_priority
ORDER BY
    CASE
        WHEN avg_coverage < 70 AND avg_incidence_rate > 20 THEN 1
        WHEN avg_coverage < 80 AND avg_incidence_rate > 10 THEN 2
        WHEN avg_coverage < 90 OR avg_incidence_rate > 5 THEN 3
        ELSE 4
    END,
    avg_coverage`

const targetProgressSQL = `WITH target_progress AS (
    SELECT
        antigen_code,
        who_region,
        COUNT(*) AS total_records,
        COUNT(CASE WHEN coverage >= 95 THEN 1 END) AS above_95_target,
        COUNT(CASE WHEN coverage >= 80 THEN 1 END) AS above_80_threshold,
        AVG(coverage) AS avg_coverage
    FROM v_coverage_analysis
    WHERE year = (SELECT MAX(year) FROM v_coverage_analysis)
        AND who_region IS NOT NULL
    GROUP BY antigen_code, who_region
)
SELECT
    antigen_code,
    who_region,
    total_records,
    above_95_target,
    ROUND(above_95_target * 100.0 / total_records, 2) AS percent_meeting_95_target,
    ROUND(above_80_threshold * 100.0 / total_records, 2) AS percent_above_80,
    ROUND(avg_coverage, 2) AS avg_coverage,
    CASE
        WHEN (above_95_target * 100.0 / total_records) >= 80 THEN 'On Track'
        WHEN (above_95_target * 100.0 / total_records) >= 50 THEN 'Moderate Progress'
        ELSE 'Needs Improvement'
    END AS progress_status
FROM target_progress
ORDER BY antigen_code, percent_meeting_95_target DESC`

const kpiMetricsSQL = `SELECT
    year,
    COUNT(DISTINCT country_code) AS countries_reporting,
    ROUND(AVG(coverage), 2) AS avg_coverage,
    COUNT(CASE WHEN coverage >= 95 THEN 1 END) AS countries_above_95,
    COUNT(CASE WHEN coverage >= 80 THEN 1 END) AS countries_above_80
FROM v_coverage_analysis
GROUP BY year
ORDER BY year`
