package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pranavkoushik/vaccination-project/pkg/clean"
	"github.com/pranavkoushik/vaccination-project/pkg/dataset"
	"github.com/pranavkoushik/vaccination-project/pkg/source"
	"github.com/pranavkoushik/vaccination-project/pkg/sqlite"
	"github.com/pranavkoushik/vaccination-project/pkg/warehouse"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestDB rebuilds a warehouse with 25 countries carrying perfectly
// anti-correlated DTP3 coverage and diphtheria incidence.
func newTestDB(t *testing.T) sqlite.DB {
	t.Helper()
	ctx := context.Background()

	client, err := sqlite.NewClient(ctx, testLogger(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := warehouse.NewStore(warehouse.Config{Logger: testLogger(), Client: client})
	require.NoError(t, err)

	data := &clean.Data{}
	for i := 0; i < 25; i++ {
		code := fmt.Sprintf("C%02d", i)
		name := fmt.Sprintf("Country %02d", i)
		data.Coverage = append(data.Coverage, clean.CoverageRow{
			Code: code, Name: name, Year: 2021, Antigen: "DTP3",
			Coverage: 60 + float64(i),
		})
		data.Incidence = append(data.Incidence, clean.IncidenceRow{
			Code: code, Name: name, Year: 2021, Disease: "DIPHTHERIA",
			IncidenceRate: 100 - float64(i),
		})
		data.Introduction = append(data.Introduction, clean.IntroductionRow{
			ISO3Code: code, CountryName: name, WHORegion: "EUR", Year: 2021,
			Description: "DTP vaccine", Intro: "Yes",
		})
	}
	require.NoError(t, store.Rebuild(ctx, data))
	return store.DB()
}

func TestVax_Report_Correlation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	res, err := runCorrelation(context.Background(), db)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)

	row := res.Rows[0]
	antigen, _ := dataset.String(row, "antigen_code")
	require.Equal(t, "DTP3", antigen)
	disease, _ := dataset.String(row, "disease_code")
	require.Equal(t, "DIPHTHERIA", disease)
	points, _ := dataset.Int(row, "data_points")
	require.EqualValues(t, 25, points)
	r, _ := dataset.Float(row, "correlation_coefficient")
	require.InDelta(t, -1.0, r, 1e-9)
}

func TestVax_Report_Correlation_skips_small_samples(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	client, err := sqlite.NewClient(ctx, testLogger(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := warehouse.NewStore(warehouse.Config{Logger: testLogger(), Client: client})
	require.NoError(t, err)

	// Exactly 20 points per pair is still too few; the pair only reports
	// once it exceeds the floor.
	data := &clean.Data{}
	for i := 0; i < minCorrelationPoints; i++ {
		code := fmt.Sprintf("S%02d", i)
		data.Coverage = append(data.Coverage, clean.CoverageRow{
			Code: code, Name: "Smallland", Year: 2021, Antigen: "DTP3",
			Coverage: 60 + float64(i),
		})
		data.Incidence = append(data.Incidence, clean.IncidenceRow{
			Code: code, Name: "Smallland", Year: 2021, Disease: "DIPHTHERIA",
			IncidenceRate: 100 - float64(i),
		})
	}
	require.NoError(t, store.Rebuild(ctx, data))

	res, err := runCorrelation(ctx, store.DB())
	require.NoError(t, err)
	require.True(t, res.Empty())
}

func TestVax_Report_Runner(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	t.Run("runs_full_catalogue", func(t *testing.T) {
		t.Parallel()
		runner, err := NewRunner(Config{Logger: testLogger(), DB: db})
		require.NoError(t, err)

		results := runner.RunAll(context.Background())
		require.Len(t, results, len(Catalogue()))
		for _, r := range results {
			require.NoError(t, r.Err, "analysis %s", r.Analysis.Name)
		}
	})

	t.Run("failed_analysis_does_not_stop_the_rest", func(t *testing.T) {
		t.Parallel()
		analyses := []Analysis{
			{Name: "bad", Title: "Bad", Run: sqlAnalysis("SELECT * FROM no_such_table")},
			{Name: "kpi_metrics", Title: "KPI", Run: sqlAnalysis(kpiMetricsSQL)},
		}
		runner, err := NewRunner(Config{Logger: testLogger(), DB: db, Analyses: analyses})
		require.NoError(t, err)

		results := runner.RunAll(context.Background())
		require.Len(t, results, 2)
		require.Error(t, results[0].Err)
		require.True(t, results[0].Result.Empty())
		require.NoError(t, results[1].Err)
		require.False(t, results[1].Result.Empty())
	})
}

func TestVax_Report_KPIMetrics(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	res, err := dataset.Query(context.Background(), db, kpiMetricsSQL)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)

	row := res.Rows[0]
	year, _ := dataset.Int(row, "year")
	require.EqualValues(t, 2021, year)
	countries, _ := dataset.Int(row, "countries_reporting")
	require.EqualValues(t, 25, countries)
	// Coverage runs 60..84, so nothing reaches 95 and five rows reach 80.
	above95, _ := dataset.Int(row, "countries_above_95")
	require.Zero(t, above95)
	above80, _ := dataset.Int(row, "countries_above_80")
	require.EqualValues(t, 5, above80)
}

func TestVax_Report_WriteText(t *testing.T) {
	t.Parallel()

	results := []Result{
		{
			Analysis: Analysis{Name: "kpi_metrics", Title: "Key Performance Indicators by Year"},
			Result: &dataset.QueryResult{
				Columns: []string{"year", "avg_coverage"},
				Rows:    []map[string]any{{"year": int64(2021), "avg_coverage": 72.0}},
				Count:   1,
			},
		},
		{
			Analysis: Analysis{Name: "empty", Title: "Empty Analysis"},
			Result:   &dataset.QueryResult{},
		},
		{
			Analysis: Analysis{Name: "failed", Title: "Failed Analysis"},
			Result:   &dataset.QueryResult{},
			Err:      errors.New("no such table"),
		},
	}
	quality := map[source.Kind]clean.KindReport{
		source.KindCoverage: {
			Kind: source.KindCoverage, TotalRecords: 2, TotalColumns: 10,
			YearMin: 2020, YearMax: 2021, UniqueCountries: 2,
		},
	}

	path := filepath.Join(t.TempDir(), "report.txt")
	meta := Meta{RunID: "run-1", GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	require.NoError(t, WriteText(path, meta, results, quality))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	require.Contains(t, text, "run-1")
	require.Contains(t, text, "2026-01-02 03:04:05")
	require.Contains(t, text, "KEY PERFORMANCE INDICATORS BY YEAR")
	require.Contains(t, text, "2021")
	require.Contains(t, text, "No finding")
	require.Contains(t, text, "no such table")
	require.Contains(t, text, "DATA QUALITY REPORT")
	require.Contains(t, text, "Unique countries:  2")
}

func TestVax_Report_WriteText_headline_findings(t *testing.T) {
	t.Parallel()

	results := []Result{
		{
			Analysis: Analysis{Name: "effectiveness_correlation", Title: "Correlation"},
			Result: &dataset.QueryResult{
				Columns: []string{"antigen_code", "disease_code", "correlation_coefficient"},
				Rows: []map[string]any{
					{"antigen_code": "DTP3", "disease_code": "DIPHTHERIA", "correlation_coefficient": -0.91},
					{"antigen_code": "POL3", "disease_code": "POLIO", "correlation_coefficient": -0.2},
				},
				Count: 2,
			},
		},
		{
			Analysis: Analysis{Name: "dose_dropoff", Title: "Drop-off"},
			Result: &dataset.QueryResult{
				Columns: []string{"vaccine_type", "avg_dropout_dose1_to_2"},
				Rows: []map[string]any{
					{"vaccine_type": "POL", "avg_dropout_dose1_to_2": 3.5},
					{"vaccine_type": "DTP", "avg_dropout_dose1_to_2": 12.25},
				},
				Count: 2,
			},
		},
		{
			Analysis: Analysis{Name: "regional_disparities", Title: "Regions"},
			Result: &dataset.QueryResult{
				Columns: []string{"who_region", "avg_coverage"},
				Rows: []map[string]any{
					{"who_region": "EUR", "avg_coverage": 92.4},
					{"who_region": "AFR", "avg_coverage": 61.8},
				},
				Count: 2,
			},
		},
		{
			Analysis: Analysis{Name: "introduction_impact", Title: "Impact"},
			Result: &dataset.QueryResult{
				Columns: []string{"vaccine_description", "avg_reduction_percent"},
				Rows: []map[string]any{
					{"vaccine_description": "Hepatitis B vaccine", "avg_reduction_percent": 44.7},
				},
				Count: 1,
			},
		},
		{
			Analysis: Analysis{Name: "resource_allocation", Title: "Resources"},
			Result: &dataset.QueryResult{
				Columns: []string{"country_name", "resource_priority"},
				Rows: []map[string]any{
					{"country_name": "A", "resource_priority": "Critical Priority"},
					{"country_name": "B", "resource_priority": "Critical Priority"},
					{"country_name": "C", "resource_priority": "Low Priority"},
				},
				Count: 3,
			},
		},
		{
			Analysis: Analysis{Name: "target_progress", Title: "Target"},
			Result: &dataset.QueryResult{
				Columns: []string{"antigen_code", "progress_status"},
				Rows: []map[string]any{
					{"antigen_code": "MCV1", "progress_status": "On Track"},
					{"antigen_code": "DTP3", "progress_status": "Needs Improvement"},
				},
				Count: 2,
			},
		},
	}

	path := filepath.Join(t.TempDir(), "report.txt")
	meta := Meta{RunID: "run-2", GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	require.NoError(t, WriteText(path, meta, results, nil))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	require.Contains(t, text, "EXECUTIVE SUMMARY")
	require.Contains(t, text, "2 countries identified as critical priority for resource allocation")
	require.Contains(t, text, "1 vaccine-disease pairs show strong correlation")
	require.Contains(t, text, "1 antigen-region combinations on track for 95% target")
	require.Contains(t, text, "KEY FINDINGS")
	require.Contains(t, text, "Highest dropout rate: DTP (12.25% between doses 1-2)")
	require.Contains(t, text, "Most effective vaccine introduction: Hepatitis B vaccine (44.7% case reduction)")
	require.Contains(t, text, "Highest coverage region: EUR (92.4%)")
	require.Contains(t, text, "Lowest coverage region: AFR (61.8%)")
	require.Contains(t, text, "RECOMMENDATIONS")
	require.Contains(t, text, "DETAILED RESULTS")
}

func TestVax_Report_WriteText_findings_tolerate_missing_results(t *testing.T) {
	t.Parallel()

	results := []Result{
		{
			Analysis: Analysis{Name: "dose_dropoff", Title: "Drop-off"},
			Result:   &dataset.QueryResult{},
			Err:      errors.New("no such table"),
		},
	}

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, WriteText(path, Meta{RunID: "run-3", GeneratedAt: time.Now()}, results, nil))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	require.Contains(t, text, "EXECUTIVE SUMMARY")
	require.Contains(t, text, "RECOMMENDATIONS")
	require.NotContains(t, text, "Highest dropout rate")
}

func TestVax_Report_Exports(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()

	t.Run("csv_per_analysis_skipping_failures", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		results := []Result{
			{
				Analysis: Analysis{Name: "good"},
				Result: &dataset.QueryResult{
					Columns: []string{"a"},
					Rows:    []map[string]any{{"a": int64(1)}},
					Count:   1,
				},
			},
			{
				Analysis: Analysis{Name: "bad"},
				Result:   &dataset.QueryResult{},
				Err:      errors.New("boom"),
			},
		}
		require.NoError(t, WriteCSVs(testLogger(), dir, results))

		require.FileExists(t, filepath.Join(dir, "good.csv"))
		require.NoFileExists(t, filepath.Join(dir, "bad.csv"))

		content, err := os.ReadFile(filepath.Join(dir, "good.csv"))
		require.NoError(t, err)
		require.Equal(t, "a\n1\n", string(content))
	})

	t.Run("bi_bundle", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, WriteBIBundle(ctx, testLogger(), db, dir, "/tmp/vax.db"))

		for _, name := range []string{
			"coverage_summary.csv", "disease_burden_summary.csv",
			"vaccination_effectiveness.csv", "kpi_metrics.csv", "regional_trends.csv",
			"powerbi_setup_guide.md", "connection_info.txt",
		} {
			require.FileExists(t, filepath.Join(dir, name))
		}

		info, err := os.ReadFile(filepath.Join(dir, "connection_info.txt"))
		require.NoError(t, err)
		require.Contains(t, string(info), "Data Source=/tmp/vax.db")
	})
}
