package warehouse

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pranavkoushik/vaccination-project/pkg/clean"
	"github.com/pranavkoushik/vaccination-project/pkg/dataset"
	"github.com/pranavkoushik/vaccination-project/pkg/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	client, err := sqlite.NewClient(ctx, testLogger(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewStore(Config{Logger: testLogger(), Client: client})
	require.NoError(t, err)
	return store
}

func query(t *testing.T, store *Store, sql string, args ...any) *dataset.QueryResult {
	t.Helper()
	res, err := dataset.Query(context.Background(), store.DB(), sql, args...)
	require.NoError(t, err)
	return res
}

func coverageRow(code, name string, year int, antigen string, coverage float64) clean.CoverageRow {
	return clean.CoverageRow{Code: code, Name: name, Year: year, Antigen: antigen, Coverage: coverage}
}

func TestVax_Warehouse_Rebuild(t *testing.T) {
	t.Parallel()

	t.Run("creates_all_tables_and_views", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		require.NoError(t, store.Rebuild(context.Background(), &clean.Data{}))

		tables := query(t, store, "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
		var names []string
		for _, row := range tables.Rows {
			name, _ := dataset.String(row, "name")
			names = append(names, name)
		}
		require.ElementsMatch(t, []string{
			"dim_countries", "dim_antigens", "dim_diseases", "dim_years",
			"fact_vaccination_coverage", "fact_disease_incidence",
			"fact_reported_cases", "fact_vaccine_introduction", "fact_vaccine_schedule",
		}, names)

		views := query(t, store, "SELECT name FROM sqlite_master WHERE type='view'")
		require.Equal(t, 3, views.Count)
	})

	t.Run("missing_kind_leaves_fact_table_empty", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		data := &clean.Data{
			Coverage: []clean.CoverageRow{coverageRow("ABC", "Testland", 2021, "DTP3", 85.5)},
		}
		require.NoError(t, store.Rebuild(context.Background(), data))

		res := query(t, store, "SELECT COUNT(*) AS n FROM fact_disease_incidence")
		n, ok := dataset.Int(res.Rows[0], "n")
		require.True(t, ok)
		require.Zero(t, n)
	})

	t.Run("rebuild_is_repeatable", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		data := &clean.Data{
			Coverage: []clean.CoverageRow{coverageRow("ABC", "Testland", 2021, "DTP3", 85.5)},
		}
		require.NoError(t, store.Rebuild(context.Background(), data))
		require.NoError(t, store.Rebuild(context.Background(), data))

		res := query(t, store, "SELECT COUNT(*) AS n FROM fact_vaccination_coverage")
		n, _ := dataset.Int(res.Rows[0], "n")
		require.EqualValues(t, 1, n)
	})

	t.Run("end_to_end_single_coverage_row", func(t *testing.T) {
		t.Parallel()
		store := newTestStore(t)
		data := &clean.Data{
			Coverage: []clean.CoverageRow{coverageRow("ABC", "Testland", 2021, "DTP3", 85.5)},
		}
		require.NoError(t, store.Rebuild(context.Background(), data))

		countries := query(t, store, "SELECT country_code, country_name, who_region FROM dim_countries")
		require.Equal(t, 1, countries.Count)
		code, _ := dataset.String(countries.Rows[0], "country_code")
		require.Equal(t, "ABC", code)
		name, _ := dataset.String(countries.Rows[0], "country_name")
		require.Equal(t, "Testland", name)
		require.Nil(t, countries.Rows[0]["who_region"])

		years := query(t, store, "SELECT year, decade, period FROM dim_years")
		require.Equal(t, 1, years.Count)
		year, _ := dataset.Int(years.Rows[0], "year")
		require.EqualValues(t, 2021, year)
		decade, _ := dataset.Int(years.Rows[0], "decade")
		require.EqualValues(t, 2020, decade)
		period, _ := dataset.String(years.Rows[0], "period")
		require.Equal(t, "2020+", period)

		view := query(t, store, "SELECT coverage, coverage_level FROM v_coverage_analysis")
		require.Equal(t, 1, view.Count)
		level, _ := dataset.String(view.Rows[0], "coverage_level")
		require.Equal(t, "Medium", level)
	})
}

func TestVax_Warehouse_FractionalMeasuresSurvive(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	data := &clean.Data{
		Coverage: []clean.CoverageRow{{
			Code: "ABC", Name: "Testland", Year: 2021, Antigen: "DTP3",
			TargetNumber: 1000.5, Doses: 850.25, Coverage: 85.5,
		}},
		Cases: []clean.CasesRow{{
			Code: "ABC", Name: "Testland", Year: 2021, Disease: "DIPHTHERIA",
			Cases: 12.5,
		}},
	}
	require.NoError(t, store.Rebuild(context.Background(), data))

	cov := query(t, store, "SELECT target_number, doses FROM fact_vaccination_coverage")
	require.Equal(t, 1, cov.Count)
	target, ok := dataset.Float(cov.Rows[0], "target_number")
	require.True(t, ok)
	require.Equal(t, 1000.5, target)
	doses, ok := dataset.Float(cov.Rows[0], "doses")
	require.True(t, ok)
	require.Equal(t, 850.25, doses)

	cases := query(t, store, "SELECT cases FROM fact_reported_cases")
	require.Equal(t, 1, cases.Count)
	n, ok := dataset.Float(cases.Rows[0], "cases")
	require.True(t, ok)
	require.Equal(t, 12.5, n)
}

func TestVax_Warehouse_Dimensions(t *testing.T) {
	t.Parallel()

	t.Run("first_seen_wins_on_conflicting_descriptions", func(t *testing.T) {
		t.Parallel()
		data := &clean.Data{
			Coverage: []clean.CoverageRow{
				coverageRow("USA", "United States", 2020, "DTP3", 90),
				coverageRow("USA", "United States of America", 2021, "DTP3", 91),
			},
		}
		countries := deriveCountries(data)
		require.Len(t, countries, 1)
		require.Equal(t, "United States", countries[0].Name)
	})

	t.Run("who_region_left_joined_from_introduction", func(t *testing.T) {
		t.Parallel()
		data := &clean.Data{
			Coverage: []clean.CoverageRow{
				coverageRow("ABC", "Testland", 2021, "DTP3", 85),
				coverageRow("DEF", "Otherland", 2021, "DTP3", 85),
			},
			Introduction: []clean.IntroductionRow{
				{ISO3Code: "ABC", CountryName: "Testland", WHORegion: "EUR", Year: 2019, Intro: "Yes"},
			},
		}
		countries := deriveCountries(data)
		require.Len(t, countries, 2)
		require.True(t, countries[0].HasRegion)
		require.Equal(t, "EUR", countries[0].WHORegion)
		require.False(t, countries[1].HasRegion)
	})

	t.Run("years_union_across_kinds_sorted", func(t *testing.T) {
		t.Parallel()
		data := &clean.Data{
			Coverage:  []clean.CoverageRow{coverageRow("A", "a", 2021, "DTP3", 85)},
			Incidence: []clean.IncidenceRow{{Code: "A", Name: "a", Year: 1999, Disease: "MEASLES"}},
			Cases:     []clean.CasesRow{{Code: "A", Name: "a", Year: 2010, Disease: "MEASLES"}},
		}
		years := deriveYears(data)
		require.Len(t, years, 3)
		require.Equal(t, 1999, years[0].Year)
		require.Equal(t, 2010, years[1].Year)
		require.Equal(t, 2021, years[2].Year)
	})

	t.Run("period_boundaries_are_half_open", func(t *testing.T) {
		t.Parallel()
		cases := map[int]string{
			1999: "Pre-2000",
			2000: "2000-2010",
			2009: "2000-2010",
			2010: "2010-2020",
			2019: "2010-2020",
			2020: "2020+",
		}
		for year, want := range cases {
			require.Equal(t, want, periodFor(year), "year %d", year)
		}
	})
}

func TestVax_Warehouse_CoverageLevels(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	data := &clean.Data{
		Coverage: []clean.CoverageRow{
			coverageRow("A", "a", 2021, "DTP3", 95),
			coverageRow("B", "b", 2021, "DTP3", 94.999),
			coverageRow("C", "c", 2021, "DTP3", 79.999),
			coverageRow("D", "d", 2021, "DTP3", 80),
		},
	}
	require.NoError(t, store.Rebuild(context.Background(), data))

	res := query(t, store, "SELECT country_code, coverage_level FROM v_coverage_analysis ORDER BY country_code")
	levels := make(map[string]string)
	for _, row := range res.Rows {
		code, _ := dataset.String(row, "country_code")
		level, _ := dataset.String(row, "coverage_level")
		levels[code] = level
	}
	require.Equal(t, map[string]string{
		"A": "High",
		"B": "Medium",
		"C": "Low",
		"D": "Medium",
	}, levels)
}

func TestVax_Warehouse_EffectivenessPairings(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	data := &clean.Data{
		Coverage: []clean.CoverageRow{
			coverageRow("ABC", "Testland", 2021, "DTP3", 85),
			coverageRow("ABC", "Testland", 2021, "BCG1", 90),
		},
		Incidence: []clean.IncidenceRow{
			{Code: "ABC", Name: "Testland", Year: 2021, Disease: "DIPHTHERIA", IncidenceRate: 5},
			{Code: "ABC", Name: "Testland", Year: 2021, Disease: "MEASLES", IncidenceRate: 50},
			{Code: "ABC", Name: "Testland", Year: 2021, Disease: "TUBERCULOSIS", IncidenceRate: 12},
		},
	}
	require.NoError(t, store.Rebuild(context.Background(), data))

	res := query(t, store, "SELECT antigen_code, disease_code FROM v_vaccination_effectiveness ORDER BY antigen_code, disease_code")

	type pair struct{ antigen, disease string }
	var got []pair
	for _, row := range res.Rows {
		a, _ := dataset.String(row, "antigen_code")
		d, _ := dataset.String(row, "disease_code")
		got = append(got, pair{a, d})
	}

	// DTP3 only pairs with diphtheria; BCG1 matches nothing since the BCG
	// pairing is exact.
	require.Equal(t, []pair{{"DTP3", "DIPHTHERIA"}}, got)
}
