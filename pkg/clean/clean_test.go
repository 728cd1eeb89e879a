package clean

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pranavkoushik/vaccination-project/pkg/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCleaner(t *testing.T) *Cleaner {
	t.Helper()
	c, err := NewCleaner(Config{Logger: testLogger()})
	require.NoError(t, err)
	return c
}

func coverageTable(rows [][]string) *source.Table {
	return source.NewTable("coverage", []string{
		"Code", "Name", "Year", "Antigen", "Antigen_Description",
		"Coverage_Category", "Coverage_Category_Description",
		"Target_Number", "Doses", "Coverage",
	}, rows)
}

func TestVax_Clean_Coverage(t *testing.T) {
	t.Parallel()
	c := newCleaner(t)

	t.Run("drops_rows_missing_essential_columns", func(t *testing.T) {
		t.Parallel()
		rows := c.CleanCoverage(coverageTable([][]string{
			{"ABC", "Testland", "2021", "DTP3", "", "", "", "", "", "85.5"},
			{"", "Testland", "2021", "DTP3", "", "", "", "", "", "85.5"},
			{"ABC", "", "2021", "DTP3", "", "", "", "", "", "85.5"},
			{"ABC", "Testland", "", "DTP3", "", "", "", "", "", "85.5"},
			{"ABC", "Testland", "2021", "", "", "", "", "", "", "85.5"},
		}))
		require.Len(t, rows, 1)
		require.Equal(t, "ABC", rows[0].Code)
	})

	t.Run("defaults_unparseable_measures_to_zero", func(t *testing.T) {
		t.Parallel()
		rows := c.CleanCoverage(coverageTable([][]string{
			{"ABC", "Testland", "2021", "DTP3", "", "", "", "not-a-number", "", "85.5"},
		}))
		require.Len(t, rows, 1)
		require.Zero(t, rows[0].TargetNumber)
		require.Zero(t, rows[0].Doses)
		require.Equal(t, 85.5, rows[0].Coverage)
	})

	t.Run("missing_coverage_reads_as_zero_not_unknown", func(t *testing.T) {
		t.Parallel()
		rows := c.CleanCoverage(coverageTable([][]string{
			{"ABC", "Testland", "2021", "DTP3", "", "", "", "100", "90", ""},
		}))
		require.Len(t, rows, 1)
		require.Zero(t, rows[0].Coverage)
	})

	t.Run("drops_rows_with_unparseable_year", func(t *testing.T) {
		t.Parallel()
		rows := c.CleanCoverage(coverageTable([][]string{
			{"ABC", "Testland", "circa 2021", "DTP3", "", "", "", "", "", "85.5"},
			{"ABC", "Testland", "2021.0", "DTP3", "", "", "", "", "", "85.5"},
		}))
		require.Len(t, rows, 1)
		require.Equal(t, 2021, rows[0].Year)
	})

	t.Run("range_filters_coverage", func(t *testing.T) {
		t.Parallel()
		rows := c.CleanCoverage(coverageTable([][]string{
			{"A", "a", "2021", "DTP3", "", "", "", "", "", "0"},
			{"B", "b", "2021", "DTP3", "", "", "", "", "", "200"},
			{"C", "c", "2021", "DTP3", "", "", "", "", "", "200.1"},
			{"D", "d", "2021", "DTP3", "", "", "", "", "", "-0.5"},
			{"E", "e", "2021", "DTP3", "", "", "", "", "", "105"},
		}))
		require.Len(t, rows, 3)
		codes := []string{rows[0].Code, rows[1].Code, rows[2].Code}
		require.Equal(t, []string{"A", "B", "E"}, codes)
	})

	t.Run("lowercase_headers_are_canonicalized", func(t *testing.T) {
		t.Parallel()
		table := source.NewTable("coverage",
			[]string{"code", "name", "year", "antigen", "coverage"},
			[][]string{{"ABC", "Testland", "2021", "DTP3", "85.5"}})
		rows := c.CleanCoverage(table)
		require.Len(t, rows, 1)
		require.Equal(t, 85.5, rows[0].Coverage)
	})
}

func TestVax_Clean_IncidenceAndCases(t *testing.T) {
	t.Parallel()
	c := newCleaner(t)

	t.Run("negative_incidence_rate_dropped", func(t *testing.T) {
		t.Parallel()
		table := source.NewTable("incidence",
			[]string{"CODE", "NAME", "YEAR", "DISEASE", "INCIDENCE_RATE"},
			[][]string{
				{"ABC", "Testland", "2021", "MEASLES", "-1"},
				{"ABC", "Testland", "2021", "MEASLES", "12.3"},
			})
		rows := c.CleanIncidence(table)
		require.Len(t, rows, 1)
		require.Equal(t, 12.3, rows[0].IncidenceRate)
	})

	t.Run("negative_case_count_dropped", func(t *testing.T) {
		t.Parallel()
		table := source.NewTable("reported_cases",
			[]string{"CODE", "NAME", "YEAR", "DISEASE", "CASES"},
			[][]string{
				{"ABC", "Testland", "2021", "MEASLES", "-5"},
				{"ABC", "Testland", "2021", "MEASLES", "0"},
			})
		rows := c.CleanReportedCases(table)
		require.Len(t, rows, 1)
		require.Zero(t, rows[0].Cases)
	})
}

func TestVax_Clean_Introduction(t *testing.T) {
	t.Parallel()
	c := newCleaner(t)

	t.Run("missing_intro_defaults_to_unknown", func(t *testing.T) {
		t.Parallel()
		table := source.NewTable("vaccine_introduction",
			[]string{"ISO_3_CODE", "COUNTRYNAME", "WHO_REGION", "YEAR", "INTRO"},
			[][]string{
				{"ABC", "Testland", "EUR", "2019", ""},
				{"DEF", "Otherland", "AFR", "2019", "Yes"},
			})
		rows := c.CleanIntroduction(table)
		require.Len(t, rows, 2)
		require.Equal(t, "Unknown", rows[0].Intro)
		require.Equal(t, "Yes", rows[1].Intro)
	})
}

func TestVax_Clean_Idempotence(t *testing.T) {
	t.Parallel()
	c := newCleaner(t)

	data := c.CleanAll(map[source.Kind]*source.Table{
		source.KindCoverage: coverageTable([][]string{
			{"ABC", "Testland", "2021", "DTP3", "desc", "OFFICIAL", "", "1000", "900", "85.5"},
			{"DEF", "Otherland", "2020", "MCV1", "", "", "", "", "", "97"},
		}),
	})

	dir1, dir2 := t.TempDir(), t.TempDir()
	require.NoError(t, WriteAll(testLogger(), dir1, data))

	reread, err := ReadAll(testLogger(), dir1)
	require.NoError(t, err)
	require.Equal(t, data, reread)

	require.NoError(t, WriteAll(testLogger(), dir2, reread))

	name := FileName(source.KindCoverage)
	first, err := os.ReadFile(filepath.Join(dir1, name))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir2, name))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestVax_Clean_ReadAll_missing_files_leave_kinds_empty(t *testing.T) {
	t.Parallel()
	data, err := ReadAll(testLogger(), t.TempDir())
	require.NoError(t, err)
	for _, kind := range source.Kinds() {
		require.False(t, data.Has(kind))
	}
}

func TestVax_Clean_QualityReport(t *testing.T) {
	t.Parallel()
	c := newCleaner(t)

	data := c.CleanAll(map[source.Kind]*source.Table{
		source.KindCoverage: coverageTable([][]string{
			{"ABC", "Testland", "2019", "DTP3", "", "", "", "", "", "85.5"},
			{"ABC", "Testland", "2019", "DTP3", "", "", "", "", "", "85.5"},
			{"DEF", "Otherland", "2021", "MCV1", "desc", "OFFICIAL", "official", "10", "9", "97"},
		}),
	})

	report := QualityReport(data)
	require.Contains(t, report, source.KindCoverage)

	r := report[source.KindCoverage]
	require.Equal(t, 3, r.TotalRecords)
	require.Equal(t, 10, r.TotalColumns)
	require.Equal(t, 1, r.DuplicateRecords)
	require.Equal(t, 6, r.MissingValues)
	require.Equal(t, 2019, r.YearMin)
	require.Equal(t, 2021, r.YearMax)
	require.Equal(t, 2, r.UniqueCountries)
	require.Equal(t, "REAL", r.ColumnTypes["COVERAGE"])
}
