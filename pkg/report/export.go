package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pranavkoushik/vaccination-project/pkg/dataset"
	"github.com/pranavkoushik/vaccination-project/pkg/sqlite"
)

// WriteCSVs writes one CSV per analysis result into dir. Failed analyses are
// skipped; their files are simply absent after the run.
func WriteCSVs(log *slog.Logger, dir string, results []Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		path := filepath.Join(dir, r.Analysis.Name+".csv")
		if err := writeResultCSV(path, r.Result); err != nil {
			return fmt.Errorf("failed to export %s: %w", r.Analysis.Name, err)
		}
		log.Info("exported analysis", "analysis", r.Analysis.Name, "rows", r.Result.Count, "path", path)
	}
	return nil
}

// BI export bundle: the five summary extracts a BI tool imports directly,
// plus a setup guide and connection info.

var biQueries = []struct {
	name  string
	query string
}{
	{"coverage_summary", `SELECT
    country_name,
    who_region,
    year,
    antigen_code,
    coverage,
    coverage_level
FROM v_coverage_analysis
WHERE year >= 2015`},
	{"disease_burden_summary", `SELECT
    country_name,
    who_region,
    year,
    disease_code,
    incidence_rate,
    cases,
    incidence_level
FROM v_disease_burden
WHERE year >= 2015`},
	{"vaccination_effectiveness", `SELECT
    country_name,
    who_region,
    year,
    antigen_code,
    coverage,
    disease_code,
    incidence_rate
FROM v_vaccination_effectiveness
WHERE year >= 2015`},
	{"kpi_metrics", kpiMetricsSQL},
	{"regional_trends", `SELECT
    who_region,
    year,
    ROUND(AVG(coverage), 2) AS avg_coverage,
    COUNT(DISTINCT country_code) AS num_countries
FROM v_coverage_analysis
WHERE year >= 2010 AND who_region IS NOT NULL
GROUP BY who_region, year
ORDER BY who_region, year`},
}

// WriteBIBundle exports the BI datasets into dir. Individual extract
// failures are logged and skipped so one bad view never blocks the bundle;
// the guide and connection info are always written.
func WriteBIBundle(ctx context.Context, log *slog.Logger, db sqlite.DB, dir, dbPath string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create BI export dir: %w", err)
	}

	for _, q := range biQueries {
		res, err := dataset.Query(ctx, db, q.query)
		if err != nil {
			log.Error("failed to export BI dataset", "dataset", q.name, "error", err)
			continue
		}
		path := filepath.Join(dir, q.name+".csv")
		if err := writeResultCSV(path, res); err != nil {
			return fmt.Errorf("failed to write BI dataset %s: %w", q.name, err)
		}
		log.Info("exported BI dataset", "dataset", q.name, "rows", res.Count)
	}

	if err := os.WriteFile(filepath.Join(dir, "powerbi_setup_guide.md"), []byte(biSetupGuide), 0o644); err != nil {
		return fmt.Errorf("failed to write BI setup guide: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "connection_info.txt"), []byte(connectionInfo(dbPath)), 0o644); err != nil {
		return fmt.Errorf("failed to write connection info: %w", err)
	}
	return nil
}

func writeResultCSV(path string, res *dataset.QueryResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(res.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range res.Rows {
		record := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			record[i] = formatValue(row[col])
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return f.Close()
}

func connectionInfo(dbPath string) string {
	return fmt.Sprintf(`VACCINATION DATABASE CONNECTION INFO

Database type:     SQLite
Database path:     %s
Connection string: Data Source=%s

Tables:
  dim_countries
  dim_antigens
  dim_diseases
  dim_years
  fact_vaccination_coverage
  fact_disease_incidence
  fact_reported_cases
  fact_vaccine_introduction
  fact_vaccine_schedule

Views:
  v_coverage_analysis
  v_disease_burden
  v_vaccination_effectiveness
`, dbPath, dbPath)
}

const biSetupGuide = `# POWER BI SETUP GUIDE FOR VACCINATION DATA ANALYSIS

## Database Connection

### Option 1: Direct SQLite Connection
1. Open Power BI Desktop
2. Click "Get Data" > "Database" > "SQLite database"
3. Browse to the database file listed in connection_info.txt
4. Select tables and views to import

### Option 2: CSV Import (Recommended for easier deployment)
1. Use the exported CSV files from this folder
2. In Power BI: "Get Data" > "Text/CSV"
3. Import the following files:
   - coverage_summary.csv
   - disease_burden_summary.csv
   - vaccination_effectiveness.csv
   - kpi_metrics.csv
   - regional_trends.csv

## Data Model Setup

Create the following relationships:
- Country relationships: use country_name as the key
- Time relationships: use year as the key
- Antigen/Disease relationships: use the respective code fields

## Recommended Visualizations

### Dashboard 1: Executive Overview
- KPI cards: total countries, average coverage, target achievement
- Line chart: coverage trends over time by region
- Map visualization: coverage by country
- Bar chart: top/bottom 10 countries by coverage

### Dashboard 2: Regional Analysis
- Regional comparison bar chart
- Coverage vs. incidence scatter plot
- Regional trend lines over time
- Heat map of coverage by region and antigen

### Dashboard 3: Disease Burden Analysis
- Disease incidence trends
- Coverage effectiveness analysis
- Correlation between vaccination and disease reduction
`
