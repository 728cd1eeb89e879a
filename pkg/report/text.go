package report

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/pranavkoushik/vaccination-project/pkg/clean"
	"github.com/pranavkoushik/vaccination-project/pkg/dataset"
	"github.com/pranavkoushik/vaccination-project/pkg/source"
)

// Meta identifies one pipeline run in generated reports.
type Meta struct {
	RunID       string
	GeneratedAt time.Time
}

// WriteText renders the headline findings, the full analysis results and the
// data quality report into a plain-text file. Empty result sets render as a
// "no finding" line.
func WriteText(path string, meta Meta, results []Result, quality map[source.Kind]clean.KindReport) error {
	var b strings.Builder

	b.WriteString("VACCINATION DATA ANALYSIS REPORT\n")
	b.WriteString(strings.Repeat("=", 70) + "\n")
	fmt.Fprintf(&b, "Run ID:       %s\n", meta.RunID)
	fmt.Fprintf(&b, "Generated on: %s\n\n", meta.GeneratedAt.UTC().Format("2006-01-02 15:04:05"))

	writeFindings(&b, results)

	b.WriteString("DETAILED RESULTS\n")
	b.WriteString(strings.Repeat("=", 70) + "\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.ToUpper(r.Analysis.Title))
		b.WriteString(strings.Repeat("-", 70) + "\n")

		switch {
		case r.Err != nil:
			fmt.Fprintf(&b, "No finding (analysis failed: %v)\n\n", r.Err)
		case r.Result.Empty():
			b.WriteString("No finding\n\n")
		default:
			renderTable(&b, r)
			b.WriteString("\n")
		}
	}

	writeQualitySection(&b, quality)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// writeFindings synthesizes an executive summary and key findings from the
// catalogue results. Analyses that failed or returned nothing simply
// contribute no line.
func writeFindings(b *strings.Builder, results []Result) {
	byName := make(map[string]*dataset.QueryResult, len(results))
	for _, r := range results {
		if r.Err == nil && !r.Result.Empty() {
			byName[r.Analysis.Name] = r.Result
		}
	}

	b.WriteString("EXECUTIVE SUMMARY\n")
	b.WriteString(strings.Repeat("-", 20) + "\n")
	if res, ok := byName["resource_allocation"]; ok {
		n := countRows(res, func(row map[string]any) bool {
			v, _ := dataset.String(row, "resource_priority")
			return v == "Critical Priority"
		})
		fmt.Fprintf(b, "- %d countries identified as critical priority for resource allocation\n", n)
	}
	if res, ok := byName["effectiveness_correlation"]; ok {
		n := countRows(res, func(row map[string]any) bool {
			v, ok := dataset.Float(row, "correlation_coefficient")
			return ok && math.Abs(v) > 0.5
		})
		fmt.Fprintf(b, "- %d vaccine-disease pairs show strong correlation\n", n)
	}
	if res, ok := byName["target_progress"]; ok {
		n := countRows(res, func(row map[string]any) bool {
			v, _ := dataset.String(row, "progress_status")
			return v == "On Track"
		})
		fmt.Fprintf(b, "- %d antigen-region combinations on track for 95%% target\n", n)
	}

	b.WriteString("\nKEY FINDINGS\n")
	b.WriteString(strings.Repeat("-", 20) + "\n")

	b.WriteString("\n1. VACCINATION COVERAGE PATTERNS:\n")
	if res, ok := byName["dose_dropoff"]; ok {
		if row, ok := extremeRow(res, "avg_dropout_dose1_to_2", true); ok {
			vaccine, _ := dataset.String(row, "vaccine_type")
			rate, _ := dataset.Float(row, "avg_dropout_dose1_to_2")
			fmt.Fprintf(b, "   - Highest dropout rate: %s (%.2f%% between doses 1-2)\n", vaccine, rate)
		}
	}

	b.WriteString("\n2. DISEASE BURDEN ANALYSIS:\n")
	if res, ok := byName["introduction_impact"]; ok {
		if row, ok := extremeRow(res, "avg_reduction_percent", true); ok {
			vaccine, _ := dataset.String(row, "vaccine_description")
			reduction, _ := dataset.Float(row, "avg_reduction_percent")
			fmt.Fprintf(b, "   - Most effective vaccine introduction: %s (%.1f%% case reduction)\n", vaccine, reduction)
		}
	}

	b.WriteString("\n3. REGIONAL DISPARITIES:\n")
	if res, ok := byName["regional_disparities"]; ok {
		if row, ok := extremeRow(res, "avg_coverage", true); ok {
			region, _ := dataset.String(row, "who_region")
			coverage, _ := dataset.Float(row, "avg_coverage")
			fmt.Fprintf(b, "   - Highest coverage region: %s (%.1f%%)\n", region, coverage)
		}
		if row, ok := extremeRow(res, "avg_coverage", false); ok {
			region, _ := dataset.String(row, "who_region")
			coverage, _ := dataset.Float(row, "avg_coverage")
			fmt.Fprintf(b, "   - Lowest coverage region: %s (%.1f%%)\n", region, coverage)
		}
	}

	b.WriteString("\nRECOMMENDATIONS\n")
	b.WriteString(strings.Repeat("-", 20) + "\n")
	b.WriteString(`
1. IMMEDIATE ACTIONS:
   - Focus resources on countries identified as 'Critical Priority'
   - Implement targeted interventions for high dropout vaccines
   - Strengthen vaccination programs in lowest coverage regions

2. STRATEGIC INITIATIVES:
   - Develop region-specific vaccination strategies
   - Enhance monitoring of dose completion rates
   - Invest in vaccines showing strong disease reduction correlation

3. MONITORING & EVALUATION:
   - Regular assessment of progress toward 95% coverage target
   - Continuous monitoring of vaccine introduction impact
   - Annual review of resource allocation effectiveness

`)
}

func countRows(res *dataset.QueryResult, match func(map[string]any) bool) int {
	n := 0
	for _, row := range res.Rows {
		if match(row) {
			n++
		}
	}
	return n
}

// extremeRow returns the row holding the largest (or smallest) value in the
// named numeric column. Rows where the column is NULL are skipped.
func extremeRow(res *dataset.QueryResult, col string, largest bool) (map[string]any, bool) {
	var best map[string]any
	var bestV float64
	for _, row := range res.Rows {
		v, ok := dataset.Float(row, col)
		if !ok {
			continue
		}
		if best == nil || (largest && v > bestV) || (!largest && v < bestV) {
			best, bestV = row, v
		}
	}
	return best, best != nil
}

func renderTable(b *strings.Builder, r Result) {
	table := tablewriter.NewWriter(b)
	table.SetHeader(r.Result.Columns)
	table.SetAutoFormatHeaders(false)
	for _, row := range r.Result.Rows {
		record := make([]string, len(r.Result.Columns))
		for i, col := range r.Result.Columns {
			record[i] = formatValue(row[col])
		}
		table.Append(record)
	}
	table.Render()
	fmt.Fprintf(b, "%d row(s)\n", r.Result.Count)
}

func writeQualitySection(b *strings.Builder, quality map[source.Kind]clean.KindReport) {
	b.WriteString("DATA QUALITY REPORT\n")
	b.WriteString(strings.Repeat("=", 70) + "\n")
	if len(quality) == 0 {
		b.WriteString("No cleaned datasets\n")
		return
	}

	kinds := make([]source.Kind, 0, len(quality))
	for kind := range quality {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		r := quality[kind]
		fmt.Fprintf(b, "\n%s dataset:\n", strings.ToUpper(string(kind)))
		fmt.Fprintf(b, "  Records:           %d\n", r.TotalRecords)
		fmt.Fprintf(b, "  Columns:           %d\n", r.TotalColumns)
		fmt.Fprintf(b, "  Missing values:    %d\n", r.MissingValues)
		fmt.Fprintf(b, "  Duplicate records: %d\n", r.DuplicateRecords)
		if r.YearMin != 0 {
			fmt.Fprintf(b, "  Year range:        %d - %d\n", r.YearMin, r.YearMax)
		}
		if r.UniqueCountries != 0 {
			fmt.Fprintf(b, "  Unique countries:  %d\n", r.UniqueCountries)
		}
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
