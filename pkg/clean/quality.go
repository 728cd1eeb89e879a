package clean

import (
	"strconv"
	"strings"

	"github.com/pranavkoushik/vaccination-project/pkg/source"
)

// KindReport summarizes one cleaned dataset. Read-only: it is rendered into
// the analysis report and never feeds back into cleaning.
type KindReport struct {
	Kind             source.Kind
	TotalRecords     int
	TotalColumns     int
	MissingValues    int
	DuplicateRecords int
	ColumnTypes      map[string]string
	YearMin          int
	YearMax          int
	UniqueCountries  int
}

// QualityReport builds a per-kind report for every non-empty dataset.
func QualityReport(data *Data) map[source.Kind]KindReport {
	report := make(map[source.Kind]KindReport)

	if len(data.Coverage) > 0 {
		records := make([][]string, len(data.Coverage))
		for i, r := range data.Coverage {
			records[i] = r.record()
		}
		report[source.KindCoverage] = buildReport(source.KindCoverage, coverageHeader, records, coverageTypes)
	}
	if len(data.Incidence) > 0 {
		records := make([][]string, len(data.Incidence))
		for i, r := range data.Incidence {
			records[i] = r.record()
		}
		report[source.KindIncidence] = buildReport(source.KindIncidence, incidenceHeader, records, incidenceTypes)
	}
	if len(data.Cases) > 0 {
		records := make([][]string, len(data.Cases))
		for i, r := range data.Cases {
			records[i] = r.record()
		}
		report[source.KindReportedCases] = buildReport(source.KindReportedCases, casesHeader, records, casesTypes)
	}
	if len(data.Introduction) > 0 {
		records := make([][]string, len(data.Introduction))
		for i, r := range data.Introduction {
			records[i] = r.record()
		}
		report[source.KindVaccineIntroduction] = buildReport(source.KindVaccineIntroduction, introductionHeader, records, introductionTypes)
	}
	if len(data.Schedule) > 0 {
		records := make([][]string, len(data.Schedule))
		for i, r := range data.Schedule {
			records[i] = r.record()
		}
		report[source.KindVaccineSchedule] = buildReport(source.KindVaccineSchedule, scheduleHeader, records, scheduleTypes)
	}

	return report
}

var (
	coverageTypes = map[string]string{
		"CODE": "TEXT", "NAME": "TEXT", "YEAR": "INTEGER", "ANTIGEN": "TEXT",
		"ANTIGEN_DESCRIPTION": "TEXT", "COVERAGE_CATEGORY": "TEXT",
		"COVERAGE_CATEGORY_DESCRIPTION": "TEXT", "TARGET_NUMBER": "REAL",
		"DOSES": "REAL", "COVERAGE": "REAL",
	}
	incidenceTypes = map[string]string{
		"CODE": "TEXT", "NAME": "TEXT", "YEAR": "INTEGER", "DISEASE": "TEXT",
		"DISEASE_DESCRIPTION": "TEXT", "DENOMINATOR": "TEXT", "INCIDENCE_RATE": "REAL",
	}
	casesTypes = map[string]string{
		"CODE": "TEXT", "NAME": "TEXT", "YEAR": "INTEGER", "DISEASE": "TEXT",
		"DISEASE_DESCRIPTION": "TEXT", "CASES": "REAL",
	}
	introductionTypes = map[string]string{
		"ISO_3_CODE": "TEXT", "COUNTRYNAME": "TEXT", "WHO_REGION": "TEXT",
		"YEAR": "INTEGER", "DESCRIPTION": "TEXT", "INTRO": "TEXT",
	}
	scheduleTypes = map[string]string{
		"ISO_3_CODE": "TEXT", "COUNTRYNAME": "TEXT", "YEAR": "INTEGER",
		"VACCINECODE": "TEXT", "VACCINE_DESCRIPTION": "TEXT", "SCHEDULEROUNDS": "TEXT",
		"TARGETPOP": "TEXT", "TARGETPOP_DESCRIPTION": "TEXT", "GEOAREA": "TEXT",
		"AGEADMINISTERED": "TEXT", "SOURCECOMMENT": "TEXT",
	}
)

func buildReport(kind source.Kind, header []string, records [][]string, types map[string]string) KindReport {
	r := KindReport{
		Kind:         kind,
		TotalRecords: len(records),
		TotalColumns: len(header),
		ColumnTypes:  types,
	}

	yearCol, countryCol := -1, -1
	for i, col := range header {
		switch col {
		case "YEAR":
			yearCol = i
		case "CODE", "ISO_3_CODE":
			if countryCol < 0 {
				countryCol = i
			}
		}
	}

	seen := make(map[string]bool, len(records))
	countries := make(map[string]bool)
	for _, rec := range records {
		for _, cell := range rec {
			if cell == "" {
				r.MissingValues++
			}
		}
		key := strings.Join(rec, "\x1f")
		if seen[key] {
			r.DuplicateRecords++
		}
		seen[key] = true

		if countryCol >= 0 {
			countries[rec[countryCol]] = true
		}
		if yearCol >= 0 {
			year, _ := strconv.Atoi(rec[yearCol])
			if r.YearMin == 0 || year < r.YearMin {
				r.YearMin = year
			}
			if year > r.YearMax {
				r.YearMax = year
			}
		}
	}
	r.UniqueCountries = len(countries)

	return r
}
