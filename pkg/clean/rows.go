package clean

import (
	"strconv"

	"github.com/pranavkoushik/vaccination-project/pkg/source"
)

// Typed records per dataset kind. Cleaning validates raw cells once at this
// boundary; downstream stages only ever see these structs.

type CoverageRow struct {
	Code                        string
	Name                        string
	Year                        int
	Antigen                     string
	AntigenDescription          string
	CoverageCategory            string
	CoverageCategoryDescription string
	TargetNumber                float64
	Doses                       float64
	Coverage                    float64
}

type IncidenceRow struct {
	Code               string
	Name               string
	Year               int
	Disease            string
	DiseaseDescription string
	Denominator        string
	IncidenceRate      float64
}

type CasesRow struct {
	Code               string
	Name               string
	Year               int
	Disease            string
	DiseaseDescription string
	Cases              float64
}

type IntroductionRow struct {
	ISO3Code    string
	CountryName string
	WHORegion   string
	Year        int
	Description string
	Intro       string
}

type ScheduleRow struct {
	ISO3Code           string
	CountryName        string
	Year               int
	VaccineCode        string
	VaccineDescription string
	ScheduleRounds     string
	TargetPop          string
	TargetPopDesc      string
	GeoArea            string
	AgeAdministered    string
	SourceComment      string
}

// Data holds every cleaned dataset for one pipeline run. A kind that failed
// to load stays nil and downstream stages skip its contributions.
type Data struct {
	Coverage     []CoverageRow
	Incidence    []IncidenceRow
	Cases        []CasesRow
	Introduction []IntroductionRow
	Schedule     []ScheduleRow
}

// Has reports whether the run produced any cleaned rows for the kind.
func (d *Data) Has(kind source.Kind) bool {
	switch kind {
	case source.KindCoverage:
		return len(d.Coverage) > 0
	case source.KindIncidence:
		return len(d.Incidence) > 0
	case source.KindReportedCases:
		return len(d.Cases) > 0
	case source.KindVaccineIntroduction:
		return len(d.Introduction) > 0
	case source.KindVaccineSchedule:
		return len(d.Schedule) > 0
	}
	return false
}

// Canonical CSV headers per kind. Order is fixed so cleaned files are
// byte-stable across runs.

var (
	coverageHeader = []string{
		"CODE", "NAME", "YEAR", "ANTIGEN", "ANTIGEN_DESCRIPTION",
		"COVERAGE_CATEGORY", "COVERAGE_CATEGORY_DESCRIPTION",
		"TARGET_NUMBER", "DOSES", "COVERAGE",
	}
	incidenceHeader = []string{
		"CODE", "NAME", "YEAR", "DISEASE", "DISEASE_DESCRIPTION",
		"DENOMINATOR", "INCIDENCE_RATE",
	}
	casesHeader = []string{
		"CODE", "NAME", "YEAR", "DISEASE", "DISEASE_DESCRIPTION", "CASES",
	}
	introductionHeader = []string{
		"ISO_3_CODE", "COUNTRYNAME", "WHO_REGION", "YEAR", "DESCRIPTION", "INTRO",
	}
	scheduleHeader = []string{
		"ISO_3_CODE", "COUNTRYNAME", "YEAR", "VACCINECODE", "VACCINE_DESCRIPTION",
		"SCHEDULEROUNDS", "TARGETPOP", "TARGETPOP_DESCRIPTION", "GEOAREA",
		"AGEADMINISTERED", "SOURCECOMMENT",
	}
)

func formatMeasure(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatYear(y int) string {
	return strconv.Itoa(y)
}

func (r CoverageRow) record() []string {
	return []string{
		r.Code, r.Name, formatYear(r.Year), r.Antigen, r.AntigenDescription,
		r.CoverageCategory, r.CoverageCategoryDescription,
		formatMeasure(r.TargetNumber), formatMeasure(r.Doses), formatMeasure(r.Coverage),
	}
}

func (r IncidenceRow) record() []string {
	return []string{
		r.Code, r.Name, formatYear(r.Year), r.Disease, r.DiseaseDescription,
		r.Denominator, formatMeasure(r.IncidenceRate),
	}
}

func (r CasesRow) record() []string {
	return []string{
		r.Code, r.Name, formatYear(r.Year), r.Disease, r.DiseaseDescription,
		formatMeasure(r.Cases),
	}
}

func (r IntroductionRow) record() []string {
	return []string{
		r.ISO3Code, r.CountryName, r.WHORegion, formatYear(r.Year),
		r.Description, r.Intro,
	}
}

func (r ScheduleRow) record() []string {
	return []string{
		r.ISO3Code, r.CountryName, formatYear(r.Year), r.VaccineCode,
		r.VaccineDescription, r.ScheduleRounds, r.TargetPop, r.TargetPopDesc,
		r.GeoArea, r.AgeAdministered, r.SourceComment,
	}
}
