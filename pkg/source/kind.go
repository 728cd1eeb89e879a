package source

// Kind identifies one of the raw dataset kinds the pipeline understands.
type Kind string

const (
	KindCoverage            Kind = "coverage"
	KindIncidence           Kind = "incidence"
	KindReportedCases       Kind = "reported_cases"
	KindVaccineIntroduction Kind = "vaccine_introduction"
	KindVaccineSchedule     Kind = "vaccine_schedule"
)

// Kinds lists every dataset kind in pipeline order.
func Kinds() []Kind {
	return []Kind{
		KindCoverage,
		KindIncidence,
		KindReportedCases,
		KindVaccineIntroduction,
		KindVaccineSchedule,
	}
}

// DefaultFiles maps each kind to its conventional source file name.
func DefaultFiles() map[Kind]string {
	return map[Kind]string{
		KindCoverage:            "coverage-data.xlsx",
		KindIncidence:           "incidence-rate-data.xlsx",
		KindReportedCases:       "reported-cases-data.xlsx",
		KindVaccineIntroduction: "vaccine-introduction-data.xlsx",
		KindVaccineSchedule:     "vaccine-schedule-data.xlsx",
	}
}
