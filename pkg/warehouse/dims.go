package warehouse

import (
	"sort"

	"github.com/pranavkoushik/vaccination-project/pkg/clean"
)

// Dimension rows derived from cleaned facts. Dedup on the natural key is
// first-seen-wins: when the same code appears with conflicting descriptions,
// the first occurrence in input order is kept, so derivation is deterministic
// for a given cleaned file.

type Country struct {
	Code      string
	Name      string
	WHORegion string
	HasRegion bool
}

type Antigen struct {
	Code        string
	Description string
}

type Disease struct {
	Code        string
	Description string
}

type Year struct {
	Year   int
	Decade int
	Period string
}

// deriveCountries takes (code, name) pairs from coverage facts and
// left-joins WHO regions from the introduction dataset when present.
func deriveCountries(data *clean.Data) []Country {
	regions := make(map[string]string)
	for _, r := range data.Introduction {
		if r.WHORegion == "" {
			continue
		}
		if _, ok := regions[r.ISO3Code]; !ok {
			regions[r.ISO3Code] = r.WHORegion
		}
	}

	seen := make(map[string]bool)
	countries := make([]Country, 0)
	for _, r := range data.Coverage {
		if seen[r.Code] {
			continue
		}
		seen[r.Code] = true
		region, ok := regions[r.Code]
		countries = append(countries, Country{
			Code:      r.Code,
			Name:      r.Name,
			WHORegion: region,
			HasRegion: ok,
		})
	}
	return countries
}

func deriveAntigens(data *clean.Data) []Antigen {
	seen := make(map[string]bool)
	antigens := make([]Antigen, 0)
	for _, r := range data.Coverage {
		if seen[r.Antigen] {
			continue
		}
		seen[r.Antigen] = true
		antigens = append(antigens, Antigen{Code: r.Antigen, Description: r.AntigenDescription})
	}
	return antigens
}

func deriveDiseases(data *clean.Data) []Disease {
	seen := make(map[string]bool)
	diseases := make([]Disease, 0)
	for _, r := range data.Incidence {
		if seen[r.Disease] {
			continue
		}
		seen[r.Disease] = true
		diseases = append(diseases, Disease{Code: r.Disease, Description: r.DiseaseDescription})
	}
	return diseases
}

// deriveYears unions YEAR across every cleaned dataset, sorted ascending.
func deriveYears(data *clean.Data) []Year {
	set := make(map[int]bool)
	for _, r := range data.Coverage {
		set[r.Year] = true
	}
	for _, r := range data.Incidence {
		set[r.Year] = true
	}
	for _, r := range data.Cases {
		set[r.Year] = true
	}
	for _, r := range data.Introduction {
		set[r.Year] = true
	}
	for _, r := range data.Schedule {
		set[r.Year] = true
	}

	years := make([]Year, 0, len(set))
	for y := range set {
		years = append(years, Year{Year: y, Decade: y / 10 * 10, Period: periodFor(y)})
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })
	return years
}

// periodFor buckets a year into coarse half-open periods.
func periodFor(year int) string {
	switch {
	case year < 2000:
		return "Pre-2000"
	case year < 2010:
		return "2000-2010"
	case year < 2020:
		return "2010-2020"
	default:
		return "2020+"
	}
}
