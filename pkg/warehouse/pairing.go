package warehouse

import (
	"fmt"
	"strings"
)

// Pairing maps an antigen code to the disease it protects against. The
// effectiveness view only joins coverage to burden rows through this curated
// allow-list; it is configuration, never inferred from the data.
type Pairing struct {
	// Antigen is the antigen code or code fragment to match.
	Antigen string `yaml:"antigen"`
	// Exact requires the antigen code to equal Antigen; otherwise a
	// substring match is used (e.g. "DTP" matching DTP1/DTP2/DTP3).
	Exact bool `yaml:"exact"`
	// Disease is the disease code paired with the antigen.
	Disease string `yaml:"disease"`
}

// DefaultPairings returns the standard WHO antigen/disease pairing list.
func DefaultPairings() []Pairing {
	return []Pairing{
		{Antigen: "DTP", Disease: "DIPHTHERIA"},
		{Antigen: "MCV", Disease: "MEASLES"},
		{Antigen: "POL", Disease: "POLIOMYELITIS"},
		{Antigen: "BCG", Exact: true, Disease: "TUBERCULOSIS"},
		{Antigen: "HepB", Disease: "HEPATITISB"},
	}
}

// condition renders the pairing as a SQL predicate over the coverage and
// burden view aliases. Values are embedded in the view DDL, so quotes in the
// configured codes are escaped.
func (p Pairing) condition() string {
	if p.Exact {
		return fmt.Sprintf("(vc.antigen_code = '%s' AND db.disease_code = '%s')",
			escapeSQL(p.Antigen), escapeSQL(p.Disease))
	}
	return fmt.Sprintf("(vc.antigen_code LIKE '%%%s%%' AND db.disease_code = '%s')",
		escapeSQL(p.Antigen), escapeSQL(p.Disease))
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
