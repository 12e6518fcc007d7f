// Package score computes the MorphMind accessibility score from a
// validator's compliance record: a weighted rubric over rule pass/fail
// counts and per-failure severity, reduced to a single 0-100 score, a
// letter grade, and a breakdown by category.
package score

import (
	"math"
	"strings"

	"github.com/coregx/uatag/internal/validate"
)

// Severity is the level assigned to a single validation failure.
type Severity int

// Severity levels. The constant values only identify and order the levels;
// the per-failure point penalty comes from weight(): critical 8, serious 4,
// moderate 1.5, minor 0.5.
const (
	SeverityMinor    Severity = 1
	SeverityModerate Severity = 3
	SeveritySerious  Severity = 7
	SeverityCritical Severity = 10
)

func (s Severity) weight() float64 {
	switch s {
	case SeverityCritical:
		return 8
	case SeveritySerious:
		return 4
	case SeverityModerate:
		return 1.5
	case SeverityMinor:
		return 0.5
	default:
		return 0
	}
}

// penaltyCap bounds the total deduction a failure set can contribute,
// keeping a single catastrophic document from scoring below what a
// handful of serious-but-survivable ones would.
const penaltyCap = 50.0

// Category is one of the fixed rubric buckets a failure is routed into.
type Category string

// The closed set of categories every report breaks its score down by.
const (
	CategoryStructure Category = "structure"
	CategoryLanguage  Category = "language"
	CategoryFigures   Category = "figures"
	CategoryLinks     Category = "links"
	CategoryFonts     Category = "fonts"
	CategoryMetadata  Category = "metadata"
)

var allCategories = []Category{
	CategoryStructure, CategoryLanguage, CategoryFigures,
	CategoryLinks, CategoryFonts, CategoryMetadata,
}

// clausePrefix routes a failure's PDF/UA clause number to a category when
// the clause number alone is enough to tell. Clauses not covered here fall
// through to the keyword scan in categorize.
var clausePrefix = map[string]Category{
	"7.1": CategoryStructure,
	"7.2": CategoryStructure,
	"7.3": CategoryStructure,
	"7.4": CategoryFigures,
	"7.5": CategoryLinks,
	"7.6": CategoryFonts,
	"7.8": CategoryLanguage,
	"7.9": CategoryMetadata,
}

// keywordCategory is the fallback routing table, a fixed set of substrings
// scanned for (case-insensitively) in a failure's description when its
// clause prefix isn't in clausePrefix.
var keywordCategory = []struct {
	keyword  string
	category Category
}{
	{"alt text", CategoryFigures},
	{"alternative description", CategoryFigures},
	{"figure", CategoryFigures},
	{"language", CategoryLanguage},
	{"lang", CategoryLanguage},
	{"hyperlink", CategoryLinks},
	{"link", CategoryLinks},
	{"font", CategoryFonts},
	{"embedded", CategoryFonts},
	{"metadata", CategoryMetadata},
	{"title", CategoryMetadata},
	{"xmp", CategoryMetadata},
	{"tag", CategoryStructure},
	{"struct", CategoryStructure},
	{"heading", CategoryStructure},
}

// SeverityTable maps a clause, optionally refined by test number, to a
// Severity. A zero TestNumber entry is the clause-wide default; a nonzero
// one overrides it for that specific test.
type SeverityTable map[SeverityKey]Severity

// SeverityKey identifies one override entry in a SeverityTable.
type SeverityKey struct {
	Clause     string
	TestNumber int
}

// DefaultSeverities is the clause -> severity table used when a caller
// supplies none. Every PDF/UA-1 clause not listed here defaults to
// SeverityModerate.
var DefaultSeverities = SeverityTable{
	{Clause: "7.1"}: SeverityCritical,
	{Clause: "7.2"}: SeverityCritical,
	{Clause: "7.4"}: SeveritySerious,
	{Clause: "7.5"}: SeveritySerious,
	{Clause: "7.8"}: SeverityCritical,
	{Clause: "7.9"}: SeverityModerate,
	{Clause: "7.6"}: SeverityMinor,
}

func (t SeverityTable) severityFor(f validate.Failure) Severity {
	if sev, ok := t[SeverityKey{Clause: f.Clause, TestNumber: f.TestNumber}]; ok {
		return sev
	}
	if sev, ok := t[SeverityKey{Clause: f.Clause}]; ok {
		return sev
	}
	return SeverityModerate
}

// Report is the result of scoring a validator record.
type Report struct {
	Score          int
	Grade          string
	CategoryScores map[Category]int
}

// Score reduces rec to a Report using severities, or DefaultSeverities
// when severities is nil.
func Score(rec *validate.Record, severities SeverityTable) Report {
	if severities == nil {
		severities = DefaultSeverities
	}

	base := baseScore(rec.Summary.PassedRules, rec.Summary.FailedRules)

	var critical, serious, moderate, minor int
	for _, f := range rec.Failures {
		switch severities.severityFor(f) {
		case SeverityCritical:
			critical++
		case SeveritySerious:
			serious++
		case SeverityModerate:
			moderate++
		case SeverityMinor:
			minor++
		}
	}
	penalty := penalty(critical, serious, moderate, minor)

	final := clamp(0, 100, math.Round(base-penalty))

	return Report{
		Score:          int(final),
		Grade:          grade(final),
		CategoryScores: categoryScores(rec.Failures, severities),
	}
}

func baseScore(passed, failed int) float64 {
	denom := passed + failed
	if denom == 0 {
		return 100
	}
	return 100 * float64(passed) / float64(denom)
}

func penalty(critical, serious, moderate, minor int) float64 {
	p := SeverityCritical.weight()*float64(critical) +
		SeveritySerious.weight()*float64(serious) +
		SeverityModerate.weight()*float64(moderate) +
		SeverityMinor.weight()*float64(minor)
	return clamp(0, penaltyCap, p)
}

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

func categoryScores(failures []validate.Failure, severities SeverityTable) map[Category]int {
	scores := make(map[Category]int, len(allCategories))
	for _, c := range allCategories {
		scores[c] = 100
	}
	for _, f := range failures {
		cat := categorize(f)
		weight := severities.severityFor(f).weight()
		scores[cat] = int(clamp(0, 100, float64(scores[cat])-5*weight))
	}
	return scores
}

// categorize routes a failure to a Category by clause prefix first, then
// by a keyword scan of its description, defaulting to CategoryStructure
// when neither matches: structural tagging failures are the largest and
// most general class of PDF/UA violation.
func categorize(f validate.Failure) Category {
	for prefix, cat := range clausePrefix {
		if strings.HasPrefix(f.Clause, prefix) {
			return cat
		}
	}
	lower := strings.ToLower(f.Description)
	for _, kc := range keywordCategory {
		if strings.Contains(lower, kc.keyword) {
			return kc.category
		}
	}
	return CategoryStructure
}
