package classify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// mathChars is the fixed set of mathematical operators and brackets whose
// presence is one half of the formula test (the other half being a PUA code
// point). Kept small and explicit per the algorithm's design: robustness
// over completeness.
var mathChars = map[rune]bool{
	'∑': true, '∫': true, '∏': true, '√': true, '∞': true,
	'≤': true, '≥': true, '≠': true, '±': true, '÷': true, '×': true,
	'⎡': true, '⎤': true, '⎣': true, '⎦': true, '⌈': true, '⌉': true,
	'∂': true, '∇': true, '∈': true, '∉': true, '⊂': true, '⊆': true,
	'∧': true, '∨': true, '¬': true, '→': true, '⇒': true, '≈': true,
}

var (
	bracketNumericRe = regexp.MustCompile(`^[\[(⎡][\d,.\s]+`)
	allNumericRe     = regexp.MustCompile(`^[\d\s,.\-+*/=<>]+$`)
	shortNumericRe   = regexp.MustCompile(`^\d{1,3}$`)
)

// isPUA reports whether r falls in a Unicode Private Use Area: the BMP PUA
// (U+E000-U+F8FF) or Supplementary PUA-A (U+F0000-U+FFFFD), the ranges PDF
// fonts use to encode glyphs — frequently mathematical symbols — lacking a
// standard Unicode mapping.
func isPUA(r rune) bool {
	return (r >= 0xE000 && r <= 0xF8FF) || (r >= 0xF0000 && r <= 0xFFFFD)
}

// hasMathChar reports whether s contains a fixed math operator/bracket or a
// PUA code point.
func hasMathChar(s string) bool {
	for _, r := range s {
		if mathChars[r] || isPUA(r) {
			return true
		}
	}
	return false
}

// alphabeticFraction returns the proportion of non-whitespace runes in s
// that are alphabetic.
func alphabeticFraction(s string) float64 {
	var alpha, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(alpha) / float64(total)
}

// isFormula implements the formula test: a math character present AND
// (alphabetic fraction < 0.6 OR length < 30); or one of the bracketed/plain
// numeric patterns under length 50. This test is evaluated before the
// heading test and wins unconditionally when it matches.
func isFormula(text string) bool {
	if hasMathChar(text) {
		if alphabeticFraction(text) < 0.6 || utf8.RuneCountInString(text) < 30 {
			return true
		}
	}
	n := utf8.RuneCountInString(text)
	if n < 50 && (bracketNumericRe.MatchString(text) || allNumericRe.MatchString(text)) {
		return true
	}
	return false
}

// isPageNumber reports whether text is empty or a bare <=3-digit number,
// the discard case for page-number artifacts.
func isPageNumber(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return true
	}
	return shortNumericRe.MatchString(t)
}

// Classifier assigns structural roles to layout blocks using the
// document-wide font-size distribution and the formula/heading heuristics
// described in the role-assignment algorithm. Font-size distribution is
// robust to a single document's scale and is language-independent; the PUA
// check is essential because mathematical glyphs are frequently encoded via
// custom font PUAs with no Unicode mapping.
type Classifier struct{}

// NewClassifier creates a Classifier.
func NewClassifier() *Classifier { return &Classifier{} }

// Classify assigns a Role to every block across the document. Image blocks
// are always emitted as Figure. Discarded blocks (empty text, page numbers)
// are omitted from the result entirely.
func (c *Classifier) Classify(blocks []Block) []ClassifiedBlock {
	m := medianFontSize(blocks)
	h1 := 1.5 * m
	h2 := 1.25 * m
	h3 := 1.1 * m

	out := make([]ClassifiedBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.IsImage {
			out = append(out, ClassifiedBlock{
				PageIndex: b.PageIndex, BlockIndex: b.BlockIndex,
				BBox: b.BBox, Role: RoleFigure, Text: "",
				FontSizeMax: b.FontSizeMax, IsBold: b.IsBold,
			})
			continue
		}
		if isPageNumber(b.Text) {
			continue
		}

		role := classifyText(b, h1, h2, h3, m)
		out = append(out, ClassifiedBlock{
			PageIndex: b.PageIndex, BlockIndex: b.BlockIndex,
			BBox: b.BBox, Role: role, Text: b.Text,
			FontSizeMax: b.FontSizeMax, IsBold: b.IsBold,
		})
	}
	return out
}

// classifyText applies the per-block role decision: formula test first
// (wins unconditionally), then heading thresholds evaluated top-down (H1
// before H2 before H3), then the bold-H3 fallback, else paragraph.
func classifyText(b Block, h1, h2, h3, median float64) Role {
	if isFormula(b.Text) {
		return RoleFormula
	}

	length := utf8.RuneCountInString(b.Text)
	if length < 200 {
		switch {
		case b.FontSizeMax >= h1:
			return RoleH1
		case b.FontSizeMax >= h2:
			return RoleH2
		case b.FontSizeMax >= h3:
			return RoleH3
		}
	}
	if b.IsBold && length < 100 && b.FontSizeMax >= median {
		return RoleH3
	}
	return RoleP
}
