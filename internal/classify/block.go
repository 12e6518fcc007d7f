// Package classify assigns each layout block on a page a structural role
// (heading level, paragraph, figure, formula) from font-size distribution
// and symbol heuristics, and extracts nearby caption text for figures and
// formulas.
package classify

import "sort"

// Role is a PDF/UA structure element type assigned to a layout block.
type Role string

// Roles a block can be classified as.
const (
	RoleH1      Role = "H1"
	RoleH2      Role = "H2"
	RoleH3      Role = "H3"
	RoleP       Role = "P"
	RoleFormula Role = "Formula"
	RoleFigure  Role = "Figure"
	RoleLink    Role = "Link"
)

// BBox is an axis-aligned bounding box in unrotated page space.
type BBox struct {
	X0, Y0, X1, Y1 float64
}

// Block is a single layout unit produced by LayoutAnalyser: either a text
// run (concatenated spans) or a raster image placement.
type Block struct {
	PageIndex   int
	BlockIndex  int
	BBox        BBox
	Text        string // empty for image blocks
	FontSizeMax float64
	IsBold      bool
	IsImage     bool
}

// ClassifiedBlock is a Block with its assigned structural Role, as produced
// by Classifier. Alt is populated later by AltTextOrchestrator for Figure
// and Formula roles.
type ClassifiedBlock struct {
	PageIndex   int
	BlockIndex  int
	BBox        BBox
	Role        Role
	Text        string
	FontSizeMax float64
	IsBold      bool
	Alt         string
}

// medianFontSize computes the median font size over blocks whose text is
// longer than 2 characters, per the Classifier algorithm's sampling rule.
func medianFontSize(blocks []Block) float64 {
	var sizes []float64
	for _, b := range blocks {
		if b.IsImage || len(b.Text) <= 2 {
			continue
		}
		sizes = append(sizes, b.FontSizeMax)
	}
	if len(sizes) == 0 {
		return 0
	}
	sort.Float64s(sizes)
	mid := len(sizes) / 2
	if len(sizes)%2 == 0 {
		return (sizes[mid-1] + sizes[mid]) / 2
	}
	return sizes[mid]
}
