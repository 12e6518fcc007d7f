// Package layout groups a page's raw text runs and image placements into
// the ordered Blocks that classify.Classifier assigns structural roles to.
package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/coregx/uatag/internal/classify"
	"github.com/coregx/uatag/internal/extractor"
	"github.com/coregx/uatag/internal/parser"
	"github.com/coregx/uatag/internal/tabledetect"
)

// lineGapFactor bounds how large a vertical gap between two lines can be,
// relative to font size, and still count as the same paragraph block.
const lineGapFactor = 1.8

// fontSizeTolerance bounds how much font size can vary between two lines
// and still count as the same block.
const fontSizeTolerance = 0.3

// Analyser turns a page's decoded content into classify.Blocks: one per
// paragraph-like run of text lines, one per placed image.
type Analyser struct {
	text    *extractor.TextExtractor
	reader  *parser.Reader
	columns *tabledetect.ColumnBoundaryDetector
}

// NewAnalyser creates an Analyser over reader's pages.
func NewAnalyser(reader *parser.Reader) *Analyser {
	return &Analyser{
		text:    extractor.NewTextExtractor(reader),
		reader:  reader,
		columns: tabledetect.NewColumnBoundaryDetector(),
	}
}

// Analyse returns pageIndex's blocks: text blocks in reading order, followed
// by image blocks in content-stream Do order.
func (a *Analyser) Analyse(pageIndex int) ([]classify.Block, error) {
	elements, err := a.text.ExtractFromPage(pageIndex)
	if err != nil {
		return nil, err
	}
	elements = a.orderByColumns(elements)
	blocks := groupIntoBlocks(pageIndex, elements)

	content, err := a.text.PageContentBytes(pageIndex)
	if err != nil {
		return nil, err
	}
	resources, err := a.text.PageResources(pageIndex)
	if err != nil {
		return nil, err
	}
	images, err := a.findImages(pageIndex, content, resources)
	if err != nil {
		return nil, err
	}

	base := len(blocks)
	for i := range images {
		images[i].BlockIndex = base + i
	}
	return append(blocks, images...), nil
}

// orderByColumns reorders elements into reading order when a page lays text
// out in more than one column. It reuses the column-boundary detector's
// whitespace-valley analysis, built for clustering table cells, to split the
// page into vertical bands, then visits each band left to right and each
// band's elements top to bottom. A single-column page (the common case) is
// returned unchanged.
func (a *Analyser) orderByColumns(elements []*extractor.TextElement) []*extractor.TextElement {
	if a.columns.DetectColumnCount(elements) < 2 {
		return elements
	}

	boundaries := a.columns.DetectBoundaries(elements)
	byColumn := a.columns.AssignToColumns(elements, boundaries)

	indices := make([]int, 0, len(byColumn))
	for idx := range byColumn {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	ordered := make([]*extractor.TextElement, 0, len(elements))
	for _, idx := range indices {
		col := byColumn[idx]
		sort.SliceStable(col, func(i, j int) bool { return col[i].Y > col[j].Y })
		ordered = append(ordered, col...)
	}
	return ordered
}

// textLine is a run of TextElements sharing one baseline.
type textLine struct {
	text    string
	bbox    classify.BBox
	fontMax float64
	bold    bool
	y       float64
}

func groupIntoBlocks(pageIndex int, elements []*extractor.TextElement) []classify.Block {
	lines := groupIntoLines(elements)

	var blocks []classify.Block
	var cur *classify.Block
	var prevLine textLine

	flush := func() {
		if cur != nil {
			blocks = append(blocks, *cur)
			cur = nil
		}
	}

	for _, ln := range lines {
		if cur == nil {
			b := classify.Block{
				PageIndex:   pageIndex,
				BlockIndex:  len(blocks),
				BBox:        ln.bbox,
				Text:        ln.text,
				FontSizeMax: ln.fontMax,
				IsBold:      ln.bold,
			}
			cur = &b
			prevLine = ln
			continue
		}

		gap := prevLine.y - ln.y
		sizeDelta := math.Abs(ln.fontMax-prevLine.fontMax) / math.Max(prevLine.fontMax, 1)
		sameBlock := gap > 0 && gap < lineGapFactor*math.Max(prevLine.fontMax, ln.fontMax) && sizeDelta < fontSizeTolerance

		if sameBlock {
			cur.Text += " " + ln.text
			cur.BBox = union(cur.BBox, ln.bbox)
			if ln.fontMax > cur.FontSizeMax {
				cur.FontSizeMax = ln.fontMax
			}
			cur.IsBold = cur.IsBold && ln.bold
			prevLine = ln
			continue
		}

		flush()
		b := classify.Block{
			PageIndex:   pageIndex,
			BlockIndex:  len(blocks),
			BBox:        ln.bbox,
			Text:        ln.text,
			FontSizeMax: ln.fontMax,
			IsBold:      ln.bold,
		}
		cur = &b
		prevLine = ln
	}
	flush()

	return blocks
}

func groupIntoLines(elements []*extractor.TextElement) []textLine {
	const sameLineTolerance = 2.0

	var lines []textLine
	var cur *textLine

	for _, el := range elements {
		if el.Text == "" {
			continue
		}
		if cur != nil && math.Abs(el.Y-cur.y) <= sameLineTolerance {
			cur.text += el.Text
			cur.bbox = union(cur.bbox, elementBBox(el))
			if el.FontSize > cur.fontMax {
				cur.fontMax = el.FontSize
			}
			cur.bold = cur.bold || isBoldFont(el.FontName)
			continue
		}
		if cur != nil {
			lines = append(lines, *cur)
		}
		cur = &textLine{
			text:    el.Text,
			bbox:    elementBBox(el),
			fontMax: el.FontSize,
			bold:    isBoldFont(el.FontName),
			y:       el.Y,
		}
	}
	if cur != nil {
		lines = append(lines, *cur)
	}
	return lines
}

func elementBBox(el *extractor.TextElement) classify.BBox {
	height := el.Height
	if height <= 0 {
		height = el.FontSize
	}
	return classify.BBox{X0: el.X, Y0: el.Y, X1: el.X + el.Width, Y1: el.Y + height}
}

func union(a, b classify.BBox) classify.BBox {
	if a == (classify.BBox{}) {
		return b
	}
	return classify.BBox{
		X0: math.Min(a.X0, b.X0),
		Y0: math.Min(a.Y0, b.Y0),
		X1: math.Max(a.X1, b.X1),
		Y1: math.Max(a.Y1, b.Y1),
	}
}

func isBoldFont(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"bold", "black", "heavy"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ctm is a translation+scale approximation of the current transformation
// matrix: rotation and shear components (b, c) are dropped, the same
// simplification TextState makes for the text matrix, since image
// placements in generated PDFs are overwhelmingly axis-aligned.
type ctm struct {
	sx, sy, tx, ty float64
}

func identityCTM() ctm { return ctm{sx: 1, sy: 1} }

func (c ctm) concat(a, d, e, f float64) ctm {
	return ctm{
		sx: c.sx * a,
		sy: c.sy * d,
		tx: c.tx + e*c.sx,
		ty: c.ty + f*c.sy,
	}
}

// findImages walks a page's content stream tracking the CTM through q/Q/cm
// operators, and records a Block for every Do operator that invokes an
// XObject whose Subtype is Image.
func (a *Analyser) findImages(pageIndex int, content []byte, resources *parser.Dictionary) ([]classify.Block, error) {
	if resources == nil {
		return nil, nil
	}
	cp := extractor.NewContentParser(content)
	ops, err := cp.ParseOperators()
	if err != nil {
		return nil, err
	}

	xobjects := a.resolveDictionary(resources.Get("XObject"))

	var stack []ctm
	current := identityCTM()
	var blocks []classify.Block

	for _, op := range ops {
		switch op.Name {
		case "q":
			stack = append(stack, current)
		case "Q":
			if n := len(stack); n > 0 {
				current = stack[n-1]
				stack = stack[:n-1]
			}
		case "cm":
			if len(op.Operands) < 6 {
				continue
			}
			av, dv, ev, fv := numberOf(op.Operands[0]), numberOf(op.Operands[3]), numberOf(op.Operands[4]), numberOf(op.Operands[5])
			current = current.concat(av, dv, ev, fv)
		case "Do":
			if len(op.Operands) == 0 || xobjects == nil {
				continue
			}
			name, ok := op.Operands[0].(*parser.Name)
			if !ok {
				continue
			}
			xobj := a.resolveDictionary(xobjects.Get(name.Value()))
			if xobj == nil {
				continue
			}
			if subtype := xobj.GetName("Subtype"); subtype == nil || subtype.Value() != "Image" {
				continue
			}
			blocks = append(blocks, classify.Block{
				PageIndex: pageIndex,
				BBox:      imageBBox(current),
				IsImage:   true,
			})
		}
	}
	return blocks, nil
}

// resolveDictionary follows obj through an indirect reference if present and
// returns it as a Dictionary: directly, or as a Stream's own dictionary
// (XObjects are streams).
func (a *Analyser) resolveDictionary(obj parser.PdfObject) *parser.Dictionary {
	if obj == nil {
		return nil
	}
	resolved := a.reader.ResolveReferences(obj)
	switch v := resolved.(type) {
	case *parser.Dictionary:
		return v
	case *parser.Stream:
		return v.Dictionary()
	default:
		return nil
	}
}

func imageBBox(c ctm) classify.BBox {
	x0, x1 := c.tx, c.tx+c.sx
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	y0, y1 := c.ty, c.ty+c.sy
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return classify.BBox{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func numberOf(obj parser.PdfObject) float64 {
	switch v := obj.(type) {
	case *parser.Integer:
		return float64(v.Value())
	case *parser.Real:
		return v.Value()
	default:
		return 0
	}
}
