// Package structtree builds the PDF/UA structure tree — StructTreeRoot,
// a single Document node, one leaf StructElem per classified block — and
// the ParentTree that maps each page's marked-content IDs back to those
// leaves.
package structtree

import (
	"github.com/coregx/uatag/internal/classify"
	"github.com/coregx/uatag/internal/parser"
)

const maxHeadingAlt = 200

// StructElem is a single node of the structure tree. Leaves (IsLeaf == true)
// carry a marked-content reference back into a page's content stream;
// the Document node is the sole intermediate node this builder produces.
type StructElem struct {
	S        string // structure type, e.g. "Document", "H1", "Figure"
	Page     int    // page index this leaf's content lives on
	MCID     int    // marked-content ID within that page
	BBox     classify.BBox
	Alt      string
	IsLeaf   bool
	Children []*StructElem
}

// Builder accumulates per-page classified blocks and produces the finished
// tree plus its ParentTree.
type Builder struct {
	document  *StructElem
	byPage    map[int][]*StructElem // leaves in MCID order, per page
	pageCount int
}

// NewBuilder creates a Builder with a fresh Document root.
func NewBuilder() *Builder {
	return &Builder{
		document: &StructElem{S: "Document"},
		byPage:   make(map[int][]*StructElem),
	}
}

// AddPage appends one leaf StructElem per classified block on pageIndex, in
// the blocks' emission order, and records pageCount if pageIndex extends it.
// alts maps a block's BlockIndex to resolved alt text (Figure/Formula only;
// headings derive their Alt from their own truncated text).
func (b *Builder) AddPage(pageIndex int, blocks []classify.ClassifiedBlock, alts map[int]string) {
	if pageIndex+1 > b.pageCount {
		b.pageCount = pageIndex + 1
	}
	for _, block := range blocks {
		leaf := &StructElem{
			S:      string(block.Role),
			Page:   pageIndex,
			MCID:   block.BlockIndex,
			BBox:   block.BBox,
			IsLeaf: true,
		}
		leaf.Alt = altFor(block, alts)
		b.document.Children = append(b.document.Children, leaf)
		b.byPage[pageIndex] = append(b.byPage[pageIndex], leaf)
	}
}

func altFor(block classify.ClassifiedBlock, alts map[int]string) string {
	switch block.Role {
	case classify.RoleFigure, classify.RoleFormula:
		if alts != nil {
			return alts[block.BlockIndex]
		}
		return ""
	case classify.RoleH1, classify.RoleH2, classify.RoleH3:
		text := block.Text
		r := []rune(text)
		if len(r) > maxHeadingAlt {
			text = string(r[:maxHeadingAlt])
		}
		return text
	default:
		return ""
	}
}

// Document returns the root Document node with all leaves attached, in
// page-then-block order.
func (b *Builder) Document() *StructElem {
	return b.document
}

// Objects is the result of Serialize: every indirect object the structure
// tree needs, keyed by the object number Serialize minted for it via the
// caller's allocator.
type Objects struct {
	RootNum int // StructTreeRoot's object number, for the catalog's /StructTreeRoot entry
	Dicts   map[int]*parser.Dictionary
}

// Serialize mints one object number (via alloc) per leaf StructElem, one
// for the Document node, one for the StructTreeRoot, and one for the
// ParentTree dictionary, and wires them together with IndirectReferences.
// Each leaf is serialised exactly once and referenced by number from both
// the Document's /K array and the ParentTree's per-page arrays, so a
// ParentTree entry and the corresponding tree node are the same object —
// never a content-identical copy at a different object number.
func (b *Builder) Serialize(alloc func() int) Objects {
	objects := make(map[int]*parser.Dictionary, len(b.document.Children)+3)

	docNum := alloc()
	leafNum := make(map[*StructElem]int, len(b.document.Children))

	for _, leaf := range b.document.Children {
		num := alloc()
		leafNum[leaf] = num
		dict := leaf.toDictionary()
		dict.Set("P", parser.NewIndirectReference(docNum, 0))
		objects[num] = dict
	}

	kids := parser.NewArray()
	for _, leaf := range b.document.Children {
		kids.Append(parser.NewIndirectReference(leafNum[leaf], 0))
	}

	rootNum := alloc()

	docDict := parser.NewDictionary()
	docDict.Set("Type", parser.NewName("StructElem"))
	docDict.Set("S", parser.NewName(b.document.S))
	docDict.Set("P", parser.NewIndirectReference(rootNum, 0))
	docDict.Set("K", kids)
	objects[docNum] = docDict

	parentTreeNum := alloc()
	parentTreeDict := parser.NewDictionary()
	parentTreeDict.Set("Nums", b.parentTreeNums(leafNum))
	objects[parentTreeNum] = parentTreeDict

	rootDict := parser.NewDictionary()
	rootDict.Set("Type", parser.NewName("StructTreeRoot"))
	rootDict.Set("K", parser.NewIndirectReference(docNum, 0))
	rootDict.Set("ParentTree", parser.NewIndirectReference(parentTreeNum, 0))
	rootDict.Set("ParentTreeNextKey", parser.NewInteger(int64(b.pageCount)))
	objects[rootNum] = rootDict

	return Objects{RootNum: rootNum, Dicts: objects}
}

// parentTreeNums builds the ParentTree's flattened Nums array: for every
// page in [0, pageCount), the page's StructParents key (== its page index)
// followed by an array of indirect references to that page's leaves,
// ordered by MCID. Pages with no leaves contribute an empty array so every
// page index appears exactly once, matching the contract that StructParents
// is set unconditionally on every page.
func (b *Builder) parentTreeNums(leafNum map[*StructElem]int) *parser.Array {
	nums := parser.NewArray()
	for page := 0; page < b.pageCount; page++ {
		nums.Append(parser.NewInteger(int64(page)))
		arr := parser.NewArray()
		for _, leaf := range orderedByMCID(b.byPage[page]) {
			arr.Append(parser.NewIndirectReference(leafNum[leaf], 0))
		}
		nums.Append(arr)
	}
	return nums
}

func orderedByMCID(leaves []*StructElem) []*StructElem {
	out := make([]*StructElem, len(leaves))
	copy(out, leaves)
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && out[j-1].MCID > out[j].MCID {
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}
	return out
}

// toDictionary renders a leaf StructElem as a PDF structure-element
// dictionary: /S, /P (implicit via tree position, omitted here — callers
// attach /P when writing the full catalog object graph), /Pg, /K (the MCR),
// and /Alt/BBox when present.
func (e *StructElem) toDictionary() *parser.Dictionary {
	dict := parser.NewDictionary()
	dict.Set("Type", parser.NewName("StructElem"))
	dict.Set("S", parser.NewName(e.S))
	dict.Set("Pg", parser.NewInteger(int64(e.Page)))

	mcr := parser.NewDictionary()
	mcr.Set("Type", parser.NewName("MCR"))
	mcr.Set("Pg", parser.NewInteger(int64(e.Page)))
	mcr.Set("MCID", parser.NewInteger(int64(e.MCID)))
	dict.Set("K", mcr)

	if e.Alt != "" {
		dict.Set("Alt", parser.NewString(e.Alt))
	}
	if e.BBox != (classify.BBox{}) {
		attr := parser.NewDictionary()
		attr.Set("O", parser.NewName("Layout"))
		bbox := parser.NewArray()
		bbox.Append(parser.NewReal(e.BBox.X0))
		bbox.Append(parser.NewReal(e.BBox.Y0))
		bbox.Append(parser.NewReal(e.BBox.X1))
		bbox.Append(parser.NewReal(e.BBox.Y1))
		attr.Set("BBox", bbox)
		dict.Set("A", attr)
	}
	return dict
}
