package writer

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/coregx/uatag/internal/parser"
)

// DocumentWriter serialises a document's object graph back to PDF bytes
// using a classic (non-compressed) cross-reference table. It rewrites every
// object the source document's xref table named, substituting any object
// numbers present in overrides with their replacement.
type DocumentWriter struct {
	reader    *parser.Reader
	overrides map[int]parser.PdfObject
	rootRef   parser.IndirectReference
	infoRef   *parser.IndirectReference
	nextAlloc int // 0 until AllocateObjectNumber's first call seeds it
}

// NewDocumentWriter creates a DocumentWriter over reader's object graph.
func NewDocumentWriter(reader *parser.Reader, rootRef parser.IndirectReference, infoRef *parser.IndirectReference) *DocumentWriter {
	return &DocumentWriter{
		reader:    reader,
		overrides: make(map[int]parser.PdfObject),
		rootRef:   rootRef,
		infoRef:   infoRef,
	}
}

// SetObject registers a replacement for objectNum, used for any object
// mutated during remediation (page dictionaries, the catalog, the info
// dictionary, newly created structure-tree and metadata objects).
func (w *DocumentWriter) SetObject(objectNum int, obj parser.PdfObject) {
	w.overrides[objectNum] = obj
}

// NextObjectNumber returns an object number one past the highest number the
// source document's xref table used plus any already allocated via
// SetObject, for minting new indirect objects (structure elements, the
// XMP metadata stream, ParentTree arrays).
func (w *DocumentWriter) NextObjectNumber() int {
	max := 0
	for num := range w.reader.XRefTable().Entries {
		if num > max {
			max = num
		}
	}
	for num := range w.overrides {
		if num > max {
			max = num
		}
	}
	return max + 1
}

// AllocateObjectNumber mints a fresh object number guaranteed distinct from
// every number returned by an earlier AllocateObjectNumber call on this
// writer, as well as from the source document's own object numbers. Unlike
// NextObjectNumber, which recomputes the same value until an object is
// actually registered via SetObject, this is a true counter: callers that
// need to mint several new objects in a row (a structure tree's leaves, its
// ParentTree, a rewritten content stream) call it once per object.
func (w *DocumentWriter) AllocateObjectNumber() int {
	if w.nextAlloc == 0 {
		w.nextAlloc = w.NextObjectNumber()
	}
	num := w.nextAlloc
	w.nextAlloc++
	return num
}

// Write serialises the full document: header, every object (from overrides
// or re-read from the source), a fresh classic xref table, and trailer.
func (w *DocumentWriter) Write() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-" + w.version() + "\n%\xE2\xE3\xCF\xD3\n")

	objectNums := w.allObjectNumbers()
	offsets := make(map[int]int64, len(objectNums))

	for _, num := range objectNums {
		obj, err := w.resolve(num)
		if err != nil {
			return nil, fmt.Errorf("document writer: object %d: %w", num, err)
		}
		offsets[num] = int64(buf.Len())
		writeIndirectObject(&buf, num, obj)
	}

	xrefOffset := int64(buf.Len())
	w.writeXRef(&buf, objectNums, offsets)
	w.writeTrailer(&buf, objectNums, xrefOffset)

	return buf.Bytes(), nil
}

// writeIndirectObject serialises one indirect object. Streams need special
// handling: Stream.String() is a debug summary, not valid PDF syntax, so its
// raw bytes are emitted directly between stream/endstream keywords.
func writeIndirectObject(buf *bytes.Buffer, num int, obj parser.PdfObject) {
	fmt.Fprintf(buf, "%d 0 obj\n", num)
	if stream, ok := obj.(*parser.Stream); ok {
		buf.WriteString(stream.Dictionary().String())
		buf.WriteString("\nstream\n")
		buf.Write(stream.Content())
		buf.WriteString("\nendstream")
	} else {
		buf.WriteString(obj.String())
	}
	buf.WriteString("\nendobj\n")
}

func (w *DocumentWriter) version() string {
	if v := w.reader.Version(); v != "" {
		return v
	}
	return "1.7"
}

func (w *DocumentWriter) allObjectNumbers() []int {
	set := make(map[int]struct{})
	for num, entry := range w.reader.XRefTable().Entries {
		if entry.Type != parser.XRefEntryFree {
			set[num] = struct{}{}
		}
	}
	for num := range w.overrides {
		set[num] = struct{}{}
	}
	nums := make([]int, 0, len(set))
	for num := range set {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}

func (w *DocumentWriter) resolve(num int) (parser.PdfObject, error) {
	if obj, ok := w.overrides[num]; ok {
		return obj, nil
	}
	return w.reader.GetObject(num)
}

func (w *DocumentWriter) writeXRef(buf *bytes.Buffer, objectNums []int, offsets map[int]int64) {
	buf.WriteString("xref\n")
	fmt.Fprintf(buf, "0 %d\n", objectNums[len(objectNums)-1]+1)
	buf.WriteString("0000000000 65535 f \n")

	offsetByNum := make(map[int]int64, len(offsets))
	for num, off := range offsets {
		offsetByNum[num] = off
	}

	max := objectNums[len(objectNums)-1]
	for i := 1; i <= max; i++ {
		off, ok := offsetByNum[i]
		if !ok {
			buf.WriteString("0000000000 00000 f \n")
			continue
		}
		fmt.Fprintf(buf, "%010d 00000 n \n", off)
	}
}

func (w *DocumentWriter) writeTrailer(buf *bytes.Buffer, objectNums []int, xrefOffset int64) {
	trailer := parser.NewDictionary()
	trailer.Set("Size", parser.NewInteger(int64(objectNums[len(objectNums)-1]+1)))
	trailer.Set("Root", parser.NewIndirectReference(w.rootRef.Number, w.rootRef.Generation))
	if w.infoRef != nil {
		trailer.Set("Info", parser.NewIndirectReference(w.infoRef.Number, w.infoRef.Generation))
	}

	buf.WriteString("trailer\n")
	buf.WriteString(trailer.String())
	buf.WriteString(fmt.Sprintf("\nstartxref\n%d\n%%%%EOF\n", xrefOffset))
}
