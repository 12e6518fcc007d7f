package writer

import (
	"bytes"
	"fmt"

	"github.com/coregx/uatag/internal/classify"
	"github.com/coregx/uatag/internal/extractor"
	"github.com/coregx/uatag/internal/parser"
)

// ContentStreamRewriter replaces a page's marked-content structure with one
// BDC/EMC pair per classified block, assigning MCIDs from the classifier's
// emission order. Any single /Figure wrapper left by a prior tagging pass is
// dissolved rather than nested inside.
type ContentStreamRewriter struct{}

// NewContentStreamRewriter creates a ContentStreamRewriter.
func NewContentStreamRewriter() *ContentStreamRewriter { return &ContentStreamRewriter{} }

// Rewrite parses pageContent's operators and returns a new content stream
// with exactly len(blocks) marked-content sections, each `/<Role> <<
// /MCID n >> BDC ... EMC`, MCIDs assigned 0..len(blocks)-1 in block order.
func (r *ContentStreamRewriter) Rewrite(pageContent []byte, blocks []classify.ClassifiedBlock) ([]byte, error) {
	cp := extractor.NewContentParser(pageContent)
	ops, err := cp.ParseOperators()
	if err != nil {
		return nil, fmt.Errorf("content rewriter: %w", err)
	}

	if hasFigureWrapper(ops) {
		return r.rewriteDissolvingWrapper(ops, blocks)
	}
	return r.rewriteWrappingWhole(ops, blocks)
}

func hasFigureWrapper(ops []*extractor.Operator) bool {
	for _, op := range ops {
		if op.Name == "BDC" && len(op.Operands) > 0 {
			if name, ok := op.Operands[0].(*parser.Name); ok && string(*name) == "Figure" {
				return true
			}
		}
	}
	return false
}

// rewriteDissolvingWrapper drops the existing single /Figure BDC...EMC pair
// and emits one BDC/EMC per block in its place, in block order, preserving
// everything else verbatim.
func (r *ContentStreamRewriter) rewriteDissolvingWrapper(ops []*extractor.Operator, blocks []classify.ClassifiedBlock) ([]byte, error) {
	var buf bytes.Buffer
	inFigure := false

	for _, op := range ops {
		switch {
		case op.Name == "BDC" && isFigureBDC(op):
			inFigure = true
			emitAllOpen(&buf, blocks)
		case op.Name == "EMC" && inFigure:
			inFigure = false
			emitAllClose(&buf, blocks)
		default:
			writeOperator(&buf, op)
		}
	}
	return buf.Bytes(), nil
}

// rewriteWrappingWhole wraps the entire existing operator sequence in one
// BDC/EMC envelope per block, in block order, when no prior /Figure wrapper
// exists to dissolve.
func (r *ContentStreamRewriter) rewriteWrappingWhole(ops []*extractor.Operator, blocks []classify.ClassifiedBlock) ([]byte, error) {
	var buf bytes.Buffer
	emitAllOpen(&buf, blocks)
	for _, op := range ops {
		writeOperator(&buf, op)
	}
	emitAllClose(&buf, blocks)
	return buf.Bytes(), nil
}

func isFigureBDC(op *extractor.Operator) bool {
	if len(op.Operands) == 0 {
		return false
	}
	name, ok := op.Operands[0].(*parser.Name)
	return ok && string(*name) == "Figure"
}

func emitAllOpen(buf *bytes.Buffer, blocks []classify.ClassifiedBlock) {
	for _, b := range blocks {
		writeBDC(buf, b)
	}
}

func emitAllClose(buf *bytes.Buffer, blocks []classify.ClassifiedBlock) {
	for range blocks {
		buf.WriteString("EMC\n")
	}
}

func writeBDC(buf *bytes.Buffer, b classify.ClassifiedBlock) {
	dict := parser.NewDictionary()
	dict.Set("MCID", parser.NewInteger(int64(b.BlockIndex)))
	tag := parser.NewName(string(b.Role))
	fmt.Fprintf(buf, "%s %s BDC\n", tag.String(), dict.String())
}

func writeOperator(buf *bytes.Buffer, op *extractor.Operator) {
	for _, operand := range op.Operands {
		buf.WriteString(operand.String())
		buf.WriteByte(' ')
	}
	buf.WriteString(op.Name)
	buf.WriteByte('\n')
}
