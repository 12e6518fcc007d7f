package extractor

import (
	"bytes"
	"fmt"

	"github.com/coregx/uatag/internal/parser"
)

// Operator is a single content-stream instruction: zero or more operands
// followed by an operator keyword (PDF 1.7 §7.8.2, e.g. "1 0 0 1 72 720 Tm").
type Operator struct {
	Name     string
	Operands []parser.PdfObject
}

// ContentParser tokenises a decoded page content stream into a sequence of
// Operators. Content streams share the object lexicon with the rest of a PDF
// (numbers, names, strings, arrays, dictionaries) but have no indirect
// references or "obj"/"endobj" framing; operands simply accumulate until a
// bare keyword terminates them as an operator.
type ContentParser struct {
	parser *parser.Parser
}

// NewContentParser creates a ContentParser over decoded content-stream bytes.
func NewContentParser(data []byte) *ContentParser {
	return &ContentParser{parser: parser.NewParser(bytes.NewReader(data))}
}

// ParseOperators reads every operator in the stream. Inline images (the
// BI...ID...EI sequence) are recognised and discarded without emitting an
// Operator. Their dictionary and data are consumed token by token through
// the lexer up to EI, so a binary payload that does not lex as PDF tokens
// ends parsing with an error.
func (cp *ContentParser) ParseOperators() ([]*Operator, error) {
	var ops []*Operator
	var operands []parser.PdfObject

	for {
		tok := cp.parser.Current()

		switch tok.Type {
		case parser.TokenEOF:
			return ops, nil

		case parser.TokenArrayStart, parser.TokenDictStart,
			parser.TokenInteger, parser.TokenReal, parser.TokenString,
			parser.TokenHexString, parser.TokenName, parser.TokenBoolean, parser.TokenNull:
			obj, err := cp.parser.ParseObject()
			if err != nil {
				return ops, fmt.Errorf("content stream: %w", err)
			}
			operands = append(operands, obj)

		case parser.TokenKeyword:
			name := tok.Value
			if err := cp.parser.Advance(); err != nil {
				return ops, fmt.Errorf("content stream: %w", err)
			}
			if name == "BI" {
				if err := cp.skipInlineImage(); err != nil {
					return ops, err
				}
				operands = nil
				continue
			}
			ops = append(ops, &Operator{Name: name, Operands: operands})
			operands = nil

		default:
			if err := cp.parser.Advance(); err != nil {
				return ops, fmt.Errorf("content stream: %w", err)
			}
		}
	}
}

// skipInlineImage consumes an inline image dictionary and its binary data,
// up to and including the terminating EI keyword. Inline images are rare in
// the content this package processes (text layout analysis) and their pixel
// data is never needed, so the payload is discarded rather than decoded.
func (cp *ContentParser) skipInlineImage() error {
	for {
		tok := cp.parser.Current()
		if tok.Type == parser.TokenEOF {
			return fmt.Errorf("content stream: unterminated inline image")
		}
		if tok.Type == parser.TokenKeyword && tok.Value == "EI" {
			return cp.parser.Advance()
		}
		if err := cp.parser.Advance(); err != nil {
			return fmt.Errorf("content stream: unterminated inline image: %w", err)
		}
	}
}
