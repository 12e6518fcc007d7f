// Package alttext acquires, validates, and falls back on alternative text
// for Figure and Formula blocks by delegating to an injectable Describer
// (and optionally an OCR enrichment), per PDF/UA's requirement that every
// such structure element carry a non-empty /Alt string.
package alttext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/coregx/uatag/internal/classify"
)

// Kind identifies what's being described, shaping the Describer's prompt.
type Kind string

// Kinds passed to Describer.Describe.
const (
	KindFigure  Kind = "figure"
	KindFormula Kind = "formula"
)

// Describer captions an image, or transcribes a formula rendered as an
// image, returning descriptive text. Implementations wrap a vision-capable
// model; see AnthropicDescriber for a reference binding and NullDescriber
// for the offline default.
type Describer interface {
	Describe(ctx context.Context, imageBytes []byte, contextText string, kind Kind) (string, error)
}

// OCR extracts text from an image and reports a confidence in [0,1].
// Implementations are optional; NoOCR is always available.
type OCR interface {
	Extract(ctx context.Context, imageBytes []byte) (text string, confidence float64, err error)
}

// Renderer rasterises a page region into a PNG-encoded image, used to
// obtain bytes for Figure and Formula blocks to hand to the Describer.
type Renderer interface {
	RenderRegion(ctx context.Context, pageIndex int, bbox classify.BBox, scale float64) ([]byte, error)
}

const (
	minAltLen        = 10
	maxAltLen        = 500
	ocrConfidenceMin = 0.5
	ocrMaxChars      = 500
	formulaRawChars  = 100
)

var placeholderSubstrings = []string{"placeholder", "todo", "insert", "add description"}

var genericPrefixes = []string{
	"image of", "picture of", "photo of", "figure showing",
}

// Orchestrator drives alt-text acquisition for a document's Figure and
// Formula blocks.
type Orchestrator struct {
	Describer Describer
	OCR       OCR
	Renderer  Renderer
}

// NewOrchestrator creates an Orchestrator. A nil OCR or Renderer is treated
// as unavailable / a no-op respectively.
func NewOrchestrator(describer Describer, ocr OCR, renderer Renderer) *Orchestrator {
	return &Orchestrator{Describer: describer, OCR: ocr, Renderer: renderer}
}

// Result is the outcome of resolving alt text for one block.
type Result struct {
	Alt     string
	Warning bool // true if the resolved text failed local validation
}

// Resolve acquires alt text for a single classified Figure or Formula
// block. On describer failure it substitutes the fixed fallback strings
// from the alt-text acquisition algorithm rather than propagating an error:
// the block must always end up with a non-empty Alt.
func (o *Orchestrator) Resolve(ctx context.Context, block classify.ClassifiedBlock, contextText string) Result {
	scale := 1.0
	kind := KindFigure
	if block.Role == classify.RoleFormula {
		kind = KindFormula
		scale = 2.0
	}

	imageBytes, err := o.render(ctx, block, scale)
	if err != nil {
		return o.fallback(block)
	}

	promptContext := contextText
	if o.OCR != nil && kind == KindFigure {
		if text, confidence, err := o.OCR.Extract(ctx, imageBytes); err == nil && confidence > ocrConfidenceMin {
			promptContext = prependOCR(promptContext, text)
		}
	}

	text, err := o.Describer.Describe(ctx, imageBytes, promptContext, kind)
	if err != nil {
		return o.fallback(block)
	}

	return Result{Alt: text, Warning: !validate(text)}
}

func (o *Orchestrator) render(ctx context.Context, block classify.ClassifiedBlock, scale float64) ([]byte, error) {
	if o.Renderer == nil {
		return nil, fmt.Errorf("alttext: no renderer configured")
	}
	return o.Renderer.RenderRegion(ctx, block.PageIndex, block.BBox, scale)
}

func (o *Orchestrator) fallback(block classify.ClassifiedBlock) Result {
	if block.Role == classify.RoleFormula {
		raw := block.Text
		if utf8.RuneCountInString(raw) > formulaRawChars {
			r := []rune(raw)
			raw = string(r[:formulaRawChars])
		}
		return Result{Alt: "Mathematical formula: " + raw, Warning: true}
	}
	return Result{Alt: "[alt text unavailable]", Warning: true}
}

func prependOCR(contextText, ocrText string) string {
	r := []rune(ocrText)
	if len(r) > ocrMaxChars {
		ocrText = string(r[:ocrMaxChars])
	}
	if contextText == "" {
		return ocrText
	}
	return ocrText + " " + contextText
}

// validate reports whether text passes the local acceptability checks: not
// too short, not too long, no generic "image of"-style prefix, and no
// placeholder substring. Failing validation is a warning, not an error —
// the text is still used as the Alt value.
func validate(text string) bool {
	n := utf8.RuneCountInString(text)
	if n < minAltLen || n > maxAltLen {
		return false
	}
	lower := strings.ToLower(text)
	for _, p := range genericPrefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	for _, p := range placeholderSubstrings {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return true
}
