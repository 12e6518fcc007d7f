package raster

import (
	"image"
	"testing"

	"github.com/coregx/uatag/internal/classify"
	"github.com/coregx/uatag/internal/parser"
)

func TestTransformThenComposesTranslationAndScale(t *testing.T) {
	base := transform{a: 2, d: 2, e: 10, f: 10}
	scaleHalf := transform{a: 0.5, d: 0.5, e: 1, f: 1}
	composed := scaleHalf.then(base)

	x, y := composed.apply(1, 1)
	// scaleHalf maps (1,1) -> (1.5, 1.5); base then maps that -> (13, 13).
	if x != 13 || y != 13 {
		t.Errorf("expected (13,13), got (%v,%v)", x, y)
	}
}

func TestTransformCornersMapsUnitSquare(t *testing.T) {
	tr := transform{a: 100, d: 50, e: 10, f: 20}
	corners := tr.corners()
	if corners[0] != ([2]float64{10, 20}) {
		t.Errorf("expected origin corner (10,20), got %v", corners[0])
	}
	if corners[2] != ([2]float64{110, 70}) {
		t.Errorf("expected opposite corner (110,70), got %v", corners[2])
	}
}

func TestCmykColorBlackProducesBlack(t *testing.T) {
	c := cmykColor(0, 0, 0, 1)
	if c.r != 0 || c.g != 0 || c.b != 0 {
		t.Errorf("expected black, got %+v", c)
	}
}

func TestCmykColorNoInkProducesWhite(t *testing.T) {
	c := cmykColor(0, 0, 0, 0)
	if c.r != 1 || c.g != 1 || c.b != 1 {
		t.Errorf("expected white, got %+v", c)
	}
}

func TestGrayColorClampsOutOfRange(t *testing.T) {
	if c := grayColor(1.5); c.r != 1 {
		t.Errorf("expected clamp to 1, got %v", c.r)
	}
	if c := grayColor(-1); c.r != 0 {
		t.Errorf("expected clamp to 0, got %v", c.r)
	}
}

func TestRenderStateToPixelFlipsYAxis(t *testing.T) {
	rs := &renderState{pageHeight: 792}
	px, py := rs.toPixel(72, 700)
	if px != 72 {
		t.Errorf("expected px=72, got %d", px)
	}
	if py != 92 {
		t.Errorf("expected py=92 (792-700), got %d", py)
	}
}

func TestRenderStateBboxToPixelsIsCanonical(t *testing.T) {
	rs := &renderState{pageHeight: 792, canvas: image.NewRGBA(image.Rect(0, 0, 612, 792))}
	rect := rs.bboxToPixels(classify.BBox{X0: 100, Y0: 200, X1: 300, Y1: 400})
	if rect.Min.X > rect.Max.X || rect.Min.Y > rect.Max.Y {
		t.Errorf("expected canonical rectangle, got %v", rect)
	}
	if rect.Dx() != 200 {
		t.Errorf("expected width 200, got %d", rect.Dx())
	}
	if rect.Dy() != 200 {
		t.Errorf("expected height 200, got %d", rect.Dy())
	}
}

func TestPageDimensionsDefaultsToLetterWhenMediaBoxAbsent(t *testing.T) {
	page := parser.NewDictionary()
	w, h, ox, oy := pageDimensions(page)
	if w != defaultPageWidth || h != defaultPageHeight {
		t.Errorf("expected default letter size, got %vx%v", w, h)
	}
	if ox != 0 || oy != 0 {
		t.Errorf("expected zero origin, got (%v,%v)", ox, oy)
	}
}

func TestPageDimensionsReadsOwnMediaBox(t *testing.T) {
	box := parser.NewArray()
	box.Append(parser.NewInteger(0))
	box.Append(parser.NewInteger(0))
	box.Append(parser.NewInteger(200))
	box.Append(parser.NewInteger(400))
	page := parser.NewDictionary()
	page.Set("MediaBox", box)

	w, h, ox, oy := pageDimensions(page)
	if w != 200 || h != 400 {
		t.Errorf("expected 200x400, got %vx%v", w, h)
	}
	if ox != 0 || oy != 0 {
		t.Errorf("expected zero origin, got (%v,%v)", ox, oy)
	}
}

func TestFilterNameOfHandlesBareNameAndArray(t *testing.T) {
	if got := filterNameOf(parser.NewName("DCTDecode")); got != "DCTDecode" {
		t.Errorf("expected DCTDecode, got %q", got)
	}
	arr := parser.NewArray()
	arr.Append(parser.NewName("FlateDecode"))
	arr.Append(parser.NewName("DCTDecode"))
	if got := filterNameOf(arr); got != "FlateDecode" {
		t.Errorf("expected first filter in chain, got %q", got)
	}
	if got := filterNameOf(nil); got != "" {
		t.Errorf("expected empty string for nil, got %q", got)
	}
}
