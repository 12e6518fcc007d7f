// Package raster rasterises a region of a PDF page into a PNG image, giving
// the alt-text pipeline something to hand a vision-capable describer or OCR
// engine for Figure and Formula blocks. It walks the same content-stream
// operators the layout analyser and content-stream rewriter already parse,
// painting fills and placed images onto an RGBA canvas instead of emitting
// marked content.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	stddraw "image/draw"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/coregx/uatag/internal/classify"
	"github.com/coregx/uatag/internal/extractor"
	"github.com/coregx/uatag/internal/parser"
)

// defaultPageWidth and defaultPageHeight approximate US Letter in points,
// used when a page is missing (or inherits, which this reader does not
// resolve) a /MediaBox.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// Renderer implements alttext.Renderer by walking a page's content stream
// and painting the operators that land inside the requested region onto a
// raster canvas, then cropping and scaling to it.
type Renderer struct {
	reader *parser.Reader
}

// NewRenderer creates a Renderer over reader's pages.
func NewRenderer(reader *parser.Reader) *Renderer {
	return &Renderer{reader: reader}
}

// RenderRegion rasterises bbox on pageIndex at the given scale factor and
// returns PNG-encoded bytes. Content the renderer cannot decode (Form
// XObjects, JPEG2000 or CCITT fax images, raw sample data without a
// recognised filter) is silently skipped rather than failing the whole
// region: the caller gets a best-effort crop, not an error, unless the
// region itself falls entirely outside the page.
func (r *Renderer) RenderRegion(ctx context.Context, pageIndex int, bbox classify.BBox, scale float64) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	page, err := r.reader.GetPage(pageIndex)
	if err != nil {
		return nil, fmt.Errorf("raster: get page %d: %w", pageIndex, err)
	}

	pageWidth, pageHeight, originX, originY := pageDimensions(page)

	te := extractor.NewTextExtractor(r.reader)
	content, err := te.PageContentBytes(pageIndex)
	if err != nil {
		return nil, fmt.Errorf("raster: page content: %w", err)
	}
	resources, err := te.PageResources(pageIndex)
	if err != nil {
		return nil, fmt.Errorf("raster: page resources: %w", err)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, int(pageWidth), int(pageHeight)))
	stddraw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, stddraw.Src)

	rs := &renderState{
		canvas:     canvas,
		originX:    originX,
		originY:    originY,
		pageHeight: pageHeight,
		reader:     r.reader,
	}
	if err := rs.walk(content, resources); err != nil {
		return nil, fmt.Errorf("raster: walk content: %w", err)
	}

	cropRect := rs.bboxToPixels(bbox).Intersect(canvas.Bounds())
	if cropRect.Empty() {
		return nil, fmt.Errorf("raster: region %v outside page bounds", bbox)
	}

	if scale <= 0 {
		scale = 1
	}
	outW := maxInt(1, int(float64(cropRect.Dx())*scale))
	outH := maxInt(1, int(float64(cropRect.Dy())*scale))
	out := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(out, out.Bounds(), canvas, cropRect, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("raster: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// pageDimensions reads a page's own /MediaBox, defaulting to US Letter when
// absent: this reader does not walk the page tree to resolve an inherited
// MediaBox from an ancestor /Pages node.
func pageDimensions(page *parser.Dictionary) (width, height, originX, originY float64) {
	box := page.GetArray("MediaBox")
	if box == nil || box.Len() != 4 {
		return defaultPageWidth, defaultPageHeight, 0, 0
	}
	x0, y0 := num(box.Get(0)), num(box.Get(1))
	x1, y1 := num(box.Get(2)), num(box.Get(3))
	return x1 - x0, y1 - y0, x0, y0
}

// renderState carries the canvas and the page geometry needed to convert
// PDF user-space coordinates (origin bottom-left, Y up) into canvas pixel
// coordinates (origin top-left, Y down) while walking a content stream.
type renderState struct {
	canvas     *image.RGBA
	originX    float64
	originY    float64
	pageHeight float64
	reader     *parser.Reader
}

func (rs *renderState) toPixel(x, y float64) (int, int) {
	return int(x - rs.originX), int(rs.pageHeight - (y - rs.originY))
}

// bboxToPixels converts a page-space bbox to the equivalent pixel rectangle
// on the canvas, accounting for the Y-axis flip.
func (rs *renderState) bboxToPixels(b classify.BBox) image.Rectangle {
	x0, y0 := rs.toPixel(b.X0, b.Y1)
	x1, y1 := rs.toPixel(b.X1, b.Y0)
	return image.Rect(x0, y0, x1, y1).Canon()
}

// rectPath is a pending "re" path construction operator, held until the
// following paint operator (f/F/f*) resolves whether and how it is filled.
type rectPath struct {
	x, y, w, h float64
	ctm        transform
}

// walk interprets content's operators, tracking the graphics state stack
// and current fill color, painting rectangle fills and placed raster images
// onto rs.canvas. Text-showing and clipping operators are not rendered:
// this canvas exists to give a describer visual context for a figure or
// formula region, not to reproduce the page exactly.
func (rs *renderState) walk(content []byte, resources *parser.Dictionary) error {
	cp := extractor.NewContentParser(content)
	ops, err := cp.ParseOperators()
	if err != nil {
		return err
	}

	xobjects := resolveDictionary(rs.reader, resourceGet(resources, "XObject"))

	var stack []transform
	cur := identityTransform()
	fill := colorBlack
	var pending *rectPath

	for _, op := range ops {
		switch op.Name {
		case "q":
			stack = append(stack, cur)
		case "Q":
			if n := len(stack); n > 0 {
				cur = stack[n-1]
				stack = stack[:n-1]
			}
		case "cm":
			if len(op.Operands) < 6 {
				continue
			}
			m := transform{
				a: num(op.Operands[0]), b: num(op.Operands[1]),
				c: num(op.Operands[2]), d: num(op.Operands[3]),
				e: num(op.Operands[4]), f: num(op.Operands[5]),
			}
			cur = m.then(cur)
		case "g":
			if len(op.Operands) >= 1 {
				fill = grayColor(num(op.Operands[0]))
			}
		case "rg":
			if len(op.Operands) >= 3 {
				fill = rgbFromComponents(num(op.Operands[0]), num(op.Operands[1]), num(op.Operands[2]))
			}
		case "k":
			if len(op.Operands) >= 4 {
				fill = cmykColor(num(op.Operands[0]), num(op.Operands[1]), num(op.Operands[2]), num(op.Operands[3]))
			}
		case "re":
			if len(op.Operands) >= 4 {
				pending = &rectPath{
					x: num(op.Operands[0]), y: num(op.Operands[1]),
					w: num(op.Operands[2]), h: num(op.Operands[3]),
					ctm: cur,
				}
			}
		case "f", "F", "f*":
			if pending != nil {
				rs.fillRect(*pending, fill)
				pending = nil
			}
		case "n", "S", "s":
			pending = nil
		case "Do":
			if len(op.Operands) == 0 || xobjects == nil {
				continue
			}
			name, ok := op.Operands[0].(*parser.Name)
			if !ok {
				continue
			}
			stream := resolveStream(rs.reader, xobjects.Get(name.Value()))
			if stream == nil {
				continue
			}
			rs.drawImage(stream, cur)
		}
	}
	return nil
}

func (rs *renderState) fillRect(rp rectPath, col rgbColor) {
	corners := [4][2]float64{
		{rp.x, rp.y}, {rp.x + rp.w, rp.y},
		{rp.x + rp.w, rp.y + rp.h}, {rp.x, rp.y + rp.h},
	}
	rect := rs.cornersToPixelRect(corners, rp.ctm)
	if rect.Empty() {
		return
	}
	stddraw.Draw(rs.canvas, rect, &image.Uniform{C: col.toNRGBA()}, image.Point{}, stddraw.Over)
}

// drawImage decodes stream's content (when its filter is a format Go's
// image codecs recognise) and composites it onto rs.canvas at the
// axis-aligned bounding box ctm places it at: rotation and shear in the
// CTM are collapsed to their bounding box, the same simplification the
// layout analyser makes for image placement.
func (rs *renderState) drawImage(stream *parser.Stream, ctm transform) {
	dict := stream.Dictionary()
	if subtype := dict.GetName("Subtype"); subtype == nil || subtype.Value() != "Image" {
		return
	}

	img, ok := decodeImage(stream)
	if !ok {
		return
	}

	rect := rs.cornersToPixelRect(ctm.corners(), identityTransform())
	if rect.Empty() {
		return
	}
	draw.CatmullRom.Scale(rs.canvas, rect, img, img.Bounds(), draw.Over, nil)
}

// cornersToPixelRect maps corners (in the coordinate space ctm places them
// in, already-transformed page-space corners when ctm is identity) to the
// canvas's pixel space and returns their axis-aligned bounding rectangle,
// clipped to the canvas.
func (rs *renderState) cornersToPixelRect(corners [4][2]float64, ctm transform) image.Rectangle {
	minX, minY, maxX, maxY := 0, 0, 0, 0
	for i, c := range corners {
		x, y := ctm.apply(c[0], c[1])
		px, py := rs.toPixel(x, y)
		if i == 0 {
			minX, maxX, minY, maxY = px, px, py, py
			continue
		}
		if px < minX {
			minX = px
		}
		if px > maxX {
			maxX = px
		}
		if py < minY {
			minY = py
		}
		if py > maxY {
			maxY = py
		}
	}
	return image.Rect(minX, minY, maxX, maxY).Intersect(rs.canvas.Bounds())
}

// decodeImage decodes an image XObject stream using the filter named on its
// dictionary. Only filters Go's standard codecs cover are supported;
// CCITTFaxDecode, JBIG2Decode and JPXDecode images (common for scanned
// black-and-white pages) are reported as undecodable rather than guessed
// at.
func decodeImage(stream *parser.Stream) (image.Image, bool) {
	dict := stream.Dictionary()
	filterName := filterNameOf(dict.Get("Filter"))

	switch filterName {
	case "DCTDecode":
		img, err := jpeg.Decode(bytes.NewReader(stream.Content()))
		if err != nil {
			return nil, false
		}
		return img, true
	default:
		return nil, false
	}
}

func filterNameOf(obj parser.PdfObject) string {
	switch v := obj.(type) {
	case *parser.Name:
		return v.Value()
	case *parser.Array:
		if v.Len() > 0 {
			if name, ok := v.Get(0).(*parser.Name); ok {
				return name.Value()
			}
		}
	}
	return ""
}

func resourceGet(resources *parser.Dictionary, key string) parser.PdfObject {
	if resources == nil {
		return nil
	}
	return resources.Get(key)
}

// resolveDictionary follows obj through an indirect reference and returns
// it as a Dictionary, directly or via a Stream's own dictionary (XObjects
// are streams).
func resolveDictionary(reader *parser.Reader, obj parser.PdfObject) *parser.Dictionary {
	if obj == nil {
		return nil
	}
	switch v := reader.ResolveReferences(obj).(type) {
	case *parser.Dictionary:
		return v
	case *parser.Stream:
		return v.Dictionary()
	default:
		return nil
	}
}

func resolveStream(reader *parser.Reader, obj parser.PdfObject) *parser.Stream {
	if obj == nil {
		return nil
	}
	if s, ok := reader.ResolveReferences(obj).(*parser.Stream); ok {
		return s
	}
	return nil
}

func num(obj parser.PdfObject) float64 {
	switch v := obj.(type) {
	case *parser.Integer:
		return float64(v.Value())
	case *parser.Real:
		return v.Value()
	default:
		return 0
	}
}
