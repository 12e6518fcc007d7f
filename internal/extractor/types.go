package extractor

// TextElement is a single run of decoded text positioned on a page, as
// produced by TextExtractor while walking a content stream's text-showing
// operators.
type TextElement struct {
	Text     string
	X        float64
	Y        float64
	Width    float64
	Height   float64
	FontName string
	FontSize float64
}

// NewTextElement creates a TextElement at the given position.
func NewTextElement(text string, x, y, width, height float64, fontName string, fontSize float64) *TextElement {
	return &TextElement{
		Text:     text,
		X:        x,
		Y:        y,
		Width:    width,
		Height:   height,
		FontName: fontName,
		FontSize: fontSize,
	}
}

// ImageElement describes an XObject image placed on a page, with the bbox it
// occupies in unrotated page space (device units) after applying the
// current transformation matrix at the Do operator.
type ImageElement struct {
	Name           string
	X, Y           float64
	Width, Height  float64
	ColorSpace     string
	ObjectNum      int
}

// TextState tracks the PDF text object state machine (PDF 1.7 §9.3-9.4):
// character/word spacing, font, the text matrix and the text line matrix.
// Matrix composition is approximated by tracking only the translation
// component (CurrentX/CurrentY), which is sufficient for reading-order
// layout analysis; rotated or sheared text matrices are not modelled.
type TextState struct {
	CharSpace  float64
	WordSpace  float64
	HorizScale float64
	Leading    float64
	FontName   string
	FontSize   float64
	Rise       float64

	CurrentX float64
	CurrentY float64
	lineX    float64
	lineY    float64
}

// NewTextState creates a TextState with PDF's default values (HorizScale is
// a percentage, defaulting to 100).
func NewTextState() *TextState {
	return &TextState{HorizScale: 100}
}

// Reset restores the text state's position at the start of a new BT...ET
// text object. Font, size and spacing persist across text objects per spec.
func (ts *TextState) Reset() {
	ts.CurrentX, ts.CurrentY = 0, 0
	ts.lineX, ts.lineY = 0, 0
}

// Translate implements Td: move to the start of the next line, offset from
// the start of the current line by (tx, ty).
func (ts *TextState) Translate(tx, ty float64) {
	ts.lineX += tx
	ts.lineY += ty
	ts.CurrentX, ts.CurrentY = ts.lineX, ts.lineY
}

// TranslateSetLeading implements TD: same as Td, but also sets the leading
// to -ty.
func (ts *TextState) TranslateSetLeading(tx, ty float64) {
	ts.Leading = -ty
	ts.Translate(tx, ty)
}

// SetTextMatrix implements Tm: set the text matrix and line matrix directly.
// Only the translation components (e, f) are tracked, per the TextState
// simplification noted above.
func (ts *TextState) SetTextMatrix(a, b, c, d, e, f float64) {
	_ = a
	_ = b
	_ = c
	_ = d
	ts.lineX, ts.lineY = e, f
	ts.CurrentX, ts.CurrentY = e, f
}

// MoveToNextLine implements T*: move to the start of the next line, using
// the current leading.
func (ts *TextState) MoveToNextLine() {
	ts.Translate(0, -ts.Leading)
}

// AdvanceX moves the current position forward along the text line by delta
// text-space units, as text is shown or TJ positioning adjustments apply.
func (ts *TextState) AdvanceX(delta float64) {
	ts.CurrentX += delta
}

// FontDecoder converts raw glyph-code bytes captured from a content stream's
// text-showing operators into decoded Unicode text, using a font's
// ToUnicode CMap, a /Differences custom encoding, or a Latin-1 fallback, in
// that preference order.
type FontDecoder struct {
	cmap           *CMapTable
	encodingName   string
	use2ByteGlyphs bool
	customEncoding map[uint16]rune
}

// NewFontDecoder creates a FontDecoder for a font with the given ToUnicode
// CMap (may be nil) and base encoding name.
func NewFontDecoder(cmap *CMapTable, encodingName string, use2ByteGlyphs bool) *FontDecoder {
	return &FontDecoder{cmap: cmap, encodingName: encodingName, use2ByteGlyphs: use2ByteGlyphs}
}

// NewFontDecoderWithCustomEncoding creates a FontDecoder from a parsed
// /Differences array, for fonts with no ToUnicode CMap but a custom glyph
// name mapping.
func NewFontDecoderWithCustomEncoding(differences map[uint16]string, encodingName string, use2ByteGlyphs bool) *FontDecoder {
	return &FontDecoder{
		encodingName:   encodingName,
		use2ByteGlyphs: use2ByteGlyphs,
		customEncoding: buildCustomEncoding(differences),
	}
}

// buildCustomEncoding maps PDF standard glyph names to Unicode code points.
// Only the glyph names that occur in Latin-range Differences arrays are
// covered; unrecognised names are left out of the map, so DecodeString
// falls back to the code's raw byte read as Latin-1.
func buildCustomEncoding(differences map[uint16]string) map[uint16]rune {
	out := make(map[uint16]rune, len(differences))
	for code, name := range differences {
		if r, ok := glyphNameToRune[name]; ok {
			out[code] = r
		}
	}
	return out
}

// glyphNameToRune covers the Adobe standard glyph names seen in digit and
// basic Latin Differences arrays; it is not a complete AGL implementation.
var glyphNameToRune = map[string]rune{
	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
	"space": ' ', "period": '.', "comma": ',', "hyphen": '-',
}

// DecodeString decodes raw glyph-code bytes to Unicode text, preferring the
// ToUnicode CMap, then any custom /Differences mapping, then treating the
// bytes as Latin-1.
func (d *FontDecoder) DecodeString(glyphBytes []byte) string {
	if d == nil {
		return string(glyphBytes)
	}

	step := 1
	if d.use2ByteGlyphs {
		step = 2
	}

	var sb []rune
	for i := 0; i+step <= len(glyphBytes); i += step {
		var code uint16
		if step == 2 {
			code = uint16(glyphBytes[i])<<8 | uint16(glyphBytes[i+1])
		} else {
			code = uint16(glyphBytes[i])
		}

		if d.cmap != nil {
			if r, ok := d.cmap.GetUnicode(code); ok {
				sb = append(sb, r)
				continue
			}
		}
		if d.customEncoding != nil {
			if r, ok := d.customEncoding[code]; ok {
				sb = append(sb, r)
				continue
			}
		}
		sb = append(sb, rune(glyphBytes[i]))
	}
	return string(sb)
}
