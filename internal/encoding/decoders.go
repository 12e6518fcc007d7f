// Package encoding implements PDF stream filter decoders (FlateDecode,
// DCTDecode) used by internal/parser when materialising stream content.
package encoding

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/jpeg"
	"io"
)

// Decoder decodes a PDF stream filter's encoded bytes into raw bytes.
type Decoder interface {
	Decode(data []byte) ([]byte, error)
}

// FlateDecoder implements the /FlateDecode stream filter.
type FlateDecoder struct{}

// NewFlateDecoder creates a FlateDecoder.
func NewFlateDecoder() *FlateDecoder { return &FlateDecoder{} }

// Decode inflates zlib-wrapped deflate data.
func (*FlateDecoder) Decode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("flate: %w", err)
	}
	defer func() { _ = r.Close() }()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("flate: %w", err)
	}
	return out, nil
}

// DCTDecoder implements the /DCTDecode (baseline JPEG) stream filter.
//
// PDF embeds raw JPEG data under this filter; decoding yields either the
// decoded raster (for callers that need pixels, e.g. AltTextOrchestrator's
// figure rasteriser) or the original JPEG bytes passed straight through
// (the common case, since most consumers only need valid image bytes to
// hand to a Describer, not decoded pixels).
type DCTDecoder struct {
	colorTransform int
	decodeToPixels bool
}

// NewDCTDecoder creates a pass-through DCTDecoder (returns the JPEG bytes
// unchanged; PDF viewers and most re-encoders want the original JPEG
// stream, not decompressed pixels).
func NewDCTDecoder() *DCTDecoder {
	return &DCTDecoder{colorTransform: -1}
}

// NewDCTDecoderWithParams creates a DCTDecoder that records the stream's
// /DecodeParms /ColorTransform value. Decode and DecodeImage do not apply
// it.
func NewDCTDecoderWithParams(colorTransform int) *DCTDecoder {
	return &DCTDecoder{colorTransform: colorTransform}
}

// Decode returns the JPEG bytes unchanged (DCTDecode streams are already
// valid standalone JPEG files per PDF 1.7 §7.4.8).
func (d *DCTDecoder) Decode(data []byte) ([]byte, error) {
	if !d.decodeToPixels {
		return data, nil
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("dct: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("dct: re-encode: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeImage decodes the JPEG into an image.Image for rasterisation paths
// that need actual pixels (AltTextOrchestrator figure cropping).
func (d *DCTDecoder) DecodeImage(data []byte) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("dct: %w", err)
	}
	return img, nil
}
