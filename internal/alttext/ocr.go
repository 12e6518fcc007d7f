package alttext

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractOCR is an OCR implementation backed by the Tesseract engine via
// gosseract. Each Extract call uses a fresh client: gosseract clients are
// not safe for concurrent reuse across goroutines.
type TesseractOCR struct {
	Languages []string
}

// NewTesseractOCR creates a TesseractOCR. With no languages given, gosseract
// falls back to its "eng" default.
func NewTesseractOCR(languages ...string) *TesseractOCR {
	return &TesseractOCR{Languages: languages}
}

// Extract runs Tesseract over imageBytes and returns the recognised text
// along with Tesseract's mean confidence, rescaled from its native 0-100
// range to [0,1].
func (o *TesseractOCR) Extract(ctx context.Context, imageBytes []byte) (string, float64, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if len(o.Languages) > 0 {
		if err := client.SetLanguage(o.Languages...); err != nil {
			return "", 0, fmt.Errorf("alttext: set ocr language: %w", err)
		}
	}

	if err := client.SetImageFromBytes(imageBytes); err != nil {
		return "", 0, fmt.Errorf("alttext: load ocr image: %w", err)
	}

	done := make(chan struct{})
	var text string
	var conf int
	var err error
	go func() {
		defer close(done)
		text, err = client.Text()
		if err == nil {
			conf, err = client.MeanTextConf()
		}
	}()

	select {
	case <-ctx.Done():
		return "", 0, ctx.Err()
	case <-done:
	}

	if err != nil {
		return "", 0, fmt.Errorf("alttext: ocr extract: %w", err)
	}
	return text, float64(conf) / 100.0, nil
}
