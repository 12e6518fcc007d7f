package alttext

import (
	"context"
	"fmt"
)

// NullDescriber is the offline Describer used when no vision-capable model
// is configured. It always fails, driving Orchestrator.Resolve to its fixed
// fallback strings rather than silently emitting a fabricated description.
type NullDescriber struct{}

// Describe always returns an error.
func (NullDescriber) Describe(_ context.Context, _ []byte, _ string, _ Kind) (string, error) {
	return "", fmt.Errorf("alttext: no describer configured")
}

// NoOCR is the OCR implementation used when text extraction from images is
// unavailable. Extract always reports zero confidence so callers treat its
// output as absent.
type NoOCR struct{}

// Extract always returns an empty string and zero confidence.
func (NoOCR) Extract(_ context.Context, _ []byte) (string, float64, error) {
	return "", 0, nil
}
