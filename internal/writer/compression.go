package writer

import (
	"bytes"
	"compress/zlib"
	"fmt"
)

// CompressionLevel selects the zlib compression effort used when writing
// content streams, embedded font programs, and CMap streams.
type CompressionLevel int

// Compression levels, mirroring compress/flate's named constants so callers
// don't need to import that package directly.
const (
	NoCompression      CompressionLevel = 0
	BestSpeed          CompressionLevel = 1
	DefaultCompression CompressionLevel = -1
	BestCompression    CompressionLevel = 9
)

// CompressStream zlib-compresses data at the given level, suitable for a
// stream object declared with /Filter /FlateDecode.
func CompressStream(data []byte, level CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, int(level))
	if err != nil {
		return nil, fmt.Errorf("compress stream: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("compress stream: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress stream: %w", err)
	}
	return buf.Bytes(), nil
}
