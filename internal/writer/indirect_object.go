package writer

import "fmt"

// IndirectObject is a fully-serialised "N G obj ... endobj" body, ready to be
// placed at a byte offset and indexed by the cross-reference table. Unlike
// parser.IndirectObject (which wraps a typed PdfObject for the reader's
// object graph), writer.IndirectObject holds the already-rendered bytes
// between "obj" and "endobj" — the shape the low-level emitters in this
// package (stream dictionaries, font programs, page dictionaries) produce
// directly.
type IndirectObject struct {
	Number     int
	Generation int
	Data       []byte
}

// NewIndirectObject wraps a rendered object body with its object number.
func NewIndirectObject(number, generation int, data []byte) *IndirectObject {
	return &IndirectObject{Number: number, Generation: generation, Data: data}
}

// Bytes renders the full "N G obj\n<data>\nendobj\n" byte sequence.
func (o *IndirectObject) Bytes() []byte {
	header := fmt.Sprintf("%d %d obj\n", o.Number, o.Generation)
	footer := []byte("\nendobj\n")
	out := make([]byte, 0, len(header)+len(o.Data)+len(footer))
	out = append(out, header...)
	out = append(out, o.Data...)
	out = append(out, footer...)
	return out
}

// ShouldCompress reports whether a stream's content is large enough that
// FlateDecode compression is worth its CPU cost. Small streams often grow
// under zlib's fixed overhead.
func ShouldCompress(data []byte) bool {
	return len(data) >= 128
}
