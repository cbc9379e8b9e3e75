package binio

import (
	"bytes"
	"math"

	"github.com/decker502/spine2d/pkg/model"
)

// Writer encodes primitives in the same layout Reader decodes.
type Writer struct {
	buf     bytes.Buffer
	strings map[string]int
}

func NewWriter() *Writer {
	return &Writer{}
}

// SetStrings installs the string table used by WriteStringRef.
func (w *Writer) SetStrings(table []string) {
	w.strings = make(map[string]int, len(table))
	for i, s := range table {
		if _, dup := w.strings[s]; !dup {
			w.strings[s] = i + 1
		}
	}
}

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) WriteByte(b byte) error { return w.buf.WriteByte(b) }

func (w *Writer) WriteSByte(b int8) { w.buf.WriteByte(byte(b)) }

func (w *Writer) WriteBool(b bool) {
	if b {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *Writer) WriteInt(v int32) {
	u := uint32(v)
	w.buf.Write([]byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)})
}

func (w *Writer) WriteFloat(f float32) {
	w.WriteInt(int32(math.Float32bits(f)))
}

// WriteVarint writes v in 1 to 5 bytes, zig-zag encoded when
// optimizePositive is false.
func (w *Writer) WriteVarint(v int, optimizePositive bool) {
	u := uint32(int32(v))
	if !optimizePositive {
		u = uint32(int32(v)<<1 ^ int32(v)>>31)
	}
	for u >= 0x80 {
		w.buf.WriteByte(byte(u) | 0x80)
		u >>= 7
	}
	w.buf.WriteByte(byte(u))
}

// WriteString writes s, or the null string when ok is false.
func (w *Writer) WriteString(s string, ok bool) {
	if !ok {
		w.WriteVarint(0, true)
		return
	}
	w.WriteVarint(len(s)+1, true)
	w.buf.WriteString(s)
}

// WriteStringRef writes the table index of s, or 0 when ok is false. The
// string must be in the table installed with SetStrings.
func (w *Writer) WriteStringRef(s string, ok bool) error {
	if !ok {
		w.WriteVarint(0, true)
		return nil
	}
	i, found := w.strings[s]
	if !found {
		return &model.MissingReferenceError{Kind: "string table entry", Name: s}
	}
	w.WriteVarint(i, true)
	return nil
}

func (w *Writer) WriteColor(c model.Color) {
	w.buf.Write([]byte{ColorByte(c.R), ColorByte(c.G), ColorByte(c.B), ColorByte(c.A)})
}

// ColorByte converts a 0..1 component to the byte Reader maps back to it.
func ColorByte(v float32) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return byte(v*255 + 0.5)
}
