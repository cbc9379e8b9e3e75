// Package binio reads and writes the primitives of the binary skeleton
// format: big-endian integers and floats, variable-length integers,
// length-prefixed strings and references into a string table.
package binio

import (
	"math"

	"github.com/decker502/spine2d/pkg/model"
)

// Reader decodes primitives sequentially from a byte slice. Every method
// returns a *model.ParseError carrying the current offset when the data is
// exhausted.
type Reader struct {
	data []byte
	pos  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the position of the next byte to read.
func (r *Reader) Offset() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Errorf builds a ParseError at the current offset.
func (r *Reader) Errorf(msg string) error {
	return &model.ParseError{Offset: r.pos, Msg: msg}
}

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.data) {
		return &model.ParseError{Offset: r.pos, Msg: "unexpected end of data"}
	}
	return nil
}

func (r *Reader) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) ReadSByte() (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

// ReadInt reads a big-endian 32-bit integer.
func (r *Reader) ReadInt() (int32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	d := r.data[r.pos : r.pos+4]
	r.pos += 4
	return int32(uint32(d[0])<<24 | uint32(d[1])<<16 | uint32(d[2])<<8 | uint32(d[3])), nil
}

// ReadFloat reads a big-endian IEEE-754 float.
func (r *Reader) ReadFloat() (float32, error) {
	v, err := r.ReadInt()
	return math.Float32frombits(uint32(v)), err
}

// ReadVarint reads a 1 to 5 byte variable-length integer. When
// optimizePositive is false the value is zig-zag decoded.
func (r *Reader) ReadVarint(optimizePositive bool) (int, error) {
	var value uint32
	for shift := 0; shift <= 28; shift += 7 {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		value |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
	}
	if !optimizePositive {
		value = value>>1 ^ -(value & 1)
	}
	return int(int32(value)), nil
}

// ReadCount reads a non-negative varint used as an element count and checks
// that it could possibly fit in the remaining data.
func (r *Reader) ReadCount() (int, error) {
	n, err := r.ReadVarint(true)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > r.Remaining() {
		return 0, &model.ParseError{Offset: r.pos, Msg: "invalid count"}
	}
	return n, nil
}

// ReadString reads a length-prefixed string. ok is false for the null
// string, which is encoded with length 0.
func (r *Reader) ReadString() (s string, ok bool, err error) {
	n, err := r.ReadVarint(true)
	if err != nil {
		return "", false, err
	}
	if n == 0 {
		return "", false, nil
	}
	n--
	if n < 0 {
		return "", false, r.Errorf("invalid string length")
	}
	if err := r.need(n); err != nil {
		return "", false, err
	}
	s = string(r.data[r.pos : r.pos+n])
	r.pos += n
	return s, true, nil
}

// ReadStringRef reads an index into table. Index 0 is the null string, so
// ok is false; index N refers to table[N-1].
func (r *Reader) ReadStringRef(table []string) (s string, ok bool, err error) {
	i, err := r.ReadVarint(true)
	if err != nil {
		return "", false, err
	}
	if i == 0 {
		return "", false, nil
	}
	if i < 0 || i > len(table) {
		return "", false, r.Errorf("string reference out of range")
	}
	return table[i-1], true, nil
}

// ReadColor reads four bytes as r, g, b, a in the 0..1 range.
func (r *Reader) ReadColor() (model.Color, error) {
	if err := r.need(4); err != nil {
		return model.Color{}, err
	}
	d := r.data[r.pos : r.pos+4]
	r.pos += 4
	return model.Color{
		R: float32(d[0]) / 255,
		G: float32(d[1]) / 255,
		B: float32(d[2]) / 255,
		A: float32(d[3]) / 255,
	}, nil
}
