package binio

import (
	"errors"
	"math"
	"testing"

	"github.com/decker502/spine2d/pkg/model"
)

func TestReader_Varint(t *testing.T) {
	tests := []struct {
		name             string
		data             []byte
		optimizePositive bool
		want             int
	}{
		{"single byte", []byte{0x05}, true, 5},
		{"two bytes", []byte{0xac, 0x02}, true, 300},
		{"zigzag positive", []byte{0x04}, false, 2},
		{"zigzag negative", []byte{0x03}, false, -2},
		{"five bytes", []byte{0xff, 0xff, 0xff, 0xff, 0x07}, true, math.MaxInt32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.data)
			got, err := r.ReadVarint(tt.optimizePositive)
			if err != nil {
				t.Fatalf("ReadVarint failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
			if r.Remaining() != 0 {
				t.Errorf("Expected all bytes consumed, %d left", r.Remaining())
			}
		})
	}
}

func TestReader_Primitives(t *testing.T) {
	data := []byte{
		0x3f, 0x80, 0x00, 0x00, // 1.0
		0xff, 0xff, 0xff, 0xfe, // -2
		0x00,                 // null string
		0x04, 'h', 'i', 'p', // "hip"
		0x02,                   // string ref 2
		0xff, 0x00, 0x00, 0xff, // red
	}
	r := NewReader(data)

	f, err := r.ReadFloat()
	if err != nil || f != 1 {
		t.Fatalf("Expected 1.0, got %v (%v)", f, err)
	}
	i, err := r.ReadInt()
	if err != nil || i != -2 {
		t.Fatalf("Expected -2, got %v (%v)", i, err)
	}
	if _, ok, err := r.ReadString(); ok || err != nil {
		t.Fatalf("Expected null string, got ok=%v err=%v", ok, err)
	}
	if s, ok, err := r.ReadString(); !ok || err != nil || s != "hip" {
		t.Fatalf("Expected hip, got %q ok=%v err=%v", s, ok, err)
	}
	if s, ok, err := r.ReadStringRef([]string{"root", "hip"}); !ok || err != nil || s != "hip" {
		t.Fatalf("Expected string ref hip, got %q ok=%v err=%v", s, ok, err)
	}
	c, err := r.ReadColor()
	if err != nil || c != (model.Color{R: 1, A: 1}) {
		t.Fatalf("Expected red, got %v (%v)", c, err)
	}
}

func TestReader_Underrun(t *testing.T) {
	r := NewReader([]byte{0x00, 0x01})
	_, err := r.ReadInt()
	var pe *model.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
	if pe.Offset != 0 {
		t.Errorf("Expected offset 0, got %d", pe.Offset)
	}

	r = NewReader([]byte{0x05, 'a'})
	if _, _, err := r.ReadString(); err == nil {
		t.Error("Expected error for truncated string")
	}

	r = NewReader([]byte{0x03})
	if _, _, err := r.ReadStringRef([]string{"a"}); err == nil {
		t.Error("Expected error for string reference out of range")
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	w := NewWriter()
	w.SetStrings([]string{"root", "hip"})
	w.WriteFloat(-3.5)
	w.WriteInt(123456789)
	w.WriteVarint(-70000, false)
	w.WriteVarint(70000, true)
	w.WriteString("walk", true)
	w.WriteString("", false)
	if err := w.WriteStringRef("hip", true); err != nil {
		t.Fatalf("WriteStringRef failed: %v", err)
	}
	w.WriteBool(true)
	w.WriteColor(model.Color{R: 0.5, G: 1, B: 0, A: 1})

	r := NewReader(w.Bytes())
	if f, _ := r.ReadFloat(); f != -3.5 {
		t.Errorf("Expected -3.5, got %v", f)
	}
	if i, _ := r.ReadInt(); i != 123456789 {
		t.Errorf("Expected 123456789, got %v", i)
	}
	if v, _ := r.ReadVarint(false); v != -70000 {
		t.Errorf("Expected -70000, got %v", v)
	}
	if v, _ := r.ReadVarint(true); v != 70000 {
		t.Errorf("Expected 70000, got %v", v)
	}
	if s, ok, _ := r.ReadString(); !ok || s != "walk" {
		t.Errorf("Expected walk, got %q", s)
	}
	if _, ok, _ := r.ReadString(); ok {
		t.Error("Expected null string")
	}
	if s, _, _ := r.ReadStringRef([]string{"root", "hip"}); s != "hip" {
		t.Errorf("Expected hip, got %q", s)
	}
	if b, _ := r.ReadBool(); !b {
		t.Error("Expected true")
	}
	c, _ := r.ReadColor()
	if c.R != 128.0/255 || c.G != 1 || c.B != 0 {
		t.Errorf("Unexpected color %v", c)
	}

	if err := w.WriteStringRef("missing", true); err == nil {
		t.Error("Expected error for string not in table")
	}
}
