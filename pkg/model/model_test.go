package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"ffffffff", Color{1, 1, 1, 1}, false},
		{"ff000080", Color{1, 0, 0, 128.0 / 255}, false},
		{"00ff00", Color{0, 1, 0, 1}, false},
		{"xyz", Color{}, true},
		{"gg0000ff", Color{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
	if hex := (Color{1, 0, 0, 128.0 / 255}).Hex(); hex != "ff000080" {
		t.Errorf("Expected ff000080, got %s", hex)
	}
}

func TestSkin_AttachmentLookup(t *testing.T) {
	skin := NewSkin("default")
	a := &Attachment{Kind: KindPoint, Name: "tip", Point: &PointAttachment{}}
	skin.SetAttachment(2, "tip", a)
	skin.SetAttachment(0, "head", &Attachment{Kind: KindRegion, Name: "head", Region: &RegionAttachment{}})
	skin.SetAttachment(2, "tail", &Attachment{Kind: KindPoint, Name: "tail", Point: &PointAttachment{}})

	if got := skin.Attachment(2, "tip"); got != a {
		t.Errorf("Expected stored attachment, got %v", got)
	}
	if got := skin.Attachment(1, "tip"); got != nil {
		t.Errorf("Expected nil for missing slot, got %v", got)
	}
	if got := skin.Attachment(2, "missing"); got != nil {
		t.Errorf("Expected nil for missing name, got %v", got)
	}

	groups := skin.SlotEntries()
	if len(groups) != 2 || groups[0][0].Slot != 0 || len(groups[1]) != 2 {
		t.Fatalf("Expected two slot groups, got %+v", groups)
	}
	if groups[1][0].Name != "tip" || groups[1][1].Name != "tail" {
		t.Errorf("Expected insertion order within slot, got %s, %s", groups[1][0].Name, groups[1][1].Name)
	}
}

func TestSequence_Path(t *testing.T) {
	seq := &Sequence{Count: 3, Start: 1, Digits: 2, SetupIndex: 1}
	if got := seq.Path("fx/spark", 0); got != "fx/spark01" {
		t.Errorf("Expected fx/spark01, got %s", got)
	}
	if got := seq.Path("fx/spark", -1); got != "fx/spark02" {
		t.Errorf("Expected setup frame fx/spark02, got %s", got)
	}
}

func TestSkeletonData_ConstraintOrder(t *testing.T) {
	sd := NewSkeletonData()
	ik := NewIKConstraintData("aim")
	ik.Order = 2
	tc := NewTransformConstraintData("follow")
	tc.Order = 0
	ph := NewPhysicsConstraintData("hair")
	ph.Order = 1
	sd.IKConstraints = append(sd.IKConstraints, ik)
	sd.TransformConstraints = append(sd.TransformConstraints, tc)
	sd.PhysicsConstraints = append(sd.PhysicsConstraints, ph)

	var names []string
	for _, ref := range sd.ConstraintOrder() {
		names = append(names, ref.Name)
	}
	if fmt.Sprint(names) != "[follow hair aim]" {
		t.Errorf("Expected [follow hair aim], got %v", names)
	}
}

func TestErrors_Unwrap(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("load: %w", &IOError{Path: "a.skel", Err: base})
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Path != "a.skel" {
		t.Fatalf("Expected IOError through wrapping, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Errorf("Expected IOError to unwrap to its cause")
	}

	pe := &ParseError{Offset: 12, Msg: "unexpected end of data"}
	if pe.Error() != "parse error at byte 12: unexpected end of data" {
		t.Errorf("Unexpected message: %s", pe.Error())
	}
}
