package pose

import "github.com/decker502/spine2d/pkg/model"

// Slot is the mutable state of one slot: its colors, the attachment it
// shows, and the per-attachment deform and sequence state.
type Slot struct {
	Data *model.SlotData
	Bone *Bone

	Color        model.Color
	DarkColor    model.Color
	HasDarkColor bool

	Attachment *model.Attachment

	// Deform holds the deformed vertices of the current attachment. It is
	// empty when no deform timeline applies.
	Deform []float32

	// SequenceIndex selects the region of an attachment sequence, -1 for the
	// sequence's setup index.
	SequenceIndex int
}

// SetAttachment changes the attachment and resets the state tied to the
// previous one. Setting the current attachment again is a no-op.
func (s *Slot) SetAttachment(a *model.Attachment) {
	if s.Attachment == a {
		return
	}
	if a == nil || s.Attachment == nil || a.TimelineKey != s.Attachment.TimelineKey {
		s.Deform = s.Deform[:0]
	}
	s.Attachment = a
	s.SequenceIndex = -1
}

func (s *Slot) setToSetupPose(sk *Skeleton) {
	d := s.Data
	s.Color = d.Color
	s.DarkColor = d.DarkColor
	s.HasDarkColor = d.HasDarkColor
	s.Deform = s.Deform[:0]
	s.SequenceIndex = -1
	s.Attachment = nil
	if d.AttachmentName != "" {
		s.Attachment = sk.Attachment(d.Index, d.AttachmentName)
	}
}

// RegionPath returns the atlas region name the slot currently shows, or ""
// when its attachment has no region.
func (s *Slot) RegionPath() string {
	if s.Attachment == nil {
		return ""
	}
	return s.Attachment.RegionPath(s.SequenceIndex)
}
