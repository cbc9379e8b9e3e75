package model

import "sort"

// Skin maps (slot index, attachment name) to attachments. A skin also lists
// the skin-required bones and constraints it activates.
type Skin struct {
	Name  string
	Color Color

	Bones                []int
	IKConstraints        []int
	TransformConstraints []int
	PathConstraints      []int
	PhysicsConstraints   []int

	attachments map[skinKey]*Attachment
	order       []skinKey
}

type skinKey struct {
	slot int
	name string
}

// SkinEntry is one attachment of a skin.
type SkinEntry struct {
	Slot       int
	Name       string
	Attachment *Attachment
}

func NewSkin(name string) *Skin {
	return &Skin{Name: name, Color: Color{0.99607843, 0.61960787, 0.30980393, 1}, attachments: make(map[skinKey]*Attachment)}
}

// SetAttachment adds or replaces the attachment for slot and name.
func (s *Skin) SetAttachment(slot int, name string, a *Attachment) {
	k := skinKey{slot, name}
	if _, exists := s.attachments[k]; !exists {
		s.order = append(s.order, k)
	}
	s.attachments[k] = a
}

// Attachment returns the attachment for slot and name, or nil.
func (s *Skin) Attachment(slot int, name string) *Attachment {
	return s.attachments[skinKey{slot, name}]
}

// Len returns the number of attachments in the skin.
func (s *Skin) Len() int { return len(s.order) }

// Entries returns every attachment ordered by slot index, keeping insertion
// order within a slot.
func (s *Skin) Entries() []SkinEntry {
	entries := make([]SkinEntry, 0, len(s.order))
	for _, k := range s.order {
		entries = append(entries, SkinEntry{Slot: k.slot, Name: k.name, Attachment: s.attachments[k]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Slot < entries[j].Slot })
	return entries
}

// SlotEntries groups Entries by slot, in ascending slot order.
func (s *Skin) SlotEntries() [][]SkinEntry {
	var groups [][]SkinEntry
	for _, e := range s.Entries() {
		if n := len(groups); n > 0 && groups[n-1][0].Slot == e.Slot {
			groups[n-1] = append(groups[n-1], e)
			continue
		}
		groups = append(groups, []SkinEntry{e})
	}
	return groups
}
