package model

// BoneData is the setup pose of one bone. Parent is the index of the parent
// bone, or -1 for the root. Parent always precedes the bone in
// SkeletonData.Bones.
type BoneData struct {
	Index  int
	Name   string
	Parent int

	Length   float32
	X, Y     float32
	Rotation float32
	ScaleX   float32
	ScaleY   float32
	ShearX   float32
	ShearY   float32
	Inherit  Inherit

	SkinRequired bool

	// Editor-only data, present when the asset was exported with
	// nonessential data.
	Color   Color
	Icon    string
	Visible bool
}

// NewBoneData returns a bone with the documented defaults.
func NewBoneData(index int, name string, parent int) *BoneData {
	return &BoneData{
		Index:   index,
		Name:    name,
		Parent:  parent,
		ScaleX:  1,
		ScaleY:  1,
		Color:   Color{0.61, 0.61, 0.61, 1},
		Visible: true,
	}
}

// SlotData is the setup state of one slot.
type SlotData struct {
	Index int
	Name  string
	Bone  int

	Color          Color
	DarkColor      Color
	HasDarkColor   bool
	AttachmentName string
	Blend          BlendMode
	Visible        bool
}

func NewSlotData(index int, name string, bone int) *SlotData {
	return &SlotData{Index: index, Name: name, Bone: bone, Color: White, Visible: true}
}

// EventData is the definition of a named event and its default payload.
type EventData struct {
	Name      string
	Int       int32
	Float     float32
	String    string
	AudioPath string
	Volume    float32
	Balance   float32
}

func NewEventData(name string) *EventData {
	return &EventData{Name: name, Volume: 1}
}
