package model

import (
	"fmt"

	"github.com/decker502/spine2d/pkg/timeline"
)

// AttachmentKind is the variant tag of an Attachment. The values match the
// type bits of the binary attachment flags.
type AttachmentKind int

const (
	KindRegion AttachmentKind = iota
	KindBoundingBox
	KindMesh
	KindLinkedMesh
	KindPath
	KindPoint
	KindClipping
)

var kindNames = []string{"region", "boundingbox", "mesh", "linkedmesh", "path", "point", "clipping"}

func (k AttachmentKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseAttachmentKind maps a JSON "type" value to its kind.
func ParseAttachmentKind(s string) (AttachmentKind, bool) {
	for i, name := range kindNames {
		if name == s {
			return AttachmentKind(i), true
		}
	}
	return 0, false
}

// Attachment is a closed tagged union over the attachment variants. Exactly
// one payload pointer matching Kind is set; KindMesh and KindLinkedMesh both
// use Mesh.
type Attachment struct {
	Kind AttachmentKind
	Name string

	// Key identifies the attachment by where it was loaded. TimelineKey is
	// the key deform and sequence timelines must target to affect this
	// attachment; it differs from Key only for linked meshes that inherit
	// their parent's timelines.
	Key         timeline.AttachmentKey
	TimelineKey timeline.AttachmentKey

	Region      *RegionAttachment
	Mesh        *MeshAttachment
	BoundingBox *BoundingBoxAttachment
	Path        *PathAttachment
	Point       *PointAttachment
	Clipping    *ClippingAttachment
}

// Vertices returns the vertex data of vertex-bearing attachments, or nil for
// region and point attachments.
func (a *Attachment) Vertices() *Vertices {
	switch a.Kind {
	case KindMesh, KindLinkedMesh:
		return &a.Mesh.Vertices
	case KindBoundingBox:
		return &a.BoundingBox.Vertices
	case KindPath:
		return &a.Path.Vertices
	case KindClipping:
		return &a.Clipping.Vertices
	}
	return nil
}

// Sequence returns the region sequence of region and mesh attachments.
func (a *Attachment) Sequence() *Sequence {
	switch a.Kind {
	case KindRegion:
		return a.Region.Sequence
	case KindMesh, KindLinkedMesh:
		return a.Mesh.Sequence
	}
	return nil
}

// RegionPath returns the atlas region name to draw, or "" for attachments
// that are not drawn from the atlas. sequenceIndex selects the sequence frame
// when the attachment has one; -1 selects the setup frame.
func (a *Attachment) RegionPath(sequenceIndex int) string {
	var path string
	switch a.Kind {
	case KindRegion:
		path = a.Region.Path
	case KindMesh, KindLinkedMesh:
		path = a.Mesh.Path
	default:
		return ""
	}
	if seq := a.Sequence(); seq != nil {
		return seq.Path(path, sequenceIndex)
	}
	return path
}

// Vertices holds the vertices of a vertex-bearing attachment. When Bones is
// nil the attachment is unweighted and Values holds x,y pairs in the slot
// bone's space. Otherwise Bones holds, per vertex, a bone count followed by
// that many bone indices, and Values holds an x,y,weight triple per bone.
type Vertices struct {
	Bones               []int
	Values              []float32
	WorldVerticesLength int
}

func (v *Vertices) Weighted() bool { return v.Bones != nil }

// VertexCount returns the number of vertices.
func (v *Vertices) VertexCount() int { return v.WorldVerticesLength / 2 }

// DeformLength returns the number of floats a deform key holds for these
// vertices.
func (v *Vertices) DeformLength() int {
	if v.Weighted() {
		return len(v.Values) / 3 * 2
	}
	return len(v.Values)
}

// Sequence describes numbered atlas regions an attachment cycles through.
type Sequence struct {
	Count      int
	Start      int
	Digits     int
	SetupIndex int
}

// Path returns basePath suffixed with the zero padded frame number of index.
// A negative index selects SetupIndex.
func (s *Sequence) Path(basePath string, index int) string {
	if index < 0 {
		index = s.SetupIndex
	}
	return fmt.Sprintf("%s%0*d", basePath, s.Digits, s.Start+index)
}

type RegionAttachment struct {
	Path     string
	X, Y     float32
	Rotation float32
	ScaleX   float32
	ScaleY   float32
	Width    float32
	Height   float32
	Color    Color
	Sequence *Sequence
}

// LinkedMesh records the parent a linked mesh was resolved from.
type LinkedMesh struct {
	Skin             int
	Parent           string
	InheritTimelines bool
}

// MeshAttachment is a triangulated textured polygon. HullLength is the number
// of vertices on the hull, which come first. A linked mesh shares Vertices,
// UVs, Triangles, HullLength and Edges with its parent.
type MeshAttachment struct {
	Path       string
	Color      Color
	Sequence   *Sequence
	Vertices   Vertices
	UVs        []float32
	Triangles  []int
	HullLength int
	Edges      []int
	Width      float32
	Height     float32
	Linked     *LinkedMesh
}

type BoundingBoxAttachment struct {
	Vertices Vertices
	Color    Color
}

type PathAttachment struct {
	Vertices      Vertices
	Lengths       []float32
	Closed        bool
	ConstantSpeed bool
	Color         Color
}

type PointAttachment struct {
	X, Y     float32
	Rotation float32
	Color    Color
}

type ClippingAttachment struct {
	Vertices Vertices
	EndSlot  int
	Color    Color
}
