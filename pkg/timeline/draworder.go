package timeline

import "fmt"

// DrawOrderTimeline reorders slots at each key. A nil order restores the
// setup draw order.
type DrawOrderTimeline struct {
	frameSet
	SlotCount  int
	DrawOrders [][]int
}

func NewDrawOrderTimeline(slotCount, frameCount int) *DrawOrderTimeline {
	return &DrawOrderTimeline{
		frameSet:   newFrameSet(frameCount, 1),
		SlotCount:  slotCount,
		DrawOrders: make([][]int, frameCount),
	}
}

func (t *DrawOrderTimeline) SetFrame(frame int, time float32, drawOrder []int) {
	t.frames[frame] = time
	t.DrawOrders[frame] = drawOrder
}

// DrawOrder returns the slot permutation in effect at time, or nil for the
// setup order.
func (t *DrawOrderTimeline) DrawOrder(time float32) []int {
	return t.DrawOrders[search(t.frames, time, 1)]
}

// SlotOffset moves one slot by Offset positions relative to its setup index.
type SlotOffset struct {
	Slot   int
	Offset int
}

// ExpandDrawOrder builds a full draw order from a sparse list of moved slots.
// Offsets must be sorted by slot index. Slots not listed keep their relative
// setup order and fill the positions left free.
func ExpandDrawOrder(slotCount int, offsets []SlotOffset) ([]int, error) {
	if len(offsets) > slotCount {
		return nil, fmt.Errorf("draw order has %d offsets for %d slots", len(offsets), slotCount)
	}
	drawOrder := make([]int, slotCount)
	for i := range drawOrder {
		drawOrder[i] = -1
	}
	unchanged := make([]int, 0, slotCount-len(offsets))
	original := 0
	for _, o := range offsets {
		if o.Slot < original || o.Slot >= slotCount {
			return nil, fmt.Errorf("draw order slot %d out of order or range", o.Slot)
		}
		for original != o.Slot {
			unchanged = append(unchanged, original)
			original++
		}
		target := original + o.Offset
		if target < 0 || target >= slotCount || drawOrder[target] != -1 {
			return nil, fmt.Errorf("draw order offset %d for slot %d is invalid", o.Offset, o.Slot)
		}
		drawOrder[target] = original
		original++
	}
	for original < slotCount {
		unchanged = append(unchanged, original)
		original++
	}
	next := len(unchanged)
	for i := slotCount - 1; i >= 0; i-- {
		if drawOrder[i] == -1 {
			next--
			drawOrder[i] = unchanged[next]
		}
	}
	return drawOrder, nil
}

// CompactDrawOrder is the inverse of ExpandDrawOrder: it lists every slot
// whose position differs from its setup index.
func CompactDrawOrder(drawOrder []int) []SlotOffset {
	if drawOrder == nil {
		return nil
	}
	position := make([]int, len(drawOrder))
	for pos, slot := range drawOrder {
		position[slot] = pos
	}
	var offsets []SlotOffset
	for slot, pos := range position {
		if pos != slot {
			offsets = append(offsets, SlotOffset{Slot: slot, Offset: pos - slot})
		}
	}
	return offsets
}
