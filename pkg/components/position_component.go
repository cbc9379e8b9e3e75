package components

// PositionComponent places an entity in world space. For skeleton entities
// it drives the skeleton root position each frame.
type PositionComponent struct {
	X, Y float32
}
