package model

// Inherit controls how much of its parent's world transform a bone inherits.
type Inherit int

const (
	InheritNormal Inherit = iota
	InheritOnlyTranslation
	InheritNoRotationOrReflection
	InheritNoScale
	InheritNoScaleOrReflection
)

var inheritNames = []string{"normal", "onlyTranslation", "noRotationOrReflection", "noScale", "noScaleOrReflection"}

func (i Inherit) String() string {
	if i < 0 || int(i) >= len(inheritNames) {
		return "unknown"
	}
	return inheritNames[i]
}

// ParseInherit maps a JSON inherit name to its value. The second result is
// false for unknown names.
func ParseInherit(s string) (Inherit, bool) {
	for i, name := range inheritNames {
		if name == s {
			return Inherit(i), true
		}
	}
	return InheritNormal, false
}

// BlendMode selects how a slot's attachment is composited.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendAdditive
	BlendMultiply
	BlendScreen
)

var blendNames = []string{"normal", "additive", "multiply", "screen"}

func (b BlendMode) String() string {
	if b < 0 || int(b) >= len(blendNames) {
		return "unknown"
	}
	return blendNames[b]
}

func ParseBlendMode(s string) (BlendMode, bool) {
	for i, name := range blendNames {
		if name == s {
			return BlendMode(i), true
		}
	}
	return BlendNormal, false
}

type PositionMode int

const (
	PositionFixed PositionMode = iota
	PositionPercent
)

type SpacingMode int

const (
	SpacingLength SpacingMode = iota
	SpacingFixed
	SpacingPercent
	SpacingProportional
)

type RotateMode int

const (
	RotateTangent RotateMode = iota
	RotateChain
	RotateChainScale
)

var (
	positionNames = []string{"fixed", "percent"}
	spacingNames  = []string{"length", "fixed", "percent", "proportional"}
	rotateNames   = []string{"tangent", "chain", "chainScale"}
)

func (m PositionMode) String() string { return enumName(positionNames, int(m)) }
func (m SpacingMode) String() string  { return enumName(spacingNames, int(m)) }
func (m RotateMode) String() string   { return enumName(rotateNames, int(m)) }

func ParsePositionMode(s string) (PositionMode, bool) {
	i, ok := enumIndex(positionNames, s)
	return PositionMode(i), ok
}

func ParseSpacingMode(s string) (SpacingMode, bool) {
	i, ok := enumIndex(spacingNames, s)
	return SpacingMode(i), ok
}

func ParseRotateMode(s string) (RotateMode, bool) {
	i, ok := enumIndex(rotateNames, s)
	return RotateMode(i), ok
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return "unknown"
	}
	return names[i]
}

func enumIndex(names []string, s string) (int, bool) {
	for i, name := range names {
		if name == s {
			return i, true
		}
	}
	return 0, false
}
