package world

import "math"

// Vec2 is a 2D world-space vector.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale returns v multiplied by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Length returns the Euclidean magnitude of v.
func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// LengthSq returns the squared magnitude of v.
func (v Vec2) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Normalized returns v scaled to unit length, or the zero vector when v has
// no magnitude.
func (v Vec2) Normalized() Vec2 {
	length := v.Length()
	if length == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / length, Y: v.Y / length}
}

// DistanceTo returns the Euclidean distance between v and other.
func (v Vec2) DistanceTo(other Vec2) float64 {
	return math.Hypot(other.X-v.X, other.Y-v.Y)
}

// DistanceSqTo returns the squared distance between v and other.
func (v Vec2) DistanceSqTo(other Vec2) float64 {
	dx := other.X - v.X
	dy := other.Y - v.Y
	return dx*dx + dy*dy
}

// Clamp limits value to the inclusive [min, max] range.
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Rect is an axis-aligned world-space bounding box.
type Rect struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Clamp returns p constrained to lie inside r.
func (r Rect) Clamp(p Vec2) Vec2 {
	return Vec2{
		X: Clamp(p.X, r.MinX, r.MaxX),
		Y: Clamp(p.Y, r.MinY, r.MaxY),
	}
}
