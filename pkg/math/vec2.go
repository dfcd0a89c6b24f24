// Package math provides the small vector type shared by the build and
// playback packages.
package math

import "math"

// Vec2 is a 2D vector in pixel space.
type Vec2 struct {
	X, Y float32
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Scale returns v * scalar.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Mul returns the component-wise product.
func (v Vec2) Mul(other Vec2) Vec2 {
	return Vec2{v.X * other.X, v.Y * other.Y}
}

// Rotate returns v rotated by angle radians (clockwise in a y-down space).
func (v Vec2) Rotate(angle float32) Vec2 {
	if angle == 0 {
		return v
	}
	s, c := math.Sincos(float64(angle))
	x, y := float64(v.X), float64(v.Y)
	return Vec2{float32(x*c - y*s), float32(x*s + y*c)}
}

// WrapAngle wraps a radian angle into (-pi, pi].
func WrapAngle(angle float64) float64 {
	angle = math.Remainder(angle, 2*math.Pi)
	if angle <= -math.Pi {
		angle += 2 * math.Pi
	} else if angle > math.Pi {
		angle -= 2 * math.Pi
	}
	return angle
}

// ToRadians converts degrees to radians.
func ToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
