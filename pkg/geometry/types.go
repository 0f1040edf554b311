// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// Min returns the componentwise minimum of two points.
func (p Point2D) Min(other Point2D) Point2D {
	return Point2D{X: math.Min(p.X, other.X), Y: math.Min(p.Y, other.Y)}
}

// Max returns the componentwise maximum of two points.
func (p Point2D) Max(other Point2D) Point2D {
	return Point2D{X: math.Max(p.X, other.X), Y: math.Max(p.Y, other.Y)}
}

// Clamp returns the point clamped to [lo, hi] componentwise.
func (p Point2D) Clamp(lo, hi Point2D) Point2D {
	return p.Max(lo).Min(hi)
}
