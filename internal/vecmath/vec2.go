// Package vecmath implements the single-precision 2-D vector kernel shared
// by the spatial index, obstacle model, and ORCA solver.
package vecmath

import "math"

// Eps is the tolerance used for parallelism and feasibility checks
// throughout the ORCA pipeline.
const Eps = 1e-5

// Vec2 is a single-precision 2-D vector or point.
type Vec2 struct {
	X, Y float32
}

// Add returns a+b.
func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }

// Sub returns a-b.
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }

// Scale returns a*s.
func (a Vec2) Scale(s float32) Vec2 { return Vec2{a.X * s, a.Y * s} }

// Neg returns -a.
func (a Vec2) Neg() Vec2 { return Vec2{-a.X, -a.Y} }

// Dot returns the dot product a·b.
func (a Vec2) Dot(b Vec2) float32 { return a.X*b.X + a.Y*b.Y }

// LengthSq returns |a|^2.
func (a Vec2) LengthSq() float32 { return a.Dot(a) }

// Length returns |a|.
func (a Vec2) Length() float32 { return float32(math.Sqrt(float64(a.LengthSq()))) }

// DistSq returns |a-b|^2.
func (a Vec2) DistSq(b Vec2) float32 { return a.Sub(b).LengthSq() }

// Dist returns |a-b|.
func (a Vec2) Dist(b Vec2) float32 { return a.Sub(b).Length() }

// Normalize returns a/|a|, or the zero vector if a is (near) zero-length.
func (a Vec2) Normalize() Vec2 {
	l := a.Length()
	if l < 1e-10 {
		return Vec2{}
	}
	return a.Scale(1 / l)
}

// Rot90CW rotates a by -90 degrees: (x,y) -> (y,-x).
func (a Vec2) Rot90CW() Vec2 { return Vec2{a.Y, -a.X} }

// Rot90CCW rotates a by +90 degrees: (x,y) -> (-y,x).
func (a Vec2) Rot90CCW() Vec2 { return Vec2{-a.Y, a.X} }

// Det computes the 2-D determinant det(a,b) = a.x*b.y - a.y*b.x.
func Det(a, b Vec2) float32 { return a.X*b.Y - a.Y*b.X }

// LeftOf returns a signed measure of whether c is left of the line a->b.
// Positive means c is strictly left (CCW turn a,b,c); zero means collinear.
func LeftOf(a, b, c Vec2) float32 {
	return Det(a.Sub(c), b.Sub(a))
}

// DistSqPointSegment returns the squared distance from p to the segment v1-v2.
func DistSqPointSegment(v1, v2, p Vec2) float32 {
	e := v2.Sub(v1)
	lenSq := e.LengthSq()
	if lenSq < 1e-20 {
		return p.DistSq(v1)
	}
	r := p.Sub(v1).Dot(e) / lenSq
	if r < 0 {
		r = 0
	} else if r > 1 {
		r = 1
	}
	closest := v1.Add(e.Scale(r))
	return p.DistSq(closest)
}

// DistSqLine returns the squared distance from p to the infinite line
// through v1 and v2.
func DistSqLine(v1, v2, p Vec2) float32 {
	e := v2.Sub(v1)
	lenSq := e.LengthSq()
	if lenSq < 1e-20 {
		return p.DistSq(v1)
	}
	d := Det(e, p.Sub(v1))
	return (d * d) / lenSq
}

// Clamp restricts v to a disk of radius r, preserving direction.
func Clamp(v Vec2, r float32) Vec2 {
	lsq := v.LengthSq()
	if lsq <= r*r {
		return v
	}
	return v.Normalize().Scale(r)
}
