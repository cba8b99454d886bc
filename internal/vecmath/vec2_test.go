package vecmath

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func TestDet(t *testing.T) {
	tests := []struct {
		a, b Vec2
		want float32
	}{
		{Vec2{1, 0}, Vec2{0, 1}, 1},
		{Vec2{0, 1}, Vec2{1, 0}, -1},
		{Vec2{1, 1}, Vec2{2, 2}, 0},
	}
	for _, tt := range tests {
		got := Det(tt.a, tt.b)
		if !almostEqual(got, tt.want, 1e-6) {
			t.Errorf("Det(%v,%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLeftOf(t *testing.T) {
	// a=(0,0) b=(1,0): c above the line is left (positive).
	a := Vec2{0, 0}
	b := Vec2{1, 0}
	above := Vec2{0.5, 1}
	below := Vec2{0.5, -1}
	if LeftOf(a, b, above) <= 0 {
		t.Errorf("expected point above to be left of a->b")
	}
	if LeftOf(a, b, below) >= 0 {
		t.Errorf("expected point below to be right of a->b")
	}
}

func TestDistSqPointSegment(t *testing.T) {
	v1 := Vec2{0, 0}
	v2 := Vec2{10, 0}

	tests := []struct {
		p    Vec2
		want float32
	}{
		{Vec2{5, 0}, 0},
		{Vec2{5, 3}, 9},
		{Vec2{-2, 0}, 4},  // clamps to v1
		{Vec2{12, 0}, 4},  // clamps to v2
		{Vec2{-2, 4}, 20}, // clamps to v1, dist^2 = 4+16
	}
	for _, tt := range tests {
		got := DistSqPointSegment(v1, v2, tt.p)
		if !almostEqual(got, tt.want, 1e-3) {
			t.Errorf("DistSqPointSegment(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestDistSqLineVsSegment(t *testing.T) {
	v1 := Vec2{0, 0}
	v2 := Vec2{10, 0}
	p := Vec2{-5, 3}
	// Infinite line distance should only depend on perpendicular offset.
	lineDist := DistSqLine(v1, v2, p)
	if !almostEqual(lineDist, 9, 1e-3) {
		t.Errorf("DistSqLine = %v, want 9", lineDist)
	}
	segDist := DistSqPointSegment(v1, v2, p)
	if segDist <= lineDist {
		t.Errorf("segment distance should be >= line distance for point beyond endpoint")
	}
}

func TestNormalizeZero(t *testing.T) {
	z := Vec2{}.Normalize()
	if z != (Vec2{}) {
		t.Errorf("Normalize of zero vector should be zero, got %v", z)
	}
}

func TestClamp(t *testing.T) {
	v := Vec2{3, 4} // length 5
	c := Clamp(v, 10)
	if c != v {
		t.Errorf("Clamp should be no-op within radius, got %v", c)
	}
	c2 := Clamp(v, 2.5)
	if !almostEqual(c2.Length(), 2.5, 1e-4) {
		t.Errorf("Clamp should scale to radius, got length %v", c2.Length())
	}
}

func TestRotations(t *testing.T) {
	v := Vec2{1, 0}
	if got := v.Rot90CCW(); !almostEqual(got.X, 0, 1e-6) || !almostEqual(got.Y, 1, 1e-6) {
		t.Errorf("Rot90CCW(%v) = %v, want (0,1)", v, got)
	}
	if got := v.Rot90CW(); !almostEqual(got.X, 0, 1e-6) || !almostEqual(got.Y, -1, 1e-6) {
		t.Errorf("Rot90CW(%v) = %v, want (0,-1)", v, got)
	}
}
