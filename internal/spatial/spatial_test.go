package spatial

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orcacrowd/orca-sim/internal/vecmath"
)

func bruteKNearest(points []vecmath.Vec2, p vecmath.Vec2, k int) []int {
	type hit struct {
		idx    int
		distSq float32
	}
	hits := make([]hit, len(points))
	for i, q := range points {
		hits[i] = hit{i, q.DistSq(p)}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].distSq < hits[j].distSq })
	if k > len(hits) {
		k = len(hits)
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = hits[i].idx
	}
	return out
}

func bruteRadius(points []vecmath.Vec2, p vecmath.Vec2, r float32) []int {
	var out []int
	for i, q := range points {
		if q.DistSq(p) <= r*r {
			out = append(out, i)
		}
	}
	return out
}

func asSet(idx []int) map[int]bool {
	m := make(map[int]bool, len(idx))
	for _, i := range idx {
		m[i] = true
	}
	return m
}

func randomPoints(n int, seed int64) []vecmath.Vec2 {
	r := rand.New(rand.NewSource(seed))
	pts := make([]vecmath.Vec2, n)
	for i := range pts {
		pts[i] = vecmath.Vec2{
			X: float32(r.Float64()*100 - 50),
			Y: float32(r.Float64()*100 - 50),
		}
	}
	return pts
}

func newIndexes() map[string]Index {
	return map[string]Index{
		"grid":     NewGrid(5),
		"kdtree":   NewKDTree(),
		"bvh":      NewBVH(4),
		"quadtree": NewQuadTree(vecmath.Vec2{X: -60, Y: -60}, vecmath.Vec2{X: 60, Y: 60}, 4),
	}
}

// TestKNearestMatchesBruteForce checks S4: QueryKNearest sorted equals
// QueryKNearestSorted(+Inf) as sets, and both match brute force, for every
// index variant.
func TestKNearestMatchesBruteForce(t *testing.T) {
	points := randomPoints(1000, 42)
	query := vecmath.Vec2{X: 0, Y: 0}
	k := 10
	want := asSet(bruteKNearest(points, query, k))

	for name, idx := range newIndexes() {
		idx.BuildAsync(points)

		unsorted := idx.QueryKNearest(query, k, nil)
		sorted := idx.QueryKNearestSorted(query, k, float32(math.Inf(1)), nil)

		assert.Equal(t, len(want), len(unsorted), "%s: unsorted result count", name)
		assert.Equal(t, want, asSet(unsorted), "%s: unsorted result set", name)
		assert.Equal(t, want, asSet(sorted), "%s: sorted result set", name)
	}
}

// TestRadiusQueryExact checks queryRadius returns exactly the points
// within r, for every index variant.
func TestRadiusQueryExact(t *testing.T) {
	points := randomPoints(500, 7)
	query := vecmath.Vec2{X: 3, Y: -4}
	r := float32(12)
	want := asSet(bruteRadius(points, query, r))

	for name, idx := range newIndexes() {
		idx.BuildAsync(points)
		got := idx.QueryRadius(query, r, nil)
		assert.Equal(t, want, asSet(got), "%s: radius query set", name)
	}
}

// TestKNearestSortedOrder checks that QueryKNearestSorted actually returns
// ascending distances.
func TestKNearestSortedOrder(t *testing.T) {
	points := randomPoints(200, 99)
	query := vecmath.Vec2{X: 10, Y: 10}

	for name, idx := range newIndexes() {
		idx.BuildAsync(points)
		sorted := idx.QueryKNearestSorted(query, 15, 1000, nil)
		for i := 1; i < len(sorted); i++ {
			d1 := points[sorted[i-1]].DistSq(query)
			d2 := points[sorted[i]].DistSq(query)
			assert.LessOrEqual(t, d1, d2, "%s: result not sorted at index %d", name, i)
		}
	}
}

// TestRebuildIdempotent checks that rebuilding an index on identical
// positions yields identical query results for identical queries.
func TestRebuildIdempotent(t *testing.T) {
	points := randomPoints(300, 5)
	query := vecmath.Vec2{X: -5, Y: 5}

	for name, idx := range newIndexes() {
		idx.BuildAsync(points)
		first := idx.QueryKNearestSorted(query, 8, 1000, nil)
		idx.BuildAsync(points)
		second := idx.QueryKNearestSorted(query, 8, 1000, nil)
		assert.Equal(t, first, second, "%s: rebuild should be idempotent", name)
	}
}

func TestEmptyIndex(t *testing.T) {
	for name, idx := range newIndexes() {
		idx.BuildAsync(nil)
		assert.Empty(t, idx.QueryKNearest(vecmath.Vec2{}, 5, nil), name)
		assert.Empty(t, idx.QueryRadius(vecmath.Vec2{}, 5, nil), name)
	}
}
