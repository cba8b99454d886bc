package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type position struct{ X, Y float32 }
type velocity struct{ X, Y float32 }

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	s := NewStore()
	a := s.Create()
	b := s.Create()
	assert.NotEqual(t, a, b)
	assert.True(t, s.Alive(a))
	assert.True(t, s.Alive(b))
}

func TestCreateWithIDAdvancesCounterAndIsIdempotent(t *testing.T) {
	s := NewStore()
	reserved := s.CreateWithID(100)
	assert.Equal(t, EntityID(100), reserved)

	next := s.Create()
	assert.Equal(t, EntityID(101), next)

	again := s.CreateWithID(100)
	assert.Equal(t, reserved, again, "re-reserving a live id is a no-op returning the prior handle")
}

func TestAddGetHas(t *testing.T) {
	s := NewStore()
	e := s.Create()

	assert.False(t, Has[position](s, e))

	err := Add(s, e, position{X: 1, Y: 2})
	assert.NoError(t, err)
	assert.True(t, Has[position](s, e))

	p, ok := Get[position](s, e)
	assert.True(t, ok)
	assert.Equal(t, float32(1), p.X)

	p.X = 99
	p2, _ := Get[position](s, e)
	assert.Equal(t, float32(99), p2.X, "Get returns a live pointer into the dense array")

	ro, ok := GetReadOnly[position](s, e)
	assert.True(t, ok)
	assert.Equal(t, float32(99), ro.X)
}

func TestAddOnUnknownEntityFails(t *testing.T) {
	s := NewStore()
	err := Add(s, EntityID(12345), position{})
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestDestroyRemovesFromAllPools(t *testing.T) {
	s := NewStore()
	e := s.Create()
	_ = Add(s, e, position{X: 1})
	_ = Add(s, e, velocity{X: 2})

	s.Destroy(e)

	assert.False(t, s.Alive(e))
	assert.False(t, Has[position](s, e))
	assert.False(t, Has[velocity](s, e))
	assert.Equal(t, 0, Len[position](s))
	assert.Equal(t, 0, Len[velocity](s))
}

func TestSwapRemoveKeepsDenseArrayContiguous(t *testing.T) {
	s := NewStore()
	var ids []EntityID
	for i := 0; i < 5; i++ {
		e := s.Create()
		_ = Add(s, e, position{X: float32(i)})
		ids = append(ids, e)
	}

	// Remove the middle entity; the dense array must compact to length 4
	// with no gaps, and every remaining entity must still resolve to its
	// own component.
	s.Destroy(ids[2])

	assert.Equal(t, 4, Len[position](s))
	for i, id := range ids {
		if id == ids[2] {
			continue
		}
		p, ok := Get[position](s, id)
		assert.True(t, ok)
		assert.Equal(t, float32(i), p.X, "entity %d's component should survive an unrelated removal", i)
	}
}

func TestEachVisitsEveryLiveComponent(t *testing.T) {
	s := NewStore()
	for i := 0; i < 3; i++ {
		e := s.Create()
		_ = Add(s, e, position{X: float32(i)})
	}

	seen := map[EntityID]float32{}
	Each(s, func(id EntityID, p *position) {
		seen[id] = p.X
	})
	assert.Len(t, seen, 3)
}

func TestRemoveDetachesSingleComponentType(t *testing.T) {
	s := NewStore()
	e := s.Create()
	_ = Add(s, e, position{X: 1})
	_ = Add(s, e, velocity{X: 2})

	Remove[position](s, e)

	assert.False(t, Has[position](s, e))
	assert.True(t, Has[velocity](s, e), "removing one component type must not affect another")
	assert.True(t, s.Alive(e))
}
