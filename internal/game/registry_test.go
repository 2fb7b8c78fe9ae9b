package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() (*Registry, *recordingSink) {
	sink := &recordingSink{}
	reg := NewRegistry(SessionDeps{
		Words: fixedWords{word: "apple"},
		Sched: &fakeScheduler{},
		Sink:  sink,
	})
	return reg, sink
}

func TestGetOrCreateConcurrent(t *testing.T) {
	reg, _ := newTestRegistry()

	const goroutines = 16
	sessions := make([]*Session, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			sessions[i] = reg.GetOrCreate("SAME")
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, sessions[0], sessions[i])
	}
	assert.Equal(t, 1, reg.Count())
}

func TestLeaveRemovesEmptyRoom(t *testing.T) {
	reg, _ := newTestRegistry()

	s := reg.GetOrCreate("ROOM1")
	require.NoError(t, s.Join("0xAAA1", ""))
	require.NoError(t, s.Join("0xBBB2", ""))
	assert.Equal(t, 1, reg.Count())

	reg.Leave("ROOM1", "0xAAA1")
	assert.Equal(t, 1, reg.Count(), "room stays while players remain")

	reg.Leave("ROOM1", "0xBBB2")
	assert.Equal(t, 0, reg.Count())
	_, ok := reg.Get("ROOM1")
	assert.False(t, ok)
}

func TestRemoveUnknownRoomNoop(t *testing.T) {
	reg, _ := newTestRegistry()
	reg.Remove("NOPE")
	assert.Equal(t, 0, reg.Count())
}

func TestLeaveUnknownRoomNoop(t *testing.T) {
	reg, _ := newTestRegistry()
	reg.Leave("NOPE", "0xAAA1")
	assert.Equal(t, 0, reg.Count())
}

func TestDistinctCodesDistinctSessions(t *testing.T) {
	reg, _ := newTestRegistry()
	a := reg.GetOrCreate("A")
	b := reg.GetOrCreate("B")
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, reg.Count())
}
