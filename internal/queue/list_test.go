package queue

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/batchsim/pkg/model"
)

func pids[K int | uint64](l *List[K]) []model.PID {
	out := []model.PID{}
	for _, e := range l.Entries() {
		out = append(out, e.PID)
	}
	return out
}

func TestInsert_OrdersByKey(t *testing.T) {
	l := New[int]()
	l.Insert(3, 5)
	l.Insert(1, 2)
	l.Insert(2, 2)

	assert.Equal(t, []model.PID{1, 2, 3}, pids(l))
	assert.Equal(t, 3, l.Len())
}

func TestInsert_EqualKeysKeepInsertionOrder(t *testing.T) {
	l := New[int]()
	for pid := model.PID(1); pid <= 5; pid++ {
		l.Insert(pid, 7)
	}
	assert.Equal(t, []model.PID{1, 2, 3, 4, 5}, pids(l))

	// A smaller key still goes in front of the whole run.
	pos := l.Insert(6, 6)
	assert.Equal(t, 0, pos)
	// An equal key goes behind it.
	pos = l.Insert(7, 7)
	assert.Equal(t, 6, pos)
	assert.Equal(t, []model.PID{6, 1, 2, 3, 4, 5, 7}, pids(l))
}

func TestZeroValueList(t *testing.T) {
	var l List[uint64]
	assert.True(t, l.IsEmpty())
	_, ok := l.PopHead()
	assert.False(t, ok)
	_, ok = l.Remove(1)
	assert.False(t, ok)

	l.Insert(4, 10)
	e, ok := l.Head()
	require.True(t, ok)
	assert.Equal(t, model.PID(4), e.PID)
}

func TestPopHead(t *testing.T) {
	l := New[uint64]()
	_, ok := l.PopHead()
	assert.False(t, ok, "pop from empty list must fail")

	l.Insert(1, 12)
	l.Insert(2, 10)

	e, ok := l.PopHead()
	require.True(t, ok)
	assert.Equal(t, Entry[uint64]{PID: 2, Key: 10}, e)

	e, ok = l.PopHead()
	require.True(t, ok)
	assert.Equal(t, Entry[uint64]{PID: 1, Key: 12}, e)

	assert.True(t, l.IsEmpty())
	_, ok = l.Head()
	assert.False(t, ok)
}

func TestRemove_ByPID(t *testing.T) {
	l := New[int]()
	l.Insert(1, 1)
	l.Insert(2, 2)
	l.Insert(3, 3)

	e, ok := l.Remove(2)
	require.True(t, ok)
	assert.Equal(t, 2, e.Key)
	assert.Equal(t, []model.PID{1, 3}, pids(l))

	_, ok = l.Remove(2)
	assert.False(t, ok)

	_, ok = l.Remove(1)
	require.True(t, ok)
	assert.Equal(t, []model.PID{3}, pids(l))
	assert.False(t, l.Contains(1))
	assert.True(t, l.Contains(3))
}

func TestArenaReusesFreedSlots(t *testing.T) {
	l := New[int]()
	for i := 0; i < 4; i++ {
		l.Insert(model.PID(i+1), i)
	}
	for i := 0; i < 4; i++ {
		l.PopHead()
	}
	for i := 0; i < 4; i++ {
		l.Insert(model.PID(i+10), 4-i)
	}
	assert.Len(t, l.nodes, 4, "arena should recycle freed nodes")
	assert.Equal(t, []model.PID{13, 12, 11, 10}, pids(l))
}

func TestEach_StopsEarly(t *testing.T) {
	l := New[int]()
	l.Insert(1, 1)
	l.Insert(2, 2)
	l.Insert(3, 3)

	var seen []model.PID
	l.Each(func(e Entry[int]) bool {
		seen = append(seen, e.PID)
		return e.PID < 2
	})
	assert.Equal(t, []model.PID{1, 2}, seen)
}

// TestRandomOperations_PreserveOrder mixes inserts, pops and removals and
// checks ordering and stability after every step.
func TestRandomOperations_PreserveOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	l := New[int]()
	seq := map[model.PID]int{} // insertion sequence per pid
	next := 0
	live := []model.PID{}

	for step := 0; step < 2000; step++ {
		switch op := rng.Intn(4); {
		case op < 2 || len(live) == 0:
			pid := model.PID(step + 1)
			l.Insert(pid, rng.Intn(10))
			seq[pid] = next
			next++
			live = append(live, pid)
		case op == 2:
			e, ok := l.PopHead()
			require.True(t, ok)
			live = without(live, e.PID)
		default:
			victim := live[rng.Intn(len(live))]
			_, ok := l.Remove(victim)
			require.True(t, ok)
			live = without(live, victim)
		}

		entries := l.Entries()
		require.Len(t, entries, len(live))
		for i := 1; i < len(entries); i++ {
			prev, cur := entries[i-1], entries[i]
			require.LessOrEqual(t, prev.Key, cur.Key, "step %d: order broken", step)
			if prev.Key == cur.Key {
				require.Less(t, seq[prev.PID], seq[cur.PID], "step %d: equal keys out of insertion order", step)
			}
		}
	}
}

func without(s []model.PID, pid model.PID) []model.PID {
	for i, p := range s {
		if p == pid {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
