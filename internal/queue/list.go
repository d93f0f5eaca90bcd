// Package queue provides the ordered list shared by the ready and blocked
// queues.
//
// Entries live in an arena slice and are linked by index, so insertion and
// removal only rewrite indices. Freed slots are recycled through a free list.
package queue

import (
	"cmp"

	"github.com/me/batchsim/pkg/model"
)

const nilIndex = -1

// Entry is a (pid, key) pair as stored in the list.
type Entry[K cmp.Ordered] struct {
	PID model.PID
	Key K
}

type node[K cmp.Ordered] struct {
	entry Entry[K]
	next  int
}

// List keeps entries in non-decreasing key order. Entries with equal keys
// keep their insertion order. The zero value is an empty list.
type List[K cmp.Ordered] struct {
	nodes []node[K]
	head  int
	free  int
	size  int
	init  bool
}

// New returns an empty list.
func New[K cmp.Ordered]() *List[K] {
	l := &List[K]{}
	l.lazyInit()
	return l
}

func (l *List[K]) lazyInit() {
	if !l.init {
		l.head = nilIndex
		l.free = nilIndex
		l.init = true
	}
}

// Len returns the number of entries.
func (l *List[K]) Len() int {
	return l.size
}

// IsEmpty returns true if the list holds no entries.
func (l *List[K]) IsEmpty() bool {
	return l.size == 0
}

// Insert places pid after every entry whose key is <= key and returns the
// position it landed at (0 is the head).
func (l *List[K]) Insert(pid model.PID, key K) int {
	l.lazyInit()
	idx := l.alloc(Entry[K]{PID: pid, Key: key})

	if l.head == nilIndex || l.nodes[l.head].entry.Key > key {
		l.nodes[idx].next = l.head
		l.head = idx
		l.size++
		return 0
	}

	pos := 1
	cur := l.head
	for next := l.nodes[cur].next; next != nilIndex && l.nodes[next].entry.Key <= key; next = l.nodes[cur].next {
		cur = next
		pos++
	}
	l.nodes[idx].next = l.nodes[cur].next
	l.nodes[cur].next = idx
	l.size++
	return pos
}

// Head returns the first entry.
func (l *List[K]) Head() (Entry[K], bool) {
	if l.size == 0 {
		return Entry[K]{}, false
	}
	return l.nodes[l.head].entry, true
}

// PopHead removes and returns the first entry.
func (l *List[K]) PopHead() (Entry[K], bool) {
	if l.size == 0 {
		return Entry[K]{}, false
	}
	idx := l.head
	e := l.nodes[idx].entry
	l.head = l.nodes[idx].next
	l.release(idx)
	return e, true
}

// Remove unlinks the first entry carrying pid. It returns false if pid is
// not in the list.
func (l *List[K]) Remove(pid model.PID) (Entry[K], bool) {
	prev := nilIndex
	for cur := l.headIndex(); cur != nilIndex; cur = l.nodes[cur].next {
		if l.nodes[cur].entry.PID != pid {
			prev = cur
			continue
		}
		e := l.nodes[cur].entry
		if prev == nilIndex {
			l.head = l.nodes[cur].next
		} else {
			l.nodes[prev].next = l.nodes[cur].next
		}
		l.release(cur)
		return e, true
	}
	return Entry[K]{}, false
}

// Contains reports whether pid is in the list.
func (l *List[K]) Contains(pid model.PID) bool {
	for cur := l.headIndex(); cur != nilIndex; cur = l.nodes[cur].next {
		if l.nodes[cur].entry.PID == pid {
			return true
		}
	}
	return false
}

// Each calls fn for every entry from head to tail until fn returns false.
func (l *List[K]) Each(fn func(Entry[K]) bool) {
	for cur := l.headIndex(); cur != nilIndex; cur = l.nodes[cur].next {
		if !fn(l.nodes[cur].entry) {
			return
		}
	}
}

// Entries returns a copy of all entries from head to tail.
func (l *List[K]) Entries() []Entry[K] {
	out := make([]Entry[K], 0, l.size)
	l.Each(func(e Entry[K]) bool {
		out = append(out, e)
		return true
	})
	return out
}

func (l *List[K]) headIndex() int {
	if !l.init {
		return nilIndex
	}
	return l.head
}

func (l *List[K]) alloc(e Entry[K]) int {
	if l.free != nilIndex {
		idx := l.free
		l.free = l.nodes[idx].next
		l.nodes[idx] = node[K]{entry: e, next: nilIndex}
		return idx
	}
	l.nodes = append(l.nodes, node[K]{entry: e, next: nilIndex})
	return len(l.nodes) - 1
}

func (l *List[K]) release(idx int) {
	l.nodes[idx] = node[K]{next: l.free}
	l.free = idx
	l.size--
}
