package store

import (
	"bytes"

	bolt "go.etcd.io/bbolt"
)

// iterator walks one bucket in byte-lexicographic key order.
type iterator struct {
	cur  *bolt.Cursor
	k, v []byte
}

// newIterator positions at the first key >= seek, or the first key when
// seek is nil.
func newIterator(b *bolt.Bucket, seek []byte) *iterator {
	it := &iterator{cur: b.Cursor()}
	if seek == nil {
		it.k, it.v = it.cur.First()
	} else {
		it.k, it.v = it.cur.Seek(seek)
	}
	return it
}

func (it *iterator) valid() bool { return it.k != nil }

func (it *iterator) next() {
	it.k, it.v = it.cur.Next()
}

// mergeIterator yields the union of two ordered cursors in combined key
// order. On equal keys the second (newer-epoch) cursor wins and both
// advance.
type mergeIterator struct {
	v0, v1 *mergeSource
}

type mergeSource struct {
	it    *iterator
	epoch byte
}

func newMergeIterator(v0, v1 *iterator) *mergeIterator {
	return &mergeIterator{
		v0: &mergeSource{it: v0, epoch: 0},
		v1: &mergeSource{it: v1, epoch: 1},
	}
}

// pick returns the source holding the smaller current key, preferring v1
// on ties.
func (m *mergeIterator) pick() *mergeSource {
	if !m.v0.it.valid() {
		if !m.v1.it.valid() {
			return nil
		}
		return m.v1
	}
	if !m.v1.it.valid() {
		return m.v0
	}
	if bytes.Compare(m.v1.it.k, m.v0.it.k) <= 0 {
		return m.v1
	}
	return m.v0
}

func (m *mergeIterator) valid() bool { return m.pick() != nil }

func (m *mergeIterator) key() []byte   { return m.pick().it.k }
func (m *mergeIterator) value() []byte { return m.pick().it.v }

// fromV1 reports whether the current entry came from the newer table.
func (m *mergeIterator) fromV1() bool { return m.pick() == m.v1 }

func (m *mergeIterator) next() {
	src := m.pick()
	if src == nil {
		return
	}
	// Advance the twin past a duplicate key so the shadowed v0 entry is
	// not replayed.
	if src == m.v1 && m.v0.it.valid() && bytes.Equal(m.v0.it.k, m.v1.it.k) {
		m.v0.it.next()
	}
	src.it.next()
}
