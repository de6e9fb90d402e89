package cache

import (
	"sync"
	"sync/atomic"
)

// recencyList is the cache-wide total recency order: an intrusive doubly
// linked list (head = MRU, tail = LRU) plus the weight/count ledger.
//
// Every structural mutation happens under mu. weight and count are written
// only under mu but stored atomically so Count/Weight read them lock-free.
// A single global order is what makes eviction fair across segments: the
// victim is always the least recently used entry of the whole cache, not of
// one segment.
type recencyList[K comparable, V any] struct {
	mu     sync.Mutex
	head   *entry[K, V]
	tail   *entry[K, V]
	weight atomic.Int64
	count  atomic.Int64
}

// pushFront links e at MRU and charges it to the ledger. O(1), mu held.
func (l *recencyList[K, V]) pushFront(e *entry[K, V]) {
	e.prev = nil
	e.next = l.head
	if l.head != nil {
		l.head.prev = e
	}
	l.head = e
	if l.tail == nil {
		l.tail = e
	}
	l.count.Add(1)
	l.weight.Add(e.weight)
}

// moveToFront promotes e to MRU. O(1), mu held.
func (l *recencyList[K, V]) moveToFront(e *entry[K, V]) {
	if e == l.head {
		return
	}
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if l.tail == e {
		l.tail = e.prev
	}
	e.prev = nil
	e.next = l.head
	if l.head != nil {
		l.head.prev = e
	}
	l.head = e
	if l.tail == nil {
		l.tail = e
	}
}

// unlink detaches e and releases its ledger charge. O(1), mu held.
func (l *recencyList[K, V]) unlink(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if l.head == e {
		l.head = e.next
	}
	if l.tail == e {
		l.tail = e.prev
	}
	e.prev, e.next = nil, nil
	l.count.Add(-1)
	l.weight.Add(-e.weight)
}
