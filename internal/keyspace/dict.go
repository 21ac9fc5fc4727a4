package keyspace

import (
	"math/rand"
	"time"

	"github.com/spaolacci/murmur3"
)

// dictEntry is one chained slot in a table. The stored key is the
// authoritative copy: its version and logical-clock side channels are
// mutated in place by SuperReplace/UpdateKey.
type dictEntry[V any] struct {
	key  ES
	val  V
	next *dictEntry[V]
}

type dictTable[V any] struct {
	buckets []*dictEntry[V]
	mask    uint64
	used    int
}

func newDictTable[V any](size int) *dictTable[V] {
	n := nextPow2(size)
	if n < 4 {
		n = 4
	}
	return &dictTable[V]{buckets: make([]*dictEntry[V], n), mask: uint64(n - 1)}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Dict is a separately-chained hash table over two internal tables,
// supporting incremental rehashing: while ht[1] is non-nil, every
// operation migrates a bounded number of buckets from ht[0] to ht[1]
// before doing its own work.
type Dict[V any] struct {
	ht          [2]*dictTable[V]
	rehashIdx   int // -1 when not rehashing
	pauseRehash int // >0 disables rehashing (AOF rewrite window, see Database.PauseRehash)
}

// NewDict creates an empty dictionary with an initial table floor.
func NewDict[V any]() *Dict[V] {
	return &Dict[V]{ht: [2]*dictTable[V]{newDictTable[V](4), nil}, rehashIdx: -1}
}

func hashKey(k ES) uint64 {
	return murmur3.Sum64([]byte(k.bytes))
}

func (d *Dict[V]) isRehashing() bool { return d.ht[1] != nil }

// PauseRehash increments the pause counter; ResumeRehash decrements
// it. Used to suspend incremental rehashing during the AOF rewrite
// window, where Database.Keys is walked across several separate lock
// acquisitions rather than one.
func (d *Dict[V]) PauseRehash()  { d.pauseRehash++ }
func (d *Dict[V]) ResumeRehash() {
	if d.pauseRehash > 0 {
		d.pauseRehash--
	}
}

// rehashStep migrates up to n buckets of ht[0] into ht[1]. Returns true
// if rehashing is still in progress afterward.
func (d *Dict[V]) rehashStep(n int) bool {
	if !d.isRehashing() || d.pauseRehash > 0 {
		return d.isRehashing()
	}
	src := d.ht[0]
	for n > 0 && d.rehashIdx <= int(src.mask) {
		e := src.buckets[d.rehashIdx]
		if e == nil {
			d.rehashIdx++
			continue
		}
		for e != nil {
			next := e.next
			h := hashKey(e.key) & d.ht[1].mask
			e.next = d.ht[1].buckets[h]
			d.ht[1].buckets[h] = e
			src.used--
			d.ht[1].used++
			e = next
		}
		src.buckets[d.rehashIdx] = nil
		d.rehashIdx++
		n--
	}
	if d.rehashIdx > int(src.mask) {
		d.ht[0] = d.ht[1]
		d.ht[1] = nil
		d.rehashIdx = -1
		return false
	}
	return true
}

// RehashMilliseconds spends up to budget on incremental rehashing, one
// bucket at a time.
func (d *Dict[V]) RehashMilliseconds(budget time.Duration) {
	if !d.isRehashing() {
		return
	}
	deadline := time.Now().Add(budget)
	for d.isRehashing() && time.Now().Before(deadline) {
		d.rehashStep(100)
	}
}

// NeedsResize reports whether load factor exceeds 1 or falls below 10%
// (with a floor so small dicts never shrink below the initial size).
func (d *Dict[V]) NeedsResize() bool {
	if d.isRehashing() {
		return false
	}
	t := d.ht[0]
	slots := int(t.mask) + 1
	if t.used > slots {
		return true
	}
	if slots > 4 && t.used*10 < slots {
		return true
	}
	return false
}

// Resize begins an incremental rehash into a table sized to the next
// power of two of max(minSize, used*2).
func (d *Dict[V]) Resize(minSize int) {
	if d.isRehashing() || d.pauseRehash > 0 {
		return
	}
	target := minSize
	if want := d.ht[0].used * 2; want > target {
		target = want
	}
	if target < 4 {
		target = 4
	}
	d.ht[1] = newDictTable[V](target)
	d.rehashIdx = 0
}

func (d *Dict[V]) findEntry(key ES) *dictEntry[V] {
	d.rehashStep(1)
	for i := 0; i < 2; i++ {
		t := d.ht[i]
		if t == nil {
			continue
		}
		h := hashKey(key) & t.mask
		for e := t.buckets[h]; e != nil; e = e.next {
			if e.key.equalKey(key) {
				return e
			}
		}
		if !d.isRehashing() {
			break
		}
	}
	return nil
}

// Get looks up a value by key bytes.
func (d *Dict[V]) Get(key ES) (V, bool) {
	if e := d.findEntry(key); e != nil {
		return e.val, true
	}
	var zero V
	return zero, false
}

// GetKey returns the stored key record (carrying the authoritative
// version and logical-clock side channels), not the caller's copy.
func (d *Dict[V]) GetKey(key ES) (ES, bool) {
	if e := d.findEntry(key); e != nil {
		return e.key, true
	}
	return ES{}, false
}

func (d *Dict[V]) insertTable() *dictTable[V] {
	if d.isRehashing() {
		return d.ht[1]
	}
	return d.ht[0]
}

// Add inserts key/val iff the key is absent. Returns false if the key
// already existed (no mutation performed).
func (d *Dict[V]) Add(key ES, val V) bool {
	d.rehashStep(1)
	if d.findEntry(key) != nil {
		return false
	}
	t := d.insertTable()
	h := hashKey(key) & t.mask
	t.buckets[h] = &dictEntry[V]{key: key, val: val, next: t.buckets[h]}
	t.used++
	if d.NeedsResize() {
		d.Resize(t.used * 2)
	}
	return true
}

// Replace upserts key/val. Returns true iff this was an insertion
// (key was absent); on update, the existing stored key's side channels
// are left untouched (callers needing a version bump use SuperReplace).
func (d *Dict[V]) Replace(key ES, val V) bool {
	d.rehashStep(1)
	if e := d.findEntry(key); e != nil {
		e.val = val
		return false
	}
	t := d.insertTable()
	h := hashKey(key) & t.mask
	t.buckets[h] = &dictEntry[V]{key: key, val: val, next: t.buckets[h]}
	t.used++
	if d.NeedsResize() {
		d.Resize(t.used * 2)
	}
	return true
}

// SuperReplace upserts key/val like Replace, but on update also
// overwrites the stored key's version/logical-clock with the supplied
// key's — the replace-that-also-changes-the-key's-version operation
// the optimistic-concurrency protocol relies on.
func (d *Dict[V]) SuperReplace(key ES, val V) bool {
	d.rehashStep(1)
	if e := d.findEntry(key); e != nil {
		e.key.version = key.version
		e.key.logicalClock = key.logicalClock
		e.val = val
		return false
	}
	t := d.insertTable()
	h := hashKey(key) & t.mask
	t.buckets[h] = &dictEntry[V]{key: key, val: val, next: t.buckets[h]}
	t.used++
	if d.NeedsResize() {
		d.Resize(t.used * 2)
	}
	return true
}

// UpdateKey commits key's version/logical-clock side channels into the
// already-stored entry with the same byte content, without touching
// the value. Returns false if the key is absent.
func (d *Dict[V]) UpdateKey(key ES) bool {
	e := d.findEntry(key)
	if e == nil {
		return false
	}
	e.key.version = key.version
	e.key.logicalClock = key.logicalClock
	return true
}

// Delete removes key. Returns whether it was present.
func (d *Dict[V]) Delete(key ES) bool {
	d.rehashStep(1)
	for i := 0; i < 2; i++ {
		t := d.ht[i]
		if t == nil {
			continue
		}
		h := hashKey(key) & t.mask
		var prev *dictEntry[V]
		for e := t.buckets[h]; e != nil; e = e.next {
			if e.key.equalKey(key) {
				if prev == nil {
					t.buckets[h] = e.next
				} else {
					prev.next = e.next
				}
				t.used--
				return true
			}
			prev = e
		}
		if !d.isRehashing() {
			break
		}
	}
	return false
}

// RandomEntry returns a uniformly random live entry. Uniform under
// rehashing by picking which table to sample from weighted by
// occupancy, then retrying on an empty bucket draw.
func (d *Dict[V]) RandomEntry() (ES, V, bool) {
	if d.Len() == 0 {
		var zero V
		return ES{}, zero, false
	}
	d.rehashStep(1)
	for attempt := 0; attempt < 1000; attempt++ {
		var t *dictTable[V]
		if d.isRehashing() {
			if rand.Intn(d.ht[0].used+d.ht[1].used+1) < d.ht[0].used {
				t = d.ht[0]
			} else {
				t = d.ht[1]
			}
		} else {
			t = d.ht[0]
		}
		if t.used == 0 {
			continue
		}
		idx := rand.Int63n(int64(t.mask) + 1)
		e := t.buckets[idx]
		if e == nil {
			continue
		}
		// walk a random distance into the chain for chain-length fairness
		steps := rand.Intn(4)
		for steps > 0 && e.next != nil {
			e = e.next
			steps--
		}
		return e.key, e.val, true
	}
	var zero V
	return ES{}, zero, false
}

// Len returns the total number of live entries across both tables.
func (d *Dict[V]) Len() int {
	n := d.ht[0].used
	if d.ht[1] != nil {
		n += d.ht[1].used
	}
	return n
}

// SlotCount returns the total bucket count across both tables.
func (d *Dict[V]) SlotCount() int {
	n := int(d.ht[0].mask) + 1
	if d.ht[1] != nil {
		n += int(d.ht[1].mask) + 1
	}
	return n
}

// Keys returns every live key (unordered), used by Database.Clear and
// by Database.Keys (the AOF rewrite's key snapshot).
func (d *Dict[V]) Keys() []ES {
	out := make([]ES, 0, d.Len())
	for i := 0; i < 2; i++ {
		t := d.ht[i]
		if t == nil {
			continue
		}
		for _, head := range t.buckets {
			for e := head; e != nil; e = e.next {
				out = append(out, e.key)
			}
		}
	}
	return out
}

// Empty clears the dictionary back to its initial floor size.
func (d *Dict[V]) Empty() {
	d.ht[0] = newDictTable[V](4)
	d.ht[1] = nil
	d.rehashIdx = -1
}
