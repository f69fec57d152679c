package ds

import (
	"fmt"

	"github.com/l1jgo/mars/internal/core/status"
)

// Control byte states. A slot in use stores h2 (high bit clear).
type ctrl uint8

const (
	ctrlEmpty   ctrl = 0x80
	ctrlDeleted ctrl = 0xFE
)

const (
	DefaultTableCapacity = 32
	DefaultLoadFactor    = 0.875
	minTableCapacity     = 8

	fnvOffset uint64 = 14695981039346656037
	fnvPrime  uint64 = 1099511628211
)

type slot[V any] struct {
	key   uint64
	value V
}

// TableOption configures a Table at construction.
type TableOption func(*tableOptions)

type tableOptions struct {
	loadFactor  float64
	maxCapacity int
}

// WithLoadFactor sets the occupancy ratio that triggers growth. Values
// outside (0, 1] are ignored.
func WithLoadFactor(f float64) TableOption {
	return func(o *tableOptions) {
		if f > 0 && f <= 1 {
			o.loadFactor = f
		}
	}
}

// WithMaxCapacity bounds growth. An insert that would need a larger table
// fails with status.AllocationFailed and leaves the table untouched.
func WithMaxCapacity(n int) TableOption {
	return func(o *tableOptions) {
		o.maxCapacity = n
	}
}

// Table is an open-addressed hash map from a 64-bit key to a value of type V,
// laid out Swiss-table style: one control byte per slot plus a parallel slot
// array. Probing is linear from h1; h2 is kept in the control byte so most
// mismatches never touch the key.
//
// Deleted slots become tombstones so probe chains stay intact. When the load
// threshold is reached the table either doubles or, if at least half of the
// occupied slots are tombstones, rehashes at the same capacity.
//
// A Table is not safe for concurrent use and must not be mutated while it is
// being iterated.
type Table[V any] struct {
	ctrls       []ctrl
	slots       []slot[V]
	length      int
	loadCount   int // live + tombstones
	loadFactor  float64
	maxCapacity int
	iterating   int
}

// NewTable allocates a table with capacity rounded up to a power of two.
// A non-positive capacity selects DefaultTableCapacity.
func NewTable[V any](capacity int, opts ...TableOption) *Table[V] {
	o := tableOptions{loadFactor: DefaultLoadFactor}
	for _, opt := range opts {
		opt(&o)
	}
	if capacity <= 0 {
		capacity = DefaultTableCapacity
	}
	capacity = nextPow2(capacity)
	t := &Table[V]{
		loadFactor:  o.loadFactor,
		maxCapacity: o.maxCapacity,
	}
	t.ctrls, t.slots = newTableBuffers[V](capacity)
	return t
}

func newTableBuffers[V any](capacity int) ([]ctrl, []slot[V]) {
	ctrls := make([]ctrl, capacity)
	for i := range ctrls {
		ctrls[i] = ctrlEmpty
	}
	return ctrls, make([]slot[V], capacity)
}

func nextPow2(n int) int {
	c := minTableCapacity
	for c < n {
		c <<= 1
	}
	return c
}

// hashKey is 64-bit FNV-1a over the key's bytes, least significant first.
func hashKey(key uint64) uint64 {
	h := fnvOffset
	for i := 0; i < 8; i++ {
		h ^= (key >> (i * 8)) & 0xFF
		h *= fnvPrime
	}
	return h
}

func h1(h uint64) uint64 { return h >> 7 }
func h2(h uint64) ctrl   { return ctrl(h & 0x7F) }

// Len is the number of live keys.
func (t *Table[V]) Len() int { return t.length }

// Cap is the number of slots.
func (t *Table[V]) Cap() int { return len(t.ctrls) }

// Tombstones is the number of deleted slots not yet reclaimed.
func (t *Table[V]) Tombstones() int { return t.loadCount - t.length }

// LoadFactor is the fraction of slots, tombstones included, that may be
// used before the table grows or compacts.
func (t *Table[V]) LoadFactor() float64 { return t.loadFactor }

// SetLoadFactor changes the threshold for later inserts. f must be in (0, 1].
func (t *Table[V]) SetLoadFactor(f float64) error {
	if f <= 0 || f > 1 {
		return fmt.Errorf("table load factor %v: %w", f, status.InvalidArgument)
	}
	t.loadFactor = f
	return nil
}

// Insert stores v under key, overwriting any existing value in place.
func (t *Table[V]) Insert(key uint64, v V) error {
	t.checkWrite()
	if i, ok := t.find(key); ok {
		t.slots[i].value = v
		return nil
	}
	if err := t.reserve(); err != nil {
		return fmt.Errorf("table insert %d: %w", key, err)
	}
	t.put(key, v)
	return nil
}

// Add stores v under key only if key is absent; otherwise it returns
// status.KeyExists and leaves the stored value alone.
func (t *Table[V]) Add(key uint64, v V) error {
	t.checkWrite()
	if _, ok := t.find(key); ok {
		return fmt.Errorf("table add %d: %w", key, status.KeyExists)
	}
	if err := t.reserve(); err != nil {
		return fmt.Errorf("table add %d: %w", key, err)
	}
	t.put(key, v)
	return nil
}

// Find returns a pointer to the value stored under key. The pointer is only
// valid until the next mutation of the table.
func (t *Table[V]) Find(key uint64) (*V, bool) {
	i, ok := t.find(key)
	if !ok {
		return nil, false
	}
	return &t.slots[i].value, true
}

// Get returns a copy of the value stored under key.
func (t *Table[V]) Get(key uint64) (V, bool) {
	i, ok := t.find(key)
	if !ok {
		var zero V
		return zero, false
	}
	return t.slots[i].value, true
}

func (t *Table[V]) Has(key uint64) bool {
	_, ok := t.find(key)
	return ok
}

// Delete tombstones the slot holding key.
func (t *Table[V]) Delete(key uint64) error {
	t.checkWrite()
	i, ok := t.find(key)
	if !ok {
		return fmt.Errorf("table delete %d: %w", key, status.KeyNotFound)
	}
	t.ctrls[i] = ctrlDeleted
	t.slots[i] = slot[V]{}
	t.length--
	return nil
}

// Clear empties the table without shrinking it.
func (t *Table[V]) Clear() {
	t.checkWrite()
	for i := range t.ctrls {
		t.ctrls[i] = ctrlEmpty
	}
	clear(t.slots)
	t.length = 0
	t.loadCount = 0
}

// Rehash rebuilds the table at its current capacity, dropping tombstones.
func (t *Table[V]) Rehash() error {
	t.checkWrite()
	return t.resize(len(t.ctrls))
}

func (t *Table[V]) find(key uint64) (int, bool) {
	h := hashKey(key)
	tag := h2(h)
	mask := uint64(len(t.ctrls) - 1)
	pos := h1(h) & mask
	for n := 0; n < len(t.ctrls); n++ {
		c := t.ctrls[pos]
		if c == ctrlEmpty {
			return -1, false
		}
		if c == tag && t.slots[pos].key == key {
			return int(pos), true
		}
		pos = (pos + 1) & mask
	}
	return -1, false
}

// put writes a key known to be absent into the first free slot of its chain.
func (t *Table[V]) put(key uint64, v V) {
	h := hashKey(key)
	mask := uint64(len(t.ctrls) - 1)
	pos := h1(h) & mask
	for {
		c := t.ctrls[pos]
		if c == ctrlEmpty || c == ctrlDeleted {
			if c == ctrlEmpty {
				t.loadCount++
			}
			t.ctrls[pos] = h2(h)
			t.slots[pos] = slot[V]{key: key, value: v}
			t.length++
			return
		}
		pos = (pos + 1) & mask
	}
}

// reserve makes room for one more key, growing or compacting as needed.
func (t *Table[V]) reserve() error {
	capacity := len(t.ctrls)
	if float64(t.loadCount)/float64(capacity) < t.loadFactor {
		return nil
	}
	if t.Tombstones()*2 >= t.loadCount && t.Tombstones() > 0 {
		return t.resize(capacity)
	}
	return t.resize(capacity * 2)
}

func (t *Table[V]) resize(capacity int) error {
	if t.maxCapacity > 0 && capacity > t.maxCapacity {
		return fmt.Errorf("grow to %d over limit %d: %w", capacity, t.maxCapacity, status.AllocationFailed)
	}
	oldCtrls, oldSlots := t.ctrls, t.slots
	t.ctrls, t.slots = newTableBuffers[V](capacity)
	t.length = 0
	t.loadCount = 0
	for i, c := range oldCtrls {
		if c&ctrlEmpty == 0 {
			t.put(oldSlots[i].key, oldSlots[i].value)
		}
	}
	return nil
}

func (t *Table[V]) checkWrite() {
	if t.iterating > 0 {
		panic("ds: table mutated during iteration")
	}
}

// Each calls fn for every live entry in slot order until fn returns false.
// Mutating the table from fn panics.
func (t *Table[V]) Each(fn func(key uint64, v *V) bool) {
	t.iterating++
	defer func() { t.iterating-- }()
	for i, c := range t.ctrls {
		if c&ctrlEmpty != 0 {
			continue
		}
		if !fn(t.slots[i].key, &t.slots[i].value) {
			return
		}
	}
}

// Keys returns the live keys in slot order.
func (t *Table[V]) Keys() []uint64 {
	keys := make([]uint64, 0, t.length)
	t.Each(func(key uint64, _ *V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// TableIter is a cursor over the live entries of a Table. The table must not
// be mutated while a cursor is in use.
type TableIter[V any] struct {
	t     *Table[V]
	index int
}

func (t *Table[V]) Iter() *TableIter[V] {
	return &TableIter[V]{t: t, index: -1}
}

// Next advances to the next live entry and reports whether there is one.
func (it *TableIter[V]) Next() bool {
	for it.index+1 < len(it.t.ctrls) {
		it.index++
		if it.t.ctrls[it.index]&ctrlEmpty == 0 {
			return true
		}
	}
	it.index = len(it.t.ctrls)
	return false
}

func (it *TableIter[V]) Key() uint64 { return it.t.slots[it.index].key }

func (it *TableIter[V]) Value() *V { return &it.t.slots[it.index].value }
