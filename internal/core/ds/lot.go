package ds

import (
	"fmt"
	"math"

	"github.com/l1jgo/mars/internal/core/status"
)

const (
	DefaultLotCapacity = 32

	lotIndexBits = 32
	lotOccupied  = 0x80
	lotGenMask   = 0x7F
	maxLotSlots  = 1 << lotIndexBits
)

// Key is a Lot handle: a 7-bit generation above a 32-bit slot index.
type Key uint64

// NilKey never resolves.
const NilKey Key = math.MaxUint64

// MakeKey packs a generation (low 7 bits kept) and a slot index.
func MakeKey(generation uint8, index uint32) Key {
	return Key(uint64(generation&lotGenMask)<<lotIndexBits | uint64(index))
}

func (k Key) Index() uint32 { return uint32(k) }

func (k Key) Generation() uint8 { return uint8(k>>lotIndexBits) & lotGenMask }

func (k Key) wellFormed() bool { return uint64(k)>>(lotIndexBits+7) == 0 }

// Lot is a slot map. Each slot carries a control byte holding an occupied
// bit and a 7-bit generation that is bumped every time the slot is handed
// out, so a handle to a freed slot never matches the slot's next tenant.
type Lot[T any] struct {
	free   *Stack[uint32]
	ctrls  []uint8
	values []T
	length int
}

// NewLot creates a lot with room for capacity values before it grows.
// capacity <= 0 selects DefaultLotCapacity.
func NewLot[T any](capacity int) *Lot[T] {
	if capacity <= 0 {
		capacity = DefaultLotCapacity
	}
	l := &Lot[T]{
		free:   NewStack[uint32](capacity),
		ctrls:  make([]uint8, capacity),
		values: make([]T, capacity),
	}
	l.seed(0, capacity)
	return l
}

// seed pushes [from, to) so the lowest index is popped first.
func (l *Lot[T]) seed(from, to int) {
	for i := to - 1; i >= from; i-- {
		l.free.Push(uint32(i))
	}
}

func (l *Lot[T]) Len() int { return l.length }

func (l *Lot[T]) Cap() int { return len(l.ctrls) }

func (l *Lot[T]) grow() error {
	oldCap := len(l.ctrls)
	newCap := oldCap * 2
	if int64(newCap) > maxLotSlots {
		return fmt.Errorf("lot grow to %d: %w", newCap, status.AllocationFailed)
	}
	ctrls := make([]uint8, newCap)
	copy(ctrls, l.ctrls)
	values := make([]T, newCap)
	copy(values, l.values)
	l.ctrls, l.values = ctrls, values
	l.seed(oldCap, newCap)
	return nil
}

// Insert stores v in a free slot and returns its handle.
func (l *Lot[T]) Insert(v T) (Key, error) {
	if l.free.Len() == 0 {
		if err := l.grow(); err != nil {
			return NilKey, err
		}
	}
	index, _ := l.free.Pop()
	gen := (l.ctrls[index] + 1) & lotGenMask
	l.ctrls[index] = lotOccupied | gen
	l.values[index] = v
	l.length++
	return MakeKey(gen, index), nil
}

func (l *Lot[T]) slot(k Key) (uint32, bool) {
	if !k.wellFormed() {
		return 0, false
	}
	index := k.Index()
	if int64(index) >= int64(len(l.ctrls)) {
		return 0, false
	}
	c := l.ctrls[index]
	return index, c&lotOccupied != 0 && c&lotGenMask == k.Generation()
}

// Find returns a pointer to the value behind k, or false when k is stale or
// was never issued. The pointer is valid until the lot grows.
func (l *Lot[T]) Find(k Key) (*T, bool) {
	index, ok := l.slot(k)
	if !ok {
		return nil, false
	}
	return &l.values[index], true
}

func (l *Lot[T]) Get(k Key) (T, bool) {
	p, ok := l.Find(k)
	if !ok {
		var zero T
		return zero, false
	}
	return *p, true
}

// Delete frees the slot behind k. The generation is left as is; the next
// Insert into this slot bumps it.
func (l *Lot[T]) Delete(k Key) error {
	index, ok := l.slot(k)
	if !ok {
		return fmt.Errorf("lot delete %#x: %w", uint64(k), status.KeyNotFound)
	}
	var zero T
	l.ctrls[index] &= lotGenMask
	l.values[index] = zero
	l.free.Push(index)
	l.length--
	return nil
}

// Each calls fn for every occupied slot in index order until fn returns false.
func (l *Lot[T]) Each(fn func(k Key, v *T) bool) {
	for i, c := range l.ctrls {
		if c&lotOccupied == 0 {
			continue
		}
		if !fn(MakeKey(c&lotGenMask, uint32(i)), &l.values[i]) {
			return
		}
	}
}
