package ds

import (
	"fmt"

	"github.com/l1jgo/mars/internal/core/status"
)

const DefaultVectorCapacity = 8

// Vector is a growable array that doubles its buffer when full. Front
// insertion and removal shift every later element, so it suits small
// bookkeeping lists rather than per-tick hot paths.
type Vector[T any] struct {
	items  []T
	length int
}

func NewVector[T any](capacity int) *Vector[T] {
	if capacity <= 0 {
		capacity = DefaultVectorCapacity
	}
	return &Vector[T]{items: make([]T, capacity)}
}

func (v *Vector[T]) Len() int { return v.length }

func (v *Vector[T]) Cap() int { return len(v.items) }

// Values returns the live elements. The slice aliases the vector's buffer.
func (v *Vector[T]) Values() []T { return v.items[:v.length] }

func (v *Vector[T]) grow() {
	if v.length < len(v.items) {
		return
	}
	c := len(v.items) * 2
	if c == 0 {
		c = DefaultVectorCapacity
	}
	items := make([]T, c)
	copy(items, v.items[:v.length])
	v.items = items
}

// Insert places item at index, shifting later elements back by one.
func (v *Vector[T]) Insert(index int, item T) error {
	if index < 0 || index > v.length {
		return fmt.Errorf("vector insert at %d of %d: %w", index, v.length, status.InvalidArgument)
	}
	v.grow()
	copy(v.items[index+1:v.length+1], v.items[index:v.length])
	v.items[index] = item
	v.length++
	return nil
}

// Remove deletes count elements starting at index.
func (v *Vector[T]) Remove(index, count int) error {
	if index < 0 || count < 0 || index+count > v.length {
		return fmt.Errorf("vector remove %d+%d of %d: %w", index, count, v.length, status.InvalidArgument)
	}
	copy(v.items[index:], v.items[index+count:v.length])
	clear(v.items[v.length-count : v.length])
	v.length -= count
	return nil
}

func (v *Vector[T]) PushBack(item T) {
	v.grow()
	v.items[v.length] = item
	v.length++
}

func (v *Vector[T]) PushFront(item T) {
	_ = v.Insert(0, item)
}

func (v *Vector[T]) PopBack() (T, bool) {
	var zero T
	if v.length == 0 {
		return zero, false
	}
	v.length--
	item := v.items[v.length]
	v.items[v.length] = zero
	return item, true
}

func (v *Vector[T]) PopFront() (T, bool) {
	var zero T
	if v.length == 0 {
		return zero, false
	}
	item := v.items[0]
	_ = v.Remove(0, 1)
	return item, true
}

func (v *Vector[T]) Get(index int) (T, error) {
	if index < 0 || index >= v.length {
		var zero T
		return zero, fmt.Errorf("vector get %d of %d: %w", index, v.length, status.InvalidArgument)
	}
	return v.items[index], nil
}

func (v *Vector[T]) Set(index int, item T) error {
	if index < 0 || index >= v.length {
		return fmt.Errorf("vector set %d of %d: %w", index, v.length, status.InvalidArgument)
	}
	v.items[index] = item
	return nil
}

func (v *Vector[T]) Clear() {
	clear(v.items[:v.length])
	v.length = 0
}
