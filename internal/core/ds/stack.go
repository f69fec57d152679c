package ds

// Stack is a Vector restricted to back-only push and pop.
type Stack[T any] struct {
	v Vector[T]
}

func NewStack[T any](capacity int) *Stack[T] {
	return &Stack[T]{v: *NewVector[T](capacity)}
}

func (s *Stack[T]) Push(item T) { s.v.PushBack(item) }

func (s *Stack[T]) Pop() (T, bool) { return s.v.PopBack() }

func (s *Stack[T]) Peek() (T, bool) {
	if s.v.length == 0 {
		var zero T
		return zero, false
	}
	return s.v.items[s.v.length-1], true
}

func (s *Stack[T]) Len() int { return s.v.Len() }

func (s *Stack[T]) Cap() int { return s.v.Cap() }

func (s *Stack[T]) Clear() { s.v.Clear() }
