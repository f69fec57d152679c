package ecs

import (
	"fmt"

	"github.com/l1jgo/mars/internal/core/status"
)

// Attach gives entity a new component from the system registered under
// systemID.
func Attach[T any](e *Engine, systemID, entity ID) (*T, error) {
	s, err := SystemOf[T](e, systemID)
	if err != nil {
		return nil, err
	}
	return s.NewComponent(entity)
}

// ComponentOf returns entity's component from the system under systemID.
func ComponentOf[T any](e *Engine, systemID, entity ID) (*T, bool) {
	s, err := SystemOf[T](e, systemID)
	if err != nil {
		return nil, false
	}
	return s.Component(entity)
}

// SystemOf looks up a system and checks its component type.
func SystemOf[T any](e *Engine, systemID ID) (*System[T], error) {
	r, ok := e.System(systemID)
	if !ok {
		return nil, fmt.Errorf("system %s: %w", systemID, status.KeyNotFound)
	}
	s, ok := r.(*System[T])
	if !ok {
		return nil, fmt.Errorf("system %s holds %T: %w", systemID, r, status.InvalidArgument)
	}
	return s, nil
}

// Each2 visits entities that have a component in both systems. It walks the
// smaller system and probes the larger one.
func Each2[A, B any](sa *System[A], sb *System[B], fn func(ID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		sa.Each(func(id ID, a *A) bool {
			if b, ok := sb.Component(id); ok {
				fn(id, a, b)
			}
			return true
		})
		return
	}
	sb.Each(func(id ID, b *B) bool {
		if a, ok := sa.Component(id); ok {
			fn(id, a, b)
		}
		return true
	})
}
