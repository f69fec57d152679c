package ecs

import (
	"fmt"
	"reflect"

	"github.com/l1jgo/mars/internal/core/ds"
	"github.com/l1jgo/mars/internal/core/event"
	"github.com/l1jgo/mars/internal/core/status"
	"go.uber.org/zap"
)

// Optional lifecycle capabilities of a component type, implemented on its
// pointer receiver. A component type may implement any subset.

type Initializer interface {
	Init(entity ID) error
}

type Updater interface {
	Update(entity ID, dt float64) error
}

type Destroyer interface {
	Destroy(entity ID) error
}

// Hooks are per-system lifecycle callbacks. A nil hook falls back to the
// component type's own method, if it has one.
type Hooks[T any] struct {
	Init    func(c *T, entity ID) error
	Update  func(c *T, entity ID, dt float64) error
	Destroy func(c *T, entity ID) error
}

type SystemOption[T any] func(*System[T])

func WithHooks[T any](h Hooks[T]) SystemOption[T] {
	return func(s *System[T]) {
		if h.Init != nil {
			s.hooks.Init = h.Init
		}
		if h.Update != nil {
			s.hooks.Update = h.Update
		}
		if h.Destroy != nil {
			s.hooks.Destroy = h.Destroy
		}
	}
}

// WithCapacity sizes the component table up front.
func WithCapacity[T any](n int) SystemOption[T] {
	return func(s *System[T]) { s.capacity = n }
}

// System owns every component of kind T, keyed by entity id.
type System[T any] struct {
	id         ID
	engine     *Engine
	components *ds.Table[T]
	hooks      Hooks[T]
	capacity   int
	log        *zap.Logger
}

// NewSystem creates a system for component type T and registers it with e
// under a fresh id.
func NewSystem[T any](e *Engine, opts ...SystemOption[T]) (*System[T], error) {
	if e == nil {
		return nil, fmt.Errorf("new system: nil engine: %w", status.InvalidArgument)
	}
	s := &System[T]{
		engine:   e,
		hooks:    defaultHooks[T](),
		capacity: e.tableCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.components = ds.NewTable[T](s.capacity, ds.WithLoadFactor(e.loadFactor))
	id, err := e.addSystem(s)
	if err != nil {
		return nil, err
	}
	s.log = e.log.With(zap.Stringer("system", id), zap.String("component", reflect.TypeOf((*T)(nil)).Elem().String()))
	return s, nil
}

func defaultHooks[T any]() Hooks[T] {
	var h Hooks[T]
	var probe any = new(T)
	if _, ok := probe.(Initializer); ok {
		h.Init = func(c *T, entity ID) error { return any(c).(Initializer).Init(entity) }
	}
	if _, ok := probe.(Updater); ok {
		h.Update = func(c *T, entity ID, dt float64) error { return any(c).(Updater).Update(entity, dt) }
	}
	if _, ok := probe.(Destroyer); ok {
		h.Destroy = func(c *T, entity ID) error { return any(c).(Destroyer).Destroy(entity) }
	}
	return h
}

func (s *System[T]) ID() ID { return s.id }

func (s *System[T]) setID(id ID) { s.id = id }

func (s *System[T]) Len() int { return s.components.Len() }

// ComponentSize is the size in bytes of one component value.
func (s *System[T]) ComponentSize() uintptr { return reflect.TypeOf((*T)(nil)).Elem().Size() }

// NewComponent gives entity a zeroed component, runs Init on it and stores
// it. The returned pointer is valid until the system's next mutation.
func (s *System[T]) NewComponent(entity ID) (*T, error) {
	if err := s.checkEntity("new component", entity); err != nil {
		return nil, err
	}
	if s.components.Has(uint64(entity)) {
		return nil, fmt.Errorf("new component for %s: %w", entity, status.KeyExists)
	}
	var c T
	if s.hooks.Init != nil {
		if err := s.hooks.Init(&c, entity); err != nil {
			return nil, fmt.Errorf("init component for %s: %w", entity, err)
		}
	}
	if err := s.add(entity, c); err != nil {
		// never stored, so undo Init here
		s.destroyOne(&c, entity)
		return nil, err
	}
	p, _ := s.components.Find(uint64(entity))
	return p, nil
}

// AddComponent stores a ready-made component for entity without running Init.
func (s *System[T]) AddComponent(entity ID, c T) error {
	if err := s.checkEntity("add component", entity); err != nil {
		return err
	}
	return s.add(entity, c)
}

func (s *System[T]) add(entity ID, c T) error {
	if err := s.components.Add(uint64(entity), c); err != nil {
		return fmt.Errorf("add component for %s: %w", entity, err)
	}
	event.Emit(s.engine.bus, ComponentAttached{System: s.id, Entity: entity})
	return nil
}

func (s *System[T]) checkEntity(op string, entity ID) error {
	if !entity.Valid() {
		s.log.Error(op+": invalid entity id", zap.Uint64("entity", uint64(entity)))
		return fmt.Errorf("%s: entity %s: %w", op, entity, status.InvalidArgument)
	}
	if !s.engine.HasEntity(entity) {
		return fmt.Errorf("%s: entity %s: %w", op, entity, status.KeyNotFound)
	}
	return nil
}

// Component returns entity's component. The pointer is valid until the
// system's next mutation.
func (s *System[T]) Component(entity ID) (*T, bool) {
	return s.components.Find(uint64(entity))
}

func (s *System[T]) Has(entity ID) bool {
	return s.components.Has(uint64(entity))
}

// Remove runs Destroy on entity's component and drops it.
func (s *System[T]) Remove(entity ID) error {
	c, ok := s.components.Find(uint64(entity))
	if !ok {
		return fmt.Errorf("remove component for %s: %w", entity, status.KeyNotFound)
	}
	s.destroyOne(c, entity)
	if err := s.components.Delete(uint64(entity)); err != nil {
		return err
	}
	event.Emit(s.engine.bus, ComponentDetached{System: s.id, Entity: entity})
	return nil
}

// Update runs the Update hook on every component. Order follows the
// component table and must not matter to the components. A failing
// component is logged and the pass continues.
func (s *System[T]) Update(dt float64) {
	if s.hooks.Update == nil {
		return
	}
	s.components.Each(func(key uint64, c *T) bool {
		if err := s.hooks.Update(c, ID(key), dt); err != nil {
			s.log.Error("component update failed", zap.Stringer("entity", ID(key)), zap.Error(err))
		}
		return true
	})
}

// Each visits every component until fn returns false. fn must not add or
// remove components of this system.
func (s *System[T]) Each(fn func(entity ID, c *T) bool) {
	s.components.Each(func(key uint64, c *T) bool {
		return fn(ID(key), c)
	})
}

// Destroy runs Destroy on every component and empties the system.
func (s *System[T]) Destroy() {
	s.components.Each(func(key uint64, c *T) bool {
		s.destroyOne(c, ID(key))
		return true
	})
	s.components.Clear()
}

func (s *System[T]) destroyOne(c *T, entity ID) {
	if s.hooks.Destroy == nil {
		return
	}
	if err := s.hooks.Destroy(c, entity); err != nil {
		s.log.Error("component destroy failed", zap.Stringer("entity", entity), zap.Error(err))
	}
}
