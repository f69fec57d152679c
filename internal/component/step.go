package component

import (
	"fmt"

	"github.com/l1jgo/mars/internal/core/ds"
	"github.com/l1jgo/mars/internal/core/ecs"
	"github.com/l1jgo/mars/internal/core/status"
)

// StepFunc is per-entity behaviour run once per tick.
type StepFunc func(entity ecs.ID, dt float64) error

// Events holds the step functions that Step components refer to by handle.
// Unregistering a function silently disables every Step still pointing at it.
type Events struct {
	fns *ds.Lot[StepFunc]
}

func NewEvents(capacity int) *Events {
	return &Events{fns: ds.NewLot[StepFunc](capacity)}
}

func (ev *Events) Register(fn StepFunc) (ds.Key, error) {
	if fn == nil {
		return ds.NilKey, fmt.Errorf("register step: nil func: %w", status.InvalidArgument)
	}
	return ev.fns.Insert(fn)
}

func (ev *Events) Unregister(k ds.Key) error {
	return ev.fns.Delete(k)
}

func (ev *Events) Lookup(k ds.Key) (StepFunc, bool) {
	return ev.fns.Get(k)
}

func (ev *Events) Len() int { return ev.fns.Len() }

// Step runs a registered StepFunc for its entity every tick.
type Step struct {
	Event ds.Key
}

func (s *Step) Init(ecs.ID) error {
	s.Event = ds.NilKey
	return nil
}

// NewStepSystem registers a Step system that resolves handles in events.
func NewStepSystem(e *ecs.Engine, events *Events, opts ...ecs.SystemOption[Step]) (*ecs.System[Step], error) {
	if events == nil {
		return nil, fmt.Errorf("step system: nil events: %w", status.InvalidArgument)
	}
	hooks := ecs.Hooks[Step]{
		Update: func(s *Step, entity ecs.ID, dt float64) error {
			fn, ok := events.Lookup(s.Event)
			if !ok {
				return nil
			}
			return fn(entity, dt)
		},
	}
	return ecs.NewSystem[Step](e, append(opts, ecs.WithHooks(hooks))...)
}

// Bind attaches a Step running fn to entity, registering fn in events.
func Bind(steps *ecs.System[Step], events *Events, entity ecs.ID, fn StepFunc) (ds.Key, error) {
	k, err := events.Register(fn)
	if err != nil {
		return ds.NilKey, err
	}
	s, err := steps.NewComponent(entity)
	if err != nil {
		_ = events.Unregister(k)
		return ds.NilKey, err
	}
	s.Event = k
	return k, nil
}
