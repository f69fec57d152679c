package ecs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/l1jgo/mars/internal/core/ds"
	"github.com/l1jgo/mars/internal/core/event"
	"github.com/l1jgo/mars/internal/core/status"
	"go.uber.org/zap"
)

// State is the engine's position in its lifecycle.
type State uint8

const (
	Created State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	default:
		return "stopped"
	}
}

const (
	DefaultDT     = 0.01
	maxIDAttempts = 16
)

type Option func(*Engine)

// WithDT sets the fixed tick length in seconds.
func WithDT(dt float64) Option { return func(e *Engine) { e.dt = dt } }

func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

// WithSeed seeds the default id generator.
func WithSeed(seed uint32) Option { return func(e *Engine) { e.ids = NewIDGen(seed) } }

// WithIDSource replaces the id generator.
func WithIDSource(src IDSource) Option { return func(e *Engine) { e.ids = src } }

func WithLogger(log *zap.Logger) Option { return func(e *Engine) { e.log = log } }

func WithBus(b *event.Bus) Option { return func(e *Engine) { e.bus = b } }

// WithOnInit runs fn once, after the engine's tables exist. An error aborts
// creation.
func WithOnInit(fn func(*Engine) error) Option { return func(e *Engine) { e.onInit = fn } }

// WithOnFree runs fn once at the start of Destroy.
func WithOnFree(fn func(*Engine)) Option { return func(e *Engine) { e.onFree = fn } }

// WithOnFrame runs fn after every frame of the run loop, on the loop
// goroutine.
func WithOnFrame(fn func(*Engine)) Option { return func(e *Engine) { e.onFrame = fn } }

// WithFrameDelay sleeps between frames of the run loop.
func WithFrameDelay(d time.Duration) Option { return func(e *Engine) { e.frameDelay = d } }

// WithTableCapacity sets the initial capacity and load factor of every table
// the engine and its systems create.
func WithTableCapacity(capacity int, loadFactor float64) Option {
	return func(e *Engine) {
		e.tableCapacity = capacity
		e.loadFactor = loadFactor
	}
}

// Engine owns every system and entity and drives them with a fixed-timestep
// loop. It is single-threaded: all methods must be called from the goroutine
// running the loop.
type Engine struct {
	systems  *ds.Table[Runner]
	entities *ds.Table[Entity]
	order    *ds.Vector[Runner]
	doomed   *ds.Vector[ID]

	ids   IDSource
	clock Clock
	bus   *event.Bus
	log   *zap.Logger

	onInit  func(*Engine) error
	onFree  func(*Engine)
	onFrame func(*Engine)

	tableCapacity int
	loadFactor    float64
	frameDelay    time.Duration

	dt          float64
	last        time.Time
	timeAccum   float64
	renderAlpha float64
	ticks       uint64
	run         bool
	state       State
	destroyed   bool
}

// New builds an engine, samples the clock and runs the init hook.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		dt:         DefaultDT,
		loadFactor: ds.DefaultLoadFactor,
		run:        true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if !(e.dt > 0) {
		e.log.Error("engine dt must be positive", zap.Float64("dt", e.dt))
		return nil, fmt.Errorf("engine dt %v: %w", e.dt, status.InvalidArgument)
	}
	if e.ids == nil {
		e.ids = NewIDGen(0)
	}
	if e.clock == nil {
		e.clock = WallClock()
	}
	if e.bus == nil {
		e.bus = event.NewBus()
	}
	e.systems = ds.NewTable[Runner](e.tableCapacity, ds.WithLoadFactor(e.loadFactor))
	e.entities = ds.NewTable[Entity](e.tableCapacity, ds.WithLoadFactor(e.loadFactor))
	e.order = ds.NewVector[Runner](0)
	e.doomed = ds.NewVector[ID](0)
	e.last = e.clock.Now()

	if e.onInit != nil {
		if err := e.onInit(e); err != nil {
			e.teardown()
			return nil, fmt.Errorf("engine init: %w", err)
		}
	}
	e.log.Debug("engine created",
		zap.Float64("dt", e.dt),
		zap.Int("systems", e.systems.Len()),
		zap.Int("entities", e.entities.Len()))
	return e, nil
}

func (e *Engine) DT() float64          { return e.dt }
func (e *Engine) RenderAlpha() float64 { return e.renderAlpha }
func (e *Engine) TimeAccum() float64   { return e.timeAccum }
func (e *Engine) Ticks() uint64        { return e.ticks }
func (e *Engine) Running() bool        { return e.run }
func (e *Engine) State() State         { return e.state }
func (e *Engine) Bus() *event.Bus      { return e.bus }
func (e *Engine) Log() *zap.Logger     { return e.log }

// addFresh registers a value under a newly generated id, regenerating on
// collision instead of overwriting.
func addFresh[V any](e *Engine, t *ds.Table[V], mk func(ID) V) (ID, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := e.ids.Next() & Mask
		err := t.Add(uint64(id), mk(id))
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, status.KeyExists) {
			return Null, err
		}
		e.log.Warn("id collision, regenerating", zap.Stringer("id", id))
	}
	return Null, fmt.Errorf("no unused id after %d attempts: %w", maxIDAttempts, status.AllocationFailed)
}

func (e *Engine) addSystem(r Runner) (ID, error) {
	if e.destroyed {
		return Null, fmt.Errorf("add system: engine destroyed: %w", status.InvalidArgument)
	}
	id, err := addFresh(e, e.systems, func(id ID) Runner {
		r.setID(id)
		return r
	})
	if err != nil {
		return Null, fmt.Errorf("add system: %w", err)
	}
	event.Emit(e.bus, SystemAdded{System: id})
	return id, nil
}

// System looks up a registered system.
func (e *Engine) System(id ID) (Runner, bool) {
	return e.systems.Get(uint64(id))
}

func (e *Engine) SystemCount() int { return e.systems.Len() }

// RemoveSystem destroys a system and all of its components.
func (e *Engine) RemoveSystem(id ID) error {
	r, ok := e.systems.Get(uint64(id))
	if !ok {
		return fmt.Errorf("remove system %s: %w", id, status.KeyNotFound)
	}
	r.Destroy()
	return e.systems.Delete(uint64(id))
}

// NewEntity registers an entity under a fresh id.
func (e *Engine) NewEntity() (ID, error) {
	if e.destroyed {
		return Null, fmt.Errorf("new entity: engine destroyed: %w", status.InvalidArgument)
	}
	id, err := addFresh(e, e.entities, func(id ID) Entity { return Entity{ID: id} })
	if err != nil {
		return Null, fmt.Errorf("new entity: %w", err)
	}
	event.Emit(e.bus, EntityCreated{Entity: id})
	return id, nil
}

func (e *Engine) Entity(id ID) (Entity, bool) {
	return e.entities.Get(uint64(id))
}

func (e *Engine) HasEntity(id ID) bool {
	return e.entities.Has(uint64(id))
}

func (e *Engine) EntityCount() int { return e.entities.Len() }

// DestroyEntity destroys the entity's component in every system, then the
// entity itself. Component callbacks must use MarkForDestruction instead.
func (e *Engine) DestroyEntity(id ID) error {
	if !id.Valid() {
		e.log.Error("destroy entity: invalid id", zap.Uint64("entity", uint64(id)))
		return fmt.Errorf("destroy entity: %w", status.InvalidArgument)
	}
	if !e.entities.Has(uint64(id)) {
		return fmt.Errorf("destroy entity %s: %w", id, status.KeyNotFound)
	}
	e.systems.Each(func(_ uint64, r *Runner) bool {
		if (*r).Has(id) {
			_ = (*r).Remove(id)
		}
		return true
	})
	if err := e.entities.Delete(uint64(id)); err != nil {
		return err
	}
	event.Emit(e.bus, EntityDestroyed{Entity: id})
	return nil
}

// MarkForDestruction queues an entity to be destroyed after the current tick.
func (e *Engine) MarkForDestruction(id ID) {
	e.doomed.PushBack(id)
}

// flushDestroyQueue drains the queue, including ids that Destroy hooks mark
// while it runs.
func (e *Engine) flushDestroyQueue() {
	for {
		id, ok := e.doomed.PopFront()
		if !ok {
			return
		}
		if err := e.DestroyEntity(id); err != nil && !errors.Is(err, status.KeyNotFound) {
			e.log.Warn("deferred destroy failed", zap.Stringer("entity", id), zap.Error(err))
		}
	}
}

// Stop ends the run loop at the top of its next iteration. Ticks already in
// progress run to completion.
func (e *Engine) Stop() { e.run = false }

// Frame runs one iteration of the loop: it adds the wall time elapsed since
// the previous sample to the accumulator, delivers pending events, then runs
// as many fixed ticks as the accumulator holds. It returns the tick count.
func (e *Engine) Frame() int {
	now := e.clock.Now()
	e.timeAccum += now.Sub(e.last).Seconds()
	e.last = now

	e.bus.SwapBuffers()
	e.bus.DispatchAll()

	n := 0
	for e.timeAccum >= e.dt {
		e.tick()
		e.timeAccum -= e.dt
		n++
	}
	e.renderAlpha = e.timeAccum / e.dt
	return n
}

// tick updates every system once. Systems registered during the tick take
// part from the next one.
func (e *Engine) tick() {
	e.ticks++
	e.order.Clear()
	e.systems.Each(func(_ uint64, r *Runner) bool {
		e.order.PushBack(*r)
		return true
	})
	for _, r := range e.order.Values() {
		r.Update(e.dt)
	}
	e.order.Clear()
	if e.doomed.Len() > 0 {
		e.flushDestroyQueue()
	}
}

// Update runs frames until Stop is called or ctx is done. It blocks the
// calling goroutine for the whole run.
func (e *Engine) Update(ctx context.Context) error {
	if e.destroyed {
		return fmt.Errorf("engine update: engine destroyed: %w", status.InvalidArgument)
	}
	e.state = Running
	e.log.Info("engine running", zap.Float64("dt", e.dt))
	defer func() { e.state = Stopped }()
	for e.run {
		select {
		case <-ctx.Done():
			e.run = false
			return ctx.Err()
		default:
		}
		e.Frame()
		if e.onFrame != nil {
			e.onFrame(e)
		}
		if e.frameDelay > 0 {
			time.Sleep(e.frameDelay)
		}
	}
	e.log.Info("engine stopped", zap.Uint64("ticks", e.ticks))
	return nil
}

// Destroy runs the free hook, then destroys every system (and with them
// every component) and finally drops the entities. Calling it again is a
// no-op.
func (e *Engine) Destroy() {
	if e.destroyed {
		return
	}
	if e.onFree != nil {
		e.onFree(e)
	}
	e.teardown()
}

func (e *Engine) teardown() {
	e.destroyed = true
	e.run = false
	e.state = Stopped
	e.systems.Each(func(_ uint64, r *Runner) bool {
		(*r).Destroy()
		return true
	})
	e.systems.Clear()
	e.entities.Clear()
	e.doomed.Clear()
}
