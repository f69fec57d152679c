package data

import (
	"fmt"
	"os"

	"github.com/l1jgo/mars/internal/component"
	"github.com/l1jgo/mars/internal/core/ecs"
	"github.com/l1jgo/mars/internal/core/status"
	"gopkg.in/yaml.v3"
)

// TransformSpec is the starting state of a Transform.
type TransformSpec struct {
	X   float64 `yaml:"x"`
	Y   float64 `yaml:"y"`
	VX  float64 `yaml:"vx"` // units per second
	VY  float64 `yaml:"vy"`
	Acc float64 `yaml:"acc"`
}

// EntitySpec describes one entity and the components it starts with.
type EntitySpec struct {
	Name      string         `yaml:"name"`
	Transform *TransformSpec `yaml:"transform"`
	Step      string         `yaml:"step"` // global Lua function name
	Counter   bool           `yaml:"counter"`
}

// Scene is a scene file: an optional tick length and its entities.
type Scene struct {
	DT       float64      `yaml:"dt"` // 0 = keep the configured dt
	Entities []EntitySpec `yaml:"entities"`
}

// LoadScene loads a scene yaml file.
func LoadScene(path string) (*Scene, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	var s Scene
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return &s, nil
}

func (s *Scene) validate() error {
	if s.DT < 0 {
		return fmt.Errorf("dt %v: %w", s.DT, status.InvalidArgument)
	}
	seen := make(map[string]bool, len(s.Entities))
	for i, e := range s.Entities {
		if e.Name == "" {
			return fmt.Errorf("entity #%d has no name: %w", i, status.InvalidArgument)
		}
		if seen[e.Name] {
			return fmt.Errorf("entity %q defined twice: %w", e.Name, status.KeyExists)
		}
		seen[e.Name] = true
	}
	return nil
}

// StepSource resolves step names to functions.
type StepSource interface {
	HasFunc(name string) bool
	Step(name string) component.StepFunc
}

// Systems are the component systems a scene spawns into. A nil system is
// only an error if some entity needs it.
type Systems struct {
	Transforms *ecs.System[component.Transform]
	Steps      *ecs.System[component.Step]
	Counters   *ecs.System[component.Counter]
	Events     *component.Events
}

// Spawn creates the scene's entities in e and returns their ids by name.
// dt is the engine tick length, used to turn velocities into last positions.
func (s *Scene) Spawn(e *ecs.Engine, sys Systems, steps StepSource) (map[string]ecs.ID, error) {
	ids := make(map[string]ecs.ID, len(s.Entities))
	for _, spec := range s.Entities {
		id, err := e.NewEntity()
		if err != nil {
			return ids, fmt.Errorf("spawn %s: %w", spec.Name, err)
		}
		ids[spec.Name] = id
		if err := spawnOne(e, sys, steps, spec, id); err != nil {
			return ids, fmt.Errorf("spawn %s: %w", spec.Name, err)
		}
	}
	return ids, nil
}

func spawnOne(e *ecs.Engine, sys Systems, steps StepSource, spec EntitySpec, id ecs.ID) error {
	if t := spec.Transform; t != nil {
		if sys.Transforms == nil {
			return fmt.Errorf("no transform system: %w", status.InvalidArgument)
		}
		tr, err := sys.Transforms.NewComponent(id)
		if err != nil {
			return err
		}
		tr.Place(t.X, t.Y)
		tr.Push(t.VX, t.VY, e.DT())
		tr.Acc = t.Acc
	}
	if spec.Counter {
		if sys.Counters == nil {
			return fmt.Errorf("no counter system: %w", status.InvalidArgument)
		}
		if _, err := sys.Counters.NewComponent(id); err != nil {
			return err
		}
	}
	if spec.Step != "" {
		if sys.Steps == nil || sys.Events == nil || steps == nil {
			return fmt.Errorf("no step system: %w", status.InvalidArgument)
		}
		if !steps.HasFunc(spec.Step) {
			return fmt.Errorf("step %q: %w", spec.Step, status.KeyNotFound)
		}
		if _, err := component.Bind(sys.Steps, sys.Events, id, steps.Step(spec.Step)); err != nil {
			return err
		}
	}
	return nil
}
