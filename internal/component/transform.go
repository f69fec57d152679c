package component

import "github.com/l1jgo/mars/internal/core/ecs"

// Transform is a point integrated with position Verlet. LX, LY hold the
// position of the previous tick; Acc is applied on both axes.
type Transform struct {
	X, Y   float64
	LX, LY float64
	Acc    float64
}

func (t *Transform) Init(ecs.ID) error {
	*t = Transform{}
	return nil
}

func (t *Transform) Update(_ ecs.ID, dt float64) error {
	a := dt * dt * t.Acc
	x := 2*t.X - t.LX + a
	y := 2*t.Y - t.LY + a
	t.LX, t.LY = t.X, t.Y
	t.X, t.Y = x, y
	return nil
}

// Place moves the point without giving it velocity.
func (t *Transform) Place(x, y float64) {
	t.X, t.Y = x, y
	t.LX, t.LY = x, y
}

// Push gives the point a velocity of (vx, vy) per tick of length dt.
func (t *Transform) Push(vx, vy, dt float64) {
	t.LX = t.X - vx*dt
	t.LY = t.Y - vy*dt
}

// Velocity is the displacement of the last tick divided by dt.
func (t *Transform) Velocity(dt float64) (vx, vy float64) {
	return (t.X - t.LX) / dt, (t.Y - t.LY) / dt
}
