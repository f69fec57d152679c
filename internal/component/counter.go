package component

import "github.com/l1jgo/mars/internal/core/ecs"

// Counter counts its updates and sums the time they covered.
type Counter struct {
	N   int64
	Sum float64
}

func (c *Counter) Update(_ ecs.ID, dt float64) error {
	c.N++
	c.Sum += dt
	return nil
}
