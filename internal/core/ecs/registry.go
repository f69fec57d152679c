package ecs

// Runner is the type-erased view of a System the engine keeps in its system
// table.
type Runner interface {
	ID() ID
	Len() int
	Has(entity ID) bool
	// Remove destroys entity's component in this system.
	Remove(entity ID) error
	Update(dt float64)
	Destroy()
	setID(ID)
}
