package ecs

// Entity is nothing but an identity. Its components live in the systems,
// keyed by the entity id.
type Entity struct {
	ID ID
}

// Lifecycle events published on the engine bus. They become visible at the
// start of the frame after they were emitted.

type EntityCreated struct {
	Entity ID
}

type EntityDestroyed struct {
	Entity ID
}

type SystemAdded struct {
	System ID
}

type ComponentAttached struct {
	System ID
	Entity ID
}

type ComponentDetached struct {
	System ID
	Entity ID
}
