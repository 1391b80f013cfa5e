// Package scene models the CAD assembly graph the kinematic core reads:
// occurrences (instances of components, possibly nested), the rigid bodies
// they carry, and the mechanical joints between them.
//
// The core consumes a Source and never mutates it. Assembly is the
// in-memory Source built by the assembly DSL and by tests.
package scene
