package resource

import (
	"github.com/wasmlink/guest-runtime/errors"
)

// Exported is the guest-side half of a resource whose storage lives on this
// side of the boundary. Construction registers the object with the host
// registry; from then on the host holds the only other reference and may
// destroy the object at any time by invoking its Dropper through the
// registry.
//
// Destruction is split into two paths that must never call each other:
//
//   - Release is the guest-initiated path, run on ordinary scope exit. It
//     asks the host to drop the registration and never frees the object's
//     state directly; the host's destructor invocation is what frees it.
//   - The object's Drop method (Dropper) is the host-initiated path. It
//     frees state and must not touch the registry, which is already
//     dropping the handle.
//
// Exported is move-only by convention: IntoHandle transfers the
// registration to the receiver of the handle and clears the local copy, so
// a later Release is a no-op.
type Exported struct {
	registry Registry
	handle   Handle
}

// NewExported registers obj under the given resource kind and returns the
// wrapper holding its handle. Registration failure is fatal to the
// construction: an exported resource without a handle is meaningless, so no
// wrapper is returned.
func NewExported(reg Registry, kind uint32, obj any) (Exported, error) {
	h, err := reg.Register(kind, obj)
	if err != nil {
		return Exported{}, errors.RegistrationFailed(kind, err)
	}
	return Exported{registry: reg, handle: h}, nil
}

// Handle returns the registered handle without transferring ownership.
// Returns Sentinel after IntoHandle or Release.
func (e *Exported) Handle() Handle {
	return e.handle
}

// IntoHandle extracts the handle for transfer across the boundary, for
// example as a return value. The receiver now owns the registration; the
// local wrapper is reset to the sentinel so Release will not deregister.
func (e *Exported) IntoHandle() Handle {
	h := e.handle
	e.handle = Sentinel
	return h
}

// Release requests deregistration from the host. Safe to call on an
// already-released or already-transferred wrapper: the sentinel check makes
// the second call a no-op, never a second drop. The host frees the object
// by invoking its destructor while handling the drop, so Release itself
// must not free anything.
func (e *Exported) Release() error {
	if e.handle == Sentinel {
		return nil
	}
	h := e.handle
	e.handle = Sentinel
	return e.registry.Drop(h)
}
