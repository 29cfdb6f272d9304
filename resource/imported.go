package resource

// Imported wraps a handle to a resource whose storage lives on the other
// side of the boundary. The guest may use the handle or pass it onward, but
// never owns the memory behind it.
//
// A non-sentinel handle represents a live host object with exactly one
// owner. Imported must therefore never be copied; transfer goes through
// Move, MoveFrom, or IntoHandle, each of which clears the source. The
// wrapper does not release on scope exit: dropping a host-owned resource is
// a call into the host and stays explicit for error visibility, via
// DropWith.
type Imported struct {
	handle Handle
}

// ImportHandle wraps a handle received across the boundary.
func ImportHandle(h Handle) Imported {
	return Imported{handle: h}
}

// SetHandle installs a raw handle value. Intended for boundary marshaling
// code filling in a wrapper it has just zeroed.
func (i *Imported) SetHandle(h Handle) {
	i.handle = h
}

// Handle returns the held handle without transferring ownership.
func (i *Imported) Handle() Handle {
	return i.handle
}

// IntoHandle extracts the handle and clears the wrapper to the sentinel,
// transferring ownership onward without releasing the resource.
func (i *Imported) IntoHandle() Handle {
	h := i.handle
	i.handle = Sentinel
	return h
}

// Move transfers ownership out of src, leaving it empty.
func Move(src *Imported) Imported {
	return Imported{handle: src.IntoHandle()}
}

// MoveFrom transfers src's handle into i. The destination must be empty;
// moving into a live wrapper would silently leak whatever it referenced, so
// that is treated as a programming error and panics.
func (i *Imported) MoveFrom(src *Imported) {
	if i.handle != Sentinel {
		panic("resource: move into non-empty Imported")
	}
	i.handle = src.IntoHandle()
}

// DropWith releases the resource through the boundary-supplied drop entry
// point and clears the wrapper. A no-op on an empty wrapper, so destructor
// logic stays idempotent.
func (i *Imported) DropWith(fn DropFunc) error {
	if i.handle == Sentinel {
		return nil
	}
	h := i.handle
	i.handle = Sentinel
	return fn(h)
}
