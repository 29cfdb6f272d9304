package resource

// Handle is an opaque reference to a resource in a registry.
// Handle 0 is the sentinel and always invalid.
type Handle uint32

// Sentinel is the reserved handle value meaning "empty or consumed".
const Sentinel Handle = 0

// Registry is the host-maintained handle table, consumed by Exported.
// The guest never implements the real one; it only calls Register to obtain
// a handle for an object it owns, and Drop to request deregistration.
// Dropping a registration is what triggers the host to invoke the object's
// destructor (see Dropper).
type Registry interface {
	// Register stores a reference to obj and returns its handle.
	// The object must remain reachable at a stable identity for the
	// lifetime of the registration; the host keeps the reference taken
	// here.
	Register(kind uint32, obj any) (Handle, error)

	// Drop removes a registration. The host invokes the object's
	// destructor as part of handling the drop.
	Drop(handle Handle) error
}

// Dropper is the host-initiated teardown path for registered objects.
// The registry calls Drop exactly once when the registration is removed.
// Implementations free the object's state and must not call back into the
// registry: the host is already in the process of dropping the handle.
type Dropper interface {
	Drop()
}

// DropFunc releases a host-owned resource by handle. It is supplied by the
// boundary layer, since dropping an imported resource is a call into the
// host, not a local operation.
type DropFunc func(Handle) error

// Event types for registry lifecycle notifications.
type EventType uint8

const (
	EventRegistered EventType = iota
	EventDropped
)

// Event represents a registry lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Kind   uint32
	Type   EventType
}

// Observer receives notifications about registry lifecycle events.
type Observer interface {
	OnRegistryEvent(Event)
}
