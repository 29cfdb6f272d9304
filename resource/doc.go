// Package resource provides the ownership wrappers for resource handles
// crossing a component boundary.
//
// A resource is an object whose storage lives on one side of the boundary
// while the other side holds only an opaque handle. The two directions have
// asymmetric authority, so they get distinct wrappers:
//
//	Exported  - object lives here, the host holds the handle and may
//	            destroy the object at a time of its choosing
//	Imported  - object lives on the host, this side holds the handle and
//	            may only request destruction
//
// # Exported Resources
//
// Construction registers the object and obtains its handle:
//
//	type Widget struct {
//	    res resource.Exported
//	    // ...
//	}
//
//	exp, err := resource.NewExported(registry, WidgetKind, w)
//	if err != nil {
//	    return err // no handle, no resource
//	}
//	w.res = exp
//
// The registration pins the object: the host stores the reference taken at
// Register time, so the guest must keep it at a stable identity until the
// registration is dropped.
//
// Destruction is a capability split. Release notifies the host and never
// frees; the object's Drop method frees and never notifies. The registry
// invokes Drop while handling the drop request, which is why the two paths
// must not call each other: Release -> host drop -> Drop() frees. A Widget
// whose handle was transferred onward with IntoHandle releases nothing.
//
// # Imported Resources
//
// Imported is a move-only handle wrapper. Two simultaneous owners of one
// live handle would race on release, so copying is forbidden and every
// transfer clears its source:
//
//	b := resource.Move(&a)      // a now holds the sentinel
//	h := b.IntoHandle()         // b now holds the sentinel, h is owned
//
// Moving into a non-empty wrapper panics rather than silently leaking the
// destination's previous handle.
//
// Release is explicit: DropWith takes the boundary-supplied drop entry
// point, because dropping a host-owned resource is a host call whose error
// the caller should see. Wrappers left to go out of scope leak the host
// object; the boundary layer owns that policy.
//
// # Local Registry
//
// LocalRegistry is a complete in-process Registry used for same-process
// boundaries and tests. It reuses dropped slots through a free list and
// reports lifecycle events to subscribed Observers; NewLogObserver adapts
// those events to a zap logger.
package resource
