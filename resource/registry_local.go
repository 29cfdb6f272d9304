package resource

import (
	"sync"

	"github.com/wasmlink/guest-runtime/errors"
)

// LocalRegistry is an in-process Registry with free-list slot reuse.
// It plays the host side of the boundary for same-process components and
// tests: Drop removes the entry and then invokes the object's destructor,
// which is exactly how a real host delivers destruction to the guest.
type LocalRegistry struct {
	entries   []entry
	freeList  []Handle
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

type entry struct {
	value any
	kind  uint32
	valid bool
}

// NewLocalRegistry creates an empty in-process registry.
func NewLocalRegistry() *LocalRegistry {
	return &LocalRegistry{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Register stores a reference to obj and returns its handle.
func (r *LocalRegistry) Register(kind uint32, obj any) (Handle, error) {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()
		return Sentinel, errors.Closed(errors.PhaseRegistry, "registry")
	}

	e := entry{
		kind:  kind,
		value: obj,
		valid: true,
	}

	var h Handle
	if len(r.freeList) > 0 {
		h = r.freeList[len(r.freeList)-1]
		r.freeList = r.freeList[:len(r.freeList)-1]
		r.entries[h-1] = e
	} else {
		r.entries = append(r.entries, e)
		h = Handle(len(r.entries))
	}
	r.mu.Unlock()

	r.notify(Event{
		Type:   EventRegistered,
		Handle: h,
		Kind:   kind,
		Value:  obj,
	})

	return h, nil
}

// Drop removes a registration and invokes the object's destructor, if it
// implements Dropper. Dropping an unknown or already-dropped handle is an
// error at the registry level; the Exported wrapper's sentinel guard keeps
// correct guest code from ever reaching that case.
func (r *LocalRegistry) Drop(handle Handle) error {
	r.mu.Lock()

	idx := int(handle) - 1
	if handle == Sentinel || idx >= len(r.entries) || !r.entries[idx].valid {
		r.mu.Unlock()
		return errors.InvalidHandle(errors.PhaseRegistry, uint32(handle))
	}

	e := r.entries[idx]
	r.entries[idx] = entry{}
	r.freeList = append(r.freeList, handle)
	r.mu.Unlock()

	// Host-initiated teardown: the destructor frees guest state and must
	// not call back into the registry.
	if d, ok := e.value.(Dropper); ok {
		d.Drop()
	}

	r.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		Kind:   e.kind,
		Value:  e.value,
	})

	return nil
}

// Get retrieves the registered object by handle.
func (r *LocalRegistry) Get(handle Handle) (any, bool) {
	if handle == Sentinel {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := int(handle) - 1
	if idx >= len(r.entries) || !r.entries[idx].valid {
		return nil, false
	}
	return r.entries[idx].value, true
}

// Kind returns the resource kind for a handle.
func (r *LocalRegistry) Kind(handle Handle) (uint32, bool) {
	if handle == Sentinel {
		return 0, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := int(handle) - 1
	if idx >= len(r.entries) || !r.entries[idx].valid {
		return 0, false
	}
	return r.entries[idx].kind, true
}

// Len returns the number of live registrations.
func (r *LocalRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, e := range r.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over all live registrations.
func (r *LocalRegistry) Each(fn func(Handle, uint32, any) bool) {
	r.mu.RLock()
	snapshot := make([]entry, len(r.entries))
	copy(snapshot, r.entries)
	r.mu.RUnlock()

	for i, e := range snapshot {
		if e.valid {
			if !fn(Handle(i+1), e.kind, e.value) {
				break
			}
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (r *LocalRegistry) Subscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.observers = append(r.observers, o)
}

// Unsubscribe removes an observer.
func (r *LocalRegistry) Unsubscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	for i, obs := range r.observers {
		if obs == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// Close drops all registrations, invoking destructors, and stops accepting
// new ones.
func (r *LocalRegistry) Close() error {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true

	dropped := make([]entry, 0, len(r.entries))
	for i := range r.entries {
		if r.entries[i].valid {
			dropped = append(dropped, r.entries[i])
			r.entries[i] = entry{}
		}
	}
	r.entries = nil
	r.freeList = nil
	r.mu.Unlock()

	for _, e := range dropped {
		if d, ok := e.value.(Dropper); ok {
			d.Drop()
		}
	}
	return nil
}

func (r *LocalRegistry) notify(e Event) {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()
	for _, o := range r.observers {
		o.OnRegistryEvent(e)
	}
}
