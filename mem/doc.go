// Package mem provides linear memory implementations behind the root
// Memory and Allocator contracts.
//
// LinearMemory is the in-process implementation: a growable byte slice
// with a first-fit free-list allocator. It stands in for a guest's linear
// memory when both sides of the boundary live in the same process, and
// gives tests a real allocator whose identity mismatches fail loudly.
//
// The wazero adapters cover the real-boundary case: WazeroMemory wraps a
// module's exported memory, and WazeroAllocator calls the module's own
// exported cabi_realloc/cabi_free pair (legacy malloc/free spellings are
// probed as fallbacks). Using the guest's exports as the allocator is what
// keeps the allocator identity single: the Go side never frees a guest
// pointer with a Go allocator.
//
//	memory, alloc, err := mem.BindModule(mod)
//	if err != nil {
//	    return err
//	}
//	s, err := buffer.Copy(memory, alloc, []byte("hello"))
package mem
