// Package buffer provides move-only owned buffers in linear memory.
//
// Strings and homogeneous arrays crossing a component boundary have no
// implicit ownership: whoever receives the pointer must either adopt the
// allocation and free it later with the one boundary-agreed allocator, or
// copy the bytes and leave the sender's storage alone. Owned encodes the
// adopting side of that bargain.
//
// # Ownership Discipline
//
// An Owned with a non-zero pointer carries exactly one deallocation
// obligation. Exactly one of these discharges it:
//
//	Free      - return the allocation to the boundary allocator
//	Leak      - hand the obligation to the other side (e.g. a return value)
//	Move      - transfer the obligation to another Owned
//
// Every one of them clears the pointer, so a later Free is a no-op rather
// than a double free. This is the affine-type discipline implemented by
// convention: Go has no move semantics, so the sentinel carries the state
// the type system cannot.
//
// Receiving a string across the boundary and keeping it:
//
//	s := buffer.FromRawParts(mem, alloc, ptr, length)
//	defer s.Free()
//
// Producing a string to return across the boundary:
//
//	s, err := buffer.Copy(mem, alloc, []byte("hello"))
//	if err != nil {
//	    return err
//	}
//	ptr, length := s.Leak() // the caller frees it
//
// # List Layout
//
// Buffers of non-byte elements need the element size and alignment both at
// allocation and at free time. Layout derives them from a WIT type per the
// canonical ABI, and ForList allocates a correctly shaped list buffer.
package buffer
