package buffer

import (
	guestruntime "github.com/wasmlink/guest-runtime"
	"github.com/wasmlink/guest-runtime/errors"
)

// Owned is a move-only owner of a contiguous allocation in linear memory.
// A non-zero ptr carries exactly one deallocation obligation against the
// injected allocator; Free, Leak, and the move operations are the only
// ways to discharge it, and each resets ptr to zero so the obligation can
// never run twice.
//
// Owned values must not be copied by assignment. Transfer goes through
// Move or MoveInto.
type Owned struct {
	mem   guestruntime.Memory
	alloc guestruntime.Allocator
	ptr   uint32
	count uint32 // element count
	size  uint32 // element size in bytes
	align uint32
}

// FromRawParts adopts an existing byte allocation without copying. The
// allocation must have been made with the same boundary allocator that is
// passed in here; freeing it with any other pair corrupts memory.
func FromRawParts(mem guestruntime.Memory, alloc guestruntime.Allocator, ptr, byteLen uint32) Owned {
	return FromRawPartsN(mem, alloc, ptr, byteLen, 1, 1)
}

// FromRawPartsN adopts an allocation of count elements of elemSize bytes
// each, aligned to align. No copy; constant time. A non-null pointer is
// adopted even when count is zero: allocators may hand out distinct
// pointers for empty lists, and the deallocation obligation crosses the
// boundary with the pointer, not the length.
func FromRawPartsN(mem guestruntime.Memory, alloc guestruntime.Allocator, ptr, count, elemSize, align uint32) Owned {
	return Owned{
		mem:   mem,
		alloc: alloc,
		ptr:   ptr,
		count: count,
		size:  elemSize,
		align: align,
	}
}

// Copy allocates fresh space via the boundary allocator and copies src into
// it, leaving the source storage alone. The source may live anywhere; the
// new buffer always lives in the boundary allocator's memory.
func Copy(mem guestruntime.Memory, alloc guestruntime.Allocator, src []byte) (Owned, error) {
	return CopyN(mem, alloc, src, 1, 1)
}

// CopyN copies src into a fresh allocation of len(src)/elemSize elements
// aligned to align. len(src) must be a multiple of elemSize.
func CopyN(mem guestruntime.Memory, alloc guestruntime.Allocator, src []byte, elemSize, align uint32) (Owned, error) {
	if elemSize == 0 {
		return Owned{}, errors.InvalidInput(errors.PhaseAlloc, "zero element size")
	}
	if uint32(len(src))%elemSize != 0 {
		return Owned{}, errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			Detail("source length %d is not a multiple of element size %d", len(src), elemSize).
			Build()
	}
	if len(src) == 0 {
		return FromRawPartsN(mem, alloc, 0, 0, elemSize, align), nil
	}

	byteLen := uint32(len(src))
	ptr, err := alloc.Alloc(byteLen, align)
	if err != nil {
		return Owned{}, errors.AllocationFailed(byteLen, align, err)
	}
	if err := mem.Write(ptr, src); err != nil {
		alloc.Free(ptr, byteLen, align)
		return Owned{}, errors.Wrap(errors.PhaseMemory, errors.KindOutOfBounds, err, "copy into fresh allocation")
	}

	return FromRawPartsN(mem, alloc, ptr, byteLen/elemSize, elemSize, align), nil
}

// Ptr returns the buffer's offset in linear memory, 0 when empty.
func (o *Owned) Ptr() uint32 {
	return o.ptr
}

// Len returns the element count.
func (o *Owned) Len() uint32 {
	if o.ptr == 0 {
		return 0
	}
	return o.count
}

// ByteLen returns the allocation size in bytes.
func (o *Owned) ByteLen() uint32 {
	if o.ptr == 0 {
		return 0
	}
	return o.count * o.size
}

// IsEmpty reports whether the buffer owns no allocation.
func (o *Owned) IsEmpty() bool {
	return o.ptr == 0
}

// Bytes returns a view of the buffer's contents. The view is only valid
// while the buffer is alive and the underlying memory has not grown; there
// is no bounds enforcement beyond the stored length.
func (o *Owned) Bytes() ([]byte, error) {
	if o.ptr == 0 {
		return nil, nil
	}
	return o.mem.Read(o.ptr, o.count*o.size)
}

// Store writes data into the buffer at byte offset off.
func (o *Owned) Store(off uint32, data []byte) error {
	if uint64(off)+uint64(len(data)) > uint64(o.ByteLen()) {
		return errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
			Detail("store [%d, %d) exceeds buffer length %d", off, uint64(off)+uint64(len(data)), o.ByteLen()).
			Build()
	}
	return o.mem.Write(o.ptr+off, data)
}

// Leak releases the deallocation obligation without freeing and returns the
// raw parts for handoff across the boundary. The receiver of the pointer
// now owns the allocation. The buffer is left empty, so a later Free does
// nothing.
func (o *Owned) Leak() (ptr, count uint32) {
	ptr, count = o.ptr, o.count
	if ptr == 0 {
		count = 0
	}
	o.ptr = 0
	o.count = 0
	return ptr, count
}

// Move transfers ownership out of o, leaving it empty.
func (o *Owned) Move() Owned {
	out := *o
	o.ptr = 0
	o.count = 0
	return out
}

// MoveInto transfers ownership into dst. Any allocation dst still owns is
// freed first, mirroring move-assignment.
func (o *Owned) MoveInto(dst *Owned) {
	if dst == o {
		return
	}
	dst.Free()
	*dst = o.Move()
}

// Free releases the allocation through the boundary allocator. Idempotent:
// the first call clears the pointer, so repeated calls and calls after
// Leak or a move-out never double-free.
func (o *Owned) Free() {
	if o.ptr == 0 {
		return
	}
	o.alloc.Free(o.ptr, o.count*o.size, o.align)
	o.ptr = 0
	o.count = 0
}
