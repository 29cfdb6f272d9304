package guestruntime

// Memory represents a linear memory region shared across the boundary.
// Offsets are byte addresses; offset 0 is reserved and never handed out
// by an Allocator.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator is the single boundary-agreed allocation pair. Every buffer
// handed across the boundary must be allocated with this pair, and every
// buffer received must be freed with the matching Free, never the
// receiver's own allocator. The pair is an injected capability so that a
// mismatched configuration fails a test instead of corrupting memory.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}
