package mem

import (
	"encoding/binary"
	"sync"

	"github.com/wasmlink/guest-runtime/errors"
)

// PageSize is the WebAssembly linear memory page size.
const PageSize = 64 * 1024

// DefaultMaxPages caps growth at 64 MiB unless configured otherwise.
const DefaultMaxPages = 1024

// LinearMemory is a slice-backed linear memory with a first-fit free-list
// allocator. It implements the root Memory, MemorySizer, and Allocator
// interfaces and serves as the in-process stand-in for a guest's linear
// memory in tests and same-process boundaries.
//
// Offset 0 is reserved so that 0 can serve as the null sentinel; the
// allocator never returns it. Memory only grows, in whole pages, and views
// returned by Read are invalidated by growth.
type LinearMemory struct {
	data     []byte
	free     []span // sorted by offset, coalesced
	brk      uint32 // high-water mark of the bump region
	maxBytes uint32
	mu       sync.Mutex
}

type span struct {
	off  uint32
	size uint32
}

// NewLinearMemory creates a memory with the given initial page count,
// growable up to DefaultMaxPages.
func NewLinearMemory(pages uint32) *LinearMemory {
	if pages == 0 {
		pages = 1
	}
	if pages > DefaultMaxPages {
		pages = DefaultMaxPages
	}
	return &LinearMemory{
		data:     make([]byte, pages*PageSize),
		brk:      8, // offset 0 stays reserved
		maxBytes: DefaultMaxPages * PageSize,
	}
}

// Size returns the current memory size in bytes.
func (m *LinearMemory) Size() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint32(len(m.data))
}

// Alloc reserves size bytes aligned to align and returns the offset.
// Satisfied from the free list when a dropped span fits, otherwise by
// bumping the high-water mark, growing by whole pages as needed.
func (m *LinearMemory) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	if size == 0 {
		// Zero-size allocations still get a distinct valid pointer.
		size = align
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// First fit in the free list.
	for i, s := range m.free {
		p := alignUp(s.off, align)
		end := uint64(p) + uint64(size)
		if end <= uint64(s.off)+uint64(s.size) {
			m.carve(i, p, size)
			return p, nil
		}
	}

	p := alignUp(m.brk, align)
	end := uint64(p) + uint64(size)
	if end > uint64(m.maxBytes) {
		return 0, errors.AllocationFailed(size, align, nil)
	}
	if end > uint64(len(m.data)) {
		pages := (end - uint64(len(m.data)) + PageSize - 1) / PageSize
		m.data = append(m.data, make([]byte, pages*PageSize)...)
	}

	// The alignment gap in front of the block stays reusable.
	if p > m.brk {
		m.insertSpan(span{off: m.brk, size: p - m.brk})
	}
	m.brk = uint32(end)
	return p, nil
}

// Free returns a block to the allocator. Size and alignment must match the
// original Alloc, per the boundary allocator contract. Freeing ptr 0 is a
// no-op; a block overlapping the free list is ignored rather than
// corrupting it.
func (m *LinearMemory) Free(ptr, size, align uint32) {
	if ptr == 0 {
		return
	}
	if align == 0 {
		align = 1
	}
	if size == 0 {
		size = align
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if uint64(ptr)+uint64(size) > uint64(m.brk) {
		return
	}
	m.insertSpan(span{off: ptr, size: size})
}

// FreeBytes reports how many bytes below the high-water mark are on the
// free list.
func (m *LinearMemory) FreeBytes() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total uint32
	for _, s := range m.free {
		total += s.size
	}
	return total
}

// UsedBytes reports bytes currently reserved by live allocations.
func (m *LinearMemory) UsedBytes() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.brk - 8
	for _, s := range m.free {
		used -= s.size
	}
	return used
}

// carve removes [p, p+size) from free span i, keeping head and tail
// fragments on the list.
func (m *LinearMemory) carve(i int, p, size uint32) {
	s := m.free[i]
	m.free = append(m.free[:i], m.free[i+1:]...)
	if p > s.off {
		m.insertSpan(span{off: s.off, size: p - s.off})
	}
	if tail := (s.off + s.size) - (p + size); tail > 0 {
		m.insertSpan(span{off: p + size, size: tail})
	}
}

// insertSpan adds a span keeping the list sorted and coalesced. Spans
// overlapping an existing entry indicate a double free and are dropped.
func (m *LinearMemory) insertSpan(s span) {
	i := 0
	for i < len(m.free) && m.free[i].off < s.off {
		i++
	}

	if i > 0 {
		prev := m.free[i-1]
		if prev.off+prev.size > s.off {
			return
		}
	}
	if i < len(m.free) && s.off+s.size > m.free[i].off {
		return
	}

	m.free = append(m.free, span{})
	copy(m.free[i+1:], m.free[i:])
	m.free[i] = s

	// Coalesce with the next span, then the previous one.
	if i+1 < len(m.free) && m.free[i].off+m.free[i].size == m.free[i+1].off {
		m.free[i].size += m.free[i+1].size
		m.free = append(m.free[:i+1], m.free[i+2:]...)
	}
	if i > 0 && m.free[i-1].off+m.free[i-1].size == m.free[i].off {
		m.free[i-1].size += m.free[i].size
		m.free = append(m.free[:i], m.free[i+1:]...)
	}
}

func alignUp(offset, align uint32) uint32 {
	return (offset + align - 1) &^ (align - 1)
}

func (m *LinearMemory) bounds(offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(len(m.data)) {
		return errors.OutOfBounds(offset, length, uint32(len(m.data)))
	}
	return nil
}

// Read returns a view of memory. The view aliases the underlying storage
// and is invalidated by growth.
func (m *LinearMemory) Read(offset, length uint32) ([]byte, error) {
	if err := m.bounds(offset, length); err != nil {
		return nil, err
	}
	return m.data[offset : offset+length], nil
}

// Write copies data into memory at offset.
func (m *LinearMemory) Write(offset uint32, data []byte) error {
	if err := m.bounds(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *LinearMemory) ReadU8(offset uint32) (uint8, error) {
	if err := m.bounds(offset, 1); err != nil {
		return 0, err
	}
	return m.data[offset], nil
}

func (m *LinearMemory) ReadU16(offset uint32) (uint16, error) {
	if err := m.bounds(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.data[offset:]), nil
}

func (m *LinearMemory) ReadU32(offset uint32) (uint32, error) {
	if err := m.bounds(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.data[offset:]), nil
}

func (m *LinearMemory) ReadU64(offset uint32) (uint64, error) {
	if err := m.bounds(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m.data[offset:]), nil
}

func (m *LinearMemory) WriteU8(offset uint32, value uint8) error {
	if err := m.bounds(offset, 1); err != nil {
		return err
	}
	m.data[offset] = value
	return nil
}

func (m *LinearMemory) WriteU16(offset uint32, value uint16) error {
	if err := m.bounds(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.data[offset:], value)
	return nil
}

func (m *LinearMemory) WriteU32(offset uint32, value uint32) error {
	if err := m.bounds(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[offset:], value)
	return nil
}

func (m *LinearMemory) WriteU64(offset uint32, value uint64) error {
	if err := m.bounds(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.data[offset:], value)
	return nil
}
