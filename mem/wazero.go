package mem

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wasmlink/guest-runtime/errors"
)

// Export names probed when binding a module's allocator. cabi_realloc is
// the Component Model convention; the rest are common legacy spellings.
const (
	cabiRealloc = "cabi_realloc"
	cabiFree    = "cabi_free"
)

var allocNames = []string{cabiRealloc, "canonical_abi_realloc", "allocate", "malloc"}
var freeNames = []string{cabiFree, "canonical_abi_free", "deallocate", "free"}

// WazeroMemory adapts a wazero module memory to the Memory interface.
type WazeroMemory struct {
	mem api.Memory
}

// NewWazeroMemory wraps a wazero memory.
func NewWazeroMemory(mem api.Memory) *WazeroMemory {
	return &WazeroMemory{mem: mem}
}

// Size returns the current memory size in bytes.
func (m *WazeroMemory) Size() uint32 {
	return m.mem.Size()
}

func (m *WazeroMemory) Read(offset, length uint32) ([]byte, error) {
	b, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(offset, length, m.mem.Size())
	}
	return b, nil
}

func (m *WazeroMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return errors.OutOfBounds(offset, uint32(len(data)), m.mem.Size())
	}
	return nil
}

func (m *WazeroMemory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, errors.OutOfBounds(offset, 1, m.mem.Size())
	}
	return v, nil
}

func (m *WazeroMemory) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.mem.ReadUint16Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(offset, 2, m.mem.Size())
	}
	return v, nil
}

func (m *WazeroMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(offset, 4, m.mem.Size())
	}
	return v, nil
}

func (m *WazeroMemory) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(offset, 8, m.mem.Size())
	}
	return v, nil
}

func (m *WazeroMemory) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return errors.OutOfBounds(offset, 1, m.mem.Size())
	}
	return nil
}

func (m *WazeroMemory) WriteU16(offset uint32, value uint16) error {
	if !m.mem.WriteUint16Le(offset, value) {
		return errors.OutOfBounds(offset, 2, m.mem.Size())
	}
	return nil
}

func (m *WazeroMemory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return errors.OutOfBounds(offset, 4, m.mem.Size())
	}
	return nil
}

func (m *WazeroMemory) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return errors.OutOfBounds(offset, 8, m.mem.Size())
	}
	return nil
}

// WazeroAllocator drives a module's exported allocator so that every
// buffer crossing into the module is allocated and freed by the module's
// own pair, the single allocator identity the boundary agrees on.
type WazeroAllocator struct {
	allocFn    api.Function
	freeFn     api.Function
	currentCtx context.Context
	stackBuf   []uint64
	stackMutex sync.Mutex
	simple     bool // allocator takes (size) instead of (old, oldSize, align, size)
}

// BindAllocator locates the module's exported allocation pair, trying
// cabi_realloc first and falling back to legacy names. The free export is
// optional: some guests only reclaim on instance teardown.
func BindAllocator(mod api.Module) (*WazeroAllocator, error) {
	var allocFn api.Function
	for _, name := range allocNames {
		if fn := mod.ExportedFunction(name); fn != nil {
			allocFn = fn
			break
		}
	}
	if allocFn == nil {
		return nil, errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			Detail("module %q exports no known allocator", mod.Name()).
			Build()
	}

	var freeFn api.Function
	for _, name := range freeNames {
		if fn := mod.ExportedFunction(name); fn != nil {
			freeFn = fn
			break
		}
	}

	return &WazeroAllocator{
		allocFn:  allocFn,
		freeFn:   freeFn,
		stackBuf: make([]uint64, 4),
		simple:   len(allocFn.Definition().ParamTypes()) < 4,
	}, nil
}

// BindModule binds both the memory and the allocator of a module.
func BindModule(mod api.Module) (*WazeroMemory, *WazeroAllocator, error) {
	memory := mod.Memory()
	if memory == nil {
		return nil, nil, errors.InvalidInput(errors.PhaseMemory, "module exports no memory")
	}
	alloc, err := BindAllocator(mod)
	if err != nil {
		return nil, nil, err
	}
	return NewWazeroMemory(memory), alloc, nil
}

// SetContext installs the context used for allocator calls.
func (a *WazeroAllocator) SetContext(ctx context.Context) {
	a.stackMutex.Lock()
	defer a.stackMutex.Unlock()
	a.currentCtx = ctx
}

func (a *WazeroAllocator) ctx() context.Context {
	if a.currentCtx != nil {
		return a.currentCtx
	}
	return context.Background()
}

func (a *WazeroAllocator) Alloc(size, align uint32) (uint32, error) {
	a.stackMutex.Lock()
	defer a.stackMutex.Unlock()

	if a.simple {
		a.stackBuf[0] = uint64(size)
		if err := a.allocFn.CallWithStack(a.ctx(), a.stackBuf[:1]); err != nil {
			return 0, errors.AllocationFailed(size, align, err)
		}
		return uint32(a.stackBuf[0]), nil
	}

	// cabi_realloc(old, oldSize, align, newSize)
	a.stackBuf[0] = 0
	a.stackBuf[1] = 0
	a.stackBuf[2] = uint64(align)
	a.stackBuf[3] = uint64(size)
	if err := a.allocFn.CallWithStack(a.ctx(), a.stackBuf[:4]); err != nil {
		return 0, errors.AllocationFailed(size, align, err)
	}
	return uint32(a.stackBuf[0]), nil
}

func (a *WazeroAllocator) Free(ptr, size, align uint32) {
	if a.freeFn == nil || ptr == 0 {
		return
	}

	a.stackMutex.Lock()
	defer a.stackMutex.Unlock()

	a.stackBuf[0] = uint64(ptr)
	a.stackBuf[1] = uint64(size)
	a.stackBuf[2] = uint64(align)
	n := len(a.freeFn.Definition().ParamTypes())
	if n > 3 {
		n = 3
	}
	if err := a.freeFn.CallWithStack(a.ctx(), a.stackBuf[:n]); err != nil {
		Logger().Warn("Free: guest deallocation call failed",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err))
	}
}
