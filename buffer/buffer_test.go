package buffer

import (
	"bytes"
	stderrors "errors"
	"testing"

	guestruntime "github.com/wasmlink/guest-runtime"
	rterrors "github.com/wasmlink/guest-runtime/errors"
	"github.com/wasmlink/guest-runtime/mem"
)

// countingAllocator tracks alloc/free pairing so tests can prove each
// obligation runs at most once.
type countingAllocator struct {
	inner  guestruntime.Allocator
	allocs int
	frees  int
	failAt int // fail the nth allocation, 0 = never
}

func (a *countingAllocator) Alloc(size, align uint32) (uint32, error) {
	a.allocs++
	if a.failAt != 0 && a.allocs >= a.failAt {
		return 0, stderrors.New("arena exhausted")
	}
	return a.inner.Alloc(size, align)
}

func (a *countingAllocator) Free(ptr, size, align uint32) {
	a.frees++
	a.inner.Free(ptr, size, align)
}

func newTestArena() (*mem.LinearMemory, *countingAllocator) {
	m := mem.NewLinearMemory(1)
	return m, &countingAllocator{inner: m}
}

func TestCopy_RoundTrip(t *testing.T) {
	m, alloc := newTestArena()

	src := []byte("hello")
	buf, err := Copy(m, alloc, src)
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	defer buf.Free()

	if buf.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", buf.Len())
	}
	got, err := buf.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if !bytes.Equal(got, src) {
		t.Fatalf("Bytes() = %q, want %q", got, src)
	}

	// The copy lives in the arena, not in the source slice's storage.
	src[0] = 'X'
	got, _ = buf.Bytes()
	if got[0] != 'h' {
		t.Fatal("buffer aliases the source storage")
	}
}

func TestCopy_AllocationFailure(t *testing.T) {
	m, alloc := newTestArena()
	alloc.failAt = 1

	_, err := Copy(m, alloc, []byte("hello"))
	if err == nil {
		t.Fatal("expected allocation failure")
	}
	if !stderrors.Is(err, &rterrors.Error{Phase: rterrors.PhaseAlloc, Kind: rterrors.KindAllocation}) {
		t.Fatalf("expected allocation error, got %v", err)
	}
}

func TestCopy_Empty(t *testing.T) {
	m, alloc := newTestArena()

	buf, err := Copy(m, alloc, nil)
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if !buf.IsEmpty() || buf.Ptr() != 0 {
		t.Fatal("empty copy should own nothing")
	}
	if alloc.allocs != 0 {
		t.Fatal("empty copy should not allocate")
	}
	buf.Free()
	if alloc.frees != 0 {
		t.Fatal("empty buffer should not free")
	}
}

func TestFromRawParts_AdoptsWithoutCopy(t *testing.T) {
	m, alloc := newTestArena()

	p, err := alloc.Alloc(4, 1)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if err := m.Write(p, []byte("data")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	buf := FromRawParts(m, alloc, p, 4)
	if buf.Ptr() != p {
		t.Fatalf("Ptr() = %d, want %d", buf.Ptr(), p)
	}
	if alloc.allocs != 1 {
		t.Fatal("adoption must not allocate")
	}

	buf.Free()
	if alloc.frees != 1 {
		t.Fatalf("frees = %d, want 1", alloc.frees)
	}
}

func TestFromRawParts_ZeroLengthStillOwns(t *testing.T) {
	m, alloc := newTestArena()

	// Allocators may return a distinct non-null pointer for an empty
	// list; the obligation to free it travels with the pointer.
	p, err := alloc.Alloc(0, 4)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if p == 0 {
		t.Fatal("arena returned the null sentinel for a zero-size allocation")
	}

	buf := FromRawPartsN(m, alloc, p, 0, 1, 4)
	if buf.Ptr() != p {
		t.Fatalf("Ptr() = %d, want %d: adoption discarded the pointer", buf.Ptr(), p)
	}
	if buf.Len() != 0 || buf.ByteLen() != 0 {
		t.Fatalf("length = (%d, %d), want (0, 0)", buf.Len(), buf.ByteLen())
	}

	buf.Free()
	if alloc.frees != 1 {
		t.Fatalf("frees = %d, want 1: zero-count adoption dropped the obligation", alloc.frees)
	}
	if buf.Ptr() != 0 {
		t.Fatal("buffer should be empty after Free")
	}
}

func TestOwned_FreeIsIdempotent(t *testing.T) {
	m, alloc := newTestArena()

	buf, err := Copy(m, alloc, []byte("hello"))
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}

	buf.Free()
	buf.Free()
	if alloc.frees != 1 {
		t.Fatalf("frees = %d, want 1", alloc.frees)
	}
	if !buf.IsEmpty() {
		t.Fatal("buffer should be empty after Free")
	}
}

func TestOwned_LeakDischargesObligation(t *testing.T) {
	m, alloc := newTestArena()

	buf, err := Copy(m, alloc, []byte("hello"))
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	want := buf.Ptr()

	ptr, count := buf.Leak()
	if ptr != want || count != 5 {
		t.Fatalf("Leak() = (%d, %d), want (%d, 5)", ptr, count, want)
	}

	// Destroying a leaked buffer must not free anything.
	buf.Free()
	if alloc.frees != 0 {
		t.Fatalf("frees = %d after leak, want 0", alloc.frees)
	}

	// The receiver of the raw parts now owns the single obligation.
	adopted := FromRawParts(m, alloc, ptr, count)
	adopted.Free()
	if alloc.frees != 1 {
		t.Fatalf("frees = %d, want 1", alloc.frees)
	}
}

func TestOwned_MoveClearsSource(t *testing.T) {
	m, alloc := newTestArena()

	a, err := Copy(m, alloc, []byte("move me"))
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	p := a.Ptr()

	b := a.Move()
	if !a.IsEmpty() {
		t.Fatal("source still owns after move")
	}
	if b.Ptr() != p || b.Len() != 7 {
		t.Fatalf("destination = (%d, %d), want (%d, 7)", b.Ptr(), b.Len(), p)
	}

	a.Free()
	b.Free()
	if alloc.frees != 1 {
		t.Fatalf("frees = %d, want 1", alloc.frees)
	}
}

func TestOwned_MoveIntoFreesDestination(t *testing.T) {
	m, alloc := newTestArena()

	dst, err := Copy(m, alloc, []byte("old"))
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	src, err := Copy(m, alloc, []byte("new"))
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	srcPtr := src.Ptr()

	src.MoveInto(&dst)

	if alloc.frees != 1 {
		t.Fatalf("frees = %d, want 1 (the destination's old allocation)", alloc.frees)
	}
	if !src.IsEmpty() {
		t.Fatal("source still owns after MoveInto")
	}
	if dst.Ptr() != srcPtr {
		t.Fatalf("destination Ptr() = %d, want %d", dst.Ptr(), srcPtr)
	}
	got, _ := dst.Bytes()
	if string(got) != "new" {
		t.Fatalf("destination contents = %q, want %q", got, "new")
	}

	dst.Free()
	if alloc.frees != 2 {
		t.Fatalf("frees = %d, want 2", alloc.frees)
	}
}

func TestOwned_MoveIntoSelf(t *testing.T) {
	m, alloc := newTestArena()

	buf, err := Copy(m, alloc, []byte("self"))
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}

	buf.MoveInto(&buf)
	if buf.IsEmpty() {
		t.Fatal("self move emptied the buffer")
	}
	if alloc.frees != 0 {
		t.Fatal("self move freed the allocation")
	}
	buf.Free()
}

func TestOwned_Store(t *testing.T) {
	m, alloc := newTestArena()

	buf, err := Copy(m, alloc, []byte("xxxxx"))
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	defer buf.Free()

	if err := buf.Store(1, []byte("abc")); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	got, _ := buf.Bytes()
	if string(got) != "xabcx" {
		t.Fatalf("contents = %q, want %q", got, "xabcx")
	}

	err = buf.Store(3, []byte("toolong"))
	if err == nil {
		t.Fatal("expected out of bounds error")
	}
	if !stderrors.Is(err, &rterrors.Error{Phase: rterrors.PhaseMemory, Kind: rterrors.KindOutOfBounds}) {
		t.Fatalf("expected out of bounds error, got %v", err)
	}
}

func TestCopyN_ElementSizeMismatch(t *testing.T) {
	m, alloc := newTestArena()

	if _, err := CopyN(m, alloc, []byte{1, 2, 3}, 2, 2); err == nil {
		t.Fatal("expected error for length not a multiple of element size")
	}

	buf, err := CopyN(m, alloc, []byte{1, 0, 2, 0, 3, 0}, 2, 2)
	if err != nil {
		t.Fatalf("CopyN failed: %v", err)
	}
	defer buf.Free()
	if buf.Len() != 3 {
		t.Fatalf("Len() = %d elements, want 3", buf.Len())
	}
	if buf.ByteLen() != 6 {
		t.Fatalf("ByteLen() = %d, want 6", buf.ByteLen())
	}
}
