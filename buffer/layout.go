package buffer

import (
	"go.bytecodealliance.org/wit"

	guestruntime "github.com/wasmlink/guest-runtime"
	"github.com/wasmlink/guest-runtime/errors"
)

// AlignTo rounds offset up to the next multiple of align.
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// Layout returns the canonical ABI size and alignment of t as a list
// element. Zero-sized types report size 0, align 1.
func Layout(t wit.Type) (size, align uint32) {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return 1, 1
	case wit.U16, wit.S16:
		return 2, 2
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return 4, 4
	case wit.U64, wit.S64, wit.F64:
		return 8, 8
	case wit.String:
		return 8, 4 // [ptr: u32, len: u32]
	case *wit.TypeDef:
		return typeDefLayout(typ)
	default:
		return 0, 1
	}
}

func typeDefLayout(t *wit.TypeDef) (size, align uint32) {
	switch kind := t.Kind.(type) {
	case *wit.List:
		return 8, 4
	case *wit.Enum:
		s := discriminantSize(len(kind.Cases))
		return s, s
	case *wit.Flags:
		return flagsLayout(len(kind.Flags))
	case *wit.Record:
		return fieldsLayout(func(yield func(wit.Type)) {
			for _, f := range kind.Fields {
				yield(f.Type)
			}
		})
	case *wit.Tuple:
		return fieldsLayout(func(yield func(wit.Type)) {
			for _, typ := range kind.Types {
				yield(typ)
			}
		})
	case wit.Type:
		return Layout(kind)
	default:
		return 0, 1
	}
}

// fieldsLayout computes record-style sequential layout: each field aligned
// to its own alignment, total size rounded up to the max alignment.
func fieldsLayout(fields func(func(wit.Type))) (size, align uint32) {
	maxAlign := uint32(1)
	offset := uint32(0)

	fields(func(t wit.Type) {
		fSize, fAlign := Layout(t)
		offset = AlignTo(offset, fAlign)
		if fAlign > maxAlign {
			maxAlign = fAlign
		}
		offset += fSize
	})

	return AlignTo(offset, maxAlign), maxAlign
}

func discriminantSize(cases int) uint32 {
	switch {
	case cases <= 1<<8:
		return 1
	case cases <= 1<<16:
		return 2
	default:
		return 4
	}
}

func flagsLayout(numFlags int) (size, align uint32) {
	switch {
	case numFlags == 0:
		return 0, 1
	case numFlags <= 8:
		return 1, 1
	case numFlags <= 16:
		return 2, 2
	case numFlags <= 32:
		return 4, 4
	case numFlags <= 64:
		return 8, 8
	default:
		// >64 flags: multiple u32s per Canonical ABI spec
		return uint32((numFlags + 31) / 32 * 4), 4
	}
}

// ForList allocates an owned buffer for count elements of WIT type t, sized
// and aligned per the canonical ABI. The contents are uninitialized.
func ForList(mem guestruntime.Memory, alloc guestruntime.Allocator, t wit.Type, count uint32) (Owned, error) {
	size, align := Layout(t)
	if size == 0 {
		return Owned{}, errors.InvalidInput(errors.PhaseAlloc, "zero-sized list element")
	}
	if count == 0 {
		return FromRawPartsN(mem, alloc, 0, 0, size, align), nil
	}

	total := uint64(count) * uint64(size)
	if total > 0xFFFFFFFF {
		return Owned{}, errors.Overflow(errors.PhaseAlloc,
			"list byte length exceeds the 32-bit address space")
	}

	ptr, err := alloc.Alloc(uint32(total), align)
	if err != nil {
		return Owned{}, errors.AllocationFailed(uint32(total), align, err)
	}
	return FromRawPartsN(mem, alloc, ptr, count, size, align), nil
}
