package buffer

import (
	"testing"

	"go.bytecodealliance.org/wit"
)

func TestLayout_Primitives(t *testing.T) {
	tests := []struct {
		typ   wit.Type
		name  string
		size  uint32
		align uint32
	}{
		{wit.Bool{}, "bool", 1, 1},
		{wit.U8{}, "u8", 1, 1},
		{wit.S8{}, "s8", 1, 1},
		{wit.U16{}, "u16", 2, 2},
		{wit.S16{}, "s16", 2, 2},
		{wit.U32{}, "u32", 4, 4},
		{wit.S32{}, "s32", 4, 4},
		{wit.U64{}, "u64", 8, 8},
		{wit.S64{}, "s64", 8, 8},
		{wit.F32{}, "f32", 4, 4},
		{wit.F64{}, "f64", 8, 8},
		{wit.Char{}, "char", 4, 4},
		{wit.String{}, "string", 8, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			size, align := Layout(tc.typ)
			if size != tc.size {
				t.Errorf("size: got %d, want %d", size, tc.size)
			}
			if align != tc.align {
				t.Errorf("align: got %d, want %d", align, tc.align)
			}
		})
	}
}

func TestLayout_Record(t *testing.T) {
	// (u8, u32, u8) pads to 12 bytes at align 4.
	record := &wit.Record{
		Fields: []wit.Field{
			{Name: "a", Type: wit.U8{}},
			{Name: "b", Type: wit.U32{}},
			{Name: "c", Type: wit.U8{}},
		},
	}
	size, align := Layout(&wit.TypeDef{Kind: record})
	if size != 12 || align != 4 {
		t.Fatalf("record layout = (%d, %d), want (12, 4)", size, align)
	}
}

func TestLayout_Tuple(t *testing.T) {
	tuple := &wit.Tuple{Types: []wit.Type{wit.U32{}, wit.U64{}}}
	size, align := Layout(&wit.TypeDef{Kind: tuple})
	if size != 16 || align != 8 {
		t.Fatalf("tuple layout = (%d, %d), want (16, 8)", size, align)
	}
}

func TestLayout_EnumAndFlags(t *testing.T) {
	cases := make([]wit.EnumCase, 300)
	enum := &wit.Enum{Cases: cases}
	if size, align := Layout(&wit.TypeDef{Kind: enum}); size != 2 || align != 2 {
		t.Errorf("enum(300) layout = (%d, %d), want (2, 2)", size, align)
	}

	flags := make([]wit.Flag, 65)
	if size, align := Layout(&wit.TypeDef{Kind: &wit.Flags{Flags: flags}}); size != 12 || align != 4 {
		t.Errorf("flags(65) layout = (%d, %d), want (12, 4)", size, align)
	}
}

func TestLayout_List(t *testing.T) {
	list := &wit.TypeDef{Kind: &wit.List{Type: wit.U32{}}}
	if size, align := Layout(list); size != 8 || align != 4 {
		t.Errorf("list layout = (%d, %d), want (8, 4)", size, align)
	}
}

func TestAlignTo(t *testing.T) {
	tests := []struct {
		offset, align, want uint32
	}{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 8, 8},
		{17, 1, 17},
		{3, 0, 3},
	}
	for _, tc := range tests {
		if got := AlignTo(tc.offset, tc.align); got != tc.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tc.offset, tc.align, got, tc.want)
		}
	}
}

func TestForList(t *testing.T) {
	m, alloc := newTestArena()

	buf, err := ForList(m, alloc, wit.U32{}, 10)
	if err != nil {
		t.Fatalf("ForList failed: %v", err)
	}
	defer buf.Free()

	if buf.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", buf.Len())
	}
	if buf.ByteLen() != 40 {
		t.Fatalf("ByteLen() = %d, want 40", buf.ByteLen())
	}
	if buf.Ptr()%4 != 0 {
		t.Fatalf("Ptr() = %d, not 4-aligned", buf.Ptr())
	}
}

func TestForList_ZeroCount(t *testing.T) {
	m, alloc := newTestArena()

	buf, err := ForList(m, alloc, wit.U64{}, 0)
	if err != nil {
		t.Fatalf("ForList failed: %v", err)
	}
	if !buf.IsEmpty() {
		t.Fatal("zero-length list should own nothing")
	}
	if alloc.allocs != 0 {
		t.Fatal("zero-length list should not allocate")
	}
}

func TestForList_Overflow(t *testing.T) {
	m, alloc := newTestArena()

	if _, err := ForList(m, alloc, wit.U64{}, 0xFFFFFFFF); err == nil {
		t.Fatal("expected overflow error")
	}
	if alloc.allocs != 0 {
		t.Fatal("overflowing list must not reach the allocator")
	}
}
