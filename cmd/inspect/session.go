package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wasmlink/guest-runtime/buffer"
	"github.com/wasmlink/guest-runtime/mem"
	"github.com/wasmlink/guest-runtime/resource"
)

const widgetKind = 1

// widget is the demo exported resource: a named object owning a payload
// buffer in the session's linear memory. Its Drop is the host-initiated
// teardown path and frees the payload without touching the registry.
type widget struct {
	name    string
	payload buffer.Owned
	res     resource.Exported
}

func (w *widget) Drop() {
	w.payload.Free()
}

type ownedEntry struct {
	name string
	buf  buffer.Owned
}

// session is an in-process boundary: a registry playing the host's handle
// table and a linear memory with the boundary allocator.
type session struct {
	reg     *mem.LinearMemory
	table   *resource.LocalRegistry
	widgets map[resource.Handle]*widget
	buffers []ownedEntry
}

func newSession(pages uint32) *session {
	return &session{
		reg:     mem.NewLinearMemory(pages),
		table:   resource.NewLocalRegistry(),
		widgets: make(map[resource.Handle]*widget),
	}
}

// export registers a new widget carrying text as its payload.
func (s *session) export(name, text string) (resource.Handle, error) {
	payload, err := buffer.Copy(s.reg, s.reg, []byte(text))
	if err != nil {
		return resource.Sentinel, err
	}

	w := &widget{name: name}
	payload.MoveInto(&w.payload)

	exp, err := resource.NewExported(s.table, widgetKind, w)
	if err != nil {
		w.payload.Free()
		return resource.Sentinel, err
	}
	w.res = exp

	h := w.res.Handle()
	s.widgets[h] = w
	return h, nil
}

// release runs the guest-initiated drop for a widget: the registry invokes
// the widget's destructor, which frees its payload.
func (s *session) release(h resource.Handle) error {
	w, ok := s.widgets[h]
	if !ok {
		return fmt.Errorf("no exported resource with handle %d", h)
	}
	delete(s.widgets, h)
	return w.res.Release()
}

// copyBuffer copies text into a fresh owned allocation.
func (s *session) copyBuffer(text string) (int, error) {
	buf, err := buffer.Copy(s.reg, s.reg, []byte(text))
	if err != nil {
		return 0, err
	}
	entry := ownedEntry{name: fmt.Sprintf("buf%d", len(s.buffers))}
	buf.MoveInto(&entry.buf)
	s.buffers = append(s.buffers, entry)
	return len(s.buffers) - 1, nil
}

func (s *session) freeBuffer(idx int) error {
	if idx < 0 || idx >= len(s.buffers) {
		return fmt.Errorf("no buffer %d", idx)
	}
	s.buffers[idx].buf.Free()
	return nil
}

func (s *session) leakBuffer(idx int) (ptr, count uint32, err error) {
	if idx < 0 || idx >= len(s.buffers) {
		return 0, 0, fmt.Errorf("no buffer %d", idx)
	}
	ptr, count = s.buffers[idx].buf.Leak()
	return ptr, count, nil
}

func (s *session) close() {
	for i := range s.buffers {
		s.buffers[i].buf.Free()
	}
	s.widgets = nil
	s.table.Close()
}

func (s *session) resourceLines() []string {
	var lines []string
	s.table.Each(func(h resource.Handle, kind uint32, v any) bool {
		name := "?"
		if w, ok := v.(*widget); ok {
			name = w.name
		}
		lines = append(lines, fmt.Sprintf("#%-4d kind=%d  %s", h, kind, name))
		return true
	})
	sort.Strings(lines)
	return lines
}

func (s *session) bufferLines() []string {
	var lines []string
	for i, e := range s.buffers {
		state := fmt.Sprintf("ptr=%d len=%d", e.buf.Ptr(), e.buf.Len())
		if e.buf.IsEmpty() {
			state = "empty (freed or leaked)"
		}
		lines = append(lines, fmt.Sprintf("[%d] %-6s %s", i, e.name, state))
	}
	return lines
}

func (s *session) statsLine() string {
	return fmt.Sprintf("memory: %d KiB mapped, %d B live, %d B on free list, %d resources",
		s.reg.Size()/1024, s.reg.UsedBytes(), s.reg.FreeBytes(), s.table.Len())
}

func (s *session) summary() string {
	var b strings.Builder
	b.WriteString("Exported resources:\n")
	for _, l := range s.resourceLines() {
		b.WriteString("  " + l + "\n")
	}
	b.WriteString("Owned buffers:\n")
	for _, l := range s.bufferLines() {
		b.WriteString("  " + l + "\n")
	}
	b.WriteString(s.statsLine())
	b.WriteString("\n")
	return b.String()
}
