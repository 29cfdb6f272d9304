// Package guestruntime provides guest-side ownership primitives for
// exchanging heap-allocated buffers and opaque resource handles across a
// component-style boundary.
//
// The two sides of such a boundary are compiled independently and may use
// different allocators and different memory management. This library pins
// down the three primitives that make the exchange memory-safe:
//
//	guestruntime/       Root package with the Memory and Allocator contracts
//	├── buffer/         Owned, move-only buffers in linear memory
//	├── resource/       Exported and imported resource handles
//	├── mem/            Linear memory implementations (in-process and wazero)
//	└── errors/         Structured error types
//
// # Ownership Model
//
// Buffers crossing the boundary have no implicit ownership: the receiving
// side either adopts the allocation (buffer.FromRawParts) and later frees it
// through the one boundary-agreed Allocator, or copies it (buffer.Copy) and
// leaves the sender's memory alone. A buffer discharges its deallocation
// obligation exactly once: Free, Leak, or a move-out.
//
// Resource handles come in two flavors with asymmetric authority:
//
//   - resource.Exported wraps an object that lives on this side and is
//     registered with the other side's handle table. The host may destroy it
//     at any time by invoking the object's destructor through the registry;
//     ordinary scope exit instead calls Release, which notifies the host and
//     never frees directly.
//   - resource.Imported wraps a handle to an object living on the other
//     side. It can be used and moved onward but never duplicated, and is
//     released only by an explicit drop call back into the host.
//
// # Allocator Identity
//
// Exactly one (Alloc, Free) pair is valid for a given boundary. The pair is
// passed to buffers as an explicit capability rather than read from a
// global, because mixing allocator identities across independently compiled
// units is the primary source of the corruption this design prevents.
//
// # Thread Safety
//
// The ownership wrappers assume a single logical thread of control per
// guest instance, matching a synchronous boundary call convention. The
// registry and memory implementations in mem/ and resource/ carry their own
// locking because they model the host side of the boundary.
package guestruntime
