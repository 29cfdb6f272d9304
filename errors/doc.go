// Package errors provides structured error types for boundary operations.
//
// Every failure carries a Phase (where in the ownership lifecycle it
// happened) and a Kind (what went wrong), so callers can match on the
// category with errors.Is without parsing messages:
//
//	_, err := buffer.Copy(mem, alloc, data)
//	if errors.Is(err, &rterrors.Error{Phase: rterrors.PhaseAlloc, Kind: rterrors.KindAllocation}) {
//	    // the boundary allocator could not satisfy the request
//	}
//
// Ownership-discipline violations (moving into a non-empty owner, using a
// leaked buffer) are deliberately not represented here: they are
// programming errors that the wrappers fail fast on with a panic, because
// the memory-safety guarantees depend on them never happening in correct
// code. Double release, at the other end of the severity scale, is a
// guarded no-op and produces no error at all.
package errors
