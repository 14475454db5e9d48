// Package requestslot implements the state machine coordinating at most
// one queued and one in-flight decode request, and arbitrating
// supersession between them.
//
// The package is deliberately decoupled from framedecoder's concrete
// DecodedFrame/Bitmap/Blob types: callbacks are carried as a generic,
// constraint-bound type parameter so this state machine has zero
// dependency on the root package (avoiding an import cycle, since the
// root package depends on requestslot).
package requestslot
