package requestslot

import "sync"

// Rejecter is the capability a request's callback set must provide so
// the slot can signal supersession without knowing the rest of the
// callback surface (on_decode, on_decode_all).
type Rejecter interface {
	Reject(err error)
}

// Request is one pending or in-flight decode request.
//
// Invariant (enforced by the caller, not this package): FrameNumbers is
// non-empty and strictly ascending.
type Request[C Rejecter] struct {
	ChunkNumber  uint64
	FrameNumbers []uint64
	Block        []byte
	Callbacks    C
}

// Slot is exactly one of: Idle (Q and F both nil), Queued (Q set),
// InFlight (F set), or QueuedWhileInFlight (both set).
type Slot[C Rejecter] struct {
	mu sync.Mutex
	q  *Request[C]
	f  *Request[C]
}

// New creates an idle Slot.
func New[C Rejecter]() *Slot[C] {
	return &Slot[C]{}
}

// Rejection is a request that was superseded by a Submit call, carrying
// enough of the original to report which chunk it belonged to.
type Rejection[C Rejecter] struct {
	ChunkNumber uint64
	Callbacks   C
}

// Submit runs the supersession protocol for an incoming request and
// returns the request(s) that must be rejected with an OutdatedError.
// Callers must invoke Reject on the returned callbacks after releasing
// any lock of their own, since Reject runs caller-supplied code.
func (s *Slot[C]) Submit(req *Request[C]) []Rejection[C] {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toReject []Rejection[C]

	switch {
	case s.q != nil:
		if sameFrameNumbers(req.FrameNumbers, s.q.FrameNumbers) {
			// Same pending request: reject the old callbacks, adopt the
			// new ones, keep everything else about the queued request.
			toReject = append(toReject, Rejection[C]{ChunkNumber: s.q.ChunkNumber, Callbacks: s.q.Callbacks})
			s.q.Callbacks = req.Callbacks
		} else {
			toReject = append(toReject, Rejection[C]{ChunkNumber: s.q.ChunkNumber, Callbacks: s.q.Callbacks})
			s.q = req
		}

	case s.f == nil || !sameFrameNumbers(req.FrameNumbers, s.f.FrameNumbers):
		s.q = req

	default:
		// Same chunk as the in-flight request: it keeps running, but its
		// outputs now flow to req's callbacks. Compared against F here,
		// never against Q - Q may be nil in this branch.
		toReject = append(toReject, Rejection[C]{ChunkNumber: s.f.ChunkNumber, Callbacks: s.f.Callbacks})
		s.f.Callbacks = req.Callbacks
	}

	return toReject
}

// SnapshotQueued returns the currently queued request, or nil, without
// mutating the slot. Used by the caller before awaiting the decode
// mutex, per the "acquisition snapshot" protocol.
func (s *Slot[C]) SnapshotQueued() *Request[C] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q
}

// TryPromote is called once the decode mutex has been acquired. It
// re-checks that the queued request is still the same one that was
// snapshotted before the acquire; if it is, the queued request is
// promoted to in-flight and cleared from the queue slot. If a newer
// submission replaced it in the meantime, TryPromote reports the
// snapshot is stale and promotes nothing - but it does not reject it.
// Every Submit branch that replaces Q's identity already rejects the
// request it displaces, so a stale snapshot's callbacks have already
// been rejected by the time TryPromote observes the staleness; the
// caller's only job on rejectSnapshot is to retry against the current Q,
// never to reject the snapshot a second time.
//
// Identity (not value) comparison against the snapshot is used: any
// submission that swaps callbacks in place reuses the same *Request, so
// identity is exact and sidesteps the ambiguity a frame_numbers-only
// comparison would have for a queued request overwritten mid-acquire.
func (s *Slot[C]) TryPromote(snapshot *Request[C]) (promoted *Request[C], rejectSnapshot bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.q != snapshot {
		return nil, true
	}
	promoted = s.q
	s.f = promoted
	s.q = nil
	return promoted, false
}

// InFlight returns the currently in-flight request, or nil.
func (s *Slot[C]) InFlight() *Request[C] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f
}

// ClearInFlight clears the in-flight request at the end of a session
// (success or failure).
func (s *Slot[C]) ClearInFlight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.f = nil
}

func sameFrameNumbers(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
