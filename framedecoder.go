package framedecoder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/annotate-video/framedecoder/internal/chunkcache"
	"github.com/annotate-video/framedecoder/internal/decodeworker"
	"github.com/annotate-video/framedecoder/internal/requestslot"
)

// FrameDecoder is the public facade: it owns the chunk cache and the
// request slot, serializes decode sessions under a single-slot async
// mutex, and dispatches each session to the DecodeWorkerHandle matching
// its BlockType.
//
// A FrameDecoder is safe for concurrent use. It is OPEN from
// construction until Close. After Close, RequestDecode returns ErrClosed,
// the cache is empty, and Close itself is idempotent.
type FrameDecoder struct {
	blockType BlockType
	dimension ArchiveDimension
	chunkOf   ChunkOfFunc

	mu     sync.Mutex
	render RenderSize
	closed bool

	cache     *chunkcache.Cache[DecodedFrame]
	slot      *requestslot.Slot[DecodeCallbacks]
	decodeSem *semaphore.Weighted

	archiveHandle  decodeworker.Handle
	newVideoHandle func() decodeworker.Handle

	wake        chan struct{}
	closeCtx    context.Context
	closeCancel context.CancelFunc
	runnerDone  chan struct{}

	logger *slog.Logger
}

// New constructs an open FrameDecoder. capacity is clamped to
// max(1, capacity) by the underlying cache. dimension selects the
// archive worker's output shape and is ignored when blockType is
// BlockTypeVideo.
func New(blockType BlockType, capacity int, chunkOf ChunkOfFunc, dimension ArchiveDimension, opts ...Option) *FrameDecoder {
	ctx, cancel := context.WithCancel(context.Background())

	d := &FrameDecoder{
		blockType:   blockType,
		dimension:   dimension,
		chunkOf:     chunkOf,
		cache:       chunkcache.New[DecodedFrame](capacity),
		slot:        requestslot.New[DecodeCallbacks](),
		decodeSem:   semaphore.NewWeighted(1),
		wake:        make(chan struct{}, 1),
		closeCtx:    ctx,
		closeCancel: cancel,
		runnerDone:  make(chan struct{}),
	}
	d.newVideoHandle = func() decodeworker.Handle { return decodeworker.NewVideoHandle() }
	if blockType == BlockTypeArchive {
		d.archiveHandle = decodeworker.NewArchiveHandle()
	}

	for _, opt := range opts {
		opt(d)
	}

	go d.run()
	return d
}

// IsChunkCached reports whether chunkNumber is resident in the cache.
func (d *FrameDecoder) IsChunkCached(chunkNumber ChunkNumber) bool {
	return d.cache.Has(uint64(chunkNumber))
}

// Frame looks up a single frame by its chunk, via chunkOf. It returns
// (_, false) if the owning chunk is not resident.
func (d *FrameDecoder) Frame(frameNumber FrameNumber) (DecodedFrame, bool) {
	chunkNumber := d.chunkOf(frameNumber)
	return d.cache.Get(uint64(chunkNumber), uint64(frameNumber))
}

// SetRenderSize sets the crop target for subsequent video decode
// sessions. It has no effect on archive-mode decoders, and has no effect
// on a session already dispatched to a worker.
func (d *FrameDecoder) SetRenderSize(width, height int) {
	d.mu.Lock()
	d.render = RenderSize{Width: width, Height: height}
	d.mu.Unlock()
}

// RequestDecode submits block for decoding under frameNumbers, running
// the supersession protocol against any queued or in-flight request. It
// returns a *ProgrammerError synchronously if frameNumbers is empty or
// not strictly ascending, without mutating decoder state, and ErrClosed
// once the decoder is closed. Otherwise it returns without waiting for
// the decode: the OnReject of any request it supersedes runs on the
// caller's goroutine before it returns, and the new request's callbacks
// are invoked asynchronously.
func (d *FrameDecoder) RequestDecode(block []byte, frameNumbers []FrameNumber, callbacks DecodeCallbacks) error {
	if len(frameNumbers) == 0 {
		return &ProgrammerError{Reason: "frame_numbers must be non-empty"}
	}
	for i := 1; i < len(frameNumbers); i++ {
		if frameNumbers[i] <= frameNumbers[i-1] {
			return &ProgrammerError{Reason: "frame_numbers must be strictly ascending"}
		}
	}

	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrClosed
	}

	chunkNumber := d.chunkOf(frameNumbers[0])
	req := &requestslot.Request[DecodeCallbacks]{
		ChunkNumber:  uint64(chunkNumber),
		FrameNumbers: frameNumbersToUint64(frameNumbers),
		Block:        block,
		Callbacks:    callbacks,
	}

	rejections := d.slot.Submit(req)
	for _, r := range rejections {
		d.log().Debug("framedecoder: request superseded", "chunk", r.ChunkNumber)
		r.Callbacks.Reject(&OutdatedError{ChunkNumber: ChunkNumber(r.ChunkNumber)})
	}

	d.wakeRunner()
	return nil
}

// CachedChunks returns the ascending, unique chunk numbers currently
// resident. If includeInProgress is true and a request is in flight, its
// chunk number is appended after the resident list.
func (d *FrameDecoder) CachedChunks(includeInProgress bool) []ChunkNumber {
	keys := d.cache.KeysSorted()
	out := make([]ChunkNumber, len(keys))
	for i, k := range keys {
		out[i] = ChunkNumber(k)
	}
	if includeInProgress {
		if f := d.slot.InFlight(); f != nil {
			out = append(out, ChunkNumber(f.ChunkNumber))
		}
	}
	return out
}

// Close cancels the context handed to an in-flight session's worker,
// waits for the dispatch loop to stop, terminates the archive handle,
// and clears the cache, releasing every resident Bitmap. It does not
// itself reject any request's callbacks: a queued request gets no
// callback at all, and an in-flight session ends however its worker
// reacts to the cancellation (the bundled workers report it as an
// error, so OnReject receives a WorkerError). Close is idempotent.
func (d *FrameDecoder) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.closeCancel()
	<-d.runnerDone

	if d.archiveHandle != nil {
		_ = d.archiveHandle.Terminate()
	}
	d.cache.Clear(d.releaseFrame)
	d.log().Info("framedecoder: closed")
	return nil
}

func (d *FrameDecoder) wakeRunner() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *FrameDecoder) releaseFrame(f DecodedFrame) {
	if err := f.release(); err != nil {
		d.log().Error("framedecoder: release failed", "error", err)
	}
}

// run is the decoder's single session-dispatch loop: one goroutine, for
// the decoder's entire lifetime, that owns every call into the decode
// mutex. It is the only place TryPromote is ever called, which is what
// makes the RequestSlot's "idempotent while F is set" contract trivial -
// a wake-up that arrives while a session is already running is simply
// absorbed by the inner loop re-checking the queue before going idle.
func (d *FrameDecoder) run() {
	defer close(d.runnerDone)
	for {
		select {
		case <-d.closeCtx.Done():
			return
		case <-d.wake:
		}
		if !d.drainQueue() {
			return
		}
	}
}

// drainQueue runs start_decode until the queue is empty, returning false
// if it stopped because the decoder is closing.
func (d *FrameDecoder) drainQueue() bool {
	for {
		snapshot := d.slot.SnapshotQueued()
		if snapshot == nil {
			return true
		}

		if err := d.decodeSem.Acquire(d.closeCtx, 1); err != nil {
			return false
		}

		// A stale snapshot's callbacks were already rejected by whichever
		// Submit call displaced it from Q - every Submit branch that
		// changes Q's identity rejects the request it displaces. There is
		// nothing left to reject here; just retry against the current Q.
		promoted, rejectSnapshot := d.slot.TryPromote(snapshot)
		if rejectSnapshot {
			d.decodeSem.Release(1)
			continue
		}

		d.runSession(promoted)
	}
}

// runSession executes exactly one decode session: it holds the decode
// mutex for its entire duration, handing each worker event to the
// request's callbacks as it arrives and committing the chunk only once
// every declared frame has completed.
func (d *FrameDecoder) runSession(req *requestslot.Request[DecodeCallbacks]) {
	defer d.decodeSem.Release(1)
	defer d.slot.ClearInFlight()

	chunkNumber := ChunkNumber(req.ChunkNumber)
	sessionID := uuid.New()
	d.log().Info("framedecoder: session start", "session_id", sessionID, "chunk", chunkNumber, "frames", len(req.FrameNumbers))

	d.cache.EvictDownTo(1, d.releaseFrame)

	handle, terminate := d.acquireHandle()

	// SetRenderSize affects video decodes only; archive mode always
	// decodes at each entry's native size.
	var render RenderSize
	if d.blockType == BlockTypeVideo {
		d.mu.Lock()
		render = d.render
		d.mu.Unlock()
	}

	startReq := decodeworker.StartRequest{
		SessionID:    sessionID.String(),
		Block:        req.Block,
		FrameCount:   len(req.FrameNumbers),
		RenderWidth:  render.Width,
		RenderHeight: render.Height,
		Dimension2D:  d.dimension == Dimension2D,
	}

	events, err := handle.Start(d.closeCtx, startReq)
	if err != nil {
		terminate()
		d.log().Error("framedecoder: worker start failed", "session_id", sessionID, "chunk", chunkNumber, "error", err)
		req.Callbacks.Reject(&WorkerError{ChunkNumber: chunkNumber, Cause: err})
		return
	}

	decoded := make(DecodedChunk, len(req.FrameNumbers))
	for ev := range events {
		switch ev.Kind {
		case decodeworker.EventInit:
			continue

		case decodeworker.EventError:
			terminate()
			d.log().Error("framedecoder: worker error", "session_id", sessionID, "chunk", chunkNumber, "error", ev.Err)
			req.Callbacks.Reject(&WorkerError{ChunkNumber: chunkNumber, Cause: ev.Err})
			return

		case decodeworker.EventReady:
			if ev.Index < 0 || ev.Index >= len(req.FrameNumbers) {
				terminate()
				cause := fmt.Errorf("worker reported frame index %d outside [0, %d)", ev.Index, len(req.FrameNumbers))
				d.log().Error("framedecoder: worker index out of range", "session_id", sessionID, "chunk", chunkNumber)
				req.Callbacks.Reject(&WorkerError{ChunkNumber: chunkNumber, Cause: cause})
				return
			}
			frame := FrameNumber(req.FrameNumbers[ev.Index])
			df := payloadToDecodedFrame(ev.Payload)
			decoded[frame] = df
			req.Callbacks.OnDecode(frame, df)
		}
	}

	if len(decoded) != len(req.FrameNumbers) {
		terminate()
		err := fmt.Errorf("worker closed its event stream after %d of %d frames", len(decoded), len(req.FrameNumbers))
		d.log().Error("framedecoder: incomplete session", "session_id", sessionID, "chunk", chunkNumber, "error", err)
		req.Callbacks.Reject(&WorkerError{ChunkNumber: chunkNumber, Cause: err})
		return
	}

	if d.blockType == BlockTypeVideo {
		terminate()
	}

	d.cache.Admit(uint64(chunkNumber), decoded)
	d.log().Info("framedecoder: session complete", "session_id", sessionID, "chunk", chunkNumber)
	req.Callbacks.OnDecodeAll()
}

// acquireHandle returns the worker handle for one session plus a
// terminate function. Video gets a fresh handle per session, torn down
// once the session ends, successfully or not. Archive reuses the
// decoder's single persistent handle and is torn down only by Close.
func (d *FrameDecoder) acquireHandle() (decodeworker.Handle, func()) {
	if d.blockType == BlockTypeVideo {
		h := d.newVideoHandle()
		return h, func() { _ = h.Terminate() }
	}
	return d.archiveHandle, func() {}
}
