package decodeworker

import (
	"context"

	"github.com/annotate-video/framedecoder/internal/imageops"
)

// PayloadKind tags a Ready event's decoded payload.
type PayloadKind int

const (
	// PayloadBitmap carries a decoded raster.
	PayloadBitmap PayloadKind = iota
	// PayloadBlob carries an opaque byte payload (3D point-cloud frames).
	PayloadBlob
)

// Payload is the decoded output of a single access unit or archive
// entry, already cropped to its final render size when applicable.
type Payload struct {
	Kind  PayloadKind
	Image imageops.Image
	Blob  []byte
}

// EventKind tags a FrameEvent.
type EventKind int

const (
	// EventInit is an opaque initialization event, ignored by callers.
	EventInit EventKind = iota
	// EventReady carries one decoded frame.
	EventReady
	// EventError reports that the worker has failed; at most one per
	// session is ever sent, and the handle is terminated afterward.
	EventError
)

// FrameEvent is one message from a DecodeWorkerHandle's event stream.
type FrameEvent struct {
	Kind EventKind

	// Index is the 0-based position within the request's frame_numbers
	// list. Valid only when Kind == EventReady.
	Index   int
	Payload Payload

	// Err is set only when Kind == EventError.
	Err error
}

// StartRequest parameterizes one decode session.
type StartRequest struct {
	// SessionID is a diagnostic correlation id, not interpreted by the
	// handle.
	SessionID string

	// Block is the raw byte payload for this session: a video container
	// carrying a single track, or a zipped archive of image/blob files.
	Block []byte

	// FrameCount is len(frame_numbers) for the request this session
	// serves. Archive sessions decode the inclusive index range
	// [0, FrameCount-1].
	FrameCount int

	// RenderWidth/RenderHeight are the render target; handles crop every
	// 2D frame to the size imageops.RenderCropSize derives from it. Zero
	// means "use the decoded dimensions unscaled". Archive handles honor
	// it too, but FrameDecoder always sends zero for archive sessions.
	RenderWidth  int
	RenderHeight int

	// Dimension2D selects Bitmap (true) vs Blob (false) output for
	// archive entries. Ignored by Video, which is always Bitmap.
	Dimension2D bool
}

// Handle is an abstract handle over a codec worker: submit one block,
// receive a stream of per-frame events, and eventually terminate it.
//
// A single Error event is ever reported to a given Start's consumer;
// after that the handle is considered terminated. Video handles must be
// terminated at the end of every session and do not survive across
// chunks; an Archive handle may be reused across sessions and is
// released only when the owner explicitly calls Terminate.
type Handle interface {
	// Start submits block and returns a channel of FrameEvent. The
	// channel is closed once a terminal event (the last Ready, or an
	// Error) has been sent.
	Start(ctx context.Context, req StartRequest) (<-chan FrameEvent, error)

	// Terminate releases the worker. Safe to call more than once.
	Terminate() error
}
