package decodeworker

import (
	"context"

	"github.com/annotate-video/framedecoder/internal/decodeworker/archivedecode"
)

// ArchiveHandle decodes BlockTypeArchive sessions. Unlike VideoHandle it
// holds no native resource between sessions, so one ArchiveHandle is
// reused across every chunk of a FrameDecoder's lifetime and torn down
// only by the FrameDecoder's Close.
type ArchiveHandle struct{}

// NewArchiveHandle constructs a handle shared across every archive
// decode session of a FrameDecoder.
func NewArchiveHandle() *ArchiveHandle {
	return &ArchiveHandle{}
}

// Start decodes every entry of req.Block and emits one EventReady per
// entry, in the archive's own order, honoring req.Dimension2D.
func (h *ArchiveHandle) Start(ctx context.Context, req StartRequest) (<-chan FrameEvent, error) {
	frames, err := archivedecode.Decode(req.Block, req.FrameCount, req.Dimension2D, req.RenderWidth, req.RenderHeight)
	if err != nil {
		return nil, err
	}

	events := make(chan FrameEvent, len(frames))
	defer close(events)

	for _, f := range frames {
		select {
		case <-ctx.Done():
			events <- FrameEvent{Kind: EventError, Err: ctx.Err()}
			return events, nil
		default:
		}

		if f.IsBlob {
			events <- FrameEvent{Kind: EventReady, Index: f.Index, Payload: Payload{Kind: PayloadBlob, Blob: f.Blob}}
			continue
		}
		events <- FrameEvent{Kind: EventReady, Index: f.Index, Payload: Payload{Kind: PayloadBitmap, Image: f.Image}}
	}
	return events, nil
}

// Terminate is a no-op: an ArchiveHandle owns no native resource.
func (h *ArchiveHandle) Terminate() error {
	return nil
}
