package decodeworker

import (
	"context"
	"fmt"
	"sync"

	"github.com/annotate-video/framedecoder/internal/decodeworker/videopipeline"
	"github.com/annotate-video/framedecoder/internal/imageops"
)

// VideoHandle decodes a single video block's SPS/PPS + access-unit
// stream into one Bitmap per access unit, backed by a GStreamer
// pipeline. A VideoHandle serves exactly one session: construct, Start,
// Terminate, discard.
type VideoHandle struct {
	mu       sync.Mutex
	pipeline *videopipeline.Pipeline
}

// NewVideoHandle constructs a handle for a single decode session.
func NewVideoHandle() *VideoHandle {
	return &VideoHandle{}
}

// Start extracts SPS/PPS and the access units from req.Block, then feeds
// them through a fresh GStreamer pipeline, emitting one EventReady per
// access unit in submission order, cropped to the size
// imageops.RenderCropSize derives from the codec-reported dimensions and
// (req.RenderWidth, req.RenderHeight), or left at the reported size when
// either render dimension is zero.
func (h *VideoHandle) Start(ctx context.Context, req StartRequest) (<-chan FrameEvent, error) {
	sps, pps, units, err := extractAccessUnits(req.Block, req.FrameCount)
	if err != nil {
		return nil, err
	}

	pipe, err := videopipeline.New()
	if err != nil {
		return nil, fmt.Errorf("decodeworker: video: %w", err)
	}

	h.mu.Lock()
	h.pipeline = pipe
	h.mu.Unlock()

	events := make(chan FrameEvent, 4)

	go func() {
		defer close(events)

		if err := pipe.Push(videopipeline.AccessUnit{Buf: sps}); err != nil {
			h.emitError(events, err)
			return
		}
		if err := pipe.Push(videopipeline.AccessUnit{Buf: pps}); err != nil {
			h.emitError(events, err)
			return
		}
		for _, u := range units {
			if err := pipe.Push(videopipeline.AccessUnit{Buf: u}); err != nil {
				h.emitError(events, err)
				return
			}
		}
		pipe.Finish()

		for i := 0; i < len(units); i++ {
			select {
			case <-ctx.Done():
				h.emitError(events, ctx.Err())
				return
			case err := <-pipe.Errs():
				h.emitError(events, err)
				return
			case sample, ok := <-pipe.Samples():
				if !ok {
					h.emitError(events, fmt.Errorf("decodeworker: video: pipeline closed after %d of %d frames", i, len(units)))
					return
				}
				outW, outH := req.RenderWidth, req.RenderHeight
				if outW == 0 || outH == 0 {
					outW, outH = sample.Width, sample.Height
				} else {
					outW, outH = imageops.RenderCropSize(sample.Width, sample.Height, outW, outH)
				}
				img := imageops.Crop(sample.Data, sample.Width, sample.Height, outW, outH)
				events <- FrameEvent{
					Kind:    EventReady,
					Index:   i,
					Payload: Payload{Kind: PayloadBitmap, Image: img},
				}
			}
		}
	}()

	return events, nil
}

func (h *VideoHandle) emitError(events chan<- FrameEvent, err error) {
	events <- FrameEvent{Kind: EventError, Err: err}
}

// Terminate tears the underlying pipeline down. Safe to call more than
// once, and safe to call even if Start was never called.
func (h *VideoHandle) Terminate() error {
	h.mu.Lock()
	pipe := h.pipeline
	h.pipeline = nil
	h.mu.Unlock()

	if pipe == nil {
		return nil
	}
	return pipe.Close()
}
