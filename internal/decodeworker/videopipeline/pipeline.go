package videopipeline

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Sample is one decoded RGBA frame pulled off the appsink, paired with
// the dimensions GStreamer negotiated for it.
type Sample struct {
	Data   []byte
	Width  int
	Height int
}

// AccessUnit is one SPS, PPS, or NAL payload pushed into the pipeline.
// SPS and PPS are pushed once at session start; the rest are per-sample
// NAL access units, one Sample expected per AccessUnit pushed after them.
type AccessUnit struct {
	Buf []byte
}

// Pipeline wraps a one-shot appsrc -> h264parse -> avdec_h264 ->
// videoconvert -> appsink GStreamer graph.
//
// Structure mirrors stream-capture/internal/rtsp.CreatePipeline, with
// rtspsrc+rtph264depay replaced by an in-memory appsrc since there is no
// network source here.
type Pipeline struct {
	pipeline *gst.Pipeline
	src      *app.Source
	sink     *app.Sink

	mu      sync.Mutex
	samples chan Sample
	errs    chan error
	closed  bool
}

// New builds and starts a one-shot decode pipeline. The caller pushes
// the SPS/PPS/NAL access units with Push, then calls Finish; Samples()
// yields exactly one decoded frame per NAL access unit pushed after the
// two parameter sets.
func New() (*Pipeline, error) {
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("videopipeline: failed to create pipeline: %w", err)
	}

	elemNames := []string{"appsrc", "h264parse", "avdec_h264", "videoconvert", "appsink"}
	elems := make(map[string]*gst.Element, len(elemNames))
	for _, name := range elemNames {
		e, err := gst.NewElement(name)
		if err != nil {
			return nil, fmt.Errorf("videopipeline: failed to create %s: %w", name, err)
		}
		elems[name] = e
		if err := pipeline.Add(e); err != nil {
			return nil, fmt.Errorf("videopipeline: failed to add %s to pipeline: %w", name, err)
		}
	}

	elems["appsrc"].SetProperty("format", gst.FormatBytes)
	elems["appsrc"].SetProperty("is-live", false)
	elems["appsink"].SetProperty("sync", false)

	if err := gst.ElementLinkMany(
		elems["appsrc"], elems["h264parse"], elems["avdec_h264"],
		elems["videoconvert"], elems["appsink"],
	); err != nil {
		return nil, fmt.Errorf("videopipeline: failed to link elements: %w", err)
	}

	p := &Pipeline{
		pipeline: pipeline,
		src:      app.SrcFromElement(elems["appsrc"]),
		sink:     app.SinkFromElement(elems["appsink"]),
		samples:  make(chan Sample, 4),
		errs:     make(chan error, 1),
	}

	p.sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: p.onNewSample,
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, fmt.Errorf("videopipeline: failed to start pipeline: %w", err)
	}

	go p.watchBus()

	return p, nil
}

// Push feeds one SPS, PPS, or NAL access unit into the pipeline.
func (p *Pipeline) Push(au AccessUnit) error {
	buf := gst.NewBufferFromBytes(au.Buf)
	if ret := p.src.PushBuffer(buf); ret != gst.FlowOK {
		return fmt.Errorf("videopipeline: appsrc push failed: %v", ret)
	}
	return nil
}

// Finish signals end-of-stream so the pipeline drains remaining samples.
// It does not close the Samples() channel; only Close does.
func (p *Pipeline) Finish() {
	p.src.EndStream()
}

// Samples returns the channel of decoded frames.
func (p *Pipeline) Samples() <-chan Sample {
	return p.samples
}

// Errs returns the channel a pipeline-level error is reported on.
func (p *Pipeline) Errs() <-chan error {
	return p.errs
}

// Close tears the pipeline down. Idempotent.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	if err := p.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("videopipeline: failed to stop pipeline: %w", err)
	}
	close(p.samples)
	return nil
}

func (p *Pipeline) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}

	caps := sample.GetCaps()
	width, height := caps.GetStructureAt(0).GetValueInt("width"), caps.GetStructureAt(0).GetValueInt("height")

	mapInfo := buffer.Map(gst.MapRead)
	defer buffer.Unmap()

	data := make([]byte, len(mapInfo.Bytes()))
	copy(data, mapInfo.Bytes())

	select {
	case p.samples <- Sample{Data: data, Width: width, Height: height}:
	default:
		slog.Warn("videopipeline: sample dropped, consumer not keeping up")
	}

	return gst.FlowOK
}

func (p *Pipeline) watchBus() {
	bus := p.pipeline.GetPipelineBus()
	for {
		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			p.mu.Lock()
			closed := p.closed
			p.mu.Unlock()
			if closed {
				return
			}
			continue
		}

		switch msg.Type() {
		case gst.MessageEOS:
			return
		case gst.MessageError:
			gerr := msg.ParseError()
			select {
			case p.errs <- fmt.Errorf("videopipeline: %s", gerr.Error()):
			default:
			}
			return
		}
	}
}
