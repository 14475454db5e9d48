// Package videopipeline runs a single bounded GStreamer pipeline over an
// in-memory H.264 access-unit stream and emits one decoded RGBA sample
// per access unit.
//
// Modeled on the teacher's stream-capture/internal/rtsp pipeline
// (element construction, appsink pull-sample callback, bus polling) but
// adapted from a continuous RTSP source to a one-shot in-memory source:
// no reconnection, no FPS warm-up, no hot-reload - a chunk decode session
// pushes exactly one buffer sequence through and tears the pipeline down
// when it is drained.
package videopipeline
