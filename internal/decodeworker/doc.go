// Package decodeworker defines the DecodeWorkerHandle capability - an
// abstract handle over a codec worker that submits payloads and receives
// per-frame events - and its two variants, Video and Archive.
//
// A DecodeWorkerHandle never shares mutable memory with its caller; all
// interaction happens through the FrameEvent channel returned by Start,
// mirroring the teacher's stream-capture.StreamProvider contract
// (Start(ctx) (<-chan Frame, error) / Stop() error) but for a single
// bounded decode session rather than a continuous stream.
package decodeworker
