package framedecoder

import "github.com/annotate-video/framedecoder/internal/decodeworker"

// payloadToDecodedFrame converts a worker's Ready payload into the
// public DecodedFrame union.
func payloadToDecodedFrame(p decodeworker.Payload) DecodedFrame {
	switch p.Kind {
	case decodeworker.PayloadBlob:
		return NewBlobFrame(p.Blob)
	default:
		return NewBitmapFrame(p.Image)
	}
}

func frameNumbersToUint64(frameNumbers []FrameNumber) []uint64 {
	out := make([]uint64, len(frameNumbers))
	for i, f := range frameNumbers {
		out[i] = uint64(f)
	}
	return out
}
