package framedecoder

import "github.com/google/uuid"

// ChunkNumber identifies a contiguous group of frames decoded as a unit.
type ChunkNumber uint64

// FrameNumber is the global index of a frame within the source media.
// The union of frame numbers across chunks is disjoint: each frame
// belongs to exactly one chunk.
type FrameNumber uint64

// ChunkOfFunc derives the chunk a frame belongs to. It must be total and
// deterministic for a given FrameDecoder instance.
type ChunkOfFunc func(FrameNumber) ChunkNumber

// RenderSize is the target size video frames are cropped/scaled to. The
// zero value means "use the codec's reported dimensions unscaled".
type RenderSize struct {
	Width  int
	Height int
}

// BlockType selects which DecodeWorkerHandle variant a FrameDecoder
// dispatches decode sessions to.
type BlockType int

const (
	// BlockTypeVideo decodes a container byte block carrying a single
	// video track (SPS/PPS + per-sample access units).
	BlockTypeVideo BlockType = iota
	// BlockTypeArchive decodes a zipped block of still-image (or 3D
	// point-cloud blob) files.
	BlockTypeArchive
)

// ArchiveDimension selects the output shape of BlockTypeArchive entries:
// a decoded raster (2D) or an inert byte blob (3D point-cloud frames).
// Ignored for BlockTypeVideo, which is always 2D.
type ArchiveDimension int

const (
	// Dimension2D decodes archive entries as rasters.
	Dimension2D ArchiveDimension = iota
	// Dimension3D passes archive entries through as opaque blobs.
	Dimension3D
)

// Releasable is implemented by DecodedFrame payloads that own a native
// resource (GPU/CPU image handle) which must be released exactly once,
// either when their chunk is evicted from the cache or when the
// FrameDecoder is closed.
type Releasable interface {
	Release() error
}

// DecodedFrameKind tags the two DecodedFrame variants.
type DecodedFrameKind int

const (
	// KindBitmap marks a decoded raster with closeable native resources.
	KindBitmap DecodedFrameKind = iota
	// KindBlob marks an opaque byte payload (3D point-cloud frames),
	// treated as inert data with no release step.
	KindBlob
)

// DecodedFrame is a tagged union: either a Bitmap (a decoded raster with
// closeable native resources) or a Blob (an opaque byte payload).
type DecodedFrame struct {
	Kind   DecodedFrameKind
	Bitmap Releasable
	Blob   []byte
}

// NewBitmapFrame wraps a Releasable raster as a Bitmap DecodedFrame.
func NewBitmapFrame(r Releasable) DecodedFrame {
	return DecodedFrame{Kind: KindBitmap, Bitmap: r}
}

// NewBlobFrame wraps an opaque byte payload as a Blob DecodedFrame.
func NewBlobFrame(data []byte) DecodedFrame {
	return DecodedFrame{Kind: KindBlob, Blob: data}
}

// release invokes Release on a Bitmap frame exactly once; Blob frames are
// inert and require no release step.
func (f DecodedFrame) release() error {
	if f.Kind == KindBitmap && f.Bitmap != nil {
		return f.Bitmap.Release()
	}
	return nil
}

// DecodedChunk maps FrameNumber to DecodedFrame, covering exactly the
// frames the originating request declared. A DecodedChunk is only
// admitted into the cache once every one of its frames has completed;
// partial sets are never observable to callers.
type DecodedChunk map[FrameNumber]DecodedFrame

// Reject satisfies requestslot.Rejecter, letting a queued or in-flight
// DecodeCallbacks be rejected uniformly whether it was superseded or the
// worker failed.
func (c DecodeCallbacks) Reject(err error) {
	if c.OnReject != nil {
		c.OnReject(err)
	}
}

// DecodeCallbacks is the callback surface a caller supplies with a
// decode request. on_decode is called once per frame as it completes;
// on_decode_all is called once after the last on_decode of a successful
// session; on_reject is called once if the session is superseded
// (OutdatedError) or fails (WorkerError). on_decode_all and on_reject are
// mutually exclusive.
type DecodeCallbacks struct {
	OnDecode    func(FrameNumber, DecodedFrame)
	OnDecodeAll func()
	OnReject    func(error)
}

// BlockToDecode is a decode request record. FrameDecoder neither accepts
// nor builds it: RequestDecode takes the block, frame numbers and
// callbacks as separate arguments.
//
// Invariant: FrameNumbers is non-empty and strictly ascending;
// ChunkNumber == chunkOf(FrameNumbers[0]).
type BlockToDecode struct {
	SessionID    uuid.UUID
	FrameNumbers []FrameNumber
	ChunkNumber  ChunkNumber
	Block        []byte
	Callbacks    DecodeCallbacks
}
