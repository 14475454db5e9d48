package archivedecode

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"

	"github.com/annotate-video/framedecoder/internal/imageops"
)

// Frame is one decoded archive entry, tagged by the session's
// Dimension2D flag: a cropped raster for 2D, or the entry's raw bytes
// untouched for 3D.
type Frame struct {
	Index  int
	Image  imageops.Image
	Blob   []byte
	IsBlob bool
}

// Decode walks block as a zip archive and decodes exactly frameCount
// entries, in the archive's own central-directory order - the order a
// chunk-writing producer appended them in, which is the only ordering
// the core trusts. Entry names are never interpreted.
//
// When dimension2D is true each entry is decoded as a still image (via
// disintegration/imaging) and cropped to (renderW, renderH) the same way
// a video sample is; otherwise the entry's raw bytes pass through
// untouched as a Blob.
func Decode(block []byte, frameCount int, dimension2D bool, renderW, renderH int) ([]Frame, error) {
	zr, err := zip.NewReader(bytes.NewReader(block), int64(len(block)))
	if err != nil {
		return nil, fmt.Errorf("archivedecode: not a valid archive: %w", err)
	}

	files := zr.File
	if len(files) != frameCount {
		return nil, fmt.Errorf("archivedecode: archive has %d entries, expected %d", len(files), frameCount)
	}

	frames := make([]Frame, len(files))
	for i, f := range files {
		if dimension2D {
			img, err := decodeImageEntry(f, renderW, renderH)
			if err != nil {
				return nil, fmt.Errorf("archivedecode: entry %d: %w", i, err)
			}
			frames[i] = Frame{Index: i, Image: img}
			continue
		}

		raw, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("archivedecode: entry %d: %w", i, err)
		}
		frames[i] = Frame{Index: i, Blob: raw, IsBlob: true}
	}
	return frames, nil
}

func decodeImageEntry(f *zip.File, renderW, renderH int) (imageops.Image, error) {
	rc, err := f.Open()
	if err != nil {
		return imageops.Image{}, err
	}
	defer rc.Close()

	src, err := imaging.Decode(rc)
	if err != nil {
		return imageops.Image{}, fmt.Errorf("decode still image: %w", err)
	}

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	outW, outH := renderW, renderH
	if outW == 0 || outH == 0 {
		outW, outH = srcW, srcH
	} else {
		outW, outH = imageops.RenderCropSize(srcW, srcH, outW, outH)
	}

	nrgba := imaging.Clone(src)
	return imageops.Crop(nrgba.Pix, srcW, srcH, outW, outH), nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
