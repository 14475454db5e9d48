package archivedecode

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func buildBlobArchive(t *testing.T, payloads ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, p := range payloads {
		w, err := zw.Create(fmtEntryName(i))
		if err != nil {
			t.Fatalf("zw.Create: %v", err)
		}
		if _, err := w.Write(p); err != nil {
			t.Fatalf("w.Write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zw.Close: %v", err)
	}
	return buf.Bytes()
}

func buildImageArchive(t *testing.T, sizes [][2]int) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, wh := range sizes {
		w, err := zw.Create(fmtEntryName(i))
		if err != nil {
			t.Fatalf("zw.Create: %v", err)
		}
		img := image.NewNRGBA(image.Rect(0, 0, wh[0], wh[1]))
		for y := 0; y < wh[1]; y++ {
			for x := 0; x < wh[0]; x++ {
				img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
			}
		}
		if err := png.Encode(w, img); err != nil {
			t.Fatalf("png.Encode: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zw.Close: %v", err)
	}
	return buf.Bytes()
}

func fmtEntryName(i int) string {
	return "entry" + string(rune('a'+i))
}

func TestDecodeBlobPassesRawBytesInArchiveOrder(t *testing.T) {
	block := buildBlobArchive(t, []byte("first"), []byte("second"), []byte("third"))

	frames, err := Decode(block, 3, false, 0, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("len(frames) = %d, want 3", len(frames))
	}

	want := []string{"first", "second", "third"}
	for i, f := range frames {
		if !f.IsBlob {
			t.Fatalf("frame %d: IsBlob = false, want true", i)
		}
		if f.Index != i {
			t.Fatalf("frame %d: Index = %d, want %d", i, f.Index, i)
		}
		if string(f.Blob) != want[i] {
			t.Fatalf("frame %d: Blob = %q, want %q", i, f.Blob, want[i])
		}
	}
}

func TestDecodeImageEntriesAreCroppedToRenderSize(t *testing.T) {
	block := buildImageArchive(t, [][2]int{{64, 32}})

	frames, err := Decode(block, 1, true, 16, 8)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("len(frames) = %d, want 1", len(frames))
	}
	if frames[0].IsBlob {
		t.Fatal("IsBlob = true, want false for a 2D entry")
	}
	// scale = ceil(8/32) = 1, so the crop target is the render size itself.
	if frames[0].Image.Width != 16 || frames[0].Image.Height != 8 {
		t.Fatalf("Image = %dx%d, want 16x8", frames[0].Image.Width, frames[0].Image.Height)
	}
}

func TestDecodeImageEntriesPassThroughWhenRenderSizeIsZero(t *testing.T) {
	block := buildImageArchive(t, [][2]int{{10, 5}})

	frames, err := Decode(block, 1, true, 0, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if frames[0].Image.Width != 10 || frames[0].Image.Height != 5 {
		t.Fatalf("Image = %dx%d, want 10x5 (pass-through)", frames[0].Image.Width, frames[0].Image.Height)
	}
}

func TestDecodeRejectsFrameCountMismatch(t *testing.T) {
	block := buildBlobArchive(t, []byte("only one"))

	if _, err := Decode(block, 2, false, 0, 0); err == nil {
		t.Fatal("Decode with mismatched frame count returned no error")
	}
}

func TestDecodeRejectsInvalidArchive(t *testing.T) {
	if _, err := Decode([]byte("not a zip"), 1, false, 0, 0); err == nil {
		t.Fatal("Decode on a non-zip block returned no error")
	}
}
