package decodeworker

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
)

func buildZipBlock(t *testing.T, entries ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, e := range entries {
		w, err := zw.Create(string(rune('a' + i)))
		if err != nil {
			t.Fatalf("zw.Create: %v", err)
		}
		if _, err := w.Write(e); err != nil {
			t.Fatalf("w.Write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zw.Close: %v", err)
	}
	return buf.Bytes()
}

func TestArchiveHandleStart3DEmitsBlobsInArchiveOrder(t *testing.T) {
	block := buildZipBlock(t, []byte("one"), []byte("two"))
	h := NewArchiveHandle()

	events, err := h.Start(context.Background(), StartRequest{
		Block:       block,
		FrameCount:  2,
		Dimension2D: false,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	var got []string
	for ev := range events {
		if ev.Kind == EventError {
			t.Fatalf("unexpected EventError: %v", ev.Err)
		}
		if ev.Payload.Kind != PayloadBlob {
			t.Fatalf("event %d: Kind = %v, want PayloadBlob", ev.Index, ev.Payload.Kind)
		}
		got = append(got, string(ev.Payload.Blob))
	}
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("blobs = %v, want [one two]", got)
	}
}

func TestArchiveHandleStartRejectsFrameCountMismatch(t *testing.T) {
	block := buildZipBlock(t, []byte("only one"))
	h := NewArchiveHandle()

	if _, err := h.Start(context.Background(), StartRequest{Block: block, FrameCount: 5, Dimension2D: false}); err == nil {
		t.Fatal("expected an error when FrameCount does not match the archive's entry count")
	}
}

func TestArchiveHandleTerminateIsNoOp(t *testing.T) {
	h := NewArchiveHandle()
	if err := h.Terminate(); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
}
