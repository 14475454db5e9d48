package decodeworker

import (
	"context"
	"testing"
)

func TestVideoHandleStartRejectsMalformedBlock(t *testing.T) {
	h := NewVideoHandle()
	_, err := h.Start(context.Background(), StartRequest{
		Block:      []byte("not a valid record stream"),
		FrameCount: 1,
	})
	if err == nil {
		t.Fatal("expected an error extracting access units from a malformed block")
	}
}

func TestVideoHandleStartRejectsFrameCountMismatch(t *testing.T) {
	h := NewVideoHandle()
	block := encodeRecords([]byte("sps"), []byte("pps"), []byte("au0"))
	_, err := h.Start(context.Background(), StartRequest{
		Block:      block,
		FrameCount: 5,
	})
	if err == nil {
		t.Fatal("expected an error when FrameCount does not match the access-unit count")
	}
}

func TestVideoHandleTerminateIsSafeBeforeStart(t *testing.T) {
	h := NewVideoHandle()
	if err := h.Terminate(); err != nil {
		t.Fatalf("Terminate before Start: %v", err)
	}
	if err := h.Terminate(); err != nil {
		t.Fatalf("second Terminate: %v", err)
	}
}
