// Command framedecoderdemo exercises a FrameDecoder against a single
// on-disk block file and reports what the session produced.
//
// It takes the place of a live RTSP-fed pipeline: the block is read once
// from disk rather than captured from a camera, so the demo can run
// without a GStreamer source element beyond the decode worker itself.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	framedecoder "github.com/annotate-video/framedecoder"
	"github.com/annotate-video/framedecoder/internal/imageops"
)

const version = "v0.1.0"

type config struct {
	blockPath  string
	blockType  string
	dimension  string
	chunkSize  uint64
	frameCount int
	renderW    int
	renderH    int
	outputDir  string
	debug      bool
}

func main() {
	cfg := parseFlags()

	level := slog.LevelInfo
	if cfg.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	printBanner(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received, stopping gracefully")
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil && err != context.Canceled {
		logger.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.blockPath, "block", "", "path to a raw block file (required)")
	flag.StringVar(&cfg.blockType, "type", "video", "block type: video or archive")
	flag.StringVar(&cfg.dimension, "dimension", "2d", "archive output shape: 2d or 3d (ignored for video)")
	flag.Uint64Var(&cfg.chunkSize, "chunk-size", 10, "frames per chunk")
	flag.IntVar(&cfg.frameCount, "frames", 0, "number of frames the block contains (required)")
	flag.IntVar(&cfg.renderW, "render-width", 0, "render width, 0 for codec-native size")
	flag.IntVar(&cfg.renderH, "render-height", 0, "render height, 0 for codec-native size")
	flag.StringVar(&cfg.outputDir, "output", "", "directory to write decoded bitmaps to (optional)")
	flag.BoolVar(&cfg.debug, "debug", false, "enable debug logging")
	flag.Parse()

	if cfg.blockPath == "" {
		fmt.Fprintln(os.Stderr, "error: --block is required")
		flag.Usage()
		os.Exit(1)
	}
	if cfg.frameCount <= 0 {
		fmt.Fprintln(os.Stderr, "error: --frames must be positive")
		os.Exit(1)
	}
	return cfg
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	block, err := os.ReadFile(cfg.blockPath)
	if err != nil {
		return fmt.Errorf("read block: %w", err)
	}

	blockType := framedecoder.BlockTypeVideo
	if cfg.blockType == "archive" {
		blockType = framedecoder.BlockTypeArchive
	}
	dimension := framedecoder.Dimension2D
	if cfg.dimension == "3d" {
		dimension = framedecoder.Dimension3D
	}

	chunkOf := func(f framedecoder.FrameNumber) framedecoder.ChunkNumber {
		return framedecoder.ChunkNumber(uint64(f) / cfg.chunkSize)
	}

	decoder := framedecoder.New(blockType, 4, chunkOf, dimension, framedecoder.WithLogger(logger))
	defer decoder.Close()

	if cfg.renderW > 0 && cfg.renderH > 0 {
		decoder.SetRenderSize(cfg.renderW, cfg.renderH)
	}

	frameNumbers := make([]framedecoder.FrameNumber, cfg.frameCount)
	for i := range frameNumbers {
		frameNumbers[i] = framedecoder.FrameNumber(i)
	}

	var saver *bitmapSaver
	if cfg.outputDir != "" {
		saver, err = newBitmapSaver(cfg.outputDir)
		if err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	var decoded atomic.Uint64
	done := make(chan error, 1)
	start := time.Now()

	err = decoder.RequestDecode(block, frameNumbers, framedecoder.DecodeCallbacks{
		OnDecode: func(fn framedecoder.FrameNumber, frame framedecoder.DecodedFrame) {
			decoded.Add(1)
			logger.Debug("frame decoded", "frame", fn)
			if saver != nil {
				if err := saver.Save(fn, frame); err != nil {
					logger.Error("save frame", "frame", fn, "error", err)
				}
			}
		},
		OnDecodeAll: func() { done <- nil },
		OnReject:    func(err error) { done <- err },
	})
	if err != nil {
		return fmt.Errorf("request decode: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
	}

	elapsed := time.Since(start)
	logger.Info("decode session complete",
		"frames", decoded.Load(),
		"elapsed", elapsed,
		"chunks_cached", len(decoder.CachedChunks(false)))
	return nil
}

// bitmapSaver writes decoded bitmap frames to disk as PNG, mirroring how
// a debugging tool would eyeball a session's output.
type bitmapSaver struct {
	dir string
}

func newBitmapSaver(dir string) (*bitmapSaver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &bitmapSaver{dir: dir}, nil
}

func (s *bitmapSaver) Save(fn framedecoder.FrameNumber, frame framedecoder.DecodedFrame) error {
	if frame.Kind != framedecoder.KindBitmap {
		return nil
	}
	img, ok := frame.Bitmap.(imageops.Image)
	if !ok {
		return fmt.Errorf("unexpected bitmap type %T", frame.Bitmap)
	}

	rgba := &image.RGBA{Pix: img.Pix, Stride: img.Width * 4, Rect: image.Rect(0, 0, img.Width, img.Height)}
	path := filepath.Join(s.dir, fmt.Sprintf("frame_%06d.png", fn))
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, rgba)
}

func printBanner(cfg config) {
	fmt.Println("framedecoderdemo", version)
	fmt.Printf("  block:       %s\n", cfg.blockPath)
	fmt.Printf("  type:        %s\n", cfg.blockType)
	fmt.Printf("  frames:      %d\n", cfg.frameCount)
	fmt.Printf("  chunk size:  %d\n", cfg.chunkSize)
	if cfg.outputDir != "" {
		fmt.Printf("  output:      %s\n", cfg.outputDir)
	}
	fmt.Println()
}
