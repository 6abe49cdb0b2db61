package ffwork

import (
	"slices"
	"strings"
	"testing"
)

func TestNewFrameExtractor(t *testing.T) {
	if _, err := NewFrameExtractor(Config{Width: 0, Height: 480, FPS: 2, Input: "a.mp4"}); err == nil {
		t.Fatal("expected error for invalid resolution")
	}
	if _, err := NewFrameExtractor(Config{Width: 640, Height: 480, FPS: 0, Input: "a.mp4"}); err == nil {
		t.Fatal("expected error for invalid fps")
	}
	if _, err := NewFrameExtractor(Config{Width: 640, Height: 480, FPS: 2}); err == nil {
		t.Fatal("expected error for missing input")
	}

	fe, err := NewFrameExtractor(Config{Width: 640, Height: 480, FPS: 2, Input: "a.mp4"})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := fe.FrameSize(), 640*480*3/2; got != want {
		t.Fatalf("frame size %d, want %d", got, want)
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	fe, err := NewFrameExtractor(Config{Width: 640, Height: 480, FPS: 2, Input: "/data/recordings/se1.mp4"})
	if err != nil {
		t.Fatal(err)
	}
	args := fe.buildFFmpegArgs()

	idx := slices.Index(args, "-i")
	if idx < 0 || args[idx+1] != "/data/recordings/se1.mp4" {
		t.Fatalf("input not found in args: %v", args)
	}
	if !slices.Contains(args, "yuv420p") {
		t.Fatalf("expected yuv420p pix_fmt: %v", args)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "fps=2,scale=640:480") {
		t.Fatalf("expected fps/scale filter: %s", joined)
	}
	if strings.Contains(joined, "-rtsp_transport") {
		t.Fatalf("file decode should not carry rtsp options: %s", joined)
	}
}

func TestCutClipInvalidRange(t *testing.T) {
	if err := CutClip(t.Context(), "in.mp4", "out.mp4", 5, 5); err == nil {
		t.Fatal("expected error for empty range")
	}
	if err := CutClip(t.Context(), "in.mp4", "out.mp4", 8, 3); err == nil {
		t.Fatal("expected error for inverted range")
	}
}
