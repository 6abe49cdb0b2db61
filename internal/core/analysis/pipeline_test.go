package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/proctorly/kestrel/internal/core/integrity"
	"github.com/proctorly/kestrel/internal/vision"
	"github.com/proctorly/kestrel/pkg/ffwork"
)

// fakeSource 按脚本吐出固定数量的帧
type fakeSource struct {
	frames  int
	waitErr error
	ch      chan *ffwork.FrameData
}

func (f *fakeSource) Start(ctx context.Context) error {
	f.ch = make(chan *ffwork.FrameData)
	go func() {
		defer close(f.ch)
		for i := 0; i < f.frames; i++ {
			select {
			case f.ch <- &ffwork.FrameData{FrameNum: uint64(i + 1)}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (f *fakeSource) Frames() <-chan *ffwork.FrameData { return f.ch }
func (f *fakeSource) Wait() error                      { return f.waitErr }
func (f *fakeSource) Stop()                            {}

// frameScript 每帧一个检测结果，err 非空表示该帧检测失败
type frameScript struct {
	faces int
	phone float64
	err   error
}

type fakeDetector struct {
	script []frameScript
	calls  int
}

func (d *fakeDetector) Detect(_ context.Context, _ *vision.Frame) (*vision.Result, error) {
	if d.calls >= len(d.script) {
		d.calls++
		return &vision.Result{}, nil
	}
	s := d.script[d.calls]
	d.calls++
	if s.err != nil {
		return nil, s.err
	}
	res := vision.Result{}
	for i := 0; i < s.faces; i++ {
		res.Faces = append(res.Faces, vision.Detection{Score: 0.9})
	}
	if s.phone > 0 {
		res.Phones = append(res.Phones, vision.Detection{Score: float32(s.phone)})
	}
	return &res, nil
}

func (d *fakeDetector) Close() error { return nil }

func newScanCore(det vision.Detector) *Core {
	return NewCore(nil, uniqueid.Core{}, det, nil, nil, nil, Config{Width: 4, Height: 4, SampleFPS: 2})
}

func TestScanMultiFace(t *testing.T) {
	det := fakeDetector{script: []frameScript{
		{faces: 2}, {faces: 2}, {faces: 1}, {faces: 1},
	}}
	c := newScanCore(&det)

	result, err := c.scan(t.Context(), "se1", &fakeSource{frames: 4})
	if err != nil {
		t.Fatal(err)
	}
	if result.FramesScanned != 4 {
		t.Fatalf("frames scanned %d, want 4", result.FramesScanned)
	}
	if len(result.Flags) != 1 {
		t.Fatalf("got %d flags, want 1: %+v", len(result.Flags), result.Flags)
	}

	f := result.Flags[0]
	if f.Kind != integrity.KindMultiFace || f.Severity != integrity.SeverityHigh {
		t.Fatalf("unexpected flag: %+v", f)
	}
	if f.Source != integrity.SourceVideo || f.SessionID != "se1" {
		t.Fatalf("unexpected flag origin: %+v", f)
	}
	// 片段 [0, 0.5] 前后各扩 2 秒，起点钳位到 0
	if f.StartS != 0 || math.Abs(f.EndS-2.5) > 1e-9 {
		t.Fatalf("window [%f, %f], want [0, 2.5]", f.StartS, f.EndS)
	}
	if got := f.Metadata["face_count"]; got != 2 {
		t.Fatalf("face_count metadata = %v, want 2", got)
	}
}

// 手机片段在达到 high 时长前遇到流结束，冲刷按 moderate 收尾
func TestScanPhoneFlushedAtEndOfStream(t *testing.T) {
	det := fakeDetector{script: []frameScript{
		{faces: 1}, {faces: 1}, {faces: 1, phone: 0.8}, {faces: 1, phone: 0.8},
	}}
	c := newScanCore(&det)

	result, err := c.scan(t.Context(), "se1", &fakeSource{frames: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Flags) != 1 {
		t.Fatalf("got %d flags, want 1: %+v", len(result.Flags), result.Flags)
	}

	f := result.Flags[0]
	if f.Kind != integrity.KindPhone {
		t.Fatalf("kind %s, want phone", f.Kind)
	}
	if f.Severity != integrity.SeverityModerate {
		t.Fatalf("flush severity %s, want moderate", f.Severity)
	}
	if math.Abs(f.Confidence-0.8) > 1e-6 {
		t.Fatalf("confidence %f, want 0.8", f.Confidence)
	}
	if f.StartS != 0 || math.Abs(f.EndS-3.5) > 1e-9 {
		t.Fatalf("window [%f, %f], want [0, 3.5]", f.StartS, f.EndS)
	}
}

// 检测失败的帧按零置信度处理，会放弃进行中的片段但不中断扫描
func TestScanDetectFailureAbandonsEpisode(t *testing.T) {
	det := fakeDetector{script: []frameScript{
		{faces: 2},
		{err: errors.New("inference timeout")},
		{faces: 2}, {faces: 2},
	}}
	c := newScanCore(&det)

	result, err := c.scan(t.Context(), "se1", &fakeSource{frames: 4})
	if err != nil {
		t.Fatal(err)
	}
	if result.FramesScanned != 4 {
		t.Fatalf("frames scanned %d, want 4", result.FramesScanned)
	}
	if len(result.Flags) != 1 {
		t.Fatalf("got %d flags, want 1: %+v", len(result.Flags), result.Flags)
	}
	// 第二段 [1.0, 1.5] 产出，而不是跨过坏帧的长片段
	if got := result.Flags[0].EndS; math.Abs(got-3.5) > 1e-9 {
		t.Fatalf("end %f, want 3.5", got)
	}
}

func TestScanDecodeFailureIsFatal(t *testing.T) {
	det := fakeDetector{}
	c := newScanCore(&det)

	_, err := c.scan(t.Context(), "se1", &fakeSource{frames: 2, waitErr: errors.New("corrupt moov atom")})
	if err == nil {
		t.Fatal("expected decode failure to fail the scan")
	}
}

func TestScanEmptyStream(t *testing.T) {
	c := newScanCore(&fakeDetector{})

	result, err := c.scan(t.Context(), "se1", &fakeSource{frames: 0})
	if err != nil {
		t.Fatal(err)
	}
	if result.FramesScanned != 0 || len(result.Flags) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestScanCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newScanCore(&fakeDetector{})
	if _, err := c.scan(ctx, "se1", &fakeSource{frames: 3}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
