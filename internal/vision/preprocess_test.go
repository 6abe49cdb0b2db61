package vision

import (
	"math"
	"testing"
)

func TestYUV420PToCHWGray(t *testing.T) {
	const w, h = 4, 4
	plane := w * h
	data := make([]byte, plane*3/2)
	// Y=128, U=V=128 是中性灰，RGB 三通道应相等
	for i := 0; i < plane; i++ {
		data[i] = 128
	}
	for i := plane; i < len(data); i++ {
		data[i] = 128
	}

	dst := make([]float32, plane*3)
	if err := yuv420pToCHW(data, w, h, dst); err != nil {
		t.Fatal(err)
	}

	want := float32(128.0 / 255.0)
	for c := 0; c < 3; c++ {
		got := dst[c*plane]
		if math.Abs(float64(got-want)) > 1e-3 {
			t.Fatalf("channel %d = %f, want %f", c, got, want)
		}
	}
}

func TestYUV420PToCHWShortData(t *testing.T) {
	dst := make([]float32, 4*4*3)
	if err := yuv420pToCHW(make([]byte, 10), 4, 4, dst); err == nil {
		t.Fatal("expected error for short frame data")
	}
}

func TestNonMaxSuppress(t *testing.T) {
	dets := []Detection{
		{Box: [4]float32{0, 0, 0.5, 0.5}, Score: 0.9},
		{Box: [4]float32{0.01, 0.01, 0.51, 0.51}, Score: 0.8}, // 与上框几乎重合
		{Box: [4]float32{0.6, 0.6, 0.9, 0.9}, Score: 0.7},
	}
	kept := nonMaxSuppress(dets, 0.5)
	if len(kept) != 2 {
		t.Fatalf("kept %d detections, want 2", len(kept))
	}
	if kept[0].Score != 0.9 || kept[1].Score != 0.7 {
		t.Fatalf("unexpected kept detections: %+v", kept)
	}
}

func TestResultHelpers(t *testing.T) {
	r := Result{
		Faces: []Detection{{Score: 0.8}, {Score: 0.6}},
		Phones: []Detection{
			{Score: 0.55},
			{Score: 0.72},
		},
	}
	if r.FaceCount() != 2 {
		t.Fatalf("face count %d, want 2", r.FaceCount())
	}
	if got := r.PhoneConfidence(); math.Abs(got-0.72) > 1e-6 {
		t.Fatalf("phone confidence %f, want 0.72", got)
	}

	var empty Result
	if empty.PhoneConfidence() != 0 {
		t.Fatal("empty result should have zero phone confidence")
	}
}
