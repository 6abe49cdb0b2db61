// Package vision 基于 ONNX 模型对视频帧做人脸与手机检测
package vision

import "context"

// Frame 一帧 YUV420P 原始图像
type Frame struct {
	Data   []byte
	Width  int
	Height int
}

// Detection 单个检测框，坐标为归一化的 [x1,y1,x2,y2]
type Detection struct {
	Box   [4]float32 `json:"box"`
	Score float32    `json:"score"`
}

// Result 单帧检测结果
type Result struct {
	Faces  []Detection `json:"faces"`
	Phones []Detection `json:"phones"`
}

// FaceCount 帧内人脸数量
func (r *Result) FaceCount() int {
	return len(r.Faces)
}

// PhoneConfidence 帧内手机检测的最高置信度，无检测时为 0
func (r *Result) PhoneConfidence() float64 {
	var maximum float32
	for _, d := range r.Phones {
		if d.Score > maximum {
			maximum = d.Score
		}
	}
	return float64(maximum)
}

// Detector 帧检测器
// 实现必须可被多协程并发调用
type Detector interface {
	Detect(ctx context.Context, frame *Frame) (*Result, error)
	Close() error
}
