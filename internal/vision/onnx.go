package vision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	classFace  = 0
	classPhone = 1

	// maxDetections 模型输出的候选框上限，与导出脚本保持一致
	maxDetections = 100
)

// ONNXDetector 封装 onnxruntime 会话
// 输入输出张量在加载时一次性分配，推理过程用互斥锁串行化
type ONNXDetector struct {
	session *ort.AdvancedSession

	width, height int
	scoreThresh   float32
	iouThresh     float32

	input  *ort.Tensor[float32]
	output *ort.Tensor[float32]

	mu sync.Mutex
}

var _ Detector = (*ONNXDetector)(nil)

// ONNXConfig 模型加载参数
type ONNXConfig struct {
	ModelDir    string
	Width       int
	Height      int
	ScoreThresh float32 // 置信度阈值，低于该值的候选框丢弃
	IOUThresh   float32 // NMS 的 IoU 阈值
}

// NewONNXDetector 初始化 onnxruntime 环境并创建推理会话
func NewONNXDetector(cfg ONNXConfig) (*ONNXDetector, error) {
	if cfg.ModelDir == "" {
		return nil, errors.New("model dir is empty")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid input size: %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.ScoreThresh <= 0 {
		cfg.ScoreThresh = 0.45
	}
	if cfg.IOUThresh <= 0 {
		cfg.IOUThresh = 0.5
	}

	libPath := resolveSharedLibraryPath(cfg.ModelDir)
	if libPath == "" {
		return nil, errors.New("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	modelPath := filepath.Join(cfg.ModelDir, "kestrel_det_v1.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(cfg.Height), int64(cfg.Width)))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	// 每个候选框 6 个分量: x1,y1,x2,y2,logit,class
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, maxDetections, 6))
	if err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"images"},
		[]string{"detections"},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ONNXDetector{
		session:     session,
		width:       cfg.Width,
		height:      cfg.Height,
		scoreThresh: cfg.ScoreThresh,
		iouThresh:   cfg.IOUThresh,
		input:       input,
		output:      output,
	}, nil
}

// Detect 对单帧运行推理，输出人脸与手机检测框
func (d *ONNXDetector) Detect(ctx context.Context, frame *Frame) (*Result, error) {
	if d == nil || d.session == nil {
		return nil, errors.New("detector not initialized")
	}
	if frame.Width != d.width || frame.Height != d.height {
		return nil, fmt.Errorf("frame size %dx%d does not match model input %dx%d",
			frame.Width, frame.Height, d.width, d.height)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := yuv420pToCHW(frame.Data, d.width, d.height, d.input.GetData()); err != nil {
		return nil, err
	}
	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	raw := d.output.GetData()
	var faces, phones []Detection
	for i := 0; i+6 <= len(raw); i += 6 {
		score := sigmoid(raw[i+4])
		if score < d.scoreThresh {
			continue
		}
		det := Detection{
			Box:   [4]float32{raw[i], raw[i+1], raw[i+2], raw[i+3]},
			Score: score,
		}
		switch int(raw[i+5]) {
		case classFace:
			faces = append(faces, det)
		case classPhone:
			phones = append(phones, det)
		}
	}

	return &Result{
		Faces:  nonMaxSuppress(faces, d.iouThresh),
		Phones: nonMaxSuppress(phones, d.iouThresh),
	}, nil
}

// Close 释放会话与张量
func (d *ONNXDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	if d.session != nil {
		errs = append(errs, d.session.Destroy())
		d.session = nil
	}
	if d.input != nil {
		errs = append(errs, d.input.Destroy())
		d.input = nil
	}
	if d.output != nil {
		errs = append(errs, d.output.Destroy())
		d.output = nil
	}
	return errors.Join(errs...)
}

// resolveSharedLibraryPath 定位 onnxruntime 动态库
// 环境变量 ONNXRUNTIME_SHARED_LIBRARY_PATH 优先，否则探测常见安装位置
func resolveSharedLibraryPath(modelDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.so",
		"onnxruntime.so",
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"onnxruntime.dll",
	}
	dirs := []string{
		modelDir,
		filepath.Join(modelDir, "lib"),
		".",
		"/usr/local/lib",
		"/usr/lib",
		"/opt/homebrew/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
