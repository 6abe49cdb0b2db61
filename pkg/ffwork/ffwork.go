package ffwork

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ixugo/goddd/pkg/queue"
)

type (
	Config struct {
		Width, Height int
		FPS           int
		Input         string // 本地录像文件路径
		HWAccel       string
		Name          string
	}
	FrameData struct {
		FrameNum  uint64
		Timestamp time.Time
		Data      []byte
	}
	// FrameExtractor 调用 ffmpeg 将录像文件按固定帧率解码为原始 YUV420P 帧
	// 读到文件结尾属于正常结束，帧通道关闭后调用 Wait 获取 ffmpeg 退出状态
	FrameExtractor struct {
		Name       string
		config     Config
		frameSize  int
		FrameCh    chan *FrameData
		ctx        context.Context
		cancel     context.CancelFunc
		m          sync.Mutex
		started    bool
		cmd        *exec.Cmd
		wg         sync.WaitGroup
		ffmpegLog  *queue.CirQueue[string]
		frameCount uint64
	}
)

func NewFrameExtractor(cfg Config) (*FrameExtractor, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid resolution: %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FPS <= 0 {
		return nil, fmt.Errorf("invalid fps: %d", cfg.FPS)
	}
	if cfg.Input == "" {
		return nil, fmt.Errorf("input is required")
	}
	frameSize := cfg.Width * cfg.Height * 3 / 2
	ctx, cancel := context.WithCancel(context.Background())
	return &FrameExtractor{
		Name:      cfg.Name,
		config:    cfg,
		frameSize: frameSize,
		FrameCh:   make(chan *FrameData, 10),
		ctx:       ctx,
		cancel:    cancel,
		ffmpegLog: queue.NewCirQueue[string](100),
	}, nil
}

func (fe *FrameExtractor) FrameSize() int {
	return fe.frameSize
}

func (fe *FrameExtractor) buildFFmpegArgs() []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-threads", "2",
	}
	args = append(args,
		"-avoid_negative_ts", "make_zero",
		"-fflags", "+genpts+discardcorrupt",
	)
	if fe.config.HWAccel != "" {
		args = append(args, "-hwaccel", fe.config.HWAccel)
	}
	args = append(args, "-i", fe.config.Input)

	args = append(args,
		"-f", "rawvideo",
		"-pix_fmt", "yuv420p",
		"-vf", fmt.Sprintf("fps=%d,scale=%d:%d", fe.config.FPS, fe.config.Width, fe.config.Height),
		"pipe:1",
	)
	return args
}

func (fe *FrameExtractor) Start(ctx context.Context) error {
	fe.m.Lock()
	defer fe.m.Unlock()
	if fe.started {
		return fmt.Errorf("frame extractor already started")
	}

	go func() {
		select {
		case <-ctx.Done():
			fe.cancel()
		case <-fe.ctx.Done():
		}
	}()

	args := fe.buildFFmpegArgs()
	fe.cmd = exec.CommandContext(fe.ctx, "ffmpeg", args...)
	stdout, err := fe.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := fe.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}
	if err := fe.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	fe.started = true

	fe.wg.Go(func() { fe.extractLoop(stdout) })
	fe.wg.Go(func() { fe.readStderr(stderr) })
	return nil
}

// extractLoop 从 ffmpeg 的 stdout 按帧大小读取 YUV420P 数据
// ffmpeg 输出的是固定大小的帧，读到 EOF 表示解码完毕，结尾残缺的半帧直接丢弃
func (fe *FrameExtractor) extractLoop(stdout io.Reader) {
	defer close(fe.FrameCh)

	reader := bufio.NewReaderSize(stdout, fe.frameSize*10)
	for {
		select {
		case <-fe.ctx.Done():
			return
		default:
		}

		frameBytes := make([]byte, fe.frameSize)
		if _, err := io.ReadFull(reader, frameBytes); err != nil {
			return
		}

		frameNum := atomic.AddUint64(&fe.frameCount, 1)
		frame := FrameData{
			FrameNum:  frameNum,
			Timestamp: time.Now(),
			Data:      frameBytes,
		}

		select {
		case fe.FrameCh <- &frame:
		case <-fe.ctx.Done():
			return
		}
	}
}

// readStderr 读取 ffmpeg 的 stderr 输出用于日志记录
// ffmpeg 的警告和错误信息都会输出到 stderr
func (fe *FrameExtractor) readStderr(stderr io.Reader) {
	scan := bufio.NewScanner(stderr)
	for scan.Scan() {
		fe.ffmpegLog.Push(scan.Text())
	}
}

func (fe *FrameExtractor) Frames() <-chan *FrameData {
	return fe.FrameCh
}

func (fe *FrameExtractor) Log() []string {
	return fe.ffmpegLog.Range()
}

// FrameCount 已解码帧数
func (fe *FrameExtractor) FrameCount() uint64 {
	return atomic.LoadUint64(&fe.frameCount)
}

// Wait 等待解码进程退出，在帧通道关闭后调用
// ffmpeg 非零退出或一帧都没产出时返回错误，附带 stderr 末尾内容便于定位坏文件
func (fe *FrameExtractor) Wait() error {
	fe.wg.Wait()

	var exitErr error
	if fe.cmd != nil {
		exitErr = fe.cmd.Wait()
	}
	if exitErr == nil && atomic.LoadUint64(&fe.frameCount) > 0 {
		return nil
	}

	tail := fe.ffmpegLog.Range()
	if len(tail) > 5 {
		tail = tail[len(tail)-5:]
	}
	if exitErr != nil {
		return fmt.Errorf("ffmpeg exited: %w; stderr: %s", exitErr, strings.Join(tail, " | "))
	}
	return fmt.Errorf("ffmpeg produced no frames; stderr: %s", strings.Join(tail, " | "))
}

func (fe *FrameExtractor) Stop() {
	fe.m.Lock()
	started := fe.started
	fe.m.Unlock()
	if !started {
		return
	}

	fe.cancel()
	fe.wg.Wait()

	if fe.cmd != nil && fe.cmd.Process != nil {
		done := make(chan error, 1)
		go func() {
			done <- fe.cmd.Wait()
		}()

		select {
		case <-time.After(5 * time.Second):
			_ = fe.cmd.Process.Kill()
			<-done
		case <-done:
		}
	}
}
