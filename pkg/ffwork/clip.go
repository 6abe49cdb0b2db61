package ffwork

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Duration 通过 ffprobe 读取媒体文件时长，单位秒
func Duration(ctx context.Context, input string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", input, err)
	}
	sec, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe parse duration: %w", err)
	}
	return sec, nil
}

// CutClip 从录像文件截取 [startS, endS) 片段写入 output
// 流复制不转码，切点落在关键帧上，片段边缘可能比请求区间略宽
func CutClip(ctx context.Context, input, output string, startS, endS float64) error {
	if endS <= startS {
		return fmt.Errorf("invalid clip range: [%.2f, %.2f)", startS, endS)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("mkdir clip dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(startS),
		"-to", formatSeconds(endS),
		"-i", input,
		"-c", "copy",
		"-movflags", "+faststart",
		"-y", output,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg cut clip: %w, %s", err, string(out))
	}
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
