package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/proctorly/kestrel/internal/core/integrity"
	"github.com/proctorly/kestrel/internal/vision"
)

// scanResult 一次扫描的产出，提交前仅存在于内存
type scanResult struct {
	Flags         []*integrity.Flag
	FramesScanned int
}

// scan 消费帧流并驱动状态机
//
// 采样时间戳由帧序号合成：ts = 序号 × 采样间隔，不使用解码时刻的墙钟。
// 多人脸与手机两个状态机每帧都喂入，检测失败的帧按零置信度处理并继续，
// 只有打开或解码失败才使整次扫描失败
func (c *Core) scan(ctx context.Context, sessionID string, src FrameSource) (*scanResult, error) {
	if err := src.Start(ctx); err != nil {
		return nil, fmt.Errorf("start frame source: %w", err)
	}
	defer src.Stop()

	multiFace := integrity.NewKindTracker(integrity.KindMultiFace)
	phone := integrity.NewKindTracker(integrity.KindPhone)
	interval := 1.0 / float64(c.cfg.SampleFPS)

	var flags []*integrity.Flag
	idx := 0
	for frame := range src.Frames() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ts := float64(idx) * interval

		var (
			mfConf, phConf float64
			mfMeta, phMeta map[string]any
		)
		res, err := c.detector.Detect(ctx, &vision.Frame{
			Data:   frame.Data,
			Width:  c.cfg.Width,
			Height: c.cfg.Height,
		})
		if err != nil {
			slog.WarnContext(ctx, "frame detect failed",
				"session_id", sessionID, "frame", idx, "err", err)
		} else {
			count := res.FaceCount()
			mfConf = integrity.MultiFaceConfidence(count)
			mfMeta = map[string]any{"face_count": count}

			score := res.PhoneConfidence()
			phConf = integrity.PhoneConfidence(score > 0, score)
			if score > 0 {
				phMeta = map[string]any{"phone_score": score}
			}
		}

		if w := multiFace.Update(ts, mfConf, mfMeta); w != nil {
			flags = append(flags, integrity.NewFlag(sessionID, integrity.KindMultiFace, integrity.SourceVideo, w))
		}
		if w := phone.Update(ts, phConf, phMeta); w != nil {
			flags = append(flags, integrity.NewFlag(sessionID, integrity.KindPhone, integrity.SourceVideo, w))
		}
		idx++
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := src.Wait(); err != nil {
		return nil, fmt.Errorf("decode recording: %w", err)
	}

	// 流结束冲刷：手机按 moderate 收尾，多人脸按 high 收尾
	var lastTS float64
	if idx > 0 {
		lastTS = float64(idx-1) * interval
	}
	if w := phone.Flush(lastTS, integrity.SeverityModerate); w != nil {
		flags = append(flags, integrity.NewFlag(sessionID, integrity.KindPhone, integrity.SourceVideo, w))
	}
	if w := multiFace.Flush(lastTS, integrity.SeverityHigh); w != nil {
		flags = append(flags, integrity.NewFlag(sessionID, integrity.KindMultiFace, integrity.SourceVideo, w))
	}

	return &scanResult{Flags: flags, FramesScanned: idx}, nil
}
