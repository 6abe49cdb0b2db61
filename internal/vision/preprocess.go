package vision

import (
	"fmt"
	"math"
	"sort"
)

// yuv420pToCHW 将 YUV420P 帧转换为 CHW 排布的 RGB 浮点数据并归一化到 [0,1]
// 色彩转换采用 BT.601 全范围系数
func yuv420pToCHW(data []byte, width, height int, dst []float32) error {
	frameSize := width * height * 3 / 2
	if len(data) < frameSize {
		return fmt.Errorf("frame data too short: %d < %d", len(data), frameSize)
	}
	plane := width * height
	if len(dst) < plane*3 {
		return fmt.Errorf("dst buffer too short: %d < %d", len(dst), plane*3)
	}

	yPlane := data[:plane]
	uPlane := data[plane : plane+plane/4]
	vPlane := data[plane+plane/4 : frameSize]

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			y := float32(yPlane[row*width+col])
			u := float32(uPlane[(row/2)*(width/2)+col/2]) - 128
			v := float32(vPlane[(row/2)*(width/2)+col/2]) - 128

			r := clampByte(y + 1.402*v)
			g := clampByte(y - 0.344136*u - 0.714136*v)
			b := clampByte(y + 1.772*u)

			idx := row*width + col
			dst[idx] = r / 255
			dst[plane+idx] = g / 255
			dst[2*plane+idx] = b / 255
		}
	}
	return nil
}

func clampByte(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func sigmoid(x float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(-float64(x))))
}

// nonMaxSuppress 按置信度降序做非极大值抑制，去掉重叠度过高的候选框
func nonMaxSuppress(dets []Detection, iouThresh float32) []Detection {
	if len(dets) <= 1 {
		return dets
	}
	sort.Slice(dets, func(i, j int) bool { return dets[i].Score > dets[j].Score })

	kept := make([]Detection, 0, len(dets))
	for _, cand := range dets {
		overlap := false
		for _, k := range kept {
			if iou(cand.Box, k.Box) > iouThresh {
				overlap = true
				break
			}
		}
		if !overlap {
			kept = append(kept, cand)
		}
	}
	return kept
}

func iou(a, b [4]float32) float32 {
	x1 := max(a[0], b[0])
	y1 := max(a[1], b[1])
	x2 := min(a[2], b[2])
	y2 := min(a[3], b[3])
	if x2 <= x1 || y2 <= y1 {
		return 0
	}
	inter := (x2 - x1) * (y2 - y1)
	areaA := (a[2] - a[0]) * (a[3] - a[1])
	areaB := (b[2] - b[0]) * (b[3] - b[1])
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
