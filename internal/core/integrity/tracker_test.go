package integrity

import (
	"math"
	"testing"
)

// feedSpan 以固定步长喂入恒定置信度，返回产出的时间窗
func feedSpan(t *Tracker, from, to, step, confidence float64) []*FlagWindow {
	var out []*FlagWindow
	for ts := from; ts <= to+1e-9; ts += step {
		if w := t.Update(ts, confidence, nil); w != nil {
			out = append(out, w)
		}
	}
	return out
}

func TestTrackerAbandonBeforeMinDuration(t *testing.T) {
	tr := NewKindTracker(KindHeadTurn)

	// 持续 1.5 秒的合格采样，不足 2 秒门限
	if got := feedSpan(tr, 0, 1.5, 0.5, 0.6); len(got) != 0 {
		t.Fatalf("expected no window, got %d", len(got))
	}
	// 跌破门限，片段被放弃
	if w := tr.Update(2.0, 0.1, nil); w != nil {
		t.Fatalf("expected abandon, got window %+v", w)
	}
	if tr.Active() {
		t.Fatal("tracker should be idle after abandon")
	}
	// 放弃后累积值必须清空：重新开始的片段不能沿用旧的最大置信度
	tr.Update(3.0, 0.55, nil)
	w := tr.Update(5.0, 0.55, nil)
	if w == nil {
		t.Fatal("expected window after fresh episode")
	}
	if w.Confidence != 0.55 {
		t.Fatalf("confidence leaked from abandoned episode: %v", w.Confidence)
	}
}

func TestTrackerSingleEmissionUnderCooldown(t *testing.T) {
	// head_turn: min_duration=2s cooldown=2s
	tr := NewKindTracker(KindHeadTurn)

	windows := feedSpan(tr, 0, 6.5, 0.5, 0.6)
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows over 6.5s, got %d", len(windows))
	}
	// 两次产出的结束时刻差不得小于冷却期
	gap := (windows[1].EndS - padSeconds) - (windows[0].EndS - padSeconds)
	if gap < 2.0 {
		t.Fatalf("emissions too close: %v < cooldown", gap)
	}
}

func TestTrackerModerateNotEscalated(t *testing.T) {
	tr := NewKindTracker(KindHeadTurn)

	// yaw=40° 置信度约 0.889，低于 high 门限 0.9
	confidence := HeadTurnConfidence(40)
	if confidence >= 0.9 {
		t.Fatalf("precondition: confidence %v should be below 0.9", confidence)
	}

	var got *FlagWindow
	for ts := 0.0; ts <= 2.5+1e-9; ts += 0.1 {
		if w := tr.Update(ts, confidence, nil); w != nil {
			if got != nil {
				t.Fatal("expected a single window")
			}
			got = w
			if ts < 2.0 {
				t.Fatalf("emitted before min_duration at ts=%v", ts)
			}
		}
	}
	if got == nil {
		t.Fatal("expected one moderate window")
	}
	if got.Severity != SeverityModerate {
		t.Fatalf("severity = %s, want moderate", got.Severity)
	}
}

func TestTrackerHighSeverity(t *testing.T) {
	tr := NewKindTracker(KindHeadTurn)

	confidence := HeadTurnConfidence(45) // 1.0
	var got *FlagWindow
	for ts := 0.0; ts <= 3.5+1e-9; ts += 0.1 {
		if w := tr.Update(ts, confidence, nil); w != nil {
			got = w
			if ts < 3.0 {
				t.Fatalf("high emitted before high_duration at ts=%v", ts)
			}
			break
		}
	}
	if got == nil {
		t.Fatal("expected one high window")
	}
	if got.Severity != SeverityHigh {
		t.Fatalf("severity = %s, want high", got.Severity)
	}
	if got.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0", got.Confidence)
	}
}

func TestTrackerPaddingClamp(t *testing.T) {
	tr := NewKindTracker(KindHeadTurn)

	// 片段从 0.3 秒开始，前扩 2 秒后必须被钳位到 0
	var got *FlagWindow
	for ts := 0.3; ts <= 3.0; ts += 0.3 {
		if w := tr.Update(ts, 0.6, nil); w != nil {
			got = w
			break
		}
	}
	if got == nil {
		t.Fatal("expected window")
	}
	if got.StartS != 0 {
		t.Fatalf("start_s = %v, want 0", got.StartS)
	}
	if got.StartS > got.EndS {
		t.Fatal("start_s must not exceed end_s")
	}
}

func TestTrackerConfidenceIsEpisodeMax(t *testing.T) {
	tr := NewTracker(TrackerConfig{MinConfidence: 0.5, MinDuration: 1.0, Cooldown: 0})

	tr.Update(0, 0.6, nil)
	tr.Update(0.5, 0.92, nil)
	w := tr.Update(1.0, 0.55, nil)
	if w == nil {
		t.Fatal("expected window")
	}
	if w.Confidence != 0.92 {
		t.Fatalf("confidence = %v, want episode max 0.92", w.Confidence)
	}
}

func TestTrackerMetadataLastWriteWins(t *testing.T) {
	tr := NewTracker(TrackerConfig{MinConfidence: 0.5, MinDuration: 1.0, Cooldown: 0})

	tr.Update(0, 0.6, map[string]any{"yaw": 38.0})
	w := tr.Update(1.2, 0.6, map[string]any{"yaw": 42.0})
	if w == nil {
		t.Fatal("expected window")
	}
	if w.Metadata["yaw"] != 42.0 {
		t.Fatalf("metadata yaw = %v, want last write 42.0", w.Metadata["yaw"])
	}
}

func TestTrackerFirstEmissionNotBlocked(t *testing.T) {
	// 冷却期很长也不能拦下首次产出
	tr := NewTracker(TrackerConfig{MinConfidence: 0.5, MinDuration: 0.5, Cooldown: 3600})
	tr.Update(0, 0.8, nil)
	if w := tr.Update(0.5, 0.8, nil); w == nil {
		t.Fatal("first emission blocked by cooldown init")
	}
}

func TestTrackerFlush(t *testing.T) {
	tr := NewKindTracker(KindPhone)

	// 置信度 0.8 达到 high 门限，要求持续 1 秒才会经 Update 产出；
	// 流在 0.5 秒后结束，只能靠冲刷挽回
	tr.Update(9.0, 0.8, map[string]any{"box": "1,2,3,4"})
	if w := tr.Update(9.5, 0.8, nil); w != nil {
		t.Fatalf("unexpected update emission: %+v", w)
	}

	w := tr.Flush(9.5, SeverityModerate)
	if w == nil {
		t.Fatal("expected flush window")
	}
	if w.Severity != SeverityModerate {
		t.Fatalf("flush severity = %s, want caller-assigned moderate", w.Severity)
	}
	if w.Confidence != 0.8 {
		t.Fatalf("flush confidence = %v, want 0.8", w.Confidence)
	}
	if w.EndS != 9.5+padSeconds {
		t.Fatalf("flush end_s = %v", w.EndS)
	}
	if tr.Active() {
		t.Fatal("tracker must be idle after flush")
	}
}

func TestTrackerFlushBelowMinDuration(t *testing.T) {
	tr := NewKindTracker(KindPhone)
	tr.Update(10.0, 0.6, nil)
	if w := tr.Flush(10.2, SeverityModerate); w != nil {
		t.Fatalf("flush below min_duration must drop episode, got %+v", w)
	}
}

func TestTrackerCooldownKeepsActive(t *testing.T) {
	tr := NewTracker(TrackerConfig{MinConfidence: 0.5, MinDuration: 1.0, Cooldown: 2.0})

	tr.Update(0, 0.6, nil)
	if w := tr.Update(1.0, 0.6, nil); w == nil {
		t.Fatal("expected first emission")
	}
	// 冷却期内重新累积的片段：时长已满足但被压制，状态保持 ACTIVE
	tr.Update(1.5, 0.6, nil)
	if w := tr.Update(2.5, 0.6, nil); w != nil {
		t.Fatalf("emission within cooldown: %+v", w)
	}
	if !tr.Active() {
		t.Fatal("tracker must stay active while suppressed by cooldown")
	}
	// 冷却期过后同一片段允许产出
	if w := tr.Update(3.1, 0.6, nil); w == nil {
		t.Fatal("expected emission after cooldown elapsed")
	}
}

func TestHeadTurnConfidence(t *testing.T) {
	cases := []struct {
		yaw  float64
		want float64
	}{
		{0, 0},
		{35, 0},
		{-20, 0},
		{40, 40.0 / 45.0},
		{-40, 40.0 / 45.0},
		{45, 1.0},
		{90, 1.0},
	}
	for _, c := range cases {
		if got := HeadTurnConfidence(c.yaw); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("HeadTurnConfidence(%v) = %v, want %v", c.yaw, got, c.want)
		}
	}
}
