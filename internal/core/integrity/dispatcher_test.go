package integrity

import (
	"testing"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }
func b(v bool) *bool         { return &v }

func TestDispatcherHeadTurn(t *testing.T) {
	d := NewDispatcher("se_test", nil)

	// yaw=45° 持续 3.5 秒，应产出一条 high 级违规
	var flags []*Flag
	for ts := 0.0; ts <= 3.5+1e-9; ts += 0.5 {
		flags = append(flags, d.ProcessEvents([]TelemetryEvent{
			{Type: EventHeadPose, T: ts, Yaw: f64(45)},
		})...)
	}
	if len(flags) != 1 {
		t.Fatalf("expected 1 flag, got %d", len(flags))
	}
	fl := flags[0]
	if fl.Kind != KindHeadTurn || fl.Severity != SeverityHigh {
		t.Fatalf("got %s/%s, want head_turn/high", fl.Kind, fl.Severity)
	}
	if fl.SessionID != "se_test" || fl.Source != SourceLive {
		t.Fatalf("flag identity wrong: %+v", fl)
	}
	if fl.Metadata["yaw"] != 45.0 {
		t.Fatalf("metadata yaw = %v", fl.Metadata["yaw"])
	}
}

func TestDispatcherSkipsMalformedEvents(t *testing.T) {
	d := NewDispatcher("se_test", nil)

	// 坏事件夹在批次中间，只跳过该条，其余照常处理
	events := []TelemetryEvent{
		{Type: EventFaceCount, T: 0, FaceCount: i(3)},
		{Type: EventHeadPose, T: 0.1},        // 缺少 yaw
		{Type: "unknown_kind", T: 0.2},       // 未知类型
		{Type: EventFaceCount, T: 0.6, FaceCount: i(2)},
	}
	flags := d.ProcessEvents(events)
	// multi_face: 0.5 秒即产出 high
	if len(flags) != 1 {
		t.Fatalf("expected 1 flag, got %d", len(flags))
	}
	if flags[0].Kind != KindMultiFace {
		t.Fatalf("kind = %s", flags[0].Kind)
	}
	if flags[0].Metadata["face_count"] != 2 {
		t.Fatalf("face_count metadata = %v, want last write 2", flags[0].Metadata["face_count"])
	}
}

func TestDispatcherTabSwitch(t *testing.T) {
	d := NewDispatcher("se_test", nil)

	// 隐藏 1.5 秒后恢复可见，未达 2 秒门限，片段被放弃
	var flags []*Flag
	for ts := 0.0; ts <= 1.5+1e-9; ts += 0.5 {
		flags = append(flags, d.ProcessEvents([]TelemetryEvent{
			{Type: EventTabVisibility, T: ts, Hidden: b(true), Confidence: f64(0.9)},
		})...)
	}
	flags = append(flags, d.ProcessEvents([]TelemetryEvent{
		{Type: EventTabVisibility, T: 2.0, Hidden: b(false), Confidence: f64(0.9)},
	})...)
	if len(flags) != 0 {
		t.Fatalf("expected no flag, got %d", len(flags))
	}

	// 上报置信度 0.9 同时达到升级门限 0.7，隐藏满 5 秒产出 high
	for ts := 3.0; ts <= 8.0+1e-9; ts += 0.5 {
		flags = append(flags, d.ProcessEvents([]TelemetryEvent{
			{Type: EventTabVisibility, T: ts, Hidden: b(true), Confidence: f64(0.9)},
		})...)
	}
	if len(flags) != 1 {
		t.Fatalf("expected 1 flag, got %d", len(flags))
	}
	if flags[0].Kind != KindTabSwitch || flags[0].Severity != SeverityHigh {
		t.Fatalf("got %s/%s", flags[0].Kind, flags[0].Severity)
	}
}

func TestDispatcherFaceAbsent(t *testing.T) {
	d := NewDispatcher("se_test", nil)

	// 在场置信度 0.2 → 缺席置信度 0.8，持续 8 秒后产出
	var flags []*Flag
	for ts := 0.0; ts <= 8.0+1e-9; ts += 1.0 {
		flags = append(flags, d.ProcessEvents([]TelemetryEvent{
			{Type: EventFacePresence, T: ts, PresenceConfidence: f64(0.2)},
		})...)
	}
	if len(flags) != 1 {
		t.Fatalf("expected 1 flag, got %d", len(flags))
	}
	fl := flags[0]
	if fl.Kind != KindFaceAbsent {
		t.Fatalf("kind = %s", fl.Kind)
	}
	if fl.Confidence < 0.79 || fl.Confidence > 0.81 {
		t.Fatalf("confidence = %v, want ~0.8", fl.Confidence)
	}
}

func TestDispatcherAudioSpeakers(t *testing.T) {
	d := NewDispatcher("se_test", nil)

	// 合格置信度同时达到升级门限，目标级别为 high，需持续 5 秒
	var flags []*Flag
	for ts := 0.0; ts <= 5.0+1e-9; ts += 0.5 {
		flags = append(flags, d.ProcessEvents([]TelemetryEvent{
			{Type: EventAudioSpeakers, T: ts, SpeakerCount: i(2), Confidence: f64(0.75)},
		})...)
	}
	if len(flags) != 1 {
		t.Fatalf("expected 1 flag, got %d", len(flags))
	}
	if flags[0].Kind != KindAudioMultiSpeaker || flags[0].Severity != SeverityHigh {
		t.Fatalf("got %s/%s", flags[0].Kind, flags[0].Severity)
	}
	if flags[0].Metadata["speaker_count"] != 2 {
		t.Fatalf("speaker_count = %v", flags[0].Metadata["speaker_count"])
	}

	// 单说话人置信度归零，开启的片段会被放弃
	d.ProcessEvents([]TelemetryEvent{
		{Type: EventAudioSpeakers, T: 5.0, SpeakerCount: i(2), Confidence: f64(0.75)},
	})
	d.ProcessEvents([]TelemetryEvent{
		{Type: EventAudioSpeakers, T: 5.5, SpeakerCount: i(1), Confidence: f64(0.9)},
	})
	got := d.ProcessEvents([]TelemetryEvent{
		{Type: EventAudioSpeakers, T: 8.0, SpeakerCount: i(1), Confidence: f64(0.9)},
	})
	if len(got) != 0 {
		t.Fatalf("expected no flag after episode abandoned, got %d", len(got))
	}
}
