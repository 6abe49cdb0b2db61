package integrity

import (
	"log/slog"
)

// 客户端遥测事件类型
const (
	EventHeadPose      = "head_pose"      // 头部姿态（偏航角）
	EventFacePresence  = "face_presence"  // 人脸在场置信度
	EventFaceCount     = "face_count"     // 人脸数量
	EventTabVisibility = "tab_visibility" // 标签页可见性
	EventAudioSpeakers = "audio_speakers" // 说话人检测（由语音服务回传）
)

// TelemetryEvent 考试客户端周期上报的单条遥测事件
// T 为相对会话开始的秒数，由客户端采样时刻决定
// 不同类型只会填充各自需要的字段
type TelemetryEvent struct {
	Type string  `json:"type"`
	T    float64 `json:"t"`

	Yaw                *float64 `json:"yaw,omitempty"`                 // head_pose: 偏航角（度）
	PresenceConfidence *float64 `json:"presence_confidence,omitempty"` // face_presence: 在场置信度 0~1
	FaceCount          *int     `json:"face_count,omitempty"`          // face_count: 检测到的人脸数
	Hidden             *bool    `json:"hidden,omitempty"`              // tab_visibility: 页面是否隐藏
	SpeakerCount       *int     `json:"speaker_count,omitempty"`       // audio_speakers: 说话人数量
	Confidence         *float64 `json:"confidence,omitempty"`          // tab_visibility / audio_speakers 的上报置信度
}

// Dispatcher 遥测分发器
// 每个会话持有一组独立的状态机（每种信号类型一个），
// 把异构遥测事件换算成 (置信度, 元数据) 后喂给对应状态机，
// 并把产出的时间窗物化为违规记录。非并发安全，同一会话串行调用
type Dispatcher struct {
	sessionID string
	trackers  map[FlagKind]*Tracker
	log       *slog.Logger
}

// TrackerFactory 状态机工厂，按类型创建实例，便于测试替换参数
type TrackerFactory func(kind FlagKind) *Tracker

// NewDispatcher 创建会话级分发器，factory 为空时使用默认参数表
func NewDispatcher(sessionID string, factory TrackerFactory) *Dispatcher {
	if factory == nil {
		factory = NewKindTracker
	}
	trackers := make(map[FlagKind]*Tracker, len(Kinds()))
	for _, kind := range Kinds() {
		if t := factory(kind); t != nil {
			trackers[kind] = t
		}
	}
	return &Dispatcher{
		sessionID: sessionID,
		trackers:  trackers,
		log:       slog.With("session_id", sessionID),
	}
}

// ProcessEvents 处理一批遥测事件，返回本批产生的违规记录
// 单条事件字段缺失或类型未知时跳过该条继续处理，
// 每条事件只对应一次状态机喂入，坏事件不会污染状态机状态
func (d *Dispatcher) ProcessEvents(events []TelemetryEvent) []*Flag {
	flags := make([]*Flag, 0, 2)
	for i := range events {
		ev := &events[i]
		kind, confidence, meta, ok := d.classify(ev)
		if !ok {
			d.log.Warn("skip malformed telemetry event", "type", ev.Type, "t", ev.T)
			continue
		}
		tracker, exists := d.trackers[kind]
		if !exists {
			continue
		}
		if w := tracker.Update(ev.T, confidence, meta); w != nil {
			flags = append(flags, NewFlag(d.sessionID, kind, SourceLive, w))
		}
	}
	return flags
}

// classify 把事件原始载荷换算成信号类型与置信度
// 换算规则集中在此处，状态机本身对信号语义保持无感知
func (d *Dispatcher) classify(ev *TelemetryEvent) (FlagKind, float64, map[string]any, bool) {
	switch ev.Type {
	case EventHeadPose:
		if ev.Yaw == nil {
			return "", 0, nil, false
		}
		return KindHeadTurn, HeadTurnConfidence(*ev.Yaw), map[string]any{"yaw": *ev.Yaw}, true

	case EventFacePresence:
		if ev.PresenceConfidence == nil {
			return "", 0, nil, false
		}
		return KindFaceAbsent, FaceAbsentConfidence(*ev.PresenceConfidence), nil, true

	case EventFaceCount:
		if ev.FaceCount == nil {
			return "", 0, nil, false
		}
		return KindMultiFace, MultiFaceConfidence(*ev.FaceCount), map[string]any{"face_count": *ev.FaceCount}, true

	case EventTabVisibility:
		if ev.Hidden == nil || ev.Confidence == nil {
			return "", 0, nil, false
		}
		return KindTabSwitch, TabSwitchConfidence(*ev.Hidden, *ev.Confidence), nil, true

	case EventAudioSpeakers:
		if ev.SpeakerCount == nil || ev.Confidence == nil {
			return "", 0, nil, false
		}
		confidence := 0.0
		if *ev.SpeakerCount > 1 {
			confidence = *ev.Confidence
		}
		return KindAudioMultiSpeaker, confidence, map[string]any{"speaker_count": *ev.SpeakerCount}, true
	}
	return "", 0, nil, false
}
