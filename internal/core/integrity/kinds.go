package integrity

import "math"

// FlagKind 违规信号类型
type FlagKind string

const (
	// KindHeadTurn 头部转动角度过大（视线离开屏幕）
	KindHeadTurn FlagKind = "head_turn"
	// KindFaceAbsent 画面中检测不到人脸
	KindFaceAbsent FlagKind = "face_absent"
	// KindMultiFace 画面中出现多张人脸
	KindMultiFace FlagKind = "multi_face"
	// KindPhone 画面中出现手机等电子设备
	KindPhone FlagKind = "phone"
	// KindAudioMultiSpeaker 音频中检测到多个说话人
	KindAudioMultiSpeaker FlagKind = "audio_multi_speaker"
	// KindTabSwitch 候选人切换浏览器标签页
	KindTabSwitch FlagKind = "tab_switch"
)

// Severity 违规严重级别
type Severity string

const (
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// 头部偏转判定角度，偏航角绝对值小于该值视为正常
const (
	headYawDeadZone = 35.0
	headYawFullTurn = 45.0
)

// TrackerConfig 单个信号类型的状态机参数
// HighConfidence/HighDuration 为升级到 high 级别的更严格阈值对，
// HighDuration 为 0 表示该类型不做级别升级
type TrackerConfig struct {
	MinConfidence  float64 // 触发门限，低于该置信度的采样会放弃当前片段
	MinDuration    float64 // moderate 级别要求的最短持续秒数
	HighConfidence float64 // high 级别的置信度门限
	HighDuration   float64 // high 级别要求的最短持续秒数
	Cooldown       float64 // 同一状态机两次产出之间的最小间隔秒数
}

// kindConfigs 各信号类型的状态机参数表
// 这些数值与前端采样频率和检测模型标定相互配合，调整前需要回归验证
var kindConfigs = map[FlagKind]TrackerConfig{
	KindHeadTurn:          {MinConfidence: 0.5, MinDuration: 2.0, HighConfidence: 0.9, HighDuration: 3.0, Cooldown: 2.0},
	KindFaceAbsent:        {MinConfidence: 0.5, MinDuration: 3.0, HighConfidence: 0.5, HighDuration: 8.0, Cooldown: 1.0},
	KindMultiFace:         {MinConfidence: 0.5, MinDuration: 0.5, HighConfidence: 0.5, HighDuration: 0.5, Cooldown: 0},
	KindPhone:             {MinConfidence: 0.50, MinDuration: 0.5, HighConfidence: 0.70, HighDuration: 1.0, Cooldown: 0},
	KindAudioMultiSpeaker: {MinConfidence: 0.6, MinDuration: 2.0, HighConfidence: 0.6, HighDuration: 5.0, Cooldown: 1.0},
	KindTabSwitch:         {MinConfidence: 0.7, MinDuration: 2.0, HighConfidence: 0.7, HighDuration: 5.0, Cooldown: 1.0},
}

// Kinds 返回全部信号类型，顺序固定
func Kinds() []FlagKind {
	return []FlagKind{
		KindHeadTurn,
		KindFaceAbsent,
		KindMultiFace,
		KindPhone,
		KindAudioMultiSpeaker,
		KindTabSwitch,
	}
}

// ConfigOf 返回指定类型的状态机参数
func ConfigOf(kind FlagKind) (TrackerConfig, bool) {
	cfg, ok := kindConfigs[kind]
	return cfg, ok
}

// NewKindTracker 按类型参数表创建状态机，未知类型返回 nil
func NewKindTracker(kind FlagKind) *Tracker {
	cfg, ok := kindConfigs[kind]
	if !ok {
		return nil
	}
	return NewTracker(cfg)
}

// HeadTurnConfidence 把头部偏航角转换为置信度
// 绝对值不超过死区角度视为 0，超过后按满偏角度线性归一
func HeadTurnConfidence(yaw float64) float64 {
	abs := math.Abs(yaw)
	if abs <= headYawDeadZone {
		return 0
	}
	return math.Min(1.0, abs/headYawFullTurn)
}

// FaceAbsentConfidence 人脸缺席置信度，是在场置信度的补
func FaceAbsentConfidence(presence float64) float64 {
	c := 1.0 - presence
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// MultiFaceConfidence 多人脸置信度，检测到超过一张人脸即为 1
func MultiFaceConfidence(faceCount int) float64 {
	if faceCount > 1 {
		return 1.0
	}
	return 0
}

// PhoneConfidence 手机检测置信度
// 未检测到目标时必须返回 0 继续喂给状态机，否则进行中的片段无法被放弃
func PhoneConfidence(detected bool, confidence float64) float64 {
	if !detected {
		return 0
	}
	return confidence
}

// TabSwitchConfidence 标签页切换置信度，页面可见时为 0
func TabSwitchConfidence(hidden bool, confidence float64) float64 {
	if !hidden {
		return 0
	}
	return confidence
}
