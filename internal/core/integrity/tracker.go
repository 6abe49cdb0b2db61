package integrity

import "math"

// padSeconds 产出时间窗的前后扩展秒数，便于回看片段保留上下文
const padSeconds = 2.0

// FlagWindow 一次违规片段的时间窗，状态机的产出，创建后不再修改
type FlagWindow struct {
	StartS     float64        // 片段开始秒（相对会话/录像起点，已做前扩和 0 钳位）
	EndS       float64        // 片段结束秒（已做后扩）
	Confidence float64        // 片段期间观测到的最大采样置信度
	Severity   Severity       // 违规级别
	Metadata   map[string]any // 片段期间累积的附加信息，同 key 后写覆盖
}

// Tracker 单个信号类型的迟滞状态机
// 把连续的 (时间戳, 置信度) 采样流收敛为至多一个未结束片段，
// 片段持续达到门限时产出一个 FlagWindow
// 非并发安全，调用方保证同一实例串行喂入
type Tracker struct {
	cfg TrackerConfig

	active      bool
	activeStart float64
	maxConf     float64
	meta        map[string]any
	lastEmit    float64
}

// NewTracker 创建状态机
// lastEmit 初始化为负无穷，保证首个片段不会被冷却期拦下
func NewTracker(cfg TrackerConfig) *Tracker {
	return &Tracker{
		cfg:      cfg,
		lastEmit: math.Inf(-1),
	}
}

// Config 返回状态机参数
func (t *Tracker) Config() TrackerConfig { return t.cfg }

// Active 当前是否存在未结束片段
func (t *Tracker) Active() bool { return t.active }

// Update 喂入一条采样，必要时产出时间窗
//
// 置信度低于门限时放弃进行中的片段（不产出）并清空累积值；
// 达到门限则累积最大置信度与元数据，片段持续时间满足目标级别
// 要求且冷却期已过时产出，随后回到空闲态
func (t *Tracker) Update(ts, confidence float64, meta map[string]any) *FlagWindow {
	if confidence < t.cfg.MinConfidence {
		if t.active {
			t.reset()
		}
		return nil
	}

	if !t.active {
		t.active = true
		t.activeStart = ts
	}
	if confidence > t.maxConf {
		t.maxConf = confidence
	}
	t.mergeMeta(meta)

	duration := ts - t.activeStart

	// 当前采样达到更严格门限时，以 high 为目标级别继续累积，
	// 即便 moderate 的时长已满足也不提前以低级别产出
	severity := SeverityModerate
	required := t.cfg.MinDuration
	if t.cfg.HighDuration > 0 && confidence >= t.cfg.HighConfidence {
		severity = SeverityHigh
		required = t.cfg.HighDuration
	}

	if duration < required {
		return nil
	}

	// 冷却期未过时压制产出，但保持 ACTIVE，等待后续采样再次尝试
	if ts-t.lastEmit < t.cfg.Cooldown {
		return nil
	}

	w := t.window(ts, severity)
	t.reset()
	t.lastEmit = ts
	return w
}

// Flush 流结束时冲刷未结束片段
// 持续时间满足最短要求即按调用方给定级别产出，不再走级别升级判定；
// 不满足要求时丢弃片段。无论产出与否，状态机都会回到空闲态
func (t *Tracker) Flush(finalTS float64, severity Severity) *FlagWindow {
	if !t.active {
		return nil
	}
	defer t.reset()

	if finalTS-t.activeStart < t.cfg.MinDuration {
		return nil
	}
	return t.window(finalTS, severity)
}

func (t *Tracker) window(endTS float64, severity Severity) *FlagWindow {
	start := t.activeStart - padSeconds
	if start < 0 {
		start = 0
	}
	meta := t.meta
	t.meta = nil
	return &FlagWindow{
		StartS:     start,
		EndS:       endTS + padSeconds,
		Confidence: t.maxConf,
		Severity:   severity,
		Metadata:   meta,
	}
}

func (t *Tracker) mergeMeta(meta map[string]any) {
	if len(meta) == 0 {
		return
	}
	if t.meta == nil {
		t.meta = make(map[string]any, len(meta))
	}
	for k, v := range meta {
		t.meta[k] = v
	}
}

func (t *Tracker) reset() {
	t.active = false
	t.activeStart = 0
	t.maxConf = 0
	t.meta = nil
}
