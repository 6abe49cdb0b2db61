package integrity

import (
	"github.com/ixugo/goddd/pkg/orm"
)

// 违规记录来源
const (
	SourceLive  = "live"  // 考试过程中客户端遥测实时产生
	SourceVideo = "video" // 考后录像复扫产生
)

// Flag 违规记录
// 由状态机产出的时间窗落库而来，创建后除补充取证片段路径外不再修改
type Flag struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID  string         `gorm:"column:session_id;index;notNull" json:"session_id"`
	Kind       FlagKind       `gorm:"column:kind;index" json:"kind"`
	Severity   Severity       `gorm:"column:severity" json:"severity"`
	Confidence float64        `gorm:"column:confidence" json:"confidence"`
	StartS     float64        `gorm:"column:start_s" json:"start_s"` // 开始秒（相对会话/录像起点）
	EndS       float64        `gorm:"column:end_s" json:"end_s"`     // 结束秒
	Source     string         `gorm:"column:source" json:"source"`   // live / video
	Metadata   map[string]any `gorm:"column:metadata;serializer:json" json:"metadata"`
	ClipPath   string         `gorm:"column:clip_path" json:"clip_path"` // 取证片段相对路径，生成后补充
	CreatedAt  orm.Time       `gorm:"column:created_at" json:"created_at"`
}

func (*Flag) TableName() string {
	return "flags"
}

// NewFlag 由状态机时间窗构建违规记录
func NewFlag(sessionID string, kind FlagKind, source string, w *FlagWindow) *Flag {
	return &Flag{
		SessionID:  sessionID,
		Kind:       kind,
		Severity:   w.Severity,
		Confidence: w.Confidence,
		StartS:     w.StartS,
		EndS:       w.EndS,
		Source:     source,
		Metadata:   w.Metadata,
		CreatedAt:  orm.Now(),
	}
}
