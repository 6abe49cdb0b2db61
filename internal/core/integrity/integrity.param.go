package integrity

import (
	"github.com/ixugo/goddd/pkg/web"
)

// FindFlagInput 违规记录查询参数
type FindFlagInput struct {
	web.PagerFilter
	SessionID string `form:"session_id"` // 会话 ID
	Kind      string `form:"kind"`       // 信号类型
	Severity  string `form:"severity"`   // 违规级别 moderate/high
	Source    string `form:"source"`     // 来源 live/video
}

// ProcessTelemetryInput 实时遥测上报请求体
type ProcessTelemetryInput struct {
	Events []TelemetryEvent `json:"events" binding:"required"` // 本批遥测事件
}
