package analysis

import (
	"github.com/ixugo/goddd/pkg/web"
)

// StartRunInput 发起复扫请求体
type StartRunInput struct {
	SessionID string `json:"session_id" binding:"required"` // 目标会话
}

// FindRunInput 复扫任务查询参数
type FindRunInput struct {
	web.PagerFilter
	SessionID string `form:"session_id"` // 会话筛选
	Status    string `form:"status"`     // 状态筛选
}
