package recording

import (
	"github.com/ixugo/goddd/pkg/web"
)

type FindRecordingInput struct {
	web.PagerFilter
	SessionID  string `form:"session_id"`  // 会话筛选
	DeleteFlag *bool  `form:"delete_flag"` // 待删除标记筛选
}

// UploadInput 录像上传参数
type UploadInput struct {
	SessionID   string // 会话 ID（由 API 层填充）
	Filename    string // 原始文件名
	ContentType string
}
