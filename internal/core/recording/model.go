package recording

import (
	"github.com/ixugo/goddd/pkg/orm"
)

// Recording 考试录像
// 考试结束后由客户端整段上传，复扫管线以此为输入
type Recording struct {
	ID          int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID   string   `gorm:"column:session_id;index;notNull" json:"session_id"`
	Path        string   `gorm:"column:path" json:"path"`         // 相对存储根的路径
	Size        int64    `gorm:"column:size" json:"size"`         // 文件大小（字节）
	Duration    float64  `gorm:"column:duration" json:"duration"` // 时长（秒），ffprobe 探测
	ContentType string   `gorm:"column:content_type" json:"content_type"`
	DeleteFlag  bool     `gorm:"column:delete_flag;default:false" json:"delete_flag"` // 待删除标记（已被标记即将清理）
	CreatedAt   orm.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   orm.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (*Recording) TableName() string {
	return "recordings"
}
