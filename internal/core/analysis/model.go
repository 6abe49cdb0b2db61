package analysis

import (
	"github.com/ixugo/goddd/pkg/orm"
)

// 复扫任务状态
const (
	StatusPending   = "pending"   // 已登记，等待执行
	StatusRunning   = "running"   // 解码扫描中
	StatusCompleted = "completed" // 扫描完成，违规已提交
	StatusFailed    = "failed"    // 打开或解码失败，未提交任何违规
	StatusCanceled  = "canceled"  // 被手动取消，未提交任何违规
)

// Run 一次录像复扫任务
type Run struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	SessionID     string    `gorm:"column:session_id;index;notNull" json:"session_id"`
	Status        string    `gorm:"column:status" json:"status"`
	Error         string    `gorm:"column:error" json:"error"`                   // 失败原因
	FramesScanned int       `gorm:"column:frames_scanned" json:"frames_scanned"` // 已扫描采样帧数
	FlagCount     int       `gorm:"column:flag_count" json:"flag_count"`         // 本次提交的违规数量
	StartedAt     *orm.Time `gorm:"column:started_at" json:"started_at"`
	FinishedAt    *orm.Time `gorm:"column:finished_at" json:"finished_at"`
	CreatedAt     orm.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     orm.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (*Run) TableName() string {
	return "analysis_runs"
}
