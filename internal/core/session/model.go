package session

import (
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/proctorly/kestrel/internal/core/integrity"
)

// 会话状态
const (
	StatusScheduled = "scheduled" // 已创建待开始
	StatusLive      = "live"      // 考试进行中
	StatusEnded     = "ended"     // 考试已结束
)

// Session 面试会话
// 得分由外部评分管线回写，结论建议在得分或违规数量变化后刷新
type Session struct {
	ID             string                   `gorm:"primaryKey" json:"id"`
	Candidate      string                   `gorm:"column:candidate" json:"candidate"` // 候选人姓名
	Position       string                   `gorm:"column:position" json:"position"`   // 应聘岗位
	Status         string                   `gorm:"column:status;index" json:"status"`
	Score          *float64                 `gorm:"column:score" json:"score"`                   // 综合得分 0~10，评分完成前为空
	Recommendation integrity.Recommendation `gorm:"column:recommendation" json:"recommendation"` // pass/review/fail
	RecordingPath  string                   `gorm:"column:recording_path" json:"recording_path"` // 录像相对路径
	StartedAt      *orm.Time                `gorm:"column:started_at" json:"started_at"`
	EndedAt        *orm.Time                `gorm:"column:ended_at" json:"ended_at"`
	CreatedAt      orm.Time                 `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      orm.Time                 `gorm:"column:updated_at" json:"updated_at"`
}

func (*Session) TableName() string {
	return "sessions"
}
