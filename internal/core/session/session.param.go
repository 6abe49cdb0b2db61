package session

import (
	"github.com/ixugo/goddd/pkg/web"
)

// FindSessionInput 会话查询参数
type FindSessionInput struct {
	web.PagerFilter
	Status         string `form:"status"`         // 会话状态
	Candidate      string `form:"candidate"`      // 候选人姓名模糊匹配
	Recommendation string `form:"recommendation"` // 结论建议
}

// AddSessionInput 创建会话请求体
type AddSessionInput struct {
	Candidate string `json:"candidate" binding:"required"` // 候选人姓名
	Position  string `json:"position"`                     // 应聘岗位
}

// SetScoreInput 评分回写请求体
type SetScoreInput struct {
	FinalScore float64 `json:"final_score" binding:"min=0,max=10"` // 综合得分 0~10
}
