package api

import (
	"github.com/gin-gonic/gin"
	"github.com/ixugo/goddd/pkg/web"
	"github.com/proctorly/kestrel/internal/core/session"
)

// SessionAPI 考试会话管理
type SessionAPI struct {
	core session.Core
}

func NewSessionAPI(core session.Core) SessionAPI {
	return SessionAPI{core: core}
}

func registerSession(r gin.IRouter, api SessionAPI, mid ...gin.HandlerFunc) {
	group := r.Group("/sessions", mid...)
	group.GET("", web.WrapH(api.find))
	group.POST("", web.WrapH(api.add))
	group.GET("/:id", web.WrapH(api.get))
	group.POST("/:id/start", web.WrapH(api.start))
	group.POST("/:id/finish", web.WrapH(api.finish))
	group.DELETE("/:id", web.WrapH(api.del))
}

// registerScoreWebhook 评分管线回调，凭签名而非用户 token 调用
func registerScoreWebhook(r gin.IRouter, api SessionAPI, mid ...gin.HandlerFunc) {
	r.POST("/webhooks/score/:id", append(mid, web.WrapH(api.setScore))...)
}

type findSessionOutput struct {
	Items []*session.Session `json:"items"`
	Total int64              `json:"total"`
}

func (a SessionAPI) find(c *gin.Context, in *session.FindSessionInput) (findSessionOutput, error) {
	items, total, err := a.core.FindSessions(c.Request.Context(), in)
	return findSessionOutput{Items: items, Total: total}, err
}

func (a SessionAPI) add(c *gin.Context, in *session.AddSessionInput) (*session.Session, error) {
	return a.core.AddSession(c.Request.Context(), in)
}

func (a SessionAPI) get(c *gin.Context, _ *struct{}) (*session.Session, error) {
	return a.core.GetSession(c.Request.Context(), c.Param("id"))
}

func (a SessionAPI) start(c *gin.Context, _ *struct{}) (*session.Session, error) {
	return a.core.StartSession(c.Request.Context(), c.Param("id"))
}

func (a SessionAPI) finish(c *gin.Context, _ *struct{}) (*session.Session, error) {
	return a.core.FinishSession(c.Request.Context(), c.Param("id"))
}

func (a SessionAPI) setScore(c *gin.Context, in *session.SetScoreInput) (*session.Session, error) {
	return a.core.SetScore(c.Request.Context(), c.Param("id"), in.FinalScore)
}

func (a SessionAPI) del(c *gin.Context, _ *struct{}) (*session.Session, error) {
	return a.core.DelSession(c.Request.Context(), c.Param("id"))
}
