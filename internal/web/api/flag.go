package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
	"github.com/proctorly/kestrel/internal/core/integrity"
	"github.com/proctorly/kestrel/internal/core/session"
	"github.com/proctorly/kestrel/internal/storage"
	"github.com/proctorly/kestrel/pkg/ffwork"
)

// FlagAPI 违规记录查询与取证片段生成
type FlagAPI struct {
	core     integrity.Core
	sessions session.Core
	files    *storage.Store
}

func NewFlagAPI(core integrity.Core, sessions session.Core, files *storage.Store) FlagAPI {
	return FlagAPI{core: core, sessions: sessions, files: files}
}

func registerFlag(r gin.IRouter, api FlagAPI, mid ...gin.HandlerFunc) {
	group := r.Group("/flags", mid...)
	group.GET("", web.WrapH(api.find))
	group.GET("/:id", web.WrapH(api.get))
	group.POST("/:id/clip", web.WrapH(api.makeClip))
}

type findFlagOutput struct {
	Items []*integrity.Flag `json:"items"`
	Total int64             `json:"total"`
}

func (a FlagAPI) find(c *gin.Context, in *integrity.FindFlagInput) (findFlagOutput, error) {
	items, total, err := a.core.FindFlags(c.Request.Context(), in)
	return findFlagOutput{Items: items, Total: total}, err
}

func (a FlagAPI) get(c *gin.Context, _ *struct{}) (*integrity.Flag, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, reason.ErrBadRequest.Withf("invalid flag id")
	}
	return a.core.GetFlag(c.Request.Context(), id)
}

// makeClip 从会话录像中截取违规时间窗的取证片段
// 片段生成后回写到违规记录，重复调用覆盖旧片段
func (a FlagAPI) makeClip(c *gin.Context, _ *struct{}) (*integrity.Flag, error) {
	ctx := c.Request.Context()
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, reason.ErrBadRequest.Withf("invalid flag id")
	}

	flag, err := a.core.GetFlag(ctx, id)
	if err != nil {
		return nil, err
	}
	sess, err := a.sessions.GetSession(ctx, flag.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.RecordingPath == "" {
		return nil, reason.ErrBadRequest.Withf("session[%s] has no recording", sess.ID)
	}

	input, _, err := a.files.Stat(sess.RecordingPath)
	if err != nil {
		return nil, reason.ErrNotFound.Withf("recording unreadable: %s", err.Error())
	}
	rel := a.files.ClipPath(flag.SessionID, flag.ID)
	output, err := a.files.Resolve(rel)
	if err != nil {
		return nil, reason.ErrServer.Withf("resolve clip path: %s", err.Error())
	}

	if err := ffwork.CutClip(ctx, input, output, flag.StartS, flag.EndS); err != nil {
		return nil, reason.ErrServer.Withf("cut clip: %s", err.Error())
	}
	return a.core.AttachClip(ctx, id, rel)
}
