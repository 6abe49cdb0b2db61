package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
	"github.com/proctorly/kestrel/internal/core/integrity"
)

// TelemetryAPI 接收考试客户端的实时遥测上报
type TelemetryAPI struct {
	log     *slog.Logger
	core    integrity.Core
	limiter func(identifier string) bool
}

func NewTelemetryAPI(core integrity.Core) TelemetryAPI {
	return TelemetryAPI{
		log:  slog.With("hook", "telemetry"),
		core: core,
		// 按会话限速，客户端正常批量上报频率在每秒一次以内
		limiter: web.IDRateLimiter(5, 10, 3*time.Minute),
	}
}

func registerTelemetry(r gin.IRouter, api TelemetryAPI, handler ...gin.HandlerFunc) {
	group := r.Group("/telemetry", handler...)
	group.POST("/:id/events", web.WrapH(api.onEvents))
}

type telemetryOutput struct {
	Accepted int               `json:"accepted"` // 本批事件数
	Flags    []*integrity.Flag `json:"flags"`    // 本批事件触发的违规
}

// onEvents 接收一批遥测事件并喂入会话的状态机
// 事件批内按时间戳升序，单条格式错误的事件跳过不中断
func (a TelemetryAPI) onEvents(c *gin.Context, in *integrity.ProcessTelemetryInput) (telemetryOutput, error) {
	sessionID := c.Param("id")
	if !a.limiter(sessionID) {
		return telemetryOutput{}, reason.ErrBadRequest.Withf("telemetry rate limit exceeded")
	}
	ctx := c.Request.Context()

	flags, err := a.core.ProcessTelemetry(ctx, sessionID, in.Events)
	if err != nil {
		return telemetryOutput{}, err
	}
	if len(flags) > 0 {
		a.log.InfoContext(ctx, "telemetry produced flags",
			"session_id", sessionID,
			"events", len(in.Events),
			"flags", len(flags),
		)
	}
	return telemetryOutput{Accepted: len(in.Events), Flags: flags}, nil
}
