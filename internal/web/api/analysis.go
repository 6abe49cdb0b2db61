package api

import (
	"github.com/gin-gonic/gin"
	"github.com/ixugo/goddd/pkg/web"
	"github.com/proctorly/kestrel/internal/core/analysis"
)

// AnalysisAPI 录像复扫任务管理
type AnalysisAPI struct {
	core *analysis.Core
}

func NewAnalysisAPI(core *analysis.Core) AnalysisAPI {
	return AnalysisAPI{core: core}
}

func registerAnalysis(r gin.IRouter, api AnalysisAPI, mid ...gin.HandlerFunc) {
	group := r.Group("/analysis/runs", mid...)
	group.POST("", web.WrapH(api.start))
	group.GET("", web.WrapH(api.find))
	group.GET("/:id", web.WrapH(api.get))
	group.POST("/:id/cancel", web.WrapH(api.cancel))
}

func (a AnalysisAPI) start(c *gin.Context, in *analysis.StartRunInput) (*analysis.Run, error) {
	return a.core.StartRun(c.Request.Context(), in)
}

type findRunOutput struct {
	Items []*analysis.Run `json:"items"`
	Total int64           `json:"total"`
}

func (a AnalysisAPI) find(c *gin.Context, in *analysis.FindRunInput) (findRunOutput, error) {
	items, total, err := a.core.FindRuns(c.Request.Context(), in)
	return findRunOutput{Items: items, Total: total}, err
}

func (a AnalysisAPI) get(c *gin.Context, _ *struct{}) (*analysis.Run, error) {
	return a.core.GetRun(c.Request.Context(), c.Param("id"))
}

func (a AnalysisAPI) cancel(c *gin.Context, _ *struct{}) (*analysis.Run, error) {
	return a.core.CancelRun(c.Request.Context(), c.Param("id"))
}
