package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/grafov/m3u8"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
	"github.com/proctorly/kestrel/internal/core/recording"
	"github.com/proctorly/kestrel/internal/storage"
)

// RecordingAPI 考试录像上传与回看
type RecordingAPI struct {
	core  recording.Core
	files *storage.Store
}

func NewRecordingAPI(core recording.Core, files *storage.Store) RecordingAPI {
	return RecordingAPI{core: core, files: files}
}

func registerRecording(g gin.IRouter, api RecordingAPI, handler ...gin.HandlerFunc) {
	{
		group := g.Group("/recordings", handler...)
		group.GET("", web.WrapH(api.findRecordings))
		// HLS 播放列表（按会话生成 m3u8，回看页用）
		group.GET("/sessions/:id/index.m3u8", api.sessionPlaylist)
		group.GET("/:id", web.WrapH(api.getRecording))
		group.DELETE("/:id", web.WrapH(api.delRecording))
		group.GET("/:id/download", api.downloadRecording)
	}

	upload := g.Group("/sessions", handler...)
	upload.POST("/:id/recording", api.uploadRecording)

	// 静态文件服务，用于访问录像与取证片段
	// Gin Static 支持 HTTP Range 请求，实现边下载边播放（秒播）
	slog.Info("注册录像静态文件服务", "path", "/static", "dir", api.files.Root())
	g.Static("/static/recordings", filepath.Join(api.files.Root(), "recordings"))
	g.Static("/static/clips", filepath.Join(api.files.Root(), "clips"))
}

// uploadRecording 接收整段考试录像，multipart 字段名 file
func (a RecordingAPI) uploadRecording(c *gin.Context) {
	sessionID := c.Param("id")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		web.Fail(c, reason.ErrBadRequest.Withf("missing file: %s", err.Error()))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		web.Fail(c, reason.ErrBadRequest.Withf("open upload: %s", err.Error()))
		return
	}
	defer f.Close()

	rec, err := a.core.RegisterUpload(c.Request.Context(), &recording.UploadInput{
		SessionID:   sessionID,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}, f)
	if err != nil {
		web.Fail(c, err)
		return
	}
	web.Success(c, rec)
}

// findRecordings 分页查询录像列表
func (a RecordingAPI) findRecordings(c *gin.Context, in *recording.FindRecordingInput) (any, error) {
	items, total, err := a.core.FindRecordings(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

func (a RecordingAPI) getRecording(c *gin.Context, _ *struct{}) (*recording.Recording, error) {
	recordingID, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	return a.core.GetRecording(c.Request.Context(), recordingID)
}

func (a RecordingAPI) delRecording(c *gin.Context, _ *struct{}) (*recording.Recording, error) {
	recordingID, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	return a.core.DelRecording(c.Request.Context(), recordingID)
}

// downloadRecording 下载录像文件
func (a RecordingAPI) downloadRecording(c *gin.Context) {
	recordingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "msg": "invalid recording id"})
		return
	}

	rec, err := a.core.GetRecording(c.Request.Context(), recordingID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": 1, "msg": err.Error()})
		return
	}

	filePath, err := a.core.FilePath(rec)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": 1, "msg": "recording file not found"})
		return
	}

	fileName := filepath.Base(filePath)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))
	c.File(filePath)
}

// sessionPlaylist 生成 HLS m3u8 播放列表
// 一个会话可能分多段上传，按上传顺序拼成完整回看时间线
// 路径: /recordings/sessions/:id/index.m3u8?token=xxx
func (a RecordingAPI) sessionPlaylist(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 1, "msg": "session id is required"})
		return
	}
	token := c.Query("token")

	recordings, _, err := a.core.FindRecordings(c.Request.Context(), &recording.FindRecordingInput{
		SessionID:   sessionID,
		PagerFilter: web.PagerFilter{Page: 1, Size: 1000},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 1, "msg": err.Error()})
		return
	}
	if len(recordings) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"code": 1, "msg": "no recordings for session"})
		return
	}

	content := a.generateM3U8WithToken(recordings, token)

	c.Header("Content-Type", "application/vnd.apple.mpegurl")
	c.Header("Cache-Control", "no-cache")
	c.String(http.StatusOK, content)
}

// generateM3U8WithToken 根据录像列表生成 m3u8 播放列表（每个片段 URL 带 token）
func (a RecordingAPI) generateM3U8WithToken(recordings []*recording.Recording, token string) string {
	count := len(recordings)
	if count == 0 {
		return ""
	}

	// winSize=0 表示 VOD，不使用滑动窗口
	pl, err := m3u8.NewMediaPlaylist(0, uint(count))
	if err != nil {
		return ""
	}
	pl.MediaType = m3u8.VOD

	// 录像按上传时间升序排列
	sorted := make([]*recording.Recording, len(recordings))
	copy(sorted, recordings)
	for i := 0; i < len(sorted)-1; i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i].CreatedAt.After(sorted[j].CreatedAt.Time) {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	// 每段都是独立文件，DTS 从 0 开始，片段之间必须加 DISCONTINUITY
	// 告诉 HLS.js 重置解码器，避免 DTS 不连续导致的解析错误
	for i, rec := range sorted {
		if i > 0 {
			pl.SetDiscontinuity()
		}

		relativePath := strings.TrimPrefix(rec.Path, "recordings/")
		var uri string
		if token != "" {
			uri = fmt.Sprintf("/static/recordings/%s?token=%s", relativePath, token)
		} else {
			uri = fmt.Sprintf("/static/recordings/%s", relativePath)
		}
		_ = pl.Append(uri, rec.Duration, "")
	}

	pl.Close()
	return pl.String()
}
