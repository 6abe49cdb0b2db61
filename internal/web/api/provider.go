package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/domain/uniqueid/store/uniqueiddb"
	"github.com/ixugo/goddd/domain/version/versionapi"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"github.com/proctorly/kestrel/internal/conf"
	"github.com/proctorly/kestrel/internal/core/analysis"
	"github.com/proctorly/kestrel/internal/core/analysis/store/analysisdb"
	"github.com/proctorly/kestrel/internal/core/integrity"
	"github.com/proctorly/kestrel/internal/core/integrity/store/integritydb"
	"github.com/proctorly/kestrel/internal/core/recording"
	"github.com/proctorly/kestrel/internal/core/recording/store/recordingdb"
	"github.com/proctorly/kestrel/internal/core/session"
	"github.com/proctorly/kestrel/internal/core/session/store/sessiondb"
	"github.com/proctorly/kestrel/internal/storage"
	"github.com/proctorly/kestrel/internal/vision"
	"gorm.io/gorm"
)

var (
	ProviderVersionSet = wire.NewSet(versionapi.NewVersionCore)
	ProviderSet        = wire.NewSet(
		wire.Struct(new(Usecase), "*"),
		NewHTTPHandler,
		versionapi.New,
		NewUniqueID,
		NewStorage,
		NewDetector,
		NewIntegrityCore, NewFlagAPI, NewTelemetryAPI,
		NewSessionCore, NewSessionAPI,
		NewAnalysisCore, NewAnalysisAPI,
		NewRecordingCore, NewRecordingAPI,
		NewUserAPI,
	)
)

type Usecase struct {
	Conf     *conf.Bootstrap
	DB       *gorm.DB
	Version  versionapi.API
	UniqueID uniqueid.Core

	SessionAPI   SessionAPI
	TelemetryAPI TelemetryAPI
	FlagAPI      FlagAPI
	AnalysisAPI  AnalysisAPI
	RecordingAPI RecordingAPI
	UserAPI      UserAPI
}

// NewHTTPHandler 生成Gin框架路由内容
func NewHTTPHandler(uc *Usecase) http.Handler {
	cfg := uc.Conf.Server
	if cfg.HTTP.JwtSecret == "" {
		uc.Conf.Server.HTTP.JwtSecret = orm.GenerateRandomString(32)
	}
	if !uc.Conf.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	g := gin.New()
	// 如果启用了 Pprof，设置 Pprof 监控
	if cfg.HTTP.PProf.Enabled {
		web.SetupPProf(g, &cfg.HTTP.PProf.AccessIps)
	}

	setupRouter(g, uc)
	uc.Version.RecordVersion()
	return g
}

// NewUniqueID 唯一 id 生成器
func NewUniqueID(db *gorm.DB) uniqueid.Core {
	return uniqueid.NewCore(uniqueiddb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate()), 5)
}

// NewStorage 本地文件存储，录像与取证片段的落盘根目录
func NewStorage(bc *conf.Bootstrap) (*storage.Store, error) {
	return storage.NewStore(bc.Server.Recording.StorageDir)
}

// NewDetector 加载 ONNX 检测模型，进程退出时释放会话
func NewDetector(bc *conf.Bootstrap) (vision.Detector, func(), error) {
	det, err := vision.NewONNXDetector(vision.ONNXConfig{
		ModelDir:    bc.Vision.ModelDir,
		Width:       bc.Analysis.Width,
		Height:      bc.Analysis.Height,
		ScoreThresh: float32(bc.Vision.ScoreThresh),
		IOUThresh:   float32(bc.Vision.IOUThresh),
	})
	if err != nil {
		return nil, nil, err
	}
	return det, func() { _ = det.Close() }, nil
}

func NewIntegrityCore(db *gorm.DB) integrity.Core {
	return integrity.NewCore(integritydb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate()))
}

func NewSessionCore(db *gorm.DB, uni uniqueid.Core, flags integrity.Core) session.Core {
	return session.NewCore(sessiondb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate()), uni, flags)
}

func NewAnalysisCore(
	db *gorm.DB,
	uni uniqueid.Core,
	detector vision.Detector,
	flags integrity.Core,
	sessions session.Core,
	files *storage.Store,
	bc *conf.Bootstrap,
) *analysis.Core {
	return analysis.NewCore(
		analysisdb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate()),
		uni, detector, flags, sessions, files,
		analysis.Config{
			Width:     bc.Analysis.Width,
			Height:    bc.Analysis.Height,
			SampleFPS: bc.Analysis.SampleFPS,
		},
	)
}

func NewRecordingCore(db *gorm.DB, files *storage.Store, bc *conf.Bootstrap, sessions session.Core) recording.Core {
	return recording.NewCore(
		recordingdb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate()),
		files,
		recording.WithConfig(&bc.Server.Recording),
		recording.WithSessionProvider(sessions),
	)
}
