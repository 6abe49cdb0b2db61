// Package analysis 考后录像复扫
// 对已结束会话的录像按固定帧率采样，经检测模型与状态机产出违规记录，
// 扫描结果在单个事务中一次性提交
package analysis

import (
	"context"

	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/pkg/conc"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/proctorly/kestrel/internal/core/integrity"
	"github.com/proctorly/kestrel/internal/core/session"
	"github.com/proctorly/kestrel/internal/storage"
	"github.com/proctorly/kestrel/internal/vision"
	"github.com/proctorly/kestrel/pkg/ffwork"
	"gorm.io/gorm"
)

// RunStorer Instantiation interface
type RunStorer interface {
	Find(context.Context, *[]*Run, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *Run, ...orm.QueryOption) error
	Add(context.Context, *Run) error
	Edit(context.Context, *Run, func(*Run), ...orm.QueryOption) error
	Del(context.Context, *Run, ...orm.QueryOption) error
	Count(context.Context, ...orm.QueryOption) (int64, error)

	Session(context.Context, ...func(*gorm.DB) error) error
}

// Storer data persistence
type Storer interface {
	Run() RunStorer
}

// FlagCommitter 违规域提交能力，复扫产出经此一次性落库
type FlagCommitter interface {
	AddFlags(ctx context.Context, flags []*integrity.Flag) error
}

// SessionProvider 会话域能力接口
type SessionProvider interface {
	GetSession(ctx context.Context, id string) (*session.Session, error)
	RefreshRecommendation(ctx context.Context, id string) (*session.Session, error)
}

// FrameSource 帧来源抽象，生产实现为 ffwork.FrameExtractor
type FrameSource interface {
	Start(ctx context.Context) error
	Frames() <-chan *ffwork.FrameData
	Wait() error
	Stop()
}

// FrameSourceFactory 按录像文件路径创建帧来源
type FrameSourceFactory func(input string) (FrameSource, error)

// Config 复扫采样参数
type Config struct {
	Width     int // 解码输出宽度，与检测模型输入一致
	Height    int
	SampleFPS int // 采样帧率，默认每秒 2 帧
}

// Core business domain
type Core struct {
	store     Storer
	uni       uniqueid.Core
	detector  vision.Detector
	flags     FlagCommitter
	sessions  SessionProvider
	files     *storage.Store
	cfg       Config
	newSource FrameSourceFactory
	cancels   *conc.Map[string, context.CancelFunc]
}

// NewCore create business domain
func NewCore(
	store Storer,
	uni uniqueid.Core,
	detector vision.Detector,
	flags FlagCommitter,
	sessions SessionProvider,
	files *storage.Store,
	cfg Config,
) *Core {
	if cfg.SampleFPS <= 0 {
		cfg.SampleFPS = 2
	}
	c := Core{
		store:    store,
		uni:      uni,
		detector: detector,
		flags:    flags,
		sessions: sessions,
		files:    files,
		cfg:      cfg,
		cancels:  conc.NewMap[string, context.CancelFunc](),
	}
	c.newSource = func(input string) (FrameSource, error) {
		return ffwork.NewFrameExtractor(ffwork.Config{
			Width:  cfg.Width,
			Height: cfg.Height,
			FPS:    cfg.SampleFPS,
			Input:  input,
			Name:   "analysis",
		})
	}
	return &c
}
