package recording

import (
	"context"

	"github.com/proctorly/kestrel/internal/conf"
	"github.com/proctorly/kestrel/internal/core/session"
	"github.com/proctorly/kestrel/internal/storage"
)

// Storer data persistence
type Storer interface {
	Recording() RecordingStorer
}

// SessionProvider 会话域能力接口，解耦录像领域与会话领域
type SessionProvider interface {
	AttachRecording(ctx context.Context, id, recordingPath string) (*session.Session, error)
}

// Core business domain
type Core struct {
	store    Storer
	files    *storage.Store
	conf     *conf.ServerRecording
	sessions SessionProvider
}

type Option func(*Core)

// WithSessionProvider 注入会话域，上传完成后回写录像路径
func WithSessionProvider(provider SessionProvider) Option {
	return func(c *Core) {
		c.sessions = provider
	}
}

// WithConfig 注入录像保留配置
func WithConfig(conf *conf.ServerRecording) Option {
	return func(c *Core) {
		c.conf = conf
	}
}

// NewCore create business domain
func NewCore(store Storer, files *storage.Store, opts ...Option) Core {
	c := Core{store: store, files: files}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
