package session

import (
	"context"

	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

// SessionStorer Instantiation interface
type SessionStorer interface {
	Find(context.Context, *[]*Session, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *Session, ...orm.QueryOption) error
	Add(context.Context, *Session) error
	Edit(context.Context, *Session, func(*Session), ...orm.QueryOption) error
	Del(context.Context, *Session, ...orm.QueryOption) error
	Count(context.Context, ...orm.QueryOption) (int64, error)

	Session(context.Context, ...func(*gorm.DB) error) error
}

// Storer data persistence
type Storer interface {
	Session() SessionStorer
}

// FlagProvider 违规域能力接口，解耦会话域与违规域
type FlagProvider interface {
	// CountBySeverity 统计会话各级别违规数量
	CountBySeverity(ctx context.Context, sessionID string) (high, moderate int64, err error)
	// CloseSession 销毁会话的实时状态机
	CloseSession(sessionID string)
}

// Core business domain
type Core struct {
	store Storer
	uni   uniqueid.Core
	flags FlagProvider
}

// NewCore create business domain
func NewCore(store Storer, uni uniqueid.Core, flags FlagProvider) Core {
	return Core{store: store, uni: uni, flags: flags}
}
