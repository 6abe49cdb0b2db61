package sessiondb

import (
	"context"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/proctorly/kestrel/internal/core/session"
	"gorm.io/gorm"
)

var _ session.SessionStorer = (*Session)(nil)

type Session struct {
	db *gorm.DB
}

func NewSession(db *gorm.DB) *Session {
	return &Session{db: db}
}

func (s *Session) apply(ctx context.Context, opts []orm.QueryOption) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(new(session.Session))
	for _, opt := range opts {
		tx = opt(tx)
	}
	return tx
}

// Find implements session.SessionStorer.
func (s *Session) Find(ctx context.Context, out *[]*session.Session, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	tx := s.apply(ctx, opts)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return 0, err
	}
	if pager != nil {
		tx = tx.Offset(pager.Offset()).Limit(pager.Limit())
	}
	if err := tx.Find(out).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Get implements session.SessionStorer.
func (s *Session) Get(ctx context.Context, out *session.Session, opts ...orm.QueryOption) error {
	return s.apply(ctx, opts).First(out).Error
}

// Add implements session.SessionStorer.
func (s *Session) Add(ctx context.Context, sess *session.Session) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

// Edit implements session.SessionStorer.
func (s *Session) Edit(ctx context.Context, out *session.Session, changeFn func(*session.Session), opts ...orm.QueryOption) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(new(session.Session))
		for _, opt := range opts {
			query = opt(query)
		}
		if err := query.First(out).Error; err != nil {
			return err
		}
		changeFn(out)
		return tx.Save(out).Error
	})
}

// Del implements session.SessionStorer.
func (s *Session) Del(ctx context.Context, out *session.Session, opts ...orm.QueryOption) error {
	tx := s.apply(ctx, opts)
	if err := tx.First(out).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(out).Error
}

// Count implements session.SessionStorer.
func (s *Session) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	var total int64
	err := s.apply(ctx, opts).Count(&total).Error
	return total, err
}

// Session implements session.SessionStorer.
func (s *Session) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range changeFns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
