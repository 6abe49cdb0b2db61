package analysisdb

import (
	"context"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/proctorly/kestrel/internal/core/analysis"
	"gorm.io/gorm"
)

var _ analysis.RunStorer = (*Run)(nil)

type Run struct {
	db *gorm.DB
}

func NewRun(db *gorm.DB) *Run {
	return &Run{db: db}
}

func (r *Run) apply(ctx context.Context, opts []orm.QueryOption) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(new(analysis.Run))
	for _, opt := range opts {
		tx = opt(tx)
	}
	return tx
}

// Find implements analysis.RunStorer.
func (r *Run) Find(ctx context.Context, out *[]*analysis.Run, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	tx := r.apply(ctx, opts)

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

// Get implements analysis.RunStorer.
func (r *Run) Get(ctx context.Context, out *analysis.Run, opts ...orm.QueryOption) error {
	return r.apply(ctx, opts).First(out).Error
}

// Add implements analysis.RunStorer.
func (r *Run) Add(ctx context.Context, run *analysis.Run) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Edit implements analysis.RunStorer.
func (r *Run) Edit(ctx context.Context, out *analysis.Run, changeFn func(*analysis.Run), opts ...orm.QueryOption) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(new(analysis.Run))
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

// Del implements analysis.RunStorer.
func (r *Run) Del(ctx context.Context, out *analysis.Run, opts ...orm.QueryOption) error {
	tx := r.apply(ctx, opts)
	if err := tx.First(out).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(out).Error
}

// Count implements analysis.RunStorer.
func (r *Run) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	var total int64
	err := r.apply(ctx, opts).Count(&total).Error
	return total, err
}

// Session implements analysis.RunStorer.
func (r *Run) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range changeFns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
