package recordingdb

import (
	"context"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/proctorly/kestrel/internal/core/recording"
	"gorm.io/gorm"
)

var _ recording.RecordingStorer = (*Recording)(nil)

type Recording struct {
	db *gorm.DB
}

func NewRecording(db *gorm.DB) *Recording {
	return &Recording{db: db}
}

func (r *Recording) apply(ctx context.Context, opts []orm.QueryOption) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(new(recording.Recording))
	for _, opt := range opts {
		tx = opt(tx)
	}
	return tx
}

// Find implements recording.RecordingStorer.
func (r *Recording) Find(ctx context.Context, out *[]*recording.Recording, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
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

// Get implements recording.RecordingStorer.
func (r *Recording) Get(ctx context.Context, out *recording.Recording, opts ...orm.QueryOption) error {
	return r.apply(ctx, opts).First(out).Error
}

// Add implements recording.RecordingStorer.
func (r *Recording) Add(ctx context.Context, rec *recording.Recording) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// Edit implements recording.RecordingStorer.
func (r *Recording) Edit(ctx context.Context, out *recording.Recording, changeFn func(*recording.Recording), opts ...orm.QueryOption) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(new(recording.Recording))
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

// Del implements recording.RecordingStorer.
func (r *Recording) Del(ctx context.Context, out *recording.Recording, opts ...orm.QueryOption) error {
	tx := r.apply(ctx, opts)
	if err := tx.First(out).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(out).Error
}

// Count implements recording.RecordingStorer.
func (r *Recording) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	var total int64
	err := r.apply(ctx, opts).Count(&total).Error
	return total, err
}

// Session implements recording.RecordingStorer.
func (r *Recording) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range changeFns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
