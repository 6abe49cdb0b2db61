package integritydb

import (
	"context"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/proctorly/kestrel/internal/core/integrity"
	"gorm.io/gorm"
)

var _ integrity.FlagStorer = (*Flag)(nil)

type Flag struct {
	db *gorm.DB
}

func NewFlag(db *gorm.DB) *Flag {
	return &Flag{db: db}
}

func (f *Flag) apply(ctx context.Context, opts []orm.QueryOption) *gorm.DB {
	tx := f.db.WithContext(ctx).Model(new(integrity.Flag))
	for _, opt := range opts {
		tx = opt(tx)
	}
	return tx
}

// Find implements integrity.FlagStorer.
func (f *Flag) Find(ctx context.Context, out *[]*integrity.Flag, pager orm.Pager, opts ...orm.QueryOption) (int64, error) {
	tx := f.apply(ctx, opts)

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

// Get implements integrity.FlagStorer.
func (f *Flag) Get(ctx context.Context, out *integrity.Flag, opts ...orm.QueryOption) error {
	return f.apply(ctx, opts).First(out).Error
}

// Add implements integrity.FlagStorer.
func (f *Flag) Add(ctx context.Context, flag *integrity.Flag) error {
	return f.db.WithContext(ctx).Create(flag).Error
}

// Edit implements integrity.FlagStorer.
func (f *Flag) Edit(ctx context.Context, out *integrity.Flag, changeFn func(*integrity.Flag), opts ...orm.QueryOption) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(new(integrity.Flag))
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

// Del implements integrity.FlagStorer.
func (f *Flag) Del(ctx context.Context, out *integrity.Flag, opts ...orm.QueryOption) error {
	tx := f.apply(ctx, opts)
	if err := tx.First(out).Error; err != nil {
		return err
	}
	return f.db.WithContext(ctx).Delete(out).Error
}

// Count implements integrity.FlagStorer.
func (f *Flag) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	var total int64
	err := f.apply(ctx, opts).Count(&total).Error
	return total, err
}

// Session implements integrity.FlagStorer.
func (f *Flag) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range changeFns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
