package integritydb

import (
	"log/slog"

	"github.com/proctorly/kestrel/internal/core/integrity"
	"gorm.io/gorm"
)

var _ integrity.Storer = (*DB)(nil)

type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

// AutoMigrate 自动建表，enabled 由全局配置控制
func (d *DB) AutoMigrate(enabled bool) *DB {
	if enabled {
		if err := d.db.AutoMigrate(new(integrity.Flag)); err != nil {
			slog.Error("integritydb AutoMigrate", "err", err)
		}
	}
	return d
}

func (d *DB) Flag() integrity.FlagStorer {
	return NewFlag(d.db)
}
