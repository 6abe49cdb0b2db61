package analysisdb

import (
	"log/slog"

	"github.com/proctorly/kestrel/internal/core/analysis"
	"gorm.io/gorm"
)

var _ analysis.Storer = (*DB)(nil)

type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

// AutoMigrate 自动建表，enabled 由全局配置控制
func (d *DB) AutoMigrate(enabled bool) *DB {
	if enabled {
		if err := d.db.AutoMigrate(new(analysis.Run)); err != nil {
			slog.Error("analysisdb AutoMigrate", "err", err)
		}
	}
	return d
}

func (d *DB) Run() analysis.RunStorer {
	return NewRun(d.db)
}
