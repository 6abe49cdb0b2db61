package sessiondb

import (
	"log/slog"

	"github.com/proctorly/kestrel/internal/core/session"
	"gorm.io/gorm"
)

var _ session.Storer = (*DB)(nil)

type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

// AutoMigrate 自动建表，enabled 由全局配置控制
func (d *DB) AutoMigrate(enabled bool) *DB {
	if enabled {
		if err := d.db.AutoMigrate(new(session.Session)); err != nil {
			slog.Error("sessiondb AutoMigrate", "err", err)
		}
	}
	return d
}

func (d *DB) Session() session.SessionStorer {
	return NewSession(d.db)
}
