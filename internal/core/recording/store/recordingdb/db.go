package recordingdb

import (
	"log/slog"

	"github.com/proctorly/kestrel/internal/core/recording"
	"gorm.io/gorm"
)

var _ recording.Storer = (*DB)(nil)

type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

// AutoMigrate 自动建表，enabled 由全局配置控制
func (d *DB) AutoMigrate(enabled bool) *DB {
	if enabled {
		if err := d.db.AutoMigrate(new(recording.Recording)); err != nil {
			slog.Error("recordingdb AutoMigrate", "err", err)
		}
	}
	return d
}

func (d *DB) Recording() recording.RecordingStorer {
	return NewRecording(d.db)
}
