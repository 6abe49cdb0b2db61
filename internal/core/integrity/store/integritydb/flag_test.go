package integritydb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/proctorly/kestrel/internal/core/integrity"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func generateMockDB() (*gorm.DB, sqlmock.Sqlmock, error) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		return nil, nil, err
	}
	return db, mock, nil
}

func TestFlagGet(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	flagDB := NewFlag(db)

	rows := sqlmock.NewRows([]string{"id", "session_id", "kind", "severity"}).
		AddRow(1, "se_1", "phone", "moderate")
	mock.ExpectQuery(`SELECT \* FROM "flags" WHERE id=\$1 (.+) LIMIT \$2`).
		WithArgs(int64(1), 1).WillReturnRows(rows)

	var out integrity.Flag
	if err := flagDB.Get(context.Background(), &out, orm.Where("id=?", int64(1))); err != nil {
		t.Fatal(err)
	}
	if out.Kind != integrity.KindPhone {
		t.Fatalf("kind = %s", out.Kind)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestFlagCount(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	flagDB := NewFlag(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "flags" WHERE session_id = \$1 AND severity = \$2`).
		WithArgs("se_1", "high").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	total, err := flagDB.Count(context.Background(),
		orm.Where("session_id = ?", "se_1"),
		orm.Where("severity = ?", "high"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Fatalf("count = %d, want 2", total)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}
