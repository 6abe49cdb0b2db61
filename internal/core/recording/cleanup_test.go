package recording

import (
	"context"
	"errors"
	"testing"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/proctorly/kestrel/internal/conf"
	"github.com/proctorly/kestrel/internal/storage"
	"gorm.io/gorm"
)

// failingDeleteStore 查询始终返回同一批记录，删除事务始终失败
type failingDeleteStore struct {
	rows    []*Recording
	finds   int
	deletes int
}

func (s *failingDeleteStore) Recording() RecordingStorer { return s }

func (s *failingDeleteStore) Find(_ context.Context, out *[]*Recording, _ orm.Pager, _ ...orm.QueryOption) (int64, error) {
	s.finds++
	*out = append((*out)[:0], s.rows...)
	return int64(len(s.rows)), nil
}

func (s *failingDeleteStore) Get(context.Context, *Recording, ...orm.QueryOption) error {
	return gorm.ErrRecordNotFound
}

func (s *failingDeleteStore) Add(context.Context, *Recording) error { return nil }

func (s *failingDeleteStore) Edit(context.Context, *Recording, func(*Recording), ...orm.QueryOption) error {
	return nil
}

func (s *failingDeleteStore) Del(context.Context, *Recording, ...orm.QueryOption) error { return nil }

func (s *failingDeleteStore) Count(context.Context, ...orm.QueryOption) (int64, error) {
	return 0, nil
}

func (s *failingDeleteStore) Session(context.Context, ...func(*gorm.DB) error) error {
	s.deletes++
	return errors.New("database is locked")
}

// 删除事务持续失败时必须中止本轮清理，否则会反复查出同一批记录死循环
func TestBatchDeleteStopsWhenDeleteFails(t *testing.T) {
	files, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := failingDeleteStore{rows: []*Recording{
		{ID: 1, SessionID: "se1", Path: "recordings/se1/a.mp4", Size: 100},
		{ID: 2, SessionID: "se1", Path: "recordings/se1/b.mp4", Size: 200},
	}}
	c := NewCore(&store, files, WithConfig(&conf.ServerRecording{RetainDays: 1}))

	totalDeleted, _, _, _ := c.batchDeleteRecordings(context.Background())

	if store.finds != 1 || store.deletes != 1 {
		t.Fatalf("expected a single attempt, got finds=%d deletes=%d", store.finds, store.deletes)
	}
	if totalDeleted != 0 {
		t.Fatalf("totalDeleted = %d, want 0 after failed delete", totalDeleted)
	}
}
