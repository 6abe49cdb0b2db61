package recording

import (
	"context"
	"io"
	"log/slog"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/proctorly/kestrel/pkg/ffwork"
	"gorm.io/gorm"
)

// RecordingStorer Instantiation interface
type RecordingStorer interface {
	Find(context.Context, *[]*Recording, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *Recording, ...orm.QueryOption) error
	Add(context.Context, *Recording) error
	Edit(context.Context, *Recording, func(*Recording), ...orm.QueryOption) error
	Del(context.Context, *Recording, ...orm.QueryOption) error
	Count(context.Context, ...orm.QueryOption) (int64, error)

	Session(context.Context, ...func(*gorm.DB) error) error
}

// RegisterUpload 接收整段考试录像
// 文件落盘后用 ffprobe 探测时长，登记记录并回写到会话；
// 探测失败不拒绝上传，时长留空，复扫不依赖该值
func (c Core) RegisterUpload(ctx context.Context, in *UploadInput, r io.Reader) (*Recording, error) {
	rel := c.files.RecordingPath(in.SessionID, in.Filename)
	size, err := c.files.Save(rel, r)
	if err != nil {
		return nil, reason.ErrServer.Withf(`save recording sid[%s] err[%s]`, in.SessionID, err.Error())
	}

	out := Recording{
		SessionID:   in.SessionID,
		Path:        rel,
		Size:        size,
		ContentType: in.ContentType,
		CreatedAt:   orm.Now(),
		UpdatedAt:   orm.Now(),
	}
	abs, _, err := c.files.Stat(rel)
	if err == nil {
		if sec, derr := ffwork.Duration(ctx, abs); derr != nil {
			slog.WarnContext(ctx, "probe recording duration", "path", rel, "err", derr)
		} else {
			out.Duration = sec
		}
	}

	if err := c.store.Recording().Add(ctx, &out); err != nil {
		_ = c.files.Remove(rel)
		return nil, reason.ErrDB.Withf(`Add sid[%s] err[%s]`, in.SessionID, err.Error())
	}

	if c.sessions != nil {
		if _, err := c.sessions.AttachRecording(ctx, in.SessionID, rel); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// FindRecordings 分页查询录像列表
func (c Core) FindRecordings(ctx context.Context, in *FindRecordingInput) ([]*Recording, int64, error) {
	query := orm.NewQuery(2).OrderBy("created_at DESC")

	if in.SessionID != "" {
		query.Where("session_id = ?", in.SessionID)
	}
	if in.DeleteFlag != nil {
		query.Where("delete_flag = ?", *in.DeleteFlag)
	}

	items := make([]*Recording, 0, in.Limit())
	total, err := c.store.Recording().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetRecording Query a single object
func (c Core) GetRecording(ctx context.Context, id int64) (*Recording, error) {
	out := Recording{ID: id}
	if err := c.store.Recording().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// FilePath 返回录像的绝对路径，供下载与复扫使用
func (c Core) FilePath(rec *Recording) (string, error) {
	abs, _, err := c.files.Stat(rec.Path)
	if err != nil {
		return "", reason.ErrNotFound.Withf(`file missing path[%s] err[%s]`, rec.Path, err.Error())
	}
	return abs, nil
}

// DelRecording 删除录像记录与文件
func (c Core) DelRecording(ctx context.Context, id int64) (*Recording, error) {
	var out Recording
	if err := c.store.Recording().Del(ctx, &out, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`Del id[%v] err[%s]`, id, err.Error())
	}
	if err := c.files.Remove(out.Path); err != nil {
		slog.WarnContext(ctx, "remove recording file", "path", out.Path, "err", err)
	}
	return &out, nil
}
