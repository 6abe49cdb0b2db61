package session

import (
	"context"
	"log/slog"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/jinzhu/copier"
	"github.com/proctorly/kestrel/internal/core/bz"
	"github.com/proctorly/kestrel/internal/core/integrity"
)

// FindSessions 分页查询会话列表，支持状态与候选人筛选
func (c Core) FindSessions(ctx context.Context, in *FindSessionInput) ([]*Session, int64, error) {
	query := orm.NewQuery(3).OrderBy("created_at DESC")

	if in.Status != "" {
		query.Where("status = ?", in.Status)
	}
	if in.Candidate != "" {
		query.Where("candidate LIKE ?", "%"+in.Candidate+"%")
	}
	if in.Recommendation != "" {
		query.Where("recommendation = ?", in.Recommendation)
	}

	items := make([]*Session, 0, in.Limit())
	total, err := c.store.Session().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetSession Query a single object
func (c Core) GetSession(ctx context.Context, id string) (*Session, error) {
	out := Session{ID: id}
	if err := c.store.Session().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// AddSession Insert into database
func (c Core) AddSession(ctx context.Context, in *AddSessionInput) (*Session, error) {
	var out Session
	if err := copier.Copy(&out, in); err != nil {
		slog.ErrorContext(ctx, "Copy", "err", err)
	}
	out.ID = c.uni.UniqueID(bz.IDPrefixSession)
	out.Status = StatusScheduled
	out.CreatedAt = orm.Now()
	out.UpdatedAt = orm.Now()

	if err := c.store.Session().Add(ctx, &out); err != nil {
		return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}
	return &out, nil
}

// StartSession 开始考试，记录实际开始时间
func (c Core) StartSession(ctx context.Context, id string) (*Session, error) {
	var out Session
	if err := c.store.Session().Edit(ctx, &out, func(s *Session) {
		now := orm.Now()
		s.Status = StatusLive
		s.StartedAt = &now
		s.UpdatedAt = now
	}, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Start id[%v]`, id)
		}
		return nil, reason.ErrDB.Withf(`Start id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// FinishSession 结束考试
// 同时销毁该会话的实时状态机：仍未结束的片段直接丢弃，
// 这段时间线由考后的录像复扫重新覆盖
func (c Core) FinishSession(ctx context.Context, id string) (*Session, error) {
	var out Session
	if err := c.store.Session().Edit(ctx, &out, func(s *Session) {
		now := orm.Now()
		s.Status = StatusEnded
		s.EndedAt = &now
		s.UpdatedAt = now
	}, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Finish id[%v]`, id)
		}
		return nil, reason.ErrDB.Withf(`Finish id[%v] err[%s]`, id, err.Error())
	}
	c.flags.CloseSession(id)
	return &out, nil
}

// SetScore 回写评分管线产出的综合得分，并刷新结论建议
func (c Core) SetScore(ctx context.Context, id string, score float64) (*Session, error) {
	var out Session
	if err := c.store.Session().Edit(ctx, &out, func(s *Session) {
		s.Score = &score
		s.UpdatedAt = orm.Now()
	}, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`SetScore id[%v]`, id)
		}
		return nil, reason.ErrDB.Withf(`SetScore id[%v] err[%s]`, id, err.Error())
	}
	return c.RefreshRecommendation(ctx, id)
}

// AttachRecording 登记上传完成的考试录像路径
func (c Core) AttachRecording(ctx context.Context, id, recordingPath string) (*Session, error) {
	var out Session
	if err := c.store.Session().Edit(ctx, &out, func(s *Session) {
		s.RecordingPath = recordingPath
		s.UpdatedAt = orm.Now()
	}, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`AttachRecording id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// RefreshRecommendation 重新计算结论建议
// 得分回写或复扫提交新违规后调用，结论覆盖旧值
func (c Core) RefreshRecommendation(ctx context.Context, id string) (*Session, error) {
	sess, err := c.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	high, moderate, err := c.flags.CountBySeverity(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := integrity.Recommend(sess.Score, high, moderate)

	var out Session
	if err := c.store.Session().Edit(ctx, &out, func(s *Session) {
		s.Recommendation = rec
		s.UpdatedAt = orm.Now()
	}, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`RefreshRecommendation id[%v] err[%s]`, id, err.Error())
	}

	slog.InfoContext(ctx, "recommendation refreshed",
		"session_id", id,
		"high", high,
		"moderate", moderate,
		"recommendation", rec,
	)
	return &out, nil
}

// DelSession Delete object
func (c Core) DelSession(ctx context.Context, id string) (*Session, error) {
	var out Session
	if err := c.store.Session().Del(ctx, &out, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`Del id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}
