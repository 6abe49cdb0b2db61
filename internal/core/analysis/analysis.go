package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/proctorly/kestrel/internal/core/bz"
)

// StartRun 登记并启动一次录像复扫
// 同一会话同时只允许一个未完成任务，扫描在后台进行
func (c *Core) StartRun(ctx context.Context, in *StartRunInput) (*Run, error) {
	sess, err := c.sessions.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.RecordingPath == "" {
		return nil, reason.ErrBadRequest.Withf("session[%s] has no recording", in.SessionID)
	}
	if _, _, err := c.files.Stat(sess.RecordingPath); err != nil {
		return nil, reason.ErrBadRequest.Withf("recording unreadable: %s", err.Error())
	}

	active, err := c.store.Run().Count(ctx,
		orm.Where("session_id = ?", in.SessionID),
		orm.Where("status IN ?", []string{StatusPending, StatusRunning}),
	)
	if err != nil {
		return nil, reason.ErrDB.Withf(`Count sid[%s] err[%s]`, in.SessionID, err.Error())
	}
	if active > 0 {
		return nil, reason.ErrBadRequest.Withf("session[%s] already has a run in progress", in.SessionID)
	}

	run := Run{
		ID:        c.uni.UniqueID(bz.IDPrefixRun),
		SessionID: in.SessionID,
		Status:    StatusPending,
		CreatedAt: orm.Now(),
		UpdatedAt: orm.Now(),
	}
	if err := c.store.Run().Add(ctx, &run); err != nil {
		return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	c.cancels.Store(run.ID, cancel)
	go c.work(workerCtx, run.ID, in.SessionID, sess.RecordingPath)

	return &run, nil
}

// work 后台扫描，产出在单个事务中一次性提交
// 任何失败都不落库半截结果，失败原因记录在任务上
func (c *Core) work(ctx context.Context, runID, sessionID, recordingPath string) {
	defer c.cancels.Delete(runID)

	start := time.Now()
	if err := c.editRun(ctx, runID, func(r *Run) {
		now := orm.Now()
		r.Status = StatusRunning
		r.StartedAt = &now
	}); err != nil {
		slog.Error("mark run running", "run_id", runID, "err", err)
		return
	}

	result, err := c.execute(ctx, sessionID, recordingPath)
	if err != nil {
		status := StatusFailed
		if errors.Is(err, context.Canceled) {
			status = StatusCanceled
		}
		slog.Error("analysis run finished with error",
			"run_id", runID, "session_id", sessionID, "status", status, "err", err)
		_ = c.editRun(context.Background(), runID, func(r *Run) {
			now := orm.Now()
			r.Status = status
			r.Error = err.Error()
			r.FinishedAt = &now
		})
		return
	}

	if err := c.editRun(context.Background(), runID, func(r *Run) {
		now := orm.Now()
		r.Status = StatusCompleted
		r.FramesScanned = result.FramesScanned
		r.FlagCount = len(result.Flags)
		r.FinishedAt = &now
	}); err != nil {
		slog.Error("mark run completed", "run_id", runID, "err", err)
	}

	if _, err := c.sessions.RefreshRecommendation(context.Background(), sessionID); err != nil {
		slog.Error("refresh recommendation after run", "session_id", sessionID, "err", err)
	}

	slog.Info("analysis run completed",
		"run_id", runID,
		"session_id", sessionID,
		"frames", result.FramesScanned,
		"flags", len(result.Flags),
		"cost", time.Since(start).String(),
	)
}

// execute 解码、扫描并提交
func (c *Core) execute(ctx context.Context, sessionID, recordingPath string) (*scanResult, error) {
	abs, _, err := c.files.Stat(recordingPath)
	if err != nil {
		return nil, err
	}
	src, err := c.newSource(abs)
	if err != nil {
		return nil, err
	}

	result, err := c.scan(ctx, sessionID, src)
	if err != nil {
		return nil, err
	}
	if err := c.flags.AddFlags(ctx, result.Flags); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Core) editRun(ctx context.Context, id string, changeFn func(*Run)) error {
	var out Run
	return c.store.Run().Edit(ctx, &out, func(r *Run) {
		changeFn(r)
		r.UpdatedAt = orm.Now()
	}, orm.Where("id=?", id))
}

// CancelRun 取消执行中的复扫任务
func (c *Core) CancelRun(ctx context.Context, id string) (*Run, error) {
	cancel, ok := c.cancels.Load(id)
	if !ok {
		return nil, reason.ErrBadRequest.Withf("run[%s] is not in progress", id)
	}
	cancel()
	return c.GetRun(ctx, id)
}

// GetRun Query a single object
func (c *Core) GetRun(ctx context.Context, id string) (*Run, error) {
	out := Run{ID: id}
	if err := c.store.Run().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// FindRuns 分页查询复扫任务
func (c *Core) FindRuns(ctx context.Context, in *FindRunInput) ([]*Run, int64, error) {
	query := orm.NewQuery(2).OrderBy("created_at DESC")

	if in.SessionID != "" {
		query.Where("session_id = ?", in.SessionID)
	}
	if in.Status != "" {
		query.Where("status = ?", in.Status)
	}

	items := make([]*Run, 0, in.Limit())
	total, err := c.store.Run().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}
