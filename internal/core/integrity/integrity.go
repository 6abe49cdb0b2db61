package integrity

import (
	"context"
	"sync"

	"github.com/ixugo/goddd/pkg/conc"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"gorm.io/gorm"
)

// FlagStorer Instantiation interface
type FlagStorer interface {
	Find(context.Context, *[]*Flag, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *Flag, ...orm.QueryOption) error
	Add(context.Context, *Flag) error
	Edit(context.Context, *Flag, func(*Flag), ...orm.QueryOption) error
	Del(context.Context, *Flag, ...orm.QueryOption) error
	Count(context.Context, ...orm.QueryOption) (int64, error)

	Session(context.Context, ...func(*gorm.DB) error) error
}

// Storer data persistence
type Storer interface {
	Flag() FlagStorer
}

// liveSession 会话级分发器与串行化锁
// 分发器非并发安全，同一会话的遥测批次用锁保证串行喂入
type liveSession struct {
	mu sync.Mutex
	d  *Dispatcher
}

// Core business domain
// 持有违规记录存储与各考试会话的实时分发器
// 实时与录像复扫使用相互独立的状态机，互不共享状态
type Core struct {
	store    Storer
	factory  TrackerFactory
	sessions *conc.Map[string, *liveSession]
}

// NewCore create business domain
func NewCore(store Storer) Core {
	return Core{
		store:    store,
		factory:  NewKindTracker,
		sessions: conc.NewMap[string, *liveSession](),
	}
}

// ProcessTelemetry 处理一批实时遥测事件并立即落库产生的违规记录
// 会话的分发器在首批事件到达时创建，考试结束时由 CloseSession 销毁；
// 此路径不做任何检测模型调用，只消费客户端上报的标量
func (c Core) ProcessTelemetry(ctx context.Context, sessionID string, events []TelemetryEvent) ([]*Flag, error) {
	ls, _ := c.sessions.LoadOrStore(sessionID, &liveSession{d: NewDispatcher(sessionID, c.factory)})

	ls.mu.Lock()
	flags := ls.d.ProcessEvents(events)
	ls.mu.Unlock()

	if len(flags) == 0 {
		return flags, nil
	}
	if err := c.AddFlags(ctx, flags); err != nil {
		return nil, err
	}
	return flags, nil
}

// CloseSession 考试结束时销毁会话的实时状态机
// 仍未结束的片段直接丢弃，录像复扫阶段会重新覆盖这段时间线
func (c Core) CloseSession(sessionID string) {
	c.sessions.Delete(sessionID)
}

// AddFlags 在单个事务中批量写入违规记录
// 录像复扫的提交路径依赖该原子性：扫描中途失败不会留下半截结果
func (c Core) AddFlags(ctx context.Context, flags []*Flag) error {
	if len(flags) == 0 {
		return nil
	}
	if err := c.store.Flag().Session(ctx, func(tx *gorm.DB) error {
		return tx.Create(flags).Error
	}); err != nil {
		return reason.ErrDB.Withf(`AddFlags count[%d] err[%s]`, len(flags), err.Error())
	}
	return nil
}

// FindFlags 分页查询违规记录，支持会话、类型、级别、来源筛选
func (c Core) FindFlags(ctx context.Context, in *FindFlagInput) ([]*Flag, int64, error) {
	query := orm.NewQuery(4).OrderBy("start_s ASC")

	if in.SessionID != "" {
		query.Where("session_id = ?", in.SessionID)
	}
	if in.Kind != "" {
		query.Where("kind = ?", in.Kind)
	}
	if in.Severity != "" {
		query.Where("severity = ?", in.Severity)
	}
	if in.Source != "" {
		query.Where("source = ?", in.Source)
	}

	items := make([]*Flag, 0, in.Limit())
	total, err := c.store.Flag().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetFlag Query a single object
func (c Core) GetFlag(ctx context.Context, id int64) (*Flag, error) {
	out := Flag{ID: id}
	if err := c.store.Flag().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}

// CountBySeverity 统计会话的各级别违规数量，结论判定的输入
func (c Core) CountBySeverity(ctx context.Context, sessionID string) (high, moderate int64, err error) {
	high, err = c.store.Flag().Count(ctx,
		orm.Where("session_id = ?", sessionID),
		orm.Where("severity = ?", SeverityHigh),
	)
	if err != nil {
		return 0, 0, reason.ErrDB.Withf(`CountBySeverity sid[%s] err[%s]`, sessionID, err.Error())
	}
	moderate, err = c.store.Flag().Count(ctx,
		orm.Where("session_id = ?", sessionID),
		orm.Where("severity = ?", SeverityModerate),
	)
	if err != nil {
		return 0, 0, reason.ErrDB.Withf(`CountBySeverity sid[%s] err[%s]`, sessionID, err.Error())
	}
	return high, moderate, nil
}

// AttachClip 补充取证片段路径，违规记录唯一允许的修改
func (c Core) AttachClip(ctx context.Context, id int64, clipPath string) (*Flag, error) {
	var out Flag
	if err := c.store.Flag().Edit(ctx, &out, func(f *Flag) {
		f.ClipPath = clipPath
	}, orm.Where("id=?", id)); err != nil {
		return nil, reason.ErrDB.Withf(`AttachClip id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}
