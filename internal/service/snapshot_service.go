package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tschnepf/workload-tracker-sub001/internal/dto"
	"github.com/tschnepf/workload-tracker-sub001/internal/model"
	"github.com/tschnepf/workload-tracker-sub001/internal/repository"
)

// ── 快照模块业务错误 ──

var (
	ErrInvalidWeekKey = errors.New("周键格式非法")
)

// SnapshotService 每周分配快照物化接口
type SnapshotService interface {
	// MaterializeWeek 物化单周快照；锁未获取时返回 LockAcquired=false 的零结果
	MaterializeWeek(ctx context.Context, weekKey string, opts dto.MaterializeOptions) (*dto.MaterializeResult, error)
	// BackfillWeeks 逐周回填；单周失败不阻塞其余周
	BackfillWeeks(ctx context.Context, weekKeys []string, emitEvents, force bool) (*dto.BackfillResult, error)
}

type snapshotService struct {
	repo       *repository.Repository
	classifier *PhaseClassifier
	locker     WeekLocker
	lockTTL    time.Duration
	logger     *zap.Logger
}

// NewSnapshotService 创建 SnapshotService 实例
func NewSnapshotService(repo *repository.Repository, classifier *PhaseClassifier, locker WeekLocker, lockTTL time.Duration, logger *zap.Logger) SnapshotService {
	return &snapshotService{
		repo:       repo,
		classifier: classifier,
		locker:     locker,
		lockTTL:    lockTTL,
		logger:     logger,
	}
}

// ════════════════════════════════════════════════════════════
// MaterializeWeek — 单周快照物化
// ════════════════════════════════════════════════════════════
//
// 协议：
//  1. try-acquire 周锁；失败立即返回（正常可重试结果）
//  2. 扫描有效分配，逐项目分类阶段，构建 (人, 项目, 角色, 部门, 工时, 阶段) 元组
//  3. 按 (person, project, role, week, source) 键幂等 upsert 快照行
//  4. emitEvents 时比对上一周，insert-if-absent 写入 joined/left 事件
//  5. 步骤 2-4 包在单个事务内；锁在所有退出路径释放

func (s *snapshotService) MaterializeWeek(ctx context.Context, weekKey string, opts dto.MaterializeOptions) (*dto.MaterializeResult, error) {
	weekStart, err := ParseWeekKey(weekKey)
	if err != nil {
		return nil, ErrInvalidWeekKey
	}
	// 非周日输入规范化
	weekStart = SundayOfWeek(weekStart)
	weekKey = weekStart.Format(WeekKeyLayout)

	acquired, err := s.locker.TryLock(ctx, "snapshot:week:"+weekKey, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return &dto.MaterializeResult{WeekKey: weekKey, LockAcquired: false}, nil
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), "snapshot:week:"+weekKey); err != nil {
			s.logger.Warn("周锁释放失败", zap.String("week_key", weekKey), zap.Error(err))
		}
	}()

	result := &dto.MaterializeResult{WeekKey: weekKey, LockAcquired: true}

	source := model.SnapshotSourceLive
	if opts.Backfill {
		source = model.SnapshotSourceBackfilled
	}

	prevKey, _ := ShiftWeekKey(weekKey, -1)
	prevStart := weekStart.AddDate(0, 0, -7)

	txErr := s.repo.Tx.Transaction(ctx, func(r *repository.Repository) error {
		assignments, err := r.Assignment.ListActiveWithRelations(ctx)
		if err != nil {
			return err
		}

		for i := range assignments {
			a := &assignments[i]
			if a.Person == nil || a.Project == nil {
				// 数据质量问题：缺关联的行跳过，不中断整批
				s.logger.Warn("分配缺少人员或项目关联，跳过",
					zap.String("assignment_id", a.AssignmentID))
				continue
			}

			normalized := NormalizeWeeklyHours(a.WeeklyHours)
			cur := normalized[weekKey]
			prev := normalized[prevKey]

			// 有效窗口外的工时视为 0，快照入选与事件判定共用同一口径：
			// 窗口已结束但映射仍有残留工时的分配不产生 joined，
			// 窗口结束本身按 left 处理
			if !a.ActiveInWeek(weekStart) {
				cur = 0
			}
			if !a.ActiveInWeek(prevStart) {
				prev = 0
			}

			include := cur > 0
			if opts.Backfill {
				// 回填模式：该周处于有效窗口即入选，与当前映射无关
				include = a.ActiveInWeek(weekStart)
			}

			if include {
				if err := s.upsertSnapshot(ctx, r, a, weekKey, source, int(cur), opts.Force, result); err != nil {
					return err
				}
			}

			if opts.EmitEvents {
				if err := s.emitTransitionEvents(ctx, r, a, weekKey, prev, cur, result); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if txErr != nil {
		s.logger.Error("快照物化事务失败", zap.String("week_key", weekKey), zap.Error(txErr))
		return nil, txErr
	}

	s.logger.Info("快照物化完成",
		zap.String("week_key", weekKey),
		zap.String("source", source),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("events_inserted", result.EventsInserted),
	)
	return result, nil
}

// upsertSnapshot 按键 upsert 单条快照行并计数
func (s *snapshotService) upsertSnapshot(ctx context.Context, r *repository.Repository, a *model.Assignment, weekKey, source string, hours int, force bool, result *dto.MaterializeResult) error {
	roleID := model.NilRoleID
	if a.RoleID != nil {
		roleID = *a.RoleID
	}

	phase := s.classifier.ClassifyWeek(ctx, weekKey, a.Project.Status,
		NormalizeDeliverables(a.Project.Deliverables))

	var departmentID *string
	if a.Person.DepartmentID != nil {
		departmentID = a.Person.DepartmentID
	}

	existing, err := r.Snapshot.GetByKey(ctx, a.PersonID, a.ProjectID, roleID, weekKey, source)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if existing == nil {
		snapshot := &model.WeeklyAssignmentSnapshot{
			PersonID:     a.PersonID,
			ProjectID:    a.ProjectID,
			RoleID:       roleID,
			WeekKey:      weekKey,
			Source:       source,
			PersonName:   a.Person.Name,
			ProjectName:  a.Project.Name,
			ClientName:   a.Project.ClientName,
			DepartmentID: departmentID,
			Hours:        hours,
			Phase:        phase,
		}
		if err := r.Snapshot.Create(ctx, snapshot); err != nil {
			return err
		}
		result.Inserted++
		return nil
	}

	unchanged := existing.Hours == hours &&
		existing.Phase == phase &&
		existing.PersonName == a.Person.Name &&
		existing.ProjectName == a.Project.Name &&
		existing.ClientName == a.Project.ClientName &&
		strPtrEqual(existing.DepartmentID, departmentID)
	if unchanged && !force {
		result.Skipped++
		return nil
	}

	existing.PersonName = a.Person.Name
	existing.ProjectName = a.Project.Name
	existing.ClientName = a.Project.ClientName
	existing.DepartmentID = departmentID
	existing.Hours = hours
	existing.Phase = phase
	existing.UpdatedAt = time.Now()
	if err := r.Snapshot.Update(ctx, existing); err != nil {
		return err
	}
	result.Updated++
	return nil
}

// emitTransitionEvents 比对上一周工时，幂等写入 joined/left 事件
func (s *snapshotService) emitTransitionEvents(ctx context.Context, r *repository.Repository, a *model.Assignment, weekKey string, prev, cur float64, result *dto.MaterializeResult) error {
	var eventType string
	switch {
	case prev <= 0 && cur > 0:
		eventType = model.EventTypeJoined
	case prev > 0 && cur <= 0:
		eventType = model.EventTypeLeft
	default:
		return nil
	}

	roleID := model.NilRoleID
	if a.RoleID != nil {
		roleID = *a.RoleID
	}

	inserted, err := r.MembershipEvent.InsertIfAbsent(ctx, &model.AssignmentMembershipEvent{
		PersonID:  a.PersonID,
		ProjectID: a.ProjectID,
		RoleID:    roleID,
		EventType: eventType,
		WeekKey:   weekKey,
	})
	if err != nil {
		return err
	}
	if inserted {
		result.EventsInserted++
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// BackfillWeeks — 多周回填
// ════════════════════════════════════════════════════════════
//
// 结构为逐周独立调用：周与周之间无跨周事务，中途取消时已物化的周
// 保持完整且幂等；单周失败记录后继续

func (s *snapshotService) BackfillWeeks(ctx context.Context, weekKeys []string, emitEvents, force bool) (*dto.BackfillResult, error) {
	agg := &dto.BackfillResult{}

	for _, weekKey := range weekKeys {
		if err := ctx.Err(); err != nil {
			return agg, err
		}

		result, err := s.MaterializeWeek(ctx, weekKey, dto.MaterializeOptions{
			EmitEvents: emitEvents,
			Force:      force,
			Backfill:   true,
		})
		if err != nil {
			s.logger.Error("回填周失败，继续后续周",
				zap.String("week_key", weekKey), zap.Error(err))
			agg.FailedWeeks = append(agg.FailedWeeks, weekKey)
			continue
		}
		if !result.LockAcquired {
			agg.WeeksLocked++
			continue
		}

		agg.Inserted += result.Inserted
		agg.Updated += result.Updated
		agg.Skipped += result.Skipped
		agg.EventsInserted += result.EventsInserted
		agg.WeeksProcessed++
	}

	return agg, nil
}

// strPtrEqual 指针字符串相等比较（双 nil 视为相等）
func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
