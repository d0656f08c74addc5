package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tschnepf/workload-tracker-sub001/config"
	"github.com/tschnepf/workload-tracker-sub001/internal/dto"
	"github.com/tschnepf/workload-tracker-sub001/internal/model"
	"github.com/tschnepf/workload-tracker-sub001/internal/repository"
)

// overheadSyncMutexKey 全量 Overhead 同步的 TTL 互斥锁键
const overheadSyncMutexKey = "overhead:full-sync"

// OverheadService Overhead 分配对账接口
//
// 周期性地让 Overhead 项目上的合成分配与角色策略保持一致：
// 每个 (人员, Overhead 项目) 对按角色的 overhead-hours-per-week
// 在目标周窗口内统一取值
type OverheadService interface {
	// SyncOverheadAssignments 对账一次；scope 为空表示全量
	SyncOverheadAssignments(ctx context.Context, scope dto.OverheadScope, weeks int) (*dto.OverheadSyncResult, error)
	// MaybeSyncOverheadAssignments 全量对账，以 TTL 互斥锁保证窗口内
	// 系统全局至多执行一次；定向同步请直接调用 SyncOverheadAssignments
	MaybeSyncOverheadAssignments(ctx context.Context, weeks int, ttl time.Duration) (*dto.OverheadSyncResult, error)
}

type overheadService struct {
	repo   *repository.Repository
	mutex  TTLMutex
	cfg    config.AllocationConfig
	logger *zap.Logger
}

// NewOverheadService 创建 OverheadService 实例
func NewOverheadService(repo *repository.Repository, mutex TTLMutex, cfg config.AllocationConfig, logger *zap.Logger) OverheadService {
	return &overheadService{repo: repo, mutex: mutex, cfg: cfg, logger: logger}
}

// ════════════════════════════════════════════════════════════
// SyncOverheadAssignments — Overhead 分配对账
// ════════════════════════════════════════════════════════════
//
// 单事务内以行级锁（SELECT ... FOR UPDATE）取出目标 (人员, 项目) 对的
// 既有分配，序列化并发对账：不同范围的并发运行互不阻塞，同一对不会
// 被重复创建

func (s *overheadService) SyncOverheadAssignments(ctx context.Context, scope dto.OverheadScope, weeks int) (*dto.OverheadSyncResult, error) {
	weeks = s.clampWeeks(weeks)
	weekKeys := NextSundays(time.Now(), weeks)

	result := &dto.OverheadSyncResult{LockAcquired: true, WeekCount: weeks}

	txErr := s.repo.Tx.Transaction(ctx, func(r *repository.Repository) error {
		people, err := r.Person.ListActive(ctx, scope.PersonIDs)
		if err != nil {
			return err
		}
		projects, err := r.Project.ListOverhead(ctx, scope.ProjectIDs)
		if err != nil {
			return err
		}

		result.PeopleCount = len(people)
		result.ProjectCount = len(projects)
		if len(people) == 0 || len(projects) == 0 {
			return nil
		}

		personIDs := make([]string, 0, len(people))
		for _, p := range people {
			personIDs = append(personIDs, p.PersonID)
		}
		projectIDs := make([]string, 0, len(projects))
		for _, p := range projects {
			projectIDs = append(projectIDs, p.ProjectID)
		}

		// 行级锁：仅锁定将被触及的 (人员, 项目) 行，事务结束即释放
		existing, err := r.Assignment.ListPairsForUpdate(ctx, personIDs, projectIDs)
		if err != nil {
			return err
		}
		byPair := make(map[string]*model.Assignment, len(existing))
		for i := range existing {
			a := &existing[i]
			byPair[a.PersonID+":"+a.ProjectID] = a
		}

		for i := range people {
			person := &people[i]
			desired := 0
			if person.Role != nil {
				desired = person.Role.OverheadHoursPerWeek
			}

			for _, project := range projects {
				assignment, ok := byPair[person.PersonID+":"+project.ProjectID]
				if !ok {
					if desired <= 0 {
						// 无角色策略且无既有分配：无事可做
						result.Skipped++
						continue
					}
					if err := s.createOverheadAssignment(ctx, r, person, project.ProjectID, desired, weekKeys); err != nil {
						return err
					}
					result.Created++
					continue
				}

				changed, err := s.reconcileAssignment(ctx, r, assignment, person, desired, weekKeys)
				if err != nil {
					return err
				}
				if changed {
					result.Updated++
				} else {
					result.Skipped++
				}
			}
		}
		return nil
	})
	if txErr != nil {
		s.logger.Error("Overhead 同步事务失败", zap.Error(txErr))
		return nil, txErr
	}

	s.logger.Info("Overhead 同步完成",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("people", result.PeopleCount),
		zap.Int("projects", result.ProjectCount),
		zap.Int("weeks", result.WeekCount),
	)
	return result, nil
}

// createOverheadAssignment 新建 (人员, Overhead 项目) 分配：
// 目标周窗口统一取角色策略工时，部门从人员冗余
func (s *overheadService) createOverheadAssignment(ctx context.Context, r *repository.Repository, person *model.Person, projectID string, desired int, weekKeys []string) error {
	hours := make(model.WeeklyHoursMap, len(weekKeys))
	for _, wk := range weekKeys {
		hours[wk] = float64(desired)
	}
	return r.Assignment.Create(ctx, &model.Assignment{
		PersonID:     person.PersonID,
		ProjectID:    projectID,
		RoleID:       person.RoleID,
		DepartmentID: person.DepartmentID,
		WeeklyHours:  hours,
		IsActive:     true,
	})
}

// reconcileAssignment 既有分配与期望状态比对；有漂移则整体重写
func (s *overheadService) reconcileAssignment(ctx context.Context, r *repository.Repository, assignment *model.Assignment, person *model.Person, desired int, weekKeys []string) (bool, error) {
	normalized := NormalizeWeeklyHours(assignment.WeeklyHours)
	expectedActive := desired > 0

	drift := assignment.IsActive != expectedActive ||
		!strPtrEqual(assignment.DepartmentID, person.DepartmentID)
	for _, wk := range weekKeys {
		if int(normalized[wk]) != desired {
			drift = true
			break
		}
	}
	if !drift {
		return false, nil
	}

	// 目标周窗口内覆写为期望值，窗口外条目保持不动
	for _, wk := range weekKeys {
		if desired > 0 {
			normalized[wk] = float64(desired)
		} else {
			delete(normalized, wk)
		}
	}
	assignment.WeeklyHours = normalized
	assignment.IsActive = expectedActive
	assignment.DepartmentID = person.DepartmentID
	if err := r.Assignment.Update(ctx, assignment); err != nil {
		return false, err
	}
	return true, nil
}

// ════════════════════════════════════════════════════════════
// MaybeSyncOverheadAssignments — TTL 互斥的全量同步
// ════════════════════════════════════════════════════════════

func (s *overheadService) MaybeSyncOverheadAssignments(ctx context.Context, weeks int, ttl time.Duration) (*dto.OverheadSyncResult, error) {
	if ttl <= 0 {
		ttl = s.cfg.OverheadSyncTTL
	}

	// add-if-absent：锁不被主动释放，TTL 窗口本身就是执行间隔
	acquired, err := s.mutex.AcquireTTLMutex(ctx, overheadSyncMutexKey, ttl)
	if err != nil {
		return nil, err
	}
	if !acquired {
		s.logger.Info("Overhead 全量同步已在 TTL 窗口内执行过，跳过")
		return &dto.OverheadSyncResult{LockAcquired: false}, nil
	}

	return s.SyncOverheadAssignments(ctx, dto.OverheadScope{}, weeks)
}

// clampWeeks 周数归一：非正取默认值，超上限截断
func (s *overheadService) clampWeeks(weeks int) int {
	if weeks <= 0 {
		return s.cfg.OverheadDefaultWeeks
	}
	if weeks > s.cfg.OverheadMaxWeeks {
		return s.cfg.OverheadMaxWeeks
	}
	return weeks
}
