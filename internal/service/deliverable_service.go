package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tschnepf/workload-tracker-sub001/internal/dto"
	"github.com/tschnepf/workload-tracker-sub001/internal/model"
	"github.com/tschnepf/workload-tracker-sub001/internal/repository"
)

// ── 交付物模块业务错误 ──

var (
	ErrDeliverableNotFound = errors.New("交付物不存在")
	ErrAuditNotFound       = errors.New("再分配审计不存在")
	ErrAuditAlreadyUndone  = errors.New("该次再分配已撤销，不可重复撤销")
	ErrInvalidDate         = errors.New("日期格式非法")
)

// DeliverableService 交付物日期移动与再分配撤销接口
type DeliverableService interface {
	// MoveDeliverableDate 移动交付物目标日期并平移项目内有效分配的工时映射
	MoveDeliverableDate(ctx context.Context, deliverableID, newDate string, window *ReallocationWindow) (*dto.MoveDeliverableResponse, error)
	// UndoReallocation 按审计记录精确恢复被触及分配的移动前工时映射
	UndoReallocation(ctx context.Context, auditID string) (*dto.UndoReallocationResponse, error)
}

type deliverableService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDeliverableService 创建 DeliverableService 实例
func NewDeliverableService(repo *repository.Repository, logger *zap.Logger) DeliverableService {
	return &deliverableService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// MoveDeliverableDate — 交付物日期移动（含再分配与审计）
// ════════════════════════════════════════════════════════════
//
// 单事务内：读交付物 → 对项目内全部有效分配跑再分配引擎 → 落库 →
// 写一条携带完整前后映射的审计行 → 更新交付物日期。
// 引擎是纯函数，事务回滚不会留下半平移状态

func (s *deliverableService) MoveDeliverableDate(ctx context.Context, deliverableID, newDate string, window *ReallocationWindow) (*dto.MoveDeliverableResponse, error) {
	newDateT, err := time.Parse(WeekKeyLayout, newDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	newDateT = DateOnly(newDateT)

	resp := &dto.MoveDeliverableResponse{DeliverableID: deliverableID, NewDate: newDate}

	txErr := s.repo.Tx.Transaction(ctx, func(r *repository.Repository) error {
		deliverable, err := r.Deliverable.GetByID(ctx, deliverableID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDeliverableNotFound
			}
			return err
		}

		oldDate := deliverable.Date
		if oldDate != nil {
			od := oldDate.Format(WeekKeyLayout)
			resp.OldDate = &od
		}

		assignments, err := r.Assignment.ListActiveByProject(ctx, deliverable.ProjectID)
		if err != nil {
			return err
		}

		entries := make([]model.ReallocationAuditEntry, 0, len(assignments))
		for i := range assignments {
			a := &assignments[i]
			before := a.WeeklyHours.Clone()
			after := Reallocate(a.WeeklyHours, oldDate, &newDateT, window)

			a.WeeklyHours = after
			if err := r.Assignment.Update(ctx, a); err != nil {
				return err
			}
			entries = append(entries, model.ReallocationAuditEntry{
				AssignmentID: a.AssignmentID,
				Before:       before,
				After:        after,
			})
		}

		// 审计行保存完整前后映射：撤销时直接恢复，不依赖引擎可逆性
		entriesJSON, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		audit := &model.ReallocationAudit{
			DeliverableID: deliverable.DeliverableID,
			ProjectID:     deliverable.ProjectID,
			OldDate:       oldDate,
			NewDate:       newDateT,
			Entries:       datatypes.JSON(entriesJSON),
		}
		if err := r.Audit.Create(ctx, audit); err != nil {
			return err
		}

		deliverable.Date = &newDateT
		if err := r.Deliverable.Update(ctx, deliverable); err != nil {
			return err
		}

		resp.AuditID = audit.AuditID
		resp.TouchedAssignments = len(entries)
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.logger.Info("交付物日期移动完成",
		zap.String("deliverable_id", deliverableID),
		zap.String("new_date", newDate),
		zap.Int("touched_assignments", resp.TouchedAssignments),
	)
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// UndoReallocation — 按审计恢复
// ════════════════════════════════════════════════════════════

func (s *deliverableService) UndoReallocation(ctx context.Context, auditID string) (*dto.UndoReallocationResponse, error) {
	resp := &dto.UndoReallocationResponse{AuditID: auditID}

	txErr := s.repo.Tx.Transaction(ctx, func(r *repository.Repository) error {
		audit, err := r.Audit.GetByID(ctx, auditID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAuditNotFound
			}
			return err
		}
		if audit.UndoneAt != nil {
			return ErrAuditAlreadyUndone
		}

		var entries []model.ReallocationAuditEntry
		if err := json.Unmarshal(audit.Entries, &entries); err != nil {
			return err
		}

		for _, entry := range entries {
			assignment, err := r.Assignment.GetByID(ctx, entry.AssignmentID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// 分配已被删除：跳过该条，其余照常恢复
					s.logger.Warn("撤销时分配不存在，跳过",
						zap.String("assignment_id", entry.AssignmentID))
					continue
				}
				return err
			}
			assignment.WeeklyHours = entry.Before.Clone()
			if err := r.Assignment.Update(ctx, assignment); err != nil {
				return err
			}
			resp.RestoredAssignments++
		}

		// 交付物日期一并回滚到移动前
		deliverable, err := r.Deliverable.GetByID(ctx, audit.DeliverableID)
		if err == nil {
			deliverable.Date = audit.OldDate
			if err := r.Deliverable.Update(ctx, deliverable); err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		audit.UndoneAt = &now
		return r.Audit.Update(ctx, audit)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.logger.Info("再分配撤销完成",
		zap.String("audit_id", auditID),
		zap.Int("restored_assignments", resp.RestoredAssignments),
	)
	return resp, nil
}
