package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tschnepf/workload-tracker-sub001/internal/dto"
	"github.com/tschnepf/workload-tracker-sub001/internal/model"
)

// ── 测试辅助 ──

func setupTestSnapshotService() (SnapshotService, *testRepos, *mockLocker) {
	tr := newTestRepos()
	locker := newMockLocker()
	provider := NewPhaseConfigProvider(tr.setting, time.Minute)
	classifier := NewPhaseClassifier(provider, zap.NewNop())
	svc := NewSnapshotService(tr.repo, classifier, locker, 10*time.Minute, zap.NewNop())
	return svc, tr, locker
}

// seedAssignment 注入一条带人员/项目关联的有效分配
func seedAssignment(tr *testRepos, id, personName, projectName string, hours model.WeeklyHoursMap) *model.Assignment {
	person := &model.Person{PersonID: "person-" + id, Name: personName, IsActive: true}
	project := &model.Project{
		ProjectID:  "project-" + id,
		Name:       projectName,
		ClientName: "客户A",
		Status:     model.ProjectStatusActive,
	}
	tr.person.people[person.PersonID] = person
	tr.project.projects[project.ProjectID] = project

	a := &model.Assignment{
		AssignmentID: id,
		PersonID:     person.PersonID,
		ProjectID:    project.ProjectID,
		WeeklyHours:  hours,
		IsActive:     true,
		Person:       person,
		Project:      project,
	}
	tr.assignment.assignments[id] = a
	return a
}

// ── MaterializeWeek 测试 ──

func TestSnapshotService_MaterializeWeek_InsertsRows(t *testing.T) {
	svc, tr, _ := setupTestSnapshotService()
	seedAssignment(tr, "a1", "张三", "项目甲", model.WeeklyHoursMap{"2024-03-10": 8})
	seedAssignment(tr, "a2", "李四", "项目乙", model.WeeklyHoursMap{"2024-03-10": 4})
	// 当周无工时的分配不入选
	seedAssignment(tr, "a3", "王五", "项目丙", model.WeeklyHoursMap{"2024-03-17": 6})

	result, err := svc.MaterializeWeek(context.Background(), "2024-03-10", dto.MaterializeOptions{})
	if err != nil {
		t.Fatalf("MaterializeWeek 应成功: %v", err)
	}
	if !result.LockAcquired {
		t.Fatal("应获取周锁")
	}
	if result.Inserted != 2 {
		t.Errorf("期望 Inserted=2，实际=%d", result.Inserted)
	}

	snap, err := tr.snapshot.GetByKey(context.Background(),
		"person-a1", "project-a1", model.NilRoleID, "2024-03-10", model.SnapshotSourceLive)
	if err != nil {
		t.Fatalf("快照行应存在: %v", err)
	}
	if snap.Hours != 8 || snap.PersonName != "张三" || snap.ProjectName != "项目甲" {
		t.Errorf("快照字段不符: %+v", snap)
	}
}

func TestSnapshotService_MaterializeWeek_Idempotent(t *testing.T) {
	svc, tr, _ := setupTestSnapshotService()
	seedAssignment(tr, "a1", "张三", "项目甲", model.WeeklyHoursMap{"2024-03-10": 8})

	first, err := svc.MaterializeWeek(context.Background(), "2024-03-10", dto.MaterializeOptions{})
	if err != nil {
		t.Fatalf("首次物化应成功: %v", err)
	}
	if first.Inserted != 1 {
		t.Fatalf("期望首次 Inserted=1，实际=%d", first.Inserted)
	}

	// 数据不变时重跑：全部跳过，零插入零更新
	second, err := svc.MaterializeWeek(context.Background(), "2024-03-10", dto.MaterializeOptions{})
	if err != nil {
		t.Fatalf("二次物化应成功: %v", err)
	}
	if second.Inserted != 0 || second.Updated != 0 || second.Skipped != 1 {
		t.Errorf("重跑应幂等，实际 Inserted=%d Updated=%d Skipped=%d",
			second.Inserted, second.Updated, second.Skipped)
	}
}

func TestSnapshotService_MaterializeWeek_ForceRewrites(t *testing.T) {
	svc, tr, _ := setupTestSnapshotService()
	seedAssignment(tr, "a1", "张三", "项目甲", model.WeeklyHoursMap{"2024-03-10": 8})

	if _, err := svc.MaterializeWeek(context.Background(), "2024-03-10", dto.MaterializeOptions{}); err != nil {
		t.Fatalf("首次物化应成功: %v", err)
	}

	result, err := svc.MaterializeWeek(context.Background(), "2024-03-10", dto.MaterializeOptions{Force: true})
	if err != nil {
		t.Fatalf("Force 物化应成功: %v", err)
	}
	if result.Updated != 1 || result.Skipped != 0 {
		t.Errorf("Force 应重写未变行，实际 Updated=%d Skipped=%d", result.Updated, result.Skipped)
	}
}

func TestSnapshotService_MaterializeWeek_UpdatesChangedRow(t *testing.T) {
	svc, tr, _ := setupTestSnapshotService()
	a := seedAssignment(tr, "a1", "张三", "项目甲", model.WeeklyHoursMap{"2024-03-10": 8})

	if _, err := svc.MaterializeWeek(context.Background(), "2024-03-10", dto.MaterializeOptions{}); err != nil {
		t.Fatalf("首次物化应成功: %v", err)
	}

	// 工时变化后重跑：该行被更新
	a.WeeklyHours = model.WeeklyHoursMap{"2024-03-10": 12}
	result, err := svc.MaterializeWeek(context.Background(), "2024-03-10", dto.MaterializeOptions{})
	if err != nil {
		t.Fatalf("二次物化应成功: %v", err)
	}
	if result.Updated != 1 {
		t.Errorf("期望 Updated=1，实际=%d", result.Updated)
	}

	snap, _ := tr.snapshot.GetByKey(context.Background(),
		"person-a1", "project-a1", model.NilRoleID, "2024-03-10", model.SnapshotSourceLive)
	if snap.Hours != 12 {
		t.Errorf("期望 Hours=12，实际=%d", snap.Hours)
	}
}

func TestSnapshotService_MaterializeWeek_NormalizesWeekKey(t *testing.T) {
	svc, tr, _ := setupTestSnapshotService()
	seedAssignment(tr, "a1", "张三", "项目甲", model.WeeklyHoursMap{"2024-03-10": 8})

	// 周二输入规范化为所在周周日
	result, err := svc.MaterializeWeek(context.Background(), "2024-03-12", dto.MaterializeOptions{})
	if err != nil {
		t.Fatalf("MaterializeWeek 应成功: %v", err)
	}
	if result.WeekKey != "2024-03-10" {
		t.Errorf("期望规范周键=2024-03-10，实际=%s", result.WeekKey)
	}
	if result.Inserted != 1 {
		t.Errorf("期望 Inserted=1，实际=%d", result.Inserted)
	}
}

func TestSnapshotService_MaterializeWeek_InvalidWeekKey(t *testing.T) {
	svc, _, _ := setupTestSnapshotService()
	if _, err := svc.MaterializeWeek(context.Background(), "bad-key", dto.MaterializeOptions{}); !errors.Is(err, ErrInvalidWeekKey) {
		t.Errorf("期望 ErrInvalidWeekKey，实际: %v", err)
	}
}

func TestSnapshotService_MaterializeWeek_LockDenied(t *testing.T) {
	svc, tr, locker := setupTestSnapshotService()
	seedAssignment(tr, "a1", "张三", "项目甲", model.WeeklyHoursMap{"2024-03-10": 8})
	locker.denied = true

	result, err := svc.MaterializeWeek(context.Background(), "2024-03-10", dto.MaterializeOptions{})
	if err != nil {
		t.Fatalf("锁未获取应为正常结果而非错误: %v", err)
	}
	if result.LockAcquired {
		t.Error("期望 LockAcquired=false")
	}
	if result.Inserted != 0 {
		t.Errorf("锁未获取不应写入，实际 Inserted=%d", result.Inserted)
	}
}

func TestSnapshotService_MaterializeWeek_ReleasesLock(t *testing.T) {
	svc, tr, locker := setupTestSnapshotService()
	seedAssignment(tr, "a1", "张三", "项目甲", model.WeeklyHoursMap{"2024-03-10": 8})

	if _, err := svc.MaterializeWeek(context.Background(), "2024-03-10", dto.MaterializeOptions{}); err != nil {
		t.Fatalf("MaterializeWeek 应成功: %v", err)
	}
	if len(locker.unlocked) != 1 || locker.unlocked[0] != "snapshot:week:2024-03-10" {
		t.Errorf("周锁应在完成后释放，实际=%v", locker.unlocked)
	}
}

// ── 成员变动事件测试 ──

func TestSnapshotService_EmitEvents_JoinedAndLeft(t *testing.T) {
	svc, tr, _ := setupTestSnapshotService()
	// a1: 上周 0 → 本周 8（joined）
	seedAssignment(tr, "a1", "张三", "项目甲", model.WeeklyHoursMap{"2024-03-10": 8})
	// a2: 上周 6 → 本周 0（left）
	seedAssignment(tr, "a2", "李四", "项目乙", model.WeeklyHoursMap{"2024-03-03": 6})
	// a3: 上周 4 → 本周 4（无事件）
	seedAssignment(tr, "a3", "王五", "项目丙", model.WeeklyHoursMap{"2024-03-03": 4, "2024-03-10": 4})

	result, err := svc.MaterializeWeek(context.Background(), "2024-03-10", dto.MaterializeOptions{EmitEvents: true})
	if err != nil {
		t.Fatalf("MaterializeWeek 应成功: %v", err)
	}
	if result.EventsInserted != 2 {
		t.Errorf("期望 EventsInserted=2，实际=%d", result.EventsInserted)
	}

	events, _ := tr.event.ListByWeek(context.Background(), "2024-03-10")
	byType := map[string]int{}
	for _, e := range events {
		byType[e.EventType]++
	}
	if byType[model.EventTypeJoined] != 1 || byType[model.EventTypeLeft] != 1 {
		t.Errorf("期望 joined=1 left=1，实际=%v", byType)
	}
}

func TestSnapshotService_EmitEvents_IdempotentAcrossRuns(t *testing.T) {
	svc, tr, _ := setupTestSnapshotService()
	seedAssignment(tr, "a1", "张三", "项目甲", model.WeeklyHoursMap{"2024-03-10": 8})

	first, err := svc.MaterializeWeek(context.Background(), "2024-03-10", dto.MaterializeOptions{EmitEvents: true})
	if err != nil {
		t.Fatalf("首次物化应成功: %v", err)
	}
	if first.EventsInserted != 1 {
		t.Fatalf("期望首次 EventsInserted=1，实际=%d", first.EventsInserted)
	}

	second, err := svc.MaterializeWeek(context.Background(), "2024-03-10", dto.MaterializeOptions{EmitEvents: true, Force: true})
	if err != nil {
		t.Fatalf("二次物化应成功: %v", err)
	}
	if second.EventsInserted != 0 {
		t.Errorf("事件写入应幂等，实际 EventsInserted=%d", second.EventsInserted)
	}
	events, _ := tr.event.ListByWeek(context.Background(), "2024-03-10")
	if len(events) != 1 {
		t.Errorf("同键事件应只有一条，实际=%d", len(events))
	}
}

func TestSnapshotService_EmitEvents_IgnoresOutOfWindowHours(t *testing.T) {
	svc, tr, _ := setupTestSnapshotService()
	// EndDate 早于目标周但映射仍有残留工时：不入选，也不产生 joined
	a := seedAssignment(tr, "a1", "张三", "项目甲", model.WeeklyHoursMap{"2024-03-10": 8})
	a.EndDate = datePtr("2024-03-01")

	result, err := svc.MaterializeWeek(context.Background(), "2024-03-10", dto.MaterializeOptions{EmitEvents: true})
	if err != nil {
		t.Fatalf("MaterializeWeek 应成功: %v", err)
	}
	if result.EventsInserted != 0 {
		t.Errorf("窗口外工时不应产生事件，实际 EventsInserted=%d", result.EventsInserted)
	}
	events, _ := tr.event.ListByWeek(context.Background(), "2024-03-10")
	if len(events) != 0 {
		t.Errorf("不应写入任何事件，实际=%d", len(events))
	}
}

func TestSnapshotService_EmitEvents_LeftWhenWindowEnds(t *testing.T) {
	svc, tr, _ := setupTestSnapshotService()
	// 上周在窗口内有工时，本周 EndDate 已过：按 left 处理
	a := seedAssignment(tr, "a1", "张三", "项目甲",
		model.WeeklyHoursMap{"2024-03-03": 6, "2024-03-10": 6})
	a.EndDate = datePtr("2024-03-08")

	result, err := svc.MaterializeWeek(context.Background(), "2024-03-10", dto.MaterializeOptions{EmitEvents: true})
	if err != nil {
		t.Fatalf("MaterializeWeek 应成功: %v", err)
	}
	if result.EventsInserted != 1 {
		t.Fatalf("窗口结束应产生 left 事件，实际 EventsInserted=%d", result.EventsInserted)
	}
	events, _ := tr.event.ListByWeek(context.Background(), "2024-03-10")
	if len(events) != 1 || events[0].EventType != model.EventTypeLeft {
		t.Errorf("期望一条 left 事件，实际=%+v", events)
	}
}

// ── 有效窗口测试 ──

func TestSnapshotService_MaterializeWeek_RespectsValidityWindow(t *testing.T) {
	svc, tr, _ := setupTestSnapshotService()
	// 有工时但 EndDate 早于目标周：不入选
	a := seedAssignment(tr, "a1", "张三", "项目甲", model.WeeklyHoursMap{"2024-03-10": 8})
	a.EndDate = datePtr("2024-03-01")

	result, err := svc.MaterializeWeek(context.Background(), "2024-03-10", dto.MaterializeOptions{})
	if err != nil {
		t.Fatalf("MaterializeWeek 应成功: %v", err)
	}
	if result.Inserted != 0 {
		t.Errorf("有效窗口外的分配不应入选，实际 Inserted=%d", result.Inserted)
	}
}

// ── BackfillWeeks 测试 ──

func TestSnapshotService_BackfillWeeks_IncludesZeroHourAssignments(t *testing.T) {
	svc, tr, _ := setupTestSnapshotService()
	// 回填模式：当周无工时但处于有效窗口的分配也入选（hours=0）
	seedAssignment(tr, "a1", "张三", "项目甲", model.WeeklyHoursMap{"2024-03-17": 8})

	result, err := svc.BackfillWeeks(context.Background(), []string{"2024-03-10"}, false, false)
	if err != nil {
		t.Fatalf("BackfillWeeks 应成功: %v", err)
	}
	if result.Inserted != 1 || result.WeeksProcessed != 1 {
		t.Errorf("期望 Inserted=1 WeeksProcessed=1，实际=%+v", result)
	}

	snap, err := tr.snapshot.GetByKey(context.Background(),
		"person-a1", "project-a1", model.NilRoleID, "2024-03-10", model.SnapshotSourceBackfilled)
	if err != nil {
		t.Fatalf("回填快照应以 backfilled 来源存在: %v", err)
	}
	if snap.Hours != 0 {
		t.Errorf("期望 Hours=0，实际=%d", snap.Hours)
	}
}

func TestSnapshotService_BackfillWeeks_ContinuesPastBadWeek(t *testing.T) {
	svc, tr, _ := setupTestSnapshotService()
	seedAssignment(tr, "a1", "张三", "项目甲", model.WeeklyHoursMap{"2024-03-10": 8})

	result, err := svc.BackfillWeeks(context.Background(),
		[]string{"bad-key", "2024-03-10"}, false, false)
	if err != nil {
		t.Fatalf("单周失败不应中断整批: %v", err)
	}
	if len(result.FailedWeeks) != 1 || result.FailedWeeks[0] != "bad-key" {
		t.Errorf("期望 FailedWeeks=[bad-key]，实际=%v", result.FailedWeeks)
	}
	if result.WeeksProcessed != 1 {
		t.Errorf("期望 WeeksProcessed=1，实际=%d", result.WeeksProcessed)
	}
}

func TestSnapshotService_BackfillWeeks_CountsLockedWeeks(t *testing.T) {
	svc, tr, locker := setupTestSnapshotService()
	seedAssignment(tr, "a1", "张三", "项目甲", model.WeeklyHoursMap{"2024-03-10": 8})
	locker.denied = true

	result, err := svc.BackfillWeeks(context.Background(), []string{"2024-03-10", "2024-03-17"}, false, false)
	if err != nil {
		t.Fatalf("BackfillWeeks 应成功: %v", err)
	}
	if result.WeeksLocked != 2 || result.WeeksProcessed != 0 {
		t.Errorf("期望 WeeksLocked=2，实际=%+v", result)
	}
}
