package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tschnepf/workload-tracker-sub001/internal/model"
	"github.com/tschnepf/workload-tracker-sub001/internal/repository"
)

// ── Mock PersonRepository ──

type mockPersonRepo struct {
	people map[string]*model.Person
}

func newMockPersonRepo() *mockPersonRepo {
	return &mockPersonRepo{people: make(map[string]*model.Person)}
}

func (m *mockPersonRepo) GetByID(_ context.Context, id string) (*model.Person, error) {
	if p, ok := m.people[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPersonRepo) ListActive(_ context.Context, ids []string) ([]model.Person, error) {
	limit := make(map[string]bool, len(ids))
	for _, id := range ids {
		limit[id] = true
	}
	var result []model.Person
	for _, p := range m.people {
		if !p.IsActive {
			continue
		}
		if len(limit) > 0 && !limit[p.PersonID] {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock ProjectRepository ──

type mockProjectRepo struct {
	projects map[string]*model.Project
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[string]*model.Project)}
}

func (m *mockProjectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProjectRepo) ListOverhead(_ context.Context, ids []string) ([]model.Project, error) {
	limit := make(map[string]bool, len(ids))
	for _, id := range ids {
		limit[id] = true
	}
	var result []model.Project
	for _, p := range m.projects {
		if !strings.Contains(strings.ToLower(p.Name), "overhead") {
			continue
		}
		if len(limit) > 0 && !limit[p.ProjectID] {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock DeliverableRepository ──

type mockDeliverableRepo struct {
	deliverables map[string]*model.Deliverable
}

func newMockDeliverableRepo() *mockDeliverableRepo {
	return &mockDeliverableRepo{deliverables: make(map[string]*model.Deliverable)}
}

func (m *mockDeliverableRepo) GetByID(_ context.Context, id string) (*model.Deliverable, error) {
	if d, ok := m.deliverables[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeliverableRepo) ListByProject(_ context.Context, projectID string) ([]model.Deliverable, error) {
	var result []model.Deliverable
	for _, d := range m.deliverables {
		if d.ProjectID == projectID {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date == nil || result[j].Date == nil {
			return result[j].Date != nil
		}
		return result[i].Date.Before(*result[j].Date)
	})
	return result, nil
}

func (m *mockDeliverableRepo) Update(_ context.Context, deliverable *model.Deliverable) error {
	m.deliverables[deliverable.DeliverableID] = deliverable
	return nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	assignments map[string]*model.Assignment
	nextID      int
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{assignments: make(map[string]*model.Assignment)}
}

func (m *mockAssignmentRepo) Create(_ context.Context, assignment *model.Assignment) error {
	if assignment.AssignmentID == "" {
		m.nextID++
		assignment.AssignmentID = fmt.Sprintf("asn-%03d", m.nextID)
	}
	m.assignments[assignment.AssignmentID] = assignment
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	if a, ok := m.assignments[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) Update(_ context.Context, assignment *model.Assignment) error {
	m.assignments[assignment.AssignmentID] = assignment
	return nil
}

func (m *mockAssignmentRepo) ListActiveByProject(_ context.Context, projectID string) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, a := range m.assignments {
		if a.ProjectID == projectID && a.IsActive {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AssignmentID < result[j].AssignmentID })
	return result, nil
}

func (m *mockAssignmentRepo) ListActiveWithRelations(_ context.Context) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, a := range m.assignments {
		if a.IsActive {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AssignmentID < result[j].AssignmentID })
	return result, nil
}

func (m *mockAssignmentRepo) ListPairsForUpdate(_ context.Context, personIDs, projectIDs []string) ([]model.Assignment, error) {
	persons := make(map[string]bool, len(personIDs))
	for _, id := range personIDs {
		persons[id] = true
	}
	projects := make(map[string]bool, len(projectIDs))
	for _, id := range projectIDs {
		projects[id] = true
	}
	var result []model.Assignment
	for _, a := range m.assignments {
		if persons[a.PersonID] && projects[a.ProjectID] {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AssignmentID < result[j].AssignmentID })
	return result, nil
}

// ── Mock SnapshotRepository ──

func snapshotKey(personID, projectID, roleID, weekKey, source string) string {
	return personID + "|" + projectID + "|" + roleID + "|" + weekKey + "|" + source
}

type mockSnapshotRepo struct {
	snapshots map[string]*model.WeeklyAssignmentSnapshot
	nextID    int
}

func newMockSnapshotRepo() *mockSnapshotRepo {
	return &mockSnapshotRepo{snapshots: make(map[string]*model.WeeklyAssignmentSnapshot)}
}

func (m *mockSnapshotRepo) GetByKey(_ context.Context, personID, projectID, roleID, weekKey, source string) (*model.WeeklyAssignmentSnapshot, error) {
	if s, ok := m.snapshots[snapshotKey(personID, projectID, roleID, weekKey, source)]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSnapshotRepo) Create(_ context.Context, snapshot *model.WeeklyAssignmentSnapshot) error {
	if snapshot.SnapshotID == "" {
		m.nextID++
		snapshot.SnapshotID = fmt.Sprintf("snap-%03d", m.nextID)
	}
	m.snapshots[snapshotKey(snapshot.PersonID, snapshot.ProjectID, snapshot.RoleID, snapshot.WeekKey, snapshot.Source)] = snapshot
	return nil
}

func (m *mockSnapshotRepo) Update(_ context.Context, snapshot *model.WeeklyAssignmentSnapshot) error {
	m.snapshots[snapshotKey(snapshot.PersonID, snapshot.ProjectID, snapshot.RoleID, snapshot.WeekKey, snapshot.Source)] = snapshot
	return nil
}

func (m *mockSnapshotRepo) ListByWeek(_ context.Context, weekKey string) ([]model.WeeklyAssignmentSnapshot, error) {
	var result []model.WeeklyAssignmentSnapshot
	for _, s := range m.snapshots {
		if s.WeekKey == weekKey {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ProjectName != result[j].ProjectName {
			return result[i].ProjectName < result[j].ProjectName
		}
		return result[i].PersonName < result[j].PersonName
	})
	return result, nil
}

// ── Mock MembershipEventRepository ──

type mockMembershipEventRepo struct {
	events map[string]*model.AssignmentMembershipEvent
	nextID int
}

func newMockMembershipEventRepo() *mockMembershipEventRepo {
	return &mockMembershipEventRepo{events: make(map[string]*model.AssignmentMembershipEvent)}
}

func (m *mockMembershipEventRepo) InsertIfAbsent(_ context.Context, event *model.AssignmentMembershipEvent) (bool, error) {
	key := event.PersonID + "|" + event.ProjectID + "|" + event.RoleID + "|" + event.EventType + "|" + event.WeekKey
	if _, ok := m.events[key]; ok {
		return false, nil
	}
	m.nextID++
	event.EventID = fmt.Sprintf("evt-%03d", m.nextID)
	m.events[key] = event
	return true, nil
}

func (m *mockMembershipEventRepo) ListByWeek(_ context.Context, weekKey string) ([]model.AssignmentMembershipEvent, error) {
	var result []model.AssignmentMembershipEvent
	for _, e := range m.events {
		if e.WeekKey == weekKey {
			result = append(result, *e)
		}
	}
	return result, nil
}

// ── Mock ReallocationAuditRepository ──

type mockAuditRepo struct {
	audits map[string]*model.ReallocationAudit
	nextID int
}

func newMockAuditRepo() *mockAuditRepo {
	return &mockAuditRepo{audits: make(map[string]*model.ReallocationAudit)}
}

func (m *mockAuditRepo) Create(_ context.Context, audit *model.ReallocationAudit) error {
	if audit.AuditID == "" {
		m.nextID++
		audit.AuditID = fmt.Sprintf("audit-%03d", m.nextID)
	}
	m.audits[audit.AuditID] = audit
	return nil
}

func (m *mockAuditRepo) GetByID(_ context.Context, id string) (*model.ReallocationAudit, error) {
	if a, ok := m.audits[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAuditRepo) Update(_ context.Context, audit *model.ReallocationAudit) error {
	m.audits[audit.AuditID] = audit
	return nil
}

// ── Mock PhaseSettingRepository ──

type mockPhaseSettingRepo struct {
	setting *model.PhaseSetting
	err     error
	gets    int
}

func newMockPhaseSettingRepo() *mockPhaseSettingRepo {
	return &mockPhaseSettingRepo{err: gorm.ErrRecordNotFound}
}

func (m *mockPhaseSettingRepo) Get(_ context.Context) (*model.PhaseSetting, error) {
	m.gets++
	if m.setting != nil {
		return m.setting, nil
	}
	return nil, m.err
}

func (m *mockPhaseSettingRepo) Update(_ context.Context, setting *model.PhaseSetting) error {
	m.setting = setting
	m.err = nil
	return nil
}

// ── Mock TxManager ──

// mockTxManager 直接以同一 Repository 聚合执行 fn（测试无真实事务边界）
type mockTxManager struct {
	repo *repository.Repository
}

func (m *mockTxManager) Transaction(_ context.Context, fn func(r *repository.Repository) error) error {
	return fn(m.repo)
}

// ── Mock 锁 ──

// mockLocker 可编程的 WeekLocker/TTLMutex 实现；
// denied 为 true 时全部获取失败，用于模拟锁被他方持有
type mockLocker struct {
	denied   bool
	held     map[string]bool
	unlocked []string
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]bool)}
}

func (m *mockLocker) TryLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	if m.denied || m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *mockLocker) Unlock(_ context.Context, key string) error {
	delete(m.held, key)
	m.unlocked = append(m.unlocked, key)
	return nil
}

func (m *mockLocker) AcquireTTLMutex(_ context.Context, key string, _ time.Duration) (bool, error) {
	if m.denied || m.held["ttl:"+key] {
		return false, nil
	}
	m.held["ttl:"+key] = true
	return true, nil
}

// ── 测试用 Repository 聚合 ──

type testRepos struct {
	person      *mockPersonRepo
	project     *mockProjectRepo
	deliverable *mockDeliverableRepo
	assignment  *mockAssignmentRepo
	snapshot    *mockSnapshotRepo
	event       *mockMembershipEventRepo
	audit       *mockAuditRepo
	setting     *mockPhaseSettingRepo
	repo        *repository.Repository
}

func newTestRepos() *testRepos {
	tr := &testRepos{
		person:      newMockPersonRepo(),
		project:     newMockProjectRepo(),
		deliverable: newMockDeliverableRepo(),
		assignment:  newMockAssignmentRepo(),
		snapshot:    newMockSnapshotRepo(),
		event:       newMockMembershipEventRepo(),
		audit:       newMockAuditRepo(),
		setting:     newMockPhaseSettingRepo(),
	}
	tr.repo = &repository.Repository{
		Person:          tr.person,
		Project:         tr.project,
		Deliverable:     tr.deliverable,
		Assignment:      tr.assignment,
		Snapshot:        tr.snapshot,
		MembershipEvent: tr.event,
		Audit:           tr.audit,
		PhaseSetting:    tr.setting,
	}
	tr.repo.Tx = &mockTxManager{repo: tr.repo}
	return tr
}

// mustDate 测试用日期构造
func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := mustDate(s)
	return &t
}
