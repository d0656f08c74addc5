package service

import (
	"go.uber.org/zap"

	"github.com/tschnepf/workload-tracker-sub001/config"
	"github.com/tschnepf/workload-tracker-sub001/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Snapshot     SnapshotService
	Overhead     OverheadService
	Deliverable  DeliverableService
	PhaseSetting PhaseSettingService
	Export       ExportService

	// Classifier 阶段分类器；供 Handler 层的只读分类接口直接调用
	Classifier *PhaseClassifier
}

// NewService 创建 Service 聚合
//
// locker/mutex 在生产环境由 pkg/redis.Client 同时实现；Redis 不可用时
// main 以 LocalWeekLocker 降级注入（单进程安全）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	locker WeekLocker,
	mutex TTLMutex,
	logger *zap.Logger,
) *Service {
	provider := NewPhaseConfigProvider(repo.PhaseSetting, cfg.Allocation.PhaseCacheTTL)
	classifier := NewPhaseClassifier(provider, logger)

	return &Service{
		Snapshot:     NewSnapshotService(repo, classifier, locker, cfg.Allocation.SnapshotLockTTL, logger),
		Overhead:     NewOverheadService(repo, mutex, cfg.Allocation, logger),
		Deliverable:  NewDeliverableService(repo, logger),
		PhaseSetting: NewPhaseSettingService(repo, provider, logger),
		Export:       NewExportService(repo, logger),
		Classifier:   classifier,
	}
}
