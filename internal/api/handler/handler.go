package handler

import "github.com/tschnepf/workload-tracker-sub001/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Snapshot     *SnapshotHandler
	Overhead     *OverheadHandler
	Allocation   *AllocationHandler
	Deliverable  *DeliverableHandler
	PhaseSetting *PhaseSettingHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Snapshot:     NewSnapshotHandler(svc.Snapshot),
		Overhead:     NewOverheadHandler(svc.Overhead),
		Allocation:   NewAllocationHandler(svc.Classifier),
		Deliverable:  NewDeliverableHandler(svc.Deliverable),
		PhaseSetting: NewPhaseSettingHandler(svc.PhaseSetting),
		Export:       NewExportHandler(svc.Export),
	}
}
