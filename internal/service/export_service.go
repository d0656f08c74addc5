package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/tschnepf/workload-tracker-sub001/internal/model"
	"github.com/tschnepf/workload-tracker-sub001/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoSnapshots  = errors.New("该周暂无快照数据")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出某周已物化的快照为 Excel (.xlsx)，面向项目经理做周报
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Excel 格式：单 Sheet，按 人员 → 项目 排序逐行列出工时与阶段
type ExportService interface {
	// ExportWeek 导出指定周的快照为 Excel
	ExportWeek(ctx context.Context, weekKey string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// ExportWeek — 导出周快照为 Excel
// ════════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：周键
//   - 表头: | 人员 | 项目 | 客户 | 阶段 | 工时 | 来源 |
//   - 数据行按 人员姓名 → 项目名称 排序
//   - 末行为工时合计
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportWeek(ctx context.Context, weekKey string) (*bytes.Buffer, string, error) {
	weekStart, err := ParseWeekKey(weekKey)
	if err != nil {
		return nil, "", ErrInvalidWeekKey
	}
	weekKey = SundayOfWeek(weekStart).Format(WeekKeyLayout)

	snapshots, err := s.repo.Snapshot.ListByWeek(ctx, weekKey)
	if err != nil {
		s.logger.Error("查询周快照失败", zap.String("week_key", weekKey), zap.Error(err))
		return nil, "", err
	}
	if len(snapshots) == 0 {
		return nil, "", ErrExportNoSnapshots
	}

	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].PersonName != snapshots[j].PersonName {
			return snapshots[i].PersonName < snapshots[j].PersonName
		}
		return snapshots[i].ProjectName < snapshots[j].ProjectName
	})

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "周快照"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 列宽
	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "B", 28)
	f.SetColWidth(sheetName, "C", "C", 24)
	f.SetColWidth(sheetName, "D", "D", 12)
	f.SetColWidth(sheetName, "E", "E", 8)
	f.SetColWidth(sheetName, "F", "F", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("周分配快照 — %s", weekKey))
	f.MergeCell(sheetName, "A1", "F1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	headers := []string{"人员", "项目", "客户", "阶段", "工时", "来源"}
	for i, h := range headers {
		f.SetCellValue(sheetName, snapCell(i, 2), h)
	}

	// 数据行
	row := 3
	totalHours := 0
	for _, snap := range snapshots {
		f.SetCellValue(sheetName, snapCell(0, row), snap.PersonName)
		f.SetCellValue(sheetName, snapCell(1, row), snap.ProjectName)
		f.SetCellValue(sheetName, snapCell(2, row), snap.ClientName)
		f.SetCellValue(sheetName, snapCell(3, row), snap.Phase)
		f.SetCellValue(sheetName, snapCell(4, row), snap.Hours)
		f.SetCellValue(sheetName, snapCell(5, row), sourceLabel(snap.Source))
		totalHours += snap.Hours
		row++
	}

	// 合计行
	f.SetCellValue(sheetName, snapCell(0, row), "合计")
	f.SetCellValue(sheetName, snapCell(4, row), totalHours)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("周快照_%s.xlsx", weekKey)
	return buf, filename, nil
}

// ── 辅助函数 ──

func snapCell(col, row int) string {
	name, _ := excelize.ColumnNumberToName(col + 1)
	return fmt.Sprintf("%s%d", name, row)
}

func sourceLabel(source string) string {
	if source == model.SnapshotSourceBackfilled {
		return "回填"
	}
	return "实时"
}
