package service

import (
	"time"

	"github.com/tschnepf/workload-tracker-sub001/internal/model"
)

// ── 再分配引擎（纯函数，无副作用）──
//
// 交付物目标日期移动时，按周差平移人员的每周工时映射。
// 调用方负责在自己的事务内落库，并在需要撤销时记录 ReallocationAudit。

// ReallocationWindow 再分配窗口：仅窗口内（规范化为周日、双端含）的条目参与平移；
// 任一端为 nil 时该侧开放
type ReallocationWindow struct {
	Start *time.Time
	End   *time.Time
}

// DeltaWeeks 两个日期的规范周日之差（整数周）
func DeltaWeeks(oldDate, newDate time.Time) int {
	oldSunday := SundayOfWeek(oldDate)
	newSunday := SundayOfWeek(newDate)
	return int(newSunday.Sub(oldSunday).Hours() / (24 * 7))
}

// Reallocate 重分布每周工时映射。
//
// 任一参考日期缺失、或二者落在同一周日（deltaWeeks==0）时：仅做规范化
// （键重定位到周日、碰撞求和、向上取整、剔除 ≤0 条目）。
// 否则窗口内条目平移 deltaWeeks 周、窗口外条目保持规范键不动；
// 平移与保留条目落到同一键（碰撞）时先按浮点求和，最后一次性向上取整。
func Reallocate(hours model.WeeklyHoursMap, oldDate, newDate *time.Time, window *ReallocationWindow) model.WeeklyHoursMap {
	if oldDate == nil || newDate == nil {
		return NormalizeWeeklyHours(hours)
	}

	delta := DeltaWeeks(*oldDate, *newDate)
	if delta == 0 {
		return NormalizeWeeklyHours(hours)
	}

	var windowStart, windowEnd *time.Time
	if window != nil {
		if window.Start != nil {
			s := SundayOfWeek(*window.Start)
			windowStart = &s
		}
		if window.End != nil {
			e := SundayOfWeek(*window.End)
			windowEnd = &e
		}
	}

	sums := make(map[string]float64, len(hours))
	for key, value := range hours {
		t, err := ParseWeekKey(key)
		if err != nil {
			// 非法周键：规范化时静默丢弃
			continue
		}
		canonical := SundayOfWeek(t)
		dest := canonical
		if inWindow(canonical, windowStart, windowEnd) {
			dest = canonical.AddDate(0, 0, 7*delta)
		}
		sums[dest.Format(WeekKeyLayout)] += model.CoerceHours(value)
	}

	return ceilAndPrune(sums)
}

// inWindow 规范周日是否落在 [start, end]（nil 端开放）
func inWindow(sunday time.Time, start, end *time.Time) bool {
	if start != nil && sunday.Before(*start) {
		return false
	}
	if end != nil && sunday.After(*end) {
		return false
	}
	return true
}
