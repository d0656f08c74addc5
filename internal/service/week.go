package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tschnepf/workload-tracker-sub001/internal/model"
)

// ── 周键规范化（纯函数，无副作用）──
//
// 规范周键 = 所在周的周日的 ISO 日期字符串，是每周工时映射唯一合法的键格式。
// 所有日期按 UTC 裸日历日处理，不做时区换算。

// WeekKeyLayout 周键的日期格式
const WeekKeyLayout = "2006-01-02"

// DateOnly 去掉时分秒，归一为 UTC 日历日
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SundayOfWeek 返回所在周内 ≤ date 的那个周日
func SundayOfWeek(date time.Time) time.Time {
	d := DateOnly(date)
	// Go 的 Weekday 周日=0..周六=6，恰为距上一个周日的天数
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// WeekKey 返回 date 所在周的规范周键
func WeekKey(date time.Time) string {
	return SundayOfWeek(date).Format(WeekKeyLayout)
}

// ParseWeekKey 解析周键字符串；格式非法返回错误（调用方通常静默丢弃该条目）
func ParseWeekKey(key string) (time.Time, error) {
	t, err := time.Parse(WeekKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("非法周键 %q: %w", key, err)
	}
	return DateOnly(t), nil
}

// ShiftWeekKey 将周键平移 deltaWeeks 周；非周日输入先规范化
func ShiftWeekKey(key string, deltaWeeks int) (string, error) {
	t, err := ParseWeekKey(key)
	if err != nil {
		return "", err
	}
	return WeekKey(t.AddDate(0, 0, 7*deltaWeeks)), nil
}

// ListSundaysBetween 列出两端规范化后之间的全部周日键（升序）。
// 规范化后 start > end 时返回空；二者落在同一周日且 inclusive 时返回单元素。
// exclusive 模式丢弃末端边界。
func ListSundaysBetween(start, end time.Time, inclusive bool) []string {
	s := SundayOfWeek(start)
	e := SundayOfWeek(end)

	if s.After(e) {
		return nil
	}
	if s.Equal(e) {
		if inclusive {
			return []string{s.Format(WeekKeyLayout)}
		}
		return nil
	}

	var keys []string
	for cur := s; !cur.After(e); cur = cur.AddDate(0, 0, 7) {
		if !inclusive && cur.Equal(e) {
			break
		}
		keys = append(keys, cur.Format(WeekKeyLayout))
	}
	return keys
}

// NextSundays 从规范化的 from 起列出连续 n 个周日键
func NextSundays(from time.Time, n int) []string {
	keys := make([]string, 0, n)
	cur := SundayOfWeek(from)
	for i := 0; i < n; i++ {
		keys = append(keys, cur.Format(WeekKeyLayout))
		cur = cur.AddDate(0, 0, 7)
	}
	return keys
}

// NormalizeWeeklyHours 每周工时映射规范化：
//   - 每个键重定位到规范周日键；非法键静默丢弃（数据质量问题不致整体失败）
//   - 碰撞键先按浮点求和，最后一次性向上取整
//   - 取整后 ≤0 的条目剔除
func NormalizeWeeklyHours(hours model.WeeklyHoursMap) model.WeeklyHoursMap {
	sums := make(map[string]float64, len(hours))
	for key, value := range hours {
		t, err := ParseWeekKey(key)
		if err != nil {
			continue
		}
		sums[WeekKey(t)] += model.CoerceHours(value)
	}
	return ceilAndPrune(sums)
}

// ceilAndPrune 求和后的统一取整与剔除（取整只在最后做一次）
func ceilAndPrune(sums map[string]float64) model.WeeklyHoursMap {
	out := make(model.WeeklyHoursMap, len(sums))
	for key, sum := range sums {
		rounded := math.Ceil(sum)
		if rounded <= 0 {
			continue
		}
		out[key] = rounded
	}
	return out
}

// SortedWeekKeys 返回映射中的周键升序列表
// （ISO 日期的字典序与日期序一致）
func SortedWeekKeys(hours model.WeeklyHoursMap) []string {
	keys := make([]string, 0, len(hours))
	for k := range hours {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
