package dto

// MaterializeRequest 单周快照物化请求
type MaterializeRequest struct {
	WeekKey    string `json:"week_key" binding:"required"`
	EmitEvents bool   `json:"emit_events"`
	Force      bool   `json:"force"`
}

// BackfillRequest 多周回填请求
type BackfillRequest struct {
	WeekKeys   []string `json:"week_keys" binding:"required,min=1"`
	EmitEvents bool     `json:"emit_events"`
	Force      bool     `json:"force"`
}

// MaterializeOptions 物化选项
type MaterializeOptions struct {
	EmitEvents bool // 是否比对上一周并写入 joined/left 事件
	Force      bool // 内容未变化的快照行也强制重写
	Backfill   bool // 回填模式：按"该周分配有效"选行，来源标记 backfilled
}

// MaterializeResult 单周物化结果
// LockAcquired=false 为正常可重试结果（非错误），计数全为零
type MaterializeResult struct {
	WeekKey        string `json:"week_key"`
	LockAcquired   bool   `json:"lock_acquired"`
	Inserted       int    `json:"inserted"`
	Updated        int    `json:"updated"`
	Skipped        int    `json:"skipped"`
	EventsInserted int    `json:"events_inserted"`
}

// BackfillResult 多周回填聚合结果
// 单周失败不阻塞其余周；失败周记入 FailedWeeks
type BackfillResult struct {
	Inserted       int      `json:"inserted"`
	Updated        int      `json:"updated"`
	Skipped        int      `json:"skipped"`
	EventsInserted int      `json:"events_inserted"`
	WeeksProcessed int      `json:"weeks_processed"`
	WeeksLocked    int      `json:"weeks_locked"` // 锁未获取而跳过的周数
	FailedWeeks    []string `json:"failed_weeks,omitempty"`
}
