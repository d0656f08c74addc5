package dto

// OverheadSyncRequest 定向 Overhead 同步请求
type OverheadSyncRequest struct {
	PersonIDs  []string `json:"person_ids,omitempty"`
	ProjectIDs []string `json:"project_ids,omitempty"`
	Weeks      int      `json:"weeks"`
}

// MaybeOverheadSyncRequest 全量 Overhead 同步请求（TTL 互斥）
type MaybeOverheadSyncRequest struct {
	Weeks      int `json:"weeks"`
	TTLSeconds int `json:"ttl_seconds"`
}

// OverheadScope Overhead 同步范围；空字段表示不限定
type OverheadScope struct {
	PersonIDs  []string
	ProjectIDs []string
}

// Scoped 是否为定向同步（绕过全量互斥锁）
func (s OverheadScope) Scoped() bool {
	return len(s.PersonIDs) > 0 || len(s.ProjectIDs) > 0
}

// OverheadSyncResult Overhead 同步结果
type OverheadSyncResult struct {
	LockAcquired bool `json:"lock_acquired"` // 全量同步时 TTL 互斥锁是否获取
	Created      int  `json:"created"`
	Updated      int  `json:"updated"`
	Skipped      int  `json:"skipped"`
	PeopleCount  int  `json:"people_count"`
	ProjectCount int  `json:"project_count"`
	WeekCount    int  `json:"week_count"`
}
