package db

import "time"

// DayHistory 记录某一天各周期任务的完成状态，仅 true 有意义。
type DayHistory map[string]bool

// History 以规范日期为键保存每日完成记录。
type History map[string]DayHistory

// AdhocTask 是只属于某一天的临时任务，列表顺序即创建顺序。
type AdhocTask struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"createdAt"`
}

// AdhocLedger 以规范日期为键保存临时任务列表。
type AdhocLedger map[string][]AdhocTask
