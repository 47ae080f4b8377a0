package db

import "time"

// Record 是持久化介质中的一条键值记录，Value 为 JSON 文本。
type Record struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName 自定义表名以保持命名一致。
func (Record) TableName() string {
	return "kv_records"
}

const (
	// KeySchedules 保存周期任务列表。
	KeySchedules = "schedules"
	// KeyHistory 保存按日期划分的周期任务完成记录。
	KeyHistory = "history"
	// KeyAdhoc 保存按日期划分的临时任务。
	KeyAdhoc = "adhoc"
	// KeyStreak 保存连胜缓存。
	KeyStreak = "streak"
	// KeyTheme 保存主题偏好。
	KeyTheme = "theme"
)

// DatedKeys 是按日期分桶、可被保留期清理的记录。
var DatedKeys = []string{KeyHistory, KeyAdhoc}
