package db

import "time"

// DefaultDurationMinutes 仅在计算截止时间时作为缺省时长使用，不会写回存储。
const DefaultDurationMinutes = 30

// Schedule 定义了周期任务模板
// Days 使用 0=周日..6=周六；Time 为可选的 "HH:MM"
// Duration 为空表示未设置，存储层不做默认值填充
// CreatedAt 只在首次创建时写入，后续 upsert 保留原值
type Schedule struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Days      []int     `json:"days"`
	Time      string    `json:"time,omitempty"`
	Duration  *int      `json:"duration,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DueOn 判断任务是否在指定星期重复。
func (s Schedule) DueOn(weekday int) bool {
	for _, d := range s.Days {
		if d == weekday {
			return true
		}
	}
	return false
}

// EffectiveDuration 返回用于截止时间计算的时长，非正数或缺失时为 30 分钟。
func (s Schedule) EffectiveDuration() int {
	if s.Duration == nil || *s.Duration <= 0 {
		return DefaultDurationMinutes
	}
	return *s.Duration
}
