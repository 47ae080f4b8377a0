package service

import (
	"fmt"
	"time"

	"github.com/dayflow/internal/dateutil"
	"github.com/dayflow/internal/db"
)

// 今日任务的展示状态
const (
	TaskStatusScheduled = "scheduled"
	TaskStatusNow       = "now"
	TaskStatusLate      = "late"
	TaskStatusDone      = "done"
)

// leadMinutes 是开始前进入 now 状态的提前量
const leadMinutes = 10

// LateCompletion 描述一次迟于截止时间的完成
type LateCompletion struct {
	ScheduleID string `json:"schedule_id"`
	Name       string `json:"name"`
	DueAt      string `json:"due_at"`
	LateBy     int    `json:"late_by_minutes"`
	Message    string `json:"message"`
}

// LateBy 比较 (开始时间 + 时长) 与当前时刻，返回迟到的分钟数
// 未设置开始时间或时间格式无效时视为不迟到；时长缺省按 30 分钟计算
func LateBy(schedule db.Schedule, now time.Time) (int, bool) {
	if schedule.Time == "" {
		return 0, false
	}
	start, err := dateutil.ParseClock(schedule.Time)
	if err != nil {
		return 0, false
	}

	deadline := start + schedule.EffectiveDuration()
	current := dateutil.MinuteOfDay(now)
	if current <= deadline {
		return 0, false
	}
	return current - deadline, true
}

// TaskStatus 返回今日视图中周期任务的状态
// 未完成的定时任务超过截止时间为 late，距开始不足 10 分钟起为 now
func TaskStatus(schedule db.Schedule, done bool, now time.Time) string {
	if done {
		return TaskStatusDone
	}
	if _, late := LateBy(schedule, now); late {
		return TaskStatusLate
	}
	start, err := dateutil.ParseClock(schedule.Time)
	if schedule.Time == "" || err != nil {
		return TaskStatusScheduled
	}
	if dateutil.MinuteOfDay(now) >= start-leadMinutes {
		return TaskStatusNow
	}
	return TaskStatusScheduled
}

// CheckLate 在任务转为完成时调用，返回迟到提示；取消完成时不应调用
func CheckLate(schedule db.Schedule, now time.Time) *LateCompletion {
	minutes, late := LateBy(schedule, now)
	if !late {
		return nil
	}
	return &LateCompletion{
		ScheduleID: schedule.ID,
		Name:       schedule.Name,
		DueAt:      dateutil.FormatTime(schedule.Time),
		LateBy:     minutes,
		Message:    fmt.Sprintf("%s · was due %s", formatLateness(minutes), dateutil.FormatTime(schedule.Time)),
	}
}

func formatLateness(minutes int) string {
	hours := minutes / 60
	rest := minutes % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm late", hours, rest)
	}
	return fmt.Sprintf("%dm late", rest)
}
