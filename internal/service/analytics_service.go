package service

import (
	"github.com/dayflow/internal/dateutil"
	"github.com/dayflow/internal/db"
	"github.com/dayflow/internal/store"
)

const (
	// DefaultAnalyticsWindow 是统计页默认的滚动窗口天数
	DefaultAnalyticsWindow = 7
	// MaxAnalyticsWindow 限制单次统计的窗口长度
	MaxAnalyticsWindow = 366
)

// AnalyticsService 负责只读的完成率统计，不会写入任何数据
type AnalyticsService struct {
	store *store.Store
}

// NewAnalyticsService 创建 AnalyticsService
func NewAnalyticsService(st *store.Store) *AnalyticsService {
	return &AnalyticsService{store: st}
}

// DayRollup 是单日的完成情况
type DayRollup struct {
	Date    string `json:"date"`
	Weekday int    `json:"weekday"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Pct     int    `json:"pct"`
}

// Summary 汇总窗口内的统计卡片数据
type Summary struct {
	AverageCompletion int `json:"average_completion"`
	TasksDone         int `json:"tasks_done"`
	PerfectDays       int `json:"perfect_days"`
	Schedules         int `json:"schedules"`
}

// BreakdownRow 描述单个周期任务（或临时任务汇总）在窗口内的完成率
type BreakdownRow struct {
	ScheduleID string `json:"schedule_id,omitempty"`
	Label      string `json:"label"`
	Kind       string `json:"kind"`
	Done       int    `json:"done"`
	Possible   int    `json:"possible"`
	Pct        int    `json:"pct"`
}

// Report 组合窗口内的全部统计结果
type Report struct {
	Window    []string       `json:"window"`
	Days      []DayRollup    `json:"days"`
	Summary   Summary        `json:"summary"`
	Breakdown []BreakdownRow `json:"breakdown"`
}

const (
	// BreakdownKindScheduled 标记周期任务行
	BreakdownKindScheduled = "scheduled"
	// BreakdownKindAdhoc 标记临时任务汇总行
	BreakdownKindAdhoc = "adhoc"
)

type snapshot struct {
	schedules []db.Schedule
	history   db.History
	adhoc     db.AdhocLedger
}

func (s *AnalyticsService) load() snapshot {
	snap := snapshot{history: db.History{}, adhoc: db.AdhocLedger{}}
	s.store.Read(db.KeySchedules, &snap.schedules)
	s.store.Read(db.KeyHistory, &snap.history)
	s.store.Read(db.KeyAdhoc, &snap.adhoc)
	return snap
}

// Window 返回以今天结尾的 n 天窗口，n 超出范围时回退到默认值
func (s *AnalyticsService) Window(n int) []string {
	if n <= 0 || n > MaxAnalyticsWindow {
		n = DefaultAnalyticsWindow
	}
	return dateutil.TrailingWindow(n, s.store.Clock().Current())
}

// DayRollups 计算窗口中每一天的完成率
func (s *AnalyticsService) DayRollups(window []string) []DayRollup {
	return s.load().dayRollups(window)
}

// Summary 计算窗口的平均完成率与完美日数量
func (s *AnalyticsService) Summary(window []string) Summary {
	snap := s.load()
	return snap.summary(snap.dayRollups(window))
}

// Breakdown 计算每个周期任务在窗口内的完成率
// possible=0 的任务同样会返回 0/0；临时任务汇总行只在有数据时附加
func (s *AnalyticsService) Breakdown(window []string) []BreakdownRow {
	return s.load().breakdown(window)
}

// Today 返回今天的完成进度
func (s *AnalyticsService) Today() DayRollup {
	today := s.store.Clock().Today()
	return s.load().dayRollups([]string{today})[0]
}

// Report 基于同一份快照生成完整统计
func (s *AnalyticsService) Report(window []string) Report {
	snap := s.load()
	days := snap.dayRollups(window)
	return Report{
		Window:    window,
		Days:      days,
		Summary:   snap.summary(days),
		Breakdown: snap.breakdown(window),
	}
}

func (snap snapshot) dayRollups(window []string) []DayRollup {
	rollups := make([]DayRollup, 0, len(window))
	for _, date := range window {
		weekday := dateutil.WeekdayOf(date)
		due := dueSchedules(snap.schedules, weekday)
		done, total := countDone(due, snap.history[date], snap.adhoc[date])
		rollups = append(rollups, DayRollup{
			Date:    date,
			Weekday: weekday,
			Done:    done,
			Total:   total,
			Pct:     percent(done, total),
		})
	}
	return rollups
}

func (snap snapshot) summary(days []DayRollup) Summary {
	var done, total, perfect int
	for _, day := range days {
		done += day.Done
		total += day.Total
		if day.Total > 0 && day.Done == day.Total {
			perfect++
		}
	}
	return Summary{
		AverageCompletion: percent(done, total),
		TasksDone:         done,
		PerfectDays:       perfect,
		Schedules:         len(snap.schedules),
	}
}

func (snap snapshot) breakdown(window []string) []BreakdownRow {
	rows := make([]BreakdownRow, 0, len(snap.schedules)+1)
	for _, schedule := range snap.schedules {
		var possible, done int
		for _, date := range window {
			if !schedule.DueOn(dateutil.WeekdayOf(date)) {
				continue
			}
			possible++
			if snap.history[date][schedule.ID] {
				done++
			}
		}
		rows = append(rows, BreakdownRow{
			ScheduleID: schedule.ID,
			Label:      schedule.Name,
			Kind:       BreakdownKindScheduled,
			Done:       done,
			Possible:   possible,
			Pct:        percent(done, possible),
		})
	}

	var adhocDone, adhocTotal int
	for _, date := range window {
		for _, task := range snap.adhoc[date] {
			adhocTotal++
			if task.Done {
				adhocDone++
			}
		}
	}
	if adhocTotal > 0 {
		rows = append(rows, BreakdownRow{
			Label:    "Ad-hoc tasks",
			Kind:     BreakdownKindAdhoc,
			Done:     adhocDone,
			Possible: adhocTotal,
			Pct:      percent(adhocDone, adhocTotal),
		})
	}
	return rows
}

// percent 返回四舍五入（半数进位）后的整数百分比，total=0 时为 0
func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*done + total) / (2 * total)
}
