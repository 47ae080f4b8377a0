package service

import (
	"log"

	"github.com/dayflow/internal/dateutil"
	"github.com/dayflow/internal/db"
	"github.com/dayflow/internal/store"
)

// maxRebuildDays 限制全量重建时向前回溯的天数
const maxRebuildDays = 3650

// StreakService 维护连胜缓存
// 缓存只通过 OnPossibleCompletion 递增、通过 ValidateOnBoot 重置，
// 不会在日常操作中扫描全部历史
type StreakService struct {
	store     *store.Store
	schedules *ScheduleService
	ledger    *LedgerService
}

// DayProgress 描述某一天的完成进度
type DayProgress struct {
	Date  string
	Done  int
	Total int
}

// Perfect 表示当天有到期任务且全部完成
func (p DayProgress) Perfect() bool {
	return p.Total > 0 && p.Done == p.Total
}

// NewStreakService 构造 StreakService
func NewStreakService(st *store.Store, schedules *ScheduleService, ledger *LedgerService) *StreakService {
	return &StreakService{store: st, schedules: schedules, ledger: ledger}
}

// Current 返回缓存的连胜，未初始化时为 {0, nil}
func (s *StreakService) Current() db.Streak {
	var streak db.Streak
	if !s.store.Read(db.KeyStreak, &streak) || streak.Count < 0 {
		return db.Streak{}
	}
	return streak
}

// Progress 计算指定日期的到期任务数与完成数
func (s *StreakService) Progress(date string) DayProgress {
	due := s.schedules.DueOn(dateutil.WeekdayOf(date))
	done, total := countDone(due, s.ledger.ScheduledForDate(date), s.ledger.Adhoc(date))
	return DayProgress{Date: date, Done: done, Total: total}
}

// OnPossibleCompletion 在任务被标记为完成后调用
// 今天首次变为完美日时递增（或重新开始）连胜，同一天最多计数一次；
// 取消完成时不应调用，连胜不会在当天内回退
func (s *StreakService) OnPossibleCompletion() db.Streak {
	clock := s.store.Clock()
	today := clock.Today()
	yesterday := clock.Yesterday()

	if !s.Progress(today).Perfect() {
		return s.Current()
	}

	var streak db.Streak
	result := s.Current()
	s.store.Update(db.KeyStreak, &streak, func() bool {
		if streak.Count < 0 {
			streak = db.Streak{}
		}
		last := streak.LastDay()
		if last == today {
			result = streak
			return false
		}

		next := db.Streak{Count: 1, LastPerfectDay: &today}
		if last == yesterday {
			next.Count = streak.Count + 1
		}
		streak = next
		result = next
		return true
	})
	return result
}

// ValidateOnBoot 在进程启动时调用一次
// 若最后的完美日早于昨天，说明中间整天缺席，连胜重置为 {0, nil}
func (s *StreakService) ValidateOnBoot() bool {
	yesterday := s.store.Clock().Yesterday()
	var streak db.Streak
	return s.store.Update(db.KeyStreak, &streak, func() bool {
		last := streak.LastDay()
		if last == "" || last >= yesterday {
			return false
		}
		log.Printf("[streak] reset: last perfect day %s is before %s", last, yesterday)
		streak = db.Streak{}
		return true
	})
}

// Rebuild 根据存储的历史重新计算连胜并覆盖缓存
// 今天未完成时从昨天开始向前统计，遇到第一个非完美日停止
func (s *StreakService) Rebuild() db.Streak {
	clock := s.store.Clock()
	schedules := s.schedules.List()
	history := s.ledger.History()
	adhoc := s.ledger.AdhocLedger()

	perfect := func(date string) bool {
		due := dueSchedules(schedules, dateutil.WeekdayOf(date))
		done, total := countDone(due, history[date], adhoc[date])
		return total > 0 && done == total
	}

	start := clock.Today()
	if !perfect(start) {
		start = clock.Yesterday()
	}

	count := 0
	for date := start; count < maxRebuildDays && perfect(date); date = dateutil.AddDays(date, -1) {
		count++
	}

	rebuilt := db.Streak{}
	if count > 0 {
		rebuilt = db.Streak{Count: count, LastPerfectDay: &start}
	}

	if previous := s.Current(); previous.Count != rebuilt.Count || previous.LastDay() != rebuilt.LastDay() {
		log.Printf("[streak] rebuilt cache: %d@%q -> %d@%q", previous.Count, previous.LastDay(), rebuilt.Count, rebuilt.LastDay())
	}
	s.store.Write(db.KeyStreak, rebuilt)
	return rebuilt
}
