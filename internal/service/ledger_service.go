package service

import (
	"strings"

	"github.com/dayflow/internal/db"
	"github.com/dayflow/internal/store"
	"github.com/google/uuid"
)

// LedgerService 负责每日完成记录与临时任务
// 每次操作都重新读取存储，不在内存中保留副本
type LedgerService struct {
	store *store.Store
}

// NewLedgerService 构造 LedgerService
func NewLedgerService(st *store.Store) *LedgerService {
	return &LedgerService{store: st}
}

// History 返回完整的完成记录
func (s *LedgerService) History() db.History {
	var history db.History
	if !s.store.Read(db.KeyHistory, &history) || history == nil {
		return db.History{}
	}
	return history
}

// ScheduledForDate 返回某天的完成映射，未记录时返回空映射
func (s *LedgerService) ScheduledForDate(date string) db.DayHistory {
	day := s.History()[date]
	if day == nil {
		return db.DayHistory{}
	}
	return day
}

// ToggleScheduled 翻转 (date, scheduleID) 的完成状态并返回新状态
// 连续调用两次会恢复原状态
func (s *LedgerService) ToggleScheduled(date, scheduleID string) bool {
	var history db.History
	done := false
	s.store.Update(db.KeyHistory, &history, func() bool {
		if history == nil {
			history = db.History{}
		}
		day := history[date]
		if day == nil {
			day = db.DayHistory{}
			history[date] = day
		}
		done = !day[scheduleID]
		day[scheduleID] = done
		return true
	})
	return done
}

// AdhocLedger 返回全部临时任务
func (s *LedgerService) AdhocLedger() db.AdhocLedger {
	var ledger db.AdhocLedger
	if !s.store.Read(db.KeyAdhoc, &ledger) || ledger == nil {
		return db.AdhocLedger{}
	}
	return ledger
}

// Adhoc 返回某天的临时任务，保持创建顺序
func (s *LedgerService) Adhoc(date string) []db.AdhocTask {
	tasks := s.AdhocLedger()[date]
	if tasks == nil {
		return []db.AdhocTask{}
	}
	return tasks
}

// AddAdhoc 追加一个未完成的临时任务并返回其 ID
func (s *LedgerService) AddAdhoc(date, name string) string {
	task := db.AdhocTask{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Done:      false,
		CreatedAt: s.store.Clock().Current(),
	}
	var ledger db.AdhocLedger
	s.store.Update(db.KeyAdhoc, &ledger, func() bool {
		if ledger == nil {
			ledger = db.AdhocLedger{}
		}
		ledger[date] = append(ledger[date], task)
		return true
	})
	return task.ID
}

// ToggleAdhoc 翻转临时任务的完成状态，found=false 表示该日不存在此任务
func (s *LedgerService) ToggleAdhoc(date, id string) (done bool, found bool) {
	var ledger db.AdhocLedger
	s.store.Update(db.KeyAdhoc, &ledger, func() bool {
		tasks := ledger[date]
		for i := range tasks {
			if tasks[i].ID == id {
				tasks[i].Done = !tasks[i].Done
				done, found = tasks[i].Done, true
				return true
			}
		}
		return false
	})
	return done, found
}

// DeleteAdhoc 删除临时任务，不存在时为空操作
func (s *LedgerService) DeleteAdhoc(date, id string) bool {
	deleted := false
	var ledger db.AdhocLedger
	s.store.Update(db.KeyAdhoc, &ledger, func() bool {
		tasks := ledger[date]
		kept := make([]db.AdhocTask, 0, len(tasks))
		for _, task := range tasks {
			if task.ID != id {
				kept = append(kept, task)
			}
		}
		if len(kept) == len(tasks) {
			return false
		}
		ledger[date] = kept
		deleted = true
		return true
	})
	return deleted
}

// CollectOrphans 删除已不存在的周期任务留下的完成记录，返回清理的条目数
// 这些记录本身不影响任何统计，只有显式调用时才会清理
func (s *LedgerService) CollectOrphans(schedules []db.Schedule) int {
	known := make(map[string]struct{}, len(schedules))
	for _, schedule := range schedules {
		known[schedule.ID] = struct{}{}
	}

	removed := 0
	var history db.History
	s.store.Update(db.KeyHistory, &history, func() bool {
		for date, day := range history {
			for id := range day {
				if _, ok := known[id]; !ok {
					delete(day, id)
					removed++
				}
			}
			if len(day) == 0 {
				delete(history, date)
			}
		}
		return removed > 0
	})
	return removed
}

// countDone 统计某天到期任务中已完成的数量与总数
func countDone(due []db.Schedule, day db.DayHistory, adhoc []db.AdhocTask) (done, total int) {
	total = len(due) + len(adhoc)
	for _, schedule := range due {
		if day[schedule.ID] {
			done++
		}
	}
	for _, task := range adhoc {
		if task.Done {
			done++
		}
	}
	return done, total
}
