package service

import (
	"errors"
	"strings"

	"github.com/dayflow/internal/db"
	"github.com/dayflow/internal/store"
	"github.com/google/uuid"
)

var (
	// ErrScheduleNotFound 在指定周期任务不存在时返回
	ErrScheduleNotFound = errors.New("schedule not found")
	// ErrScheduleInvalidDays 供调用方在星期为空或越界时返回，存储层本身不校验
	ErrScheduleInvalidDays = errors.New("invalid schedule days")
	// ErrScheduleInvalidTime 供调用方在时间不是 HH:MM 时返回
	ErrScheduleInvalidTime = errors.New("invalid schedule time")
)

// ScheduleService 负责周期任务的增删改查
// 名称与星期的合法性由调用方校验，这里只负责持久化
// 变更后会同步通知通过 OnChange 注册的观察者
type ScheduleService struct {
	store     *store.Store
	observers []func()
}

// NewScheduleService 构造 ScheduleService
func NewScheduleService(st *store.Store) *ScheduleService {
	return &ScheduleService{store: st}
}

// OnChange 注册变更回调，替代全局广播事件
func (s *ScheduleService) OnChange(fn func()) {
	if fn != nil {
		s.observers = append(s.observers, fn)
	}
}

// List 按插入顺序返回全部周期任务
func (s *ScheduleService) List() []db.Schedule {
	var schedules []db.Schedule
	if !s.store.Read(db.KeySchedules, &schedules) || schedules == nil {
		return []db.Schedule{}
	}
	return schedules
}

// Get 根据 ID 获取周期任务
func (s *ScheduleService) Get(id string) (*db.Schedule, error) {
	for _, schedule := range s.List() {
		if schedule.ID == id {
			found := schedule
			return &found, nil
		}
	}
	return nil, ErrScheduleNotFound
}

// DueOn 返回在指定星期需要执行的周期任务
func (s *ScheduleService) DueOn(weekday int) []db.Schedule {
	return dueSchedules(s.List(), weekday)
}

// Upsert 按 ID 替换已有任务，否则追加到末尾
// ID 为空时生成新 ID；CreatedAt 仅在首次插入时写入
func (s *ScheduleService) Upsert(schedule db.Schedule) (db.Schedule, bool) {
	schedule.ID = strings.TrimSpace(schedule.ID)
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}

	var list []db.Schedule
	changed := false
	ok := s.store.Update(db.KeySchedules, &list, func() bool {
		replaced := false
		for i := range list {
			if list[i].ID == schedule.ID {
				if !list[i].CreatedAt.IsZero() {
					schedule.CreatedAt = list[i].CreatedAt
				}
				list[i] = schedule
				replaced = true
				break
			}
		}
		if !replaced {
			if schedule.CreatedAt.IsZero() {
				schedule.CreatedAt = s.store.Clock().Current()
			}
			list = append(list, schedule)
		}
		changed = true
		return true
	})
	if changed {
		s.notify()
	}
	return schedule, ok
}

// Delete 删除指定任务，不存在时为空操作
// 历史记录中的旧 ID 不做级联清理
func (s *ScheduleService) Delete(id string) bool {
	var list []db.Schedule
	changed := false
	ok := s.store.Update(db.KeySchedules, &list, func() bool {
		kept := make([]db.Schedule, 0, len(list))
		for _, schedule := range list {
			if schedule.ID != id {
				kept = append(kept, schedule)
			}
		}
		if len(kept) == len(list) {
			return false
		}
		list = kept
		changed = true
		return true
	})
	if !changed {
		return true
	}
	s.notify()
	return ok
}

func (s *ScheduleService) notify() {
	for _, fn := range s.observers {
		fn()
	}
}

func dueSchedules(schedules []db.Schedule, weekday int) []db.Schedule {
	due := make([]db.Schedule, 0, len(schedules))
	for _, schedule := range schedules {
		if schedule.DueOn(weekday) {
			due = append(due, schedule)
		}
	}
	return due
}
