package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dayflow/internal/dateutil"
	"github.com/dayflow/internal/db"
	"github.com/dayflow/internal/service"
	"github.com/gin-gonic/gin"
)

type schedulePayload struct {
	Name     string `json:"name"`
	Days     []int  `json:"days"`
	Time     string `json:"time"`
	Duration *int   `json:"duration"`
	Notes    string `json:"notes"`
}

type scheduleView struct {
	db.Schedule
	TimeDisplay string `json:"time_display,omitempty"`
	NotesHTML   string `json:"notes_html,omitempty"`
}

var errScheduleNameRequired = errors.New("schedule name is required")

// ListSchedules 返回全部周期任务
func (a *API) ListSchedules(c *gin.Context) {
	defer a.lock()()

	schedules := a.schedules.List()
	items := make([]scheduleView, 0, len(schedules))
	for _, schedule := range schedules {
		items = append(items, toScheduleView(schedule))
	}
	respondSuccess(c, http.StatusOK, gin.H{"schedules": items, "revision": a.Revision()})
}

// GetSchedule 返回单个周期任务
func (a *API) GetSchedule(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	defer a.lock()()

	schedule, err := a.schedules.Get(id)
	if err != nil {
		handleScheduleError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"schedule": toScheduleView(*schedule)})
}

// CreateSchedule 新建周期任务
func (a *API) CreateSchedule(c *gin.Context) {
	var payload schedulePayload
	if !bindJSON(c, &payload, "invalid schedule payload") {
		return
	}
	schedule, err := payload.toSchedule("")
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	defer a.lock()()
	saved, persisted := a.schedules.Upsert(schedule)
	respondSuccess(c, http.StatusCreated, gin.H{
		"schedule":  toScheduleView(saved),
		"persisted": persisted,
		"refresh":   []string{"today", "analytics"},
	})
}

// UpdateSchedule 按 ID 替换周期任务，不存在时插入
func (a *API) UpdateSchedule(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload schedulePayload
	if !bindJSON(c, &payload, "invalid schedule payload") {
		return
	}
	schedule, err := payload.toSchedule(id)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	defer a.lock()()
	saved, persisted := a.schedules.Upsert(schedule)
	respondSuccess(c, http.StatusOK, gin.H{
		"schedule":  toScheduleView(saved),
		"persisted": persisted,
		"refresh":   []string{"today", "analytics"},
	})
}

// DeleteSchedule 删除周期任务，历史记录保持不变
func (a *API) DeleteSchedule(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	defer a.lock()()
	persisted := a.schedules.Delete(id)
	respondSuccess(c, http.StatusOK, gin.H{
		"deleted":   id,
		"persisted": persisted,
		"refresh":   []string{"today", "analytics"},
	})
}

func (p schedulePayload) toSchedule(id string) (db.Schedule, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return db.Schedule{}, errScheduleNameRequired
	}
	if len(p.Days) == 0 {
		return db.Schedule{}, service.ErrScheduleInvalidDays
	}
	seen := make(map[int]struct{}, len(p.Days))
	days := make([]int, 0, len(p.Days))
	for _, d := range p.Days {
		if d < 0 || d > 6 {
			return db.Schedule{}, service.ErrScheduleInvalidDays
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}

	timeValue := strings.TrimSpace(p.Time)
	if timeValue != "" {
		if _, err := dateutil.ParseClock(timeValue); err != nil {
			return db.Schedule{}, service.ErrScheduleInvalidTime
		}
		timeValue = dateutil.FormatTime(timeValue)
	}

	var duration *int
	if p.Duration != nil && *p.Duration > 0 {
		value := *p.Duration
		duration = &value
	}

	return db.Schedule{
		ID:       id,
		Name:     name,
		Days:     days,
		Time:     timeValue,
		Duration: duration,
		Notes:    strings.TrimSpace(p.Notes),
	}, nil
}

func toScheduleView(schedule db.Schedule) scheduleView {
	view := scheduleView{Schedule: schedule, NotesHTML: service.RenderNotes(schedule.Notes)}
	if schedule.Time != "" {
		view.TimeDisplay = dateutil.FormatTime(schedule.Time)
	}
	if view.Days == nil {
		view.Days = []int{}
	}
	return view
}

func handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleNotFound):
		respondError(c, http.StatusNotFound, "schedule not found")
	case errors.Is(err, errScheduleNameRequired):
		respondError(c, http.StatusBadRequest, "name is required")
	case errors.Is(err, service.ErrScheduleInvalidDays):
		respondError(c, http.StatusBadRequest, "select at least one day between 0 and 6")
	case errors.Is(err, service.ErrScheduleInvalidTime):
		respondError(c, http.StatusBadRequest, "time must be HH:MM")
	default:
		respondError(c, http.StatusInternalServerError, "operation failed")
	}
}
