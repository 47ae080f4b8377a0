package handler

import (
	"net/http"
	"strings"

	"github.com/dayflow/internal/dateutil"
	"github.com/dayflow/internal/db"
	"github.com/dayflow/internal/service"
	"github.com/gin-gonic/gin"
)

type adhocPayload struct {
	Name string `json:"name"`
}

type scheduledTaskView struct {
	Schedule scheduleView `json:"schedule"`
	Done     bool         `json:"done"`
	Status   string       `json:"status"`
}

type streakView struct {
	Count          int    `json:"count"`
	LastPerfectDay string `json:"last_perfect_day,omitempty"`
}

func toStreakView(streak db.Streak) streakView {
	return streakView{Count: streak.Count, LastPerfectDay: streak.LastDay()}
}

// GetToday 返回今天到期的任务、进度与连胜
func (a *API) GetToday(c *gin.Context) {
	defer a.lock()()

	today := a.today()
	weekday := dateutil.WeekdayOf(today)
	history := a.ledger.ScheduledForDate(today)

	now := a.now()
	due := a.schedules.DueOn(weekday)
	scheduled := make([]scheduledTaskView, 0, len(due))
	for _, schedule := range due {
		done := history[schedule.ID]
		scheduled = append(scheduled, scheduledTaskView{
			Schedule: toScheduleView(schedule),
			Done:     done,
			Status:   service.TaskStatus(schedule, done, now),
		})
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"date":      today,
		"weekday":   weekday,
		"day_name":  dateutil.DayNames[weekday],
		"scheduled": scheduled,
		"adhoc":     a.ledger.Adhoc(today),
		"progress":  a.analytics.Today(),
		"streak":    toStreakView(a.streak.Current()),
		"revision":  a.Revision(),
	})
}

// ToggleScheduledTask 切换今天某个周期任务的完成状态
// 只有转为完成时才检查是否迟到并尝试递增连胜
func (a *API) ToggleScheduledTask(c *gin.Context) {
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

	done := a.ledger.ToggleScheduled(a.today(), schedule.ID)

	var late *service.LateCompletion
	streak := a.streak.Current()
	if done {
		late = service.CheckLate(*schedule, a.now())
		streak = a.streak.OnPossibleCompletion()
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"done":   done,
		"late":   late,
		"streak": toStreakView(streak),
	})
}

// CreateAdhocTask 为今天添加临时任务
func (a *API) CreateAdhocTask(c *gin.Context) {
	var payload adhocPayload
	if !bindJSON(c, &payload, "invalid task payload") {
		return
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}

	defer a.lock()()
	id := a.ledger.AddAdhoc(a.today(), name)
	respondSuccess(c, http.StatusCreated, gin.H{"id": id})
}

// ToggleAdhocTask 切换今天某个临时任务的完成状态
func (a *API) ToggleAdhocTask(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	defer a.lock()()

	done, found := a.ledger.ToggleAdhoc(a.today(), id)
	if !found {
		respondError(c, http.StatusNotFound, "task not found")
		return
	}

	streak := a.streak.Current()
	if done {
		streak = a.streak.OnPossibleCompletion()
	}
	respondSuccess(c, http.StatusOK, gin.H{"done": done, "streak": toStreakView(streak)})
}

// DeleteAdhocTask 删除今天的临时任务
func (a *API) DeleteAdhocTask(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	defer a.lock()()

	deleted := a.ledger.DeleteAdhoc(a.today(), id)
	respondSuccess(c, http.StatusOK, gin.H{"deleted": deleted})
}

// GetHistory 返回指定日期的完成记录与临时任务
func (a *API) GetHistory(c *gin.Context) {
	date, ok := parseDateParam(c, "date")
	if !ok {
		return
	}
	defer a.lock()()

	respondSuccess(c, http.StatusOK, gin.H{
		"date":      date,
		"scheduled": a.ledger.ScheduledForDate(date),
		"adhoc":     a.ledger.Adhoc(date),
	})
}

// GetStreak 返回缓存的连胜
func (a *API) GetStreak(c *gin.Context) {
	defer a.lock()()
	respondSuccess(c, http.StatusOK, gin.H{"streak": toStreakView(a.streak.Current())})
}
