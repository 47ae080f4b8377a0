package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dayflow/internal/dateutil"
	"github.com/dayflow/internal/db"
	"github.com/dayflow/internal/store"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type handlerEnv struct {
	now    time.Time
	api    *API
	router *gin.Engine
}

func setupHandlerTest(t *testing.T, now time.Time) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	env := &handlerEnv{now: now}
	clock := dateutil.Clock{Now: func() time.Time { return env.now }, Location: time.UTC}
	env.api = NewAPI(store.New(gdb, clock, store.Options{}))

	r := gin.New()
	r.GET("/api/schedules", env.api.ListSchedules)
	r.GET("/api/schedules/:id", env.api.GetSchedule)
	r.POST("/api/schedules", env.api.CreateSchedule)
	r.PUT("/api/schedules/:id", env.api.UpdateSchedule)
	r.DELETE("/api/schedules/:id", env.api.DeleteSchedule)
	r.GET("/api/today", env.api.GetToday)
	r.POST("/api/today/scheduled/:id/toggle", env.api.ToggleScheduledTask)
	r.POST("/api/today/adhoc", env.api.CreateAdhocTask)
	r.POST("/api/today/adhoc/:id/toggle", env.api.ToggleAdhocTask)
	r.DELETE("/api/today/adhoc/:id", env.api.DeleteAdhocTask)
	r.GET("/api/history/:date", env.api.GetHistory)
	r.GET("/api/streak", env.api.GetStreak)
	r.GET("/api/analytics", env.api.GetAnalytics)
	r.GET("/api/theme", env.api.GetTheme)
	r.PUT("/api/theme", env.api.UpdateTheme)
	r.GET("/api/storage", env.api.GetStorageUsage)
	env.router = r
	return env
}

func (e *handlerEnv) do(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to encode payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

type createdSchedule struct {
	Schedule struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Days        []int  `json:"days"`
		Time        string `json:"time"`
		TimeDisplay string `json:"time_display"`
		NotesHTML   string `json:"notes_html"`
	} `json:"schedule"`
	Persisted bool     `json:"persisted"`
	Refresh   []string `json:"refresh"`
}

type toggleResponse struct {
	Done bool `json:"done"`
	Late *struct {
		LateBy  int    `json:"late_by_minutes"`
		Message string `json:"message"`
	} `json:"late"`
	Streak streakView `json:"streak"`
}

func (e *handlerEnv) createSchedule(t *testing.T, payload map[string]any) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/schedules", payload)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[createdSchedule](t, w).Schedule.ID
}

// 2024-05-06 是周一
var mondayMorning = time.Date(2024, 5, 6, 7, 45, 0, 0, time.UTC)

func TestCreateScheduleValidation(t *testing.T) {
	env := setupHandlerTest(t, mondayMorning)

	cases := []struct {
		name    string
		payload map[string]any
	}{
		{name: "empty name", payload: map[string]any{"name": "  ", "days": []int{1}}},
		{name: "no days", payload: map[string]any{"name": "x", "days": []int{}}},
		{name: "day out of range", payload: map[string]any{"name": "x", "days": []int{7}}},
		{name: "bad time", payload: map[string]any{"name": "x", "days": []int{1}, "time": "25:00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := env.do(t, http.MethodPost, "/api/schedules", tc.payload); w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}

	if w := env.do(t, http.MethodGet, "/api/schedules", nil); decode[map[string]any](t, w)["schedules"] == nil {
		t.Fatal("expected empty schedules array")
	}
}

func TestCreateAndUpdateSchedule(t *testing.T) {
	env := setupHandlerTest(t, mondayMorning)

	w := env.do(t, http.MethodPost, "/api/schedules", map[string]any{
		"name": "晨跑", "days": []int{1, 1, 3}, "time": "7:0", "notes": "**带水**",
	})
	created := decode[createdSchedule](t, w)
	if !created.Persisted || created.Schedule.ID == "" {
		t.Fatalf("unexpected create response: %+v", created)
	}
	if len(created.Schedule.Days) != 2 || created.Schedule.Time != "07:00" {
		t.Fatalf("expected normalized days/time, got %+v", created.Schedule)
	}
	if created.Schedule.NotesHTML == "" || len(created.Refresh) == 0 {
		t.Fatalf("expected notes html and refresh hint, got %+v", created)
	}

	id := created.Schedule.ID
	w = env.do(t, http.MethodPut, "/api/schedules/"+id, map[string]any{"name": "晨跑 5K", "days": []int{2}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/schedules", nil)
	list := decode[struct {
		Schedules []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"schedules"`
		Revision int64 `json:"revision"`
	}](t, w)
	if len(list.Schedules) != 1 || list.Schedules[0].Name != "晨跑 5K" {
		t.Fatalf("expected single replaced schedule, got %+v", list.Schedules)
	}
	if list.Revision != 2 {
		t.Fatalf("expected revision 2 after two changes, got %d", list.Revision)
	}

	if w := env.do(t, http.MethodDelete, "/api/schedules/"+id, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/schedules/"+id, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestToggleScheduledLateWarningAndStreak(t *testing.T) {
	env := setupHandlerTest(t, mondayMorning)
	id := env.createSchedule(t, map[string]any{"name": "冥想", "days": []int{1}, "time": "07:00", "duration": 10})

	w := env.do(t, http.MethodPost, "/api/today/scheduled/"+id+"/toggle", nil)
	resp := decode[toggleResponse](t, w)
	if !resp.Done {
		t.Fatal("expected task to be marked done")
	}
	if resp.Late == nil || resp.Late.LateBy != 35 {
		t.Fatalf("expected 35 minutes late warning, got %+v", resp.Late)
	}
	if resp.Streak.Count != 1 || resp.Streak.LastPerfectDay != "2024-05-06" {
		t.Fatalf("unexpected streak: %+v", resp.Streak)
	}

	w = env.do(t, http.MethodPost, "/api/today/scheduled/"+id+"/toggle", nil)
	resp = decode[toggleResponse](t, w)
	if resp.Done || resp.Late != nil {
		t.Fatalf("expected un-completion without warning, got %+v", resp)
	}
	if resp.Streak.Count != 1 {
		t.Fatalf("expected streak not to decrease mid-day, got %+v", resp.Streak)
	}

	if w := env.do(t, http.MethodPost, "/api/today/scheduled/missing/toggle", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown schedule, got %d", w.Code)
	}
}

func TestAdhocTaskFlow(t *testing.T) {
	env := setupHandlerTest(t, mondayMorning)

	if w := env.do(t, http.MethodPost, "/api/today/adhoc", map[string]any{"name": ""}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %d", w.Code)
	}

	w := env.do(t, http.MethodPost, "/api/today/adhoc", map[string]any{"name": "取快递"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	id := decode[map[string]string](t, w)["id"]

	resp := decode[toggleResponse](t, env.do(t, http.MethodPost, "/api/today/adhoc/"+id+"/toggle", nil))
	if !resp.Done || resp.Streak.Count != 1 {
		t.Fatalf("expected ad-hoc completion to start streak, got %+v", resp)
	}

	if w := env.do(t, http.MethodPost, "/api/today/adhoc/missing/toggle", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown task, got %d", w.Code)
	}

	history := decode[struct {
		Adhoc []db.AdhocTask `json:"adhoc"`
	}](t, env.do(t, http.MethodGet, "/api/history/2024-05-06", nil))
	if len(history.Adhoc) != 1 || !history.Adhoc[0].Done {
		t.Fatalf("unexpected history: %+v", history)
	}

	deleted := decode[map[string]bool](t, env.do(t, http.MethodDelete, "/api/today/adhoc/"+id, nil))
	if !deleted["deleted"] {
		t.Fatal("expected delete to report removal")
	}
	if w := env.do(t, http.MethodGet, "/api/history/06-05-2024", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", w.Code)
	}
}

func TestGetTodayListsOnlyDueSchedules(t *testing.T) {
	env := setupHandlerTest(t, mondayMorning)
	monID := env.createSchedule(t, map[string]any{"name": "周一任务", "days": []int{1}})
	env.createSchedule(t, map[string]any{"name": "周二任务", "days": []int{2}})
	env.do(t, http.MethodPost, "/api/today/scheduled/"+monID+"/toggle", nil)
	env.do(t, http.MethodPost, "/api/today/adhoc", map[string]any{"name": "临时"})

	today := decode[struct {
		Date      string `json:"date"`
		Weekday   int    `json:"weekday"`
		Scheduled []struct {
			Done bool `json:"done"`
		} `json:"scheduled"`
		Adhoc    []db.AdhocTask `json:"adhoc"`
		Progress struct {
			Done  int `json:"done"`
			Total int `json:"total"`
			Pct   int `json:"pct"`
		} `json:"progress"`
	}](t, env.do(t, http.MethodGet, "/api/today", nil))

	if today.Date != "2024-05-06" || today.Weekday != 1 {
		t.Fatalf("unexpected date info: %+v", today)
	}
	if len(today.Scheduled) != 1 || !today.Scheduled[0].Done {
		t.Fatalf("expected only Monday task, done: %+v", today.Scheduled)
	}
	if today.Progress.Done != 1 || today.Progress.Total != 2 || today.Progress.Pct != 50 {
		t.Fatalf("unexpected progress: %+v", today.Progress)
	}
}

func TestGetTodayTaskStatus(t *testing.T) {
	env := setupHandlerTest(t, mondayMorning)
	env.createSchedule(t, map[string]any{"name": "晨跑", "days": []int{1}, "time": "07:00"})
	env.createSchedule(t, map[string]any{"name": "早餐", "days": []int{1}, "time": "07:50"})
	env.createSchedule(t, map[string]any{"name": "开会", "days": []int{1}, "time": "09:00"})
	doneID := env.createSchedule(t, map[string]any{"name": "喝水", "days": []int{1}, "time": "06:00"})
	env.do(t, http.MethodPost, "/api/today/scheduled/"+doneID+"/toggle", nil)

	today := decode[struct {
		Scheduled []struct {
			Schedule struct {
				Name string `json:"name"`
			} `json:"schedule"`
			Status string `json:"status"`
		} `json:"scheduled"`
	}](t, env.do(t, http.MethodGet, "/api/today", nil))

	want := map[string]string{"晨跑": "late", "早餐": "now", "开会": "scheduled", "喝水": "done"}
	if len(today.Scheduled) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(today.Scheduled))
	}
	for _, task := range today.Scheduled {
		if task.Status != want[task.Schedule.Name] {
			t.Fatalf("expected %s to be %s, got %s", task.Schedule.Name, want[task.Schedule.Name], task.Status)
		}
	}
}

func TestStreakAcrossDaysViaHandlers(t *testing.T) {
	env := setupHandlerTest(t, mondayMorning)
	id := env.createSchedule(t, map[string]any{"name": "每日", "days": []int{0, 1, 2, 3, 4, 5, 6}})

	env.do(t, http.MethodPost, "/api/today/scheduled/"+id+"/toggle", nil)
	env.now = env.now.AddDate(0, 0, 1)
	resp := decode[toggleResponse](t, env.do(t, http.MethodPost, "/api/today/scheduled/"+id+"/toggle", nil))
	if resp.Streak.Count != 2 {
		t.Fatalf("expected streak 2 on consecutive day, got %+v", resp.Streak)
	}

	env.now = env.now.AddDate(0, 0, 3)
	if !env.api.Streak().ValidateOnBoot() {
		t.Fatal("expected stale streak to be reset on boot")
	}
	streak := decode[struct {
		Streak streakView `json:"streak"`
	}](t, env.do(t, http.MethodGet, "/api/streak", nil))
	if streak.Streak.Count != 0 || streak.Streak.LastPerfectDay != "" {
		t.Fatalf("expected reset streak, got %+v", streak.Streak)
	}
}

func TestGetAnalyticsWindow(t *testing.T) {
	env := setupHandlerTest(t, mondayMorning)
	id := env.createSchedule(t, map[string]any{"name": "每日", "days": []int{0, 1, 2, 3, 4, 5, 6}})
	env.do(t, http.MethodPost, "/api/today/scheduled/"+id+"/toggle", nil)

	report := decode[struct {
		Window  []string `json:"window"`
		Summary struct {
			AverageCompletion int `json:"average_completion"`
			PerfectDays       int `json:"perfect_days"`
		} `json:"summary"`
		Breakdown []struct {
			Done     int `json:"done"`
			Possible int `json:"possible"`
		} `json:"breakdown"`
	}](t, env.do(t, http.MethodGet, "/api/analytics?days=3", nil))

	if len(report.Window) != 3 || report.Window[2] != "2024-05-06" {
		t.Fatalf("unexpected window: %v", report.Window)
	}
	if report.Summary.AverageCompletion != 33 || report.Summary.PerfectDays != 1 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
	if len(report.Breakdown) != 1 || report.Breakdown[0].Done != 1 || report.Breakdown[0].Possible != 3 {
		t.Fatalf("unexpected breakdown: %+v", report.Breakdown)
	}

	fallback := decode[struct {
		Window []string `json:"window"`
	}](t, env.do(t, http.MethodGet, "/api/analytics?days=abc", nil))
	if len(fallback.Window) != 7 {
		t.Fatalf("expected default 7-day window, got %d", len(fallback.Window))
	}
}

func TestThemeAndStorage(t *testing.T) {
	env := setupHandlerTest(t, mondayMorning)

	if theme := decode[map[string]string](t, env.do(t, http.MethodGet, "/api/theme", nil)); theme["theme"] != "dark" {
		t.Fatalf("expected default dark theme, got %v", theme)
	}
	env.do(t, http.MethodPut, "/api/theme", map[string]string{"theme": "light"})
	if theme := decode[map[string]any](t, env.do(t, http.MethodGet, "/api/theme", nil)); theme["theme"] != "light" {
		t.Fatalf("expected light theme, got %v", theme)
	}

	usage := decode[struct {
		Keys            int64  `json:"keys"`
		RetentionCutoff string `json:"retention_cutoff"`
	}](t, env.do(t, http.MethodGet, "/api/storage", nil))
	if usage.Keys != 1 || usage.RetentionCutoff != "2024-02-06" {
		t.Fatalf("unexpected usage: %+v", usage)
	}
}
