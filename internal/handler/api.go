package handler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dayflow/internal/service"
	"github.com/dayflow/internal/store"
)

// API bundles shared dependencies for HTTP handlers.
// 所有访问存储的请求都在 mu 下串行执行，保证“切换 + 连胜更新”不会交错。
type API struct {
	mu        sync.Mutex
	store     *store.Store
	schedules *service.ScheduleService
	ledger    *service.LedgerService
	streak    *service.StreakService
	analytics analyticsProvider
	prefs     *service.PreferenceService
	revision  atomic.Int64
}

// NewAPI constructs a handler set with shared services.
func NewAPI(st *store.Store) *API {
	schedules := service.NewScheduleService(st)
	ledger := service.NewLedgerService(st)

	api := &API{
		store:     st,
		schedules: schedules,
		ledger:    ledger,
		streak:    service.NewStreakService(st, schedules, ledger),
		analytics: service.NewAnalyticsService(st),
		prefs:     service.NewPreferenceService(st),
	}

	// 周期任务变化时推进版本号，前端据此刷新今日视图
	schedules.OnChange(func() { api.revision.Add(1) })
	return api
}

// Streak exposes the streak engine so the entrypoint can validate on boot.
func (a *API) Streak() *service.StreakService {
	return a.streak
}

// Revision 返回周期任务的变更版本号。
func (a *API) Revision() int64 {
	return a.revision.Load()
}

func (a *API) lock() func() {
	a.mu.Lock()
	return a.mu.Unlock
}

func (a *API) now() time.Time {
	return a.store.Clock().Current()
}

func (a *API) today() string {
	return a.store.Clock().Today()
}
