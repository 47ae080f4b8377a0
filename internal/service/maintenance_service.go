package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dayflow/internal/store"
	"github.com/robfig/cron/v3"
)

// MaintenanceService 用 cron 定期清理超出保留期的按日数据。
// 清理本身也会在写入超出容量时同步触发，这里只是提前释放空间。
type MaintenanceService struct {
	cron  *cron.Cron
	store *store.Store
}

// NewMaintenanceService 构造 MaintenanceService。
func NewMaintenanceService(st *store.Store, loc *time.Location) *MaintenanceService {
	if loc == nil {
		loc = time.Local
	}
	return &MaintenanceService{
		cron:  cron.New(cron.WithLocation(loc)),
		store: st,
	}
}

// SchedulePrune 按标准 5 段 cron 表达式注册清理任务，表达式为空时不注册。
func (s *MaintenanceService) SchedulePrune(expr string) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return false, nil
	}
	if _, err := s.cron.AddFunc(expr, s.RunPrune); err != nil {
		return false, fmt.Errorf("schedule prune %q: %w", expr, err)
	}
	return true, nil
}

// RunPrune 执行一次保留期清理。
func (s *MaintenanceService) RunPrune() {
	removed := s.store.PruneExpired()
	log.Printf("[maintenance] retention prune finished, removed=%d cutoff=%s", removed, s.store.RetentionCutoff())
}

// Start 启动 cron 调度。
func (s *MaintenanceService) Start() {
	s.cron.Start()
}

// Stop 停止调度并等待正在执行的任务结束。
func (s *MaintenanceService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
