package main

import (
	"log"

	"github.com/dayflow/internal/config"
	"github.com/dayflow/internal/dateutil"
	"github.com/dayflow/internal/db"
	"github.com/dayflow/internal/handler"
	"github.com/dayflow/internal/router"
	"github.com/dayflow/internal/service"
	"github.com/dayflow/internal/store"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("invalid timezone: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	st := store.New(db.DB, dateutil.NewClock(loc), store.Options{
		CapacityBytes: cfg.CapacityBytes,
		RetentionDays: cfg.RetentionDays,
	})
	api := handler.NewAPI(st)

	// 启动时校验连胜，必须先于任何切换操作
	if api.Streak().ValidateOnBoot() {
		log.Println("streak reset: a full day was missed since the last perfect day")
	}

	maintenance := service.NewMaintenanceService(st, loc)
	if scheduled, err := maintenance.SchedulePrune(cfg.PruneSchedule); err != nil {
		log.Fatalf("failed to schedule prune: %v", err)
	} else if scheduled {
		maintenance.Start()
		defer maintenance.Stop()
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api)
	log.Printf("dayflow listening on %s (tz=%s)", cfg.ListenAddr, loc)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
