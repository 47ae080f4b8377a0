package main

import (
	"fmt"
	"log"

	"github.com/dayflow/internal/config"
	"github.com/dayflow/internal/dateutil"
	"github.com/dayflow/internal/db"
	"github.com/dayflow/internal/service"
	"github.com/dayflow/internal/store"
)

const seedDays = 30

// 测试数据生成器
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("配置加载失败:", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("时区配置无效:", err)
	}

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	st := store.New(db.DB, dateutil.NewClock(loc), store.Options{
		CapacityBytes: cfg.CapacityBytes,
		RetentionDays: cfg.RetentionDays,
	})

	fmt.Println("开始生成测试数据...")

	schedules := createTestSchedules(st)
	filled := createTestHistory(st, schedules, seedDays)
	adhoc := createTestAdhocTasks(st, seedDays)
	streak := service.NewStreakService(st, service.NewScheduleService(st), service.NewLedgerService(st)).Rebuild()

	fmt.Println("测试数据生成完成！")
	fmt.Printf("周期任务: %d 个\n", len(schedules))
	fmt.Printf("完成记录: %d 条，临时任务: %d 个\n", filled, adhoc)
	fmt.Printf("当前连胜: %d 天\n", streak.Count)
}

// 创建测试周期任务
func createTestSchedules(st *store.Store) []db.Schedule {
	svc := service.NewScheduleService(st)
	if existing := svc.List(); len(existing) > 0 {
		fmt.Println("周期任务已存在，跳过创建")
		return existing
	}

	thirty := 30
	twenty := 20
	samples := []db.Schedule{
		{Name: "晨跑", Days: []int{1, 3, 5}, Time: "06:30", Duration: &thirty, Notes: "5 公里，**注意热身**"},
		{Name: "阅读", Days: []int{0, 1, 2, 3, 4, 5, 6}, Time: "21:00", Duration: &thirty},
		{Name: "英语听力", Days: []int{1, 2, 3, 4, 5}, Time: "12:30", Duration: &twenty},
		{Name: "整理房间", Days: []int{0, 6}, Notes: "周末大扫除"},
	}

	created := make([]db.Schedule, 0, len(samples))
	for _, sample := range samples {
		schedule, _ := svc.Upsert(sample)
		created = append(created, schedule)
	}

	fmt.Println("✅ 测试周期任务创建完成")
	return created
}

// 创建最近若干天的完成记录，按固定规律跳过一部分，保证统计有起伏
func createTestHistory(st *store.Store, schedules []db.Schedule, days int) int {
	window := dateutil.TrailingWindow(days, st.Clock().Current())

	filled := 0
	var history db.History
	st.Update(db.KeyHistory, &history, func() bool {
		if history == nil {
			history = db.History{}
		}
		for i, date := range window {
			weekday := dateutil.WeekdayOf(date)
			for j, schedule := range schedules {
				if !schedule.DueOn(weekday) || (i+j)%4 == 0 {
					continue
				}
				if history[date] == nil {
					history[date] = db.DayHistory{}
				}
				history[date][schedule.ID] = true
				filled++
			}
		}
		return filled > 0
	})

	fmt.Println("✅ 测试完成记录创建完成")
	return filled
}

// 每隔几天添加一条临时任务
func createTestAdhocTasks(st *store.Store, days int) int {
	ledger := service.NewLedgerService(st)
	names := []string{"取快递", "回复邮件", "给植物浇水"}

	count := 0
	for i, date := range dateutil.TrailingWindow(days, st.Clock().Current()) {
		if i%3 != 0 {
			continue
		}
		id := ledger.AddAdhoc(date, names[count%len(names)])
		if i%2 == 0 {
			ledger.ToggleAdhoc(date, id)
		}
		count++
	}

	fmt.Println("✅ 测试临时任务创建完成")
	return count
}
