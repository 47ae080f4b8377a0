package router

import (
	"github.com/dayflow/internal/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API) *gin.Engine {
	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/schedules", api.ListSchedules)
		apiGroup.GET("/schedules/:id", api.GetSchedule)
		apiGroup.POST("/schedules", api.CreateSchedule)
		apiGroup.PUT("/schedules/:id", api.UpdateSchedule)
		apiGroup.DELETE("/schedules/:id", api.DeleteSchedule)

		// 今日视图：切换操作只作用于当天
		today := apiGroup.Group("/today")
		{
			today.GET("", api.GetToday)
			today.POST("/scheduled/:id/toggle", api.ToggleScheduledTask)
			today.POST("/adhoc", api.CreateAdhocTask)
			today.POST("/adhoc/:id/toggle", api.ToggleAdhocTask)
			today.DELETE("/adhoc/:id", api.DeleteAdhocTask)
		}

		apiGroup.GET("/history/:date", api.GetHistory)
		apiGroup.GET("/streak", api.GetStreak)
		apiGroup.GET("/analytics", api.GetAnalytics)

		apiGroup.GET("/theme", api.GetTheme)
		apiGroup.PUT("/theme", api.UpdateTheme)
		apiGroup.GET("/storage", api.GetStorageUsage)
	}

	return r
}
