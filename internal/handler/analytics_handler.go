package handler

import (
	"net/http"

	"github.com/dayflow/internal/service"
	"github.com/gin-gonic/gin"
)

// GetAnalytics 返回滚动窗口内的完成率统计
func (a *API) GetAnalytics(c *gin.Context) {
	days := parseIntQuery(c, "days", service.DefaultAnalyticsWindow)

	defer a.lock()()
	window := a.analytics.Window(days)
	respondSuccess(c, http.StatusOK, a.analytics.Report(window))
}
