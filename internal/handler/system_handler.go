package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type themePayload struct {
	Theme string `json:"theme"`
}

// GetTheme 返回主题偏好
func (a *API) GetTheme(c *gin.Context) {
	defer a.lock()()
	respondSuccess(c, http.StatusOK, gin.H{"theme": a.prefs.Theme()})
}

// UpdateTheme 保存主题偏好
func (a *API) UpdateTheme(c *gin.Context) {
	var payload themePayload
	if !bindJSON(c, &payload, "invalid theme payload") {
		return
	}

	defer a.lock()()
	persisted := a.prefs.SetTheme(payload.Theme)
	respondSuccess(c, http.StatusOK, gin.H{"theme": a.prefs.Theme(), "persisted": persisted})
}

// GetStorageUsage 返回存储占用与保留期信息
func (a *API) GetStorageUsage(c *gin.Context) {
	defer a.lock()()

	usage, err := a.store.Usage()
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to read storage usage")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"used_bytes":       usage.UsedBytes,
		"capacity_bytes":   usage.CapacityBytes,
		"keys":             usage.Keys,
		"retention_cutoff": a.store.RetentionCutoff(),
	})
}
