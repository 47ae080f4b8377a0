package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dayflow/internal/dateutil"
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondSuccess(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseIDParam(c *gin.Context, key string) (string, bool) {
	id := strings.TrimSpace(c.Param(key))
	if id == "" {
		respondError(c, http.StatusBadRequest, "invalid "+key)
		return "", false
	}
	return id, true
}

func parseDateParam(c *gin.Context, key string) (string, bool) {
	date := strings.TrimSpace(c.Param(key))
	if !dateutil.IsValid(date) {
		respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return "", false
	}
	return date, true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
