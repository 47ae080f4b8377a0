package service

import (
	"strings"

	"github.com/dayflow/internal/db"
	"github.com/dayflow/internal/store"
)

// DefaultTheme 为未设置时的主题
const DefaultTheme = "dark"

// PreferenceService 提供主题偏好的读取与更新能力。
type PreferenceService struct {
	store *store.Store
}

// NewPreferenceService 构造 PreferenceService。
func NewPreferenceService(st *store.Store) *PreferenceService {
	return &PreferenceService{store: st}
}

// Theme 返回当前主题，未设置时回退到 dark。
func (s *PreferenceService) Theme() string {
	var theme string
	if !s.store.Read(db.KeyTheme, &theme) || strings.TrimSpace(theme) == "" {
		return DefaultTheme
	}
	return theme
}

// SetTheme 保存主题偏好。
func (s *PreferenceService) SetTheme(theme string) bool {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		theme = DefaultTheme
	}
	return s.store.Write(db.KeyTheme, theme)
}
