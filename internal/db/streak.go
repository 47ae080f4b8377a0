package db

// Streak 是连胜缓存：Count 表示截止 LastPerfectDay 的连续完美天数。
// LastPerfectDay 为空表示尚无完美日。
type Streak struct {
	Count          int     `json:"count"`
	LastPerfectDay *string `json:"lastPerfectDay"`
}

// LastDay 返回 LastPerfectDay，未设置时返回空串。
func (s Streak) LastDay() string {
	if s.LastPerfectDay == nil {
		return ""
	}
	return *s.LastPerfectDay
}
