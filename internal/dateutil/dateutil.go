package dateutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout 是规范日期字符串的格式，零填充后可直接按字典序比较先后。
const Layout = "2006-01-02"

// Clock 负责把当前时刻映射为规范日期，所有组件通过它获取“今天”。
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// NewClock 构造使用系统时间的 Clock，loc 为空时回退到 time.Local。
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return Clock{Now: time.Now, Location: loc}
}

// FixedClock 返回始终停在 at 的 Clock，主要用于测试。
func FixedClock(at time.Time) Clock {
	return Clock{Now: func() time.Time { return at }, Location: at.Location()}
}

// Current 返回当前时刻（已转换到配置时区）。
func (c Clock) Current() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

// Today 返回今天的规范日期。
func (c Clock) Today() string {
	return CanonicalDateOf(c.Current())
}

// Yesterday 返回昨天的规范日期。
func (c Clock) Yesterday() string {
	return AddDays(c.Today(), -1)
}

// CanonicalDateOf 将时刻格式化为 YYYY-MM-DD。
func CanonicalDateOf(t time.Time) string {
	return t.Format(Layout)
}

// Parse 解析规范日期，返回 UTC 零点。
func Parse(date string) (time.Time, error) {
	t, err := time.Parse(Layout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// IsValid 判断字符串是否为合法的规范日期。
func IsValid(date string) bool {
	_, err := Parse(date)
	return err == nil && len(date) == len(Layout)
}

// WeekdayOf 返回日期对应的星期（0=周日..6=周六），解析失败时返回 -1。
func WeekdayOf(date string) int {
	t, err := Parse(date)
	if err != nil {
		return -1
	}
	return int(t.Weekday())
}

// AddDays 对规范日期做日历天偏移，按日历而非 24 小时计算，不受夏令时影响。
func AddDays(date string, n int) string {
	t, err := Parse(date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(Layout)
}

// TrailingWindow 返回以 now 所在日期结尾的 n 个连续日期，最早的在前。
func TrailingWindow(n int, now time.Time) []string {
	if n <= 0 {
		return []string{}
	}
	today := CanonicalDateOf(now)
	days := make([]string, n)
	for i := 0; i < n; i++ {
		days[i] = AddDays(today, i-(n-1))
	}
	return days
}

// ParseClock 解析 "HH:MM"，返回当天的分钟数。
func ParseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour*60 + minute, nil
}

// FormatTime 把 "H:M" 规整为零填充的 "HH:MM"，无法解析时原样返回。
func FormatTime(value string) string {
	minutes, err := ParseClock(value)
	if err != nil {
		return value
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// MinuteOfDay 返回时刻在当天的分钟数。
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DayNames 为星期缩写，下标与 WeekdayOf 对齐。
var DayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
