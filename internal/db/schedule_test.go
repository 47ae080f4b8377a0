package db

import (
	"encoding/json"
	"testing"
)

func TestScheduleDueOn(t *testing.T) {
	schedule := Schedule{Days: []int{1, 3, 5}}
	tests := []struct {
		name    string
		weekday int
		want    bool
	}{
		{name: "monday", weekday: 1, want: true},
		{name: "tuesday", weekday: 2, want: false},
		{name: "friday", weekday: 5, want: true},
		{name: "invalid", weekday: -1, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := schedule.DueOn(tt.weekday); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestScheduleEffectiveDuration(t *testing.T) {
	zero, fortyFive := 0, 45
	if got := (Schedule{}).EffectiveDuration(); got != DefaultDurationMinutes {
		t.Fatalf("expected default duration, got %d", got)
	}
	if got := (Schedule{Duration: &zero}).EffectiveDuration(); got != DefaultDurationMinutes {
		t.Fatalf("expected default for zero duration, got %d", got)
	}
	if got := (Schedule{Duration: &fortyFive}).EffectiveDuration(); got != 45 {
		t.Fatalf("expected 45, got %d", got)
	}
}

func TestScheduleOmitsUnsetOptionalFields(t *testing.T) {
	data, err := json.Marshal(Schedule{ID: "s1", Name: "阅读", Days: []int{0}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"time", "duration", "notes"} {
		if _, ok := raw[key]; ok {
			t.Fatalf("expected %s to be omitted, got %s", key, data)
		}
	}
}

func TestStreakNullLastPerfectDay(t *testing.T) {
	var streak Streak
	if err := json.Unmarshal([]byte(`{"count":0,"lastPerfectDay":null}`), &streak); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if streak.LastPerfectDay != nil || streak.LastDay() != "" {
		t.Fatalf("expected nil last perfect day, got %+v", streak)
	}
}
