package handler

import "github.com/dayflow/internal/service"

type analyticsProvider interface {
	Window(n int) []string
	Report(window []string) service.Report
	Today() service.DayRollup
}
