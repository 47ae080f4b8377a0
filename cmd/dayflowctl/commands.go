package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dayflow/internal/config"
	"github.com/dayflow/internal/dateutil"
	"github.com/dayflow/internal/db"
	"github.com/dayflow/internal/service"
	"github.com/dayflow/internal/store"
	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"
)

// services 是命令行各子命令共用的服务集合
type services struct {
	store     *store.Store
	schedules *service.ScheduleService
	ledger    *service.LedgerService
	streak    *service.StreakService
	analytics *service.AnalyticsService
}

// openServices 按服务端相同的配置打开数据库
var openServices = func() (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	gdb, err := db.Open(cfg.DatabasePath, logger.Default.LogMode(logger.Silent))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	st := store.New(gdb, dateutil.NewClock(loc), store.Options{
		CapacityBytes: cfg.CapacityBytes,
		RetentionDays: cfg.RetentionDays,
	})
	return newServices(st), nil
}

func newServices(st *store.Store) *services {
	schedules := service.NewScheduleService(st)
	ledger := service.NewLedgerService(st)
	return &services{
		store:     st,
		schedules: schedules,
		ledger:    ledger,
		streak:    service.NewStreakService(st, schedules, ledger),
		analytics: service.NewAnalyticsService(st),
	}
}

func newStreakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Print the cached streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices()
			if err != nil {
				return err
			}
			printStreak(cmd.OutOrStdout(), svc.streak.Current())
			return nil
		},
	}
}

func newRepairStreakCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "repair-streak",
		Short: "Recompute the streak cache from stored history",
		Long: `repair-streak walks backward from today (or yesterday when today is not
yet complete) and rewrites the cached streak. Use it when a completion was
recorded without updating the streak.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, "before: ")
			printStreak(out, svc.streak.Current())
			if dryRun {
				return nil
			}
			fmt.Fprint(out, "after:  ")
			printStreak(out, svc.streak.Rebuild())
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only print the current cache")
	return cmd
}

func newPruneCmd() *cobra.Command {
	var before string
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove history and ad-hoc entries older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices()
			if err != nil {
				return err
			}
			cutoff := svc.store.RetentionCutoff()
			if before != "" {
				if !dateutil.IsValid(before) {
					return fmt.Errorf("--before must be YYYY-MM-DD, got %q", before)
				}
				cutoff = before
			}
			removed := svc.store.Prune(cutoff)
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d dated entries before %s\n", removed, cutoff)
			return nil
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "prune entries strictly before this date (default: retention cutoff)")
	return cmd
}

func newAnalyticsCmd() *cobra.Command {
	var days int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Print completion statistics for a trailing window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices()
			if err != nil {
				return err
			}
			report := svc.analytics.Report(svc.analytics.Window(days))
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(out, report)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", service.DefaultAnalyticsWindow, "window length in days")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func newGCOrphansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gc-orphans",
		Short: "Drop history entries that reference deleted schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices()
			if err != nil {
				return err
			}
			removed := svc.ledger.CollectOrphans(svc.schedules.List())
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d orphaned history entries\n", removed)
			return nil
		},
	}
}

func printStreak(w io.Writer, streak db.Streak) {
	last := streak.LastDay()
	if last == "" {
		last = "-"
	}
	fmt.Fprintf(w, "count=%d last_perfect_day=%s\n", streak.Count, last)
}

func printReport(w io.Writer, report service.Report) {
	for _, day := range report.Days {
		fmt.Fprintf(w, "%s %s %3d%% (%d/%d)\n", day.Date, dateutil.DayNames[day.Weekday], day.Pct, day.Done, day.Total)
	}
	fmt.Fprintf(w, "avg=%d%% done=%d perfect=%d schedules=%d\n",
		report.Summary.AverageCompletion, report.Summary.TasksDone, report.Summary.PerfectDays, report.Summary.Schedules)
	for _, row := range report.Breakdown {
		fmt.Fprintf(w, "  %-24s %d/%d %d%%\n", row.Label, row.Done, row.Possible, row.Pct)
	}
}
