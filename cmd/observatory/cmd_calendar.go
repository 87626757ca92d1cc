/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/observatory/internal/calendar"
	"github.com/friendsincode/observatory/internal/schedule"
	"github.com/friendsincode/observatory/internal/scheduling"
)

var importICSCmd = &cobra.Command{
	Use:   "import-ics <file>",
	Short: "Import busy time from an .ics file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportICS,
}

var exportICSCmd = &cobra.Command{
	Use:   "export-ics",
	Short: "Export scheduled tasks as an .ics file",
	RunE:  runExportICS,
}

var syncCalendarCmd = &cobra.Command{
	Use:   "sync-calendar",
	Short: "Pull events from Google Calendar into the local store",
	RunE:  runSyncCalendar,
}

// Window flags shared by the calendar commands.
var (
	windowFrom string
	windowDays int
	exportOut  string
)

func init() {
	rootCmd.AddCommand(importICSCmd)
	rootCmd.AddCommand(exportICSCmd)
	rootCmd.AddCommand(syncCalendarCmd)

	for _, c := range []*cobra.Command{importICSCmd, exportICSCmd, syncCalendarCmd} {
		c.Flags().StringVar(&windowFrom, "from", "", "First day of the window, YYYY-MM-DD (defaults to today)")
		c.Flags().IntVar(&windowDays, "days", 14, "Number of days in the window")
	}
	exportICSCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Write to this file instead of stdout")
}

func window() (time.Time, time.Time, error) {
	if windowDays <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("--days must be positive")
	}
	loc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	var from time.Time
	if windowFrom == "" {
		y, m, d := time.Now().In(loc).Date()
		from = time.Date(y, m, d, 0, 0, 0, 0, loc)
	} else {
		from, err = time.ParseInLocation(scheduling.DateLayout, windowFrom, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
		}
	}
	return from, from.AddDate(0, 0, windowDays), nil
}

func runImportICS(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	userID, err := currentUser()
	if err != nil {
		return err
	}
	from, to, err := window()
	if err != nil {
		return err
	}

	_, st, closeDB, err := initPlanner()
	if err != nil {
		return err
	}
	defer closeDB()

	loc, _ := time.LoadLocation(cfg.DefaultTimezone)
	src := schedule.FileSource{Path: args[0], Location: loc}
	n, err := calendar.Sync(cmd.Context(), src, st, nil, userID, "ics:"+filepath.Base(args[0]), from, to, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d events from %s\n", n, args[0])
	return nil
}

func runExportICS(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	userID, err := currentUser()
	if err != nil {
		return err
	}
	from, to, err := window()
	if err != nil {
		return err
	}

	svc, _, closeDB, err := initPlanner()
	if err != nil {
		return err
	}
	defer closeDB()

	tasks, err := svc.ScheduledTasks(cmd.Context(), userID, from, to)
	if err != nil {
		return err
	}
	data, err := schedule.ExportTasks(tasks, time.Now())
	if err != nil {
		return err
	}

	if exportOut == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportOut, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	logger.Info().Str("file", exportOut).Int("tasks", len(tasks)).Msg("schedule exported")
	return nil
}

func runSyncCalendar(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	if !cfg.GoogleCalendarEnabled() {
		return fmt.Errorf("google calendar is not configured (set OBSERVATORY_GOOGLE_CLIENT_ID, OBSERVATORY_GOOGLE_CLIENT_SECRET and OBSERVATORY_GOOGLE_REFRESH_TOKEN)")
	}
	userID, err := currentUser()
	if err != nil {
		return err
	}
	from, to, err := window()
	if err != nil {
		return err
	}

	_, st, closeDB, err := initPlanner()
	if err != nil {
		return err
	}
	defer closeDB()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	provider, err := calendar.NewGoogleProvider(ctx, calendar.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RefreshToken: cfg.GoogleRefreshToken,
		CalendarID:   cfg.GoogleCalendarID,
	}, logger)
	if err != nil {
		return err
	}

	n, err := calendar.Sync(ctx, provider, st, nil, userID, cfg.GoogleCalendarID, from, to, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "synced %d events from %s\n", n, provider.Name())
	return nil
}
