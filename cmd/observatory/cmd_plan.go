/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <task-id>",
	Short: "Suggest a time slot for a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

var checkCmd = &cobra.Command{
	Use:   "check <task-id>",
	Short: "Check a proposed placement for conflicts",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

var (
	suggestDate string
	checkStart  string
	checkEnd    string
)

func init() {
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(checkCmd)

	suggestCmd.Flags().StringVar(&suggestDate, "date", "", "Day to search, YYYY-MM-DD (defaults to today)")

	checkCmd.Flags().StringVar(&checkStart, "start", "", "Proposed start, RFC 3339 (required)")
	checkCmd.Flags().StringVar(&checkEnd, "end", "", "Proposed end, RFC 3339 (required)")
	checkCmd.MarkFlagRequired("start")
	checkCmd.MarkFlagRequired("end")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	userID, err := currentUser()
	if err != nil {
		return err
	}

	svc, _, closeDB, err := initPlanner()
	if err != nil {
		return err
	}
	defer closeDB()

	suggestion, err := svc.Suggest(cmd.Context(), userID, args[0], suggestDate)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !suggestion.Found {
		fmt.Fprintf(out, "%s on %s.\n", suggestion.Message, suggestion.Date)
		fmt.Fprintln(out, "Try one of:")
		for _, d := range suggestion.Alternatives {
			fmt.Fprintf(out, "  %s\n", d)
		}
		return nil
	}

	fmt.Fprintf(out, "%s - %s (%d min)\n",
		suggestion.Slot.Start.Format(time.RFC3339),
		suggestion.Slot.End.Format(time.RFC3339),
		suggestion.Slot.DurationMinutes)
	fmt.Fprintln(out, suggestion.Reasoning)
	for _, e := range suggestion.Conflicts {
		fmt.Fprintf(out, "  overlaps %q (%s - %s)\n", e.Title, e.Start.Format(time.Kitchen), e.End.Format(time.Kitchen))
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	userID, err := currentUser()
	if err != nil {
		return err
	}

	start, err := time.Parse(time.RFC3339, checkStart)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, checkEnd)
	if err != nil {
		return fmt.Errorf("--end: %w", err)
	}

	svc, _, closeDB, err := initPlanner()
	if err != nil {
		return err
	}
	defer closeDB()

	report, err := svc.Check(cmd.Context(), userID, args[0], start, end)
	if err != nil {
		return err
	}
	return writeIndentedJSON(cmd.OutOrStdout(), report)
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
