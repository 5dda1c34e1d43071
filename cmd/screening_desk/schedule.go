package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/screening-desk/internal/observability"
	"github.com/jonathan/screening-desk/internal/rendering"
	"github.com/jonathan/screening-desk/internal/screening"
	"github.com/jonathan/screening-desk/internal/types"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule APPLICANT",
	Short: "Prepare a screening-call Interview for an applicant",
	Long:  "Makes sure the screening-call interview round exists, loads the applicant and prints the Interview draft with its desk link. With --create the Interview is inserted.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedule,
}

var (
	scheduleCreate bool
	scheduleOn     string
	scheduleFrom   string
	scheduleTo     string
)

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleCreate, "create", false, "Insert the Interview instead of only printing the draft")
	scheduleCmd.Flags().StringVar(&scheduleOn, "on", "", "Interview date (YYYY-MM-DD)")
	scheduleCmd.Flags().StringVar(&scheduleFrom, "from", "", "Start time (HH:MM)")
	scheduleCmd.Flags().StringVar(&scheduleTo, "to", "", "End time (HH:MM)")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	printer := observability.NewPrinter(cmd.OutOrStdout())

	b, err := openBackend(ctx, true)
	if err != nil {
		return err
	}
	defer b.Close()

	page := b.newPage(rendering.FilteredVariant)
	defer page.Unmount()

	if err := page.Mount(ctx); err != nil {
		return fmt.Errorf("failed to load applicants: %w", err)
	}

	draft, err := page.ScheduleInterview(ctx, args[0])
	if err != nil {
		return errors.New(screening.NoticeFor(err).Message)
	}
	draft.ScheduledOn = scheduleOn
	draft.FromTime = scheduleFrom
	draft.ToTime = scheduleTo

	printer.PrintInterviewDraft(draft, b.source.DeskURL())
	if !scheduleCreate {
		return nil
	}

	if err := draft.Validate(); err != nil {
		return fmt.Errorf("invalid interview: %w", err)
	}
	name, err := b.source.InsertInterview(ctx, draft)
	if err != nil {
		return fmt.Errorf("failed to create interview: %w", err)
	}
	printer.PrintNotice(types.Notice{Kind: types.NoticeSuccess, Message: "Interview created: " + name})
	return nil
}
