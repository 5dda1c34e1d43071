package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/screening-desk/internal/observability"
	"github.com/jonathan/screening-desk/internal/rendering"
	"github.com/jonathan/screening-desk/internal/types"
)

var saveCmd = &cobra.Command{
	Use:   "save APPLICANT",
	Short: "Save an applicant's category and screening status",
	Long:  "Stages the given values on the applicant's row and saves them the way the page's Save button does. Only fields the page can edit are sent.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSave,
}

var (
	saveVariant  string
	saveCategory string
	saveStatus   string
)

func init() {
	saveCmd.Flags().StringVar(&saveVariant, "variant", rendering.BasicVariant.Key, "Screening page to save through")
	saveCmd.Flags().StringVar(&saveCategory, "category", "", "New category (White, Hold, Black)")
	saveCmd.Flags().StringVar(&saveStatus, "status", "", "New screening status")
	rootCmd.AddCommand(saveCmd)
}

func runSave(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]

	if !cmd.Flags().Changed("category") && !cmd.Flags().Changed("status") {
		return fmt.Errorf("nothing to save: pass --category or --status")
	}

	b, err := openBackend(ctx, true)
	if err != nil {
		return err
	}
	defer b.Close()

	variant, err := b.variantFor(saveVariant)
	if err != nil {
		return err
	}

	page := b.newPage(variant)
	defer page.Unmount()

	if err := page.Mount(ctx); err != nil {
		return fmt.Errorf("failed to load applicants: %w", err)
	}

	staged := []struct {
		flag  string
		field types.Field
		value string
	}{
		{"category", types.FieldCategory, saveCategory},
		{"status", types.FieldScreeningStatus, saveStatus},
	}
	for _, s := range staged {
		if !cmd.Flags().Changed(s.flag) {
			continue
		}
		if err := page.Stage(id, s.field, s.value); err != nil {
			return fmt.Errorf("cannot set %s on %s: %w", s.flag, id, err)
		}
	}

	notice, err := page.Save(ctx, id)
	if err != nil {
		return errors.New(notice.Message)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintNotice(notice)
	return nil
}
