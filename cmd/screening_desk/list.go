package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/screening-desk/internal/observability"
	"github.com/jonathan/screening-desk/internal/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List applicants as a screening page shows them",
	Long:  "Loads every Job Applicant, applies the page's filter policy and the given criteria, and prints the resulting table.",
	RunE:  runList,
}

var (
	listVariant  string
	listCategory string
	listStatus   string
	listFrom     string
	listTo       string
	listMaxRows  int
)

func init() {
	listCmd.Flags().StringVar(&listVariant, "variant", "", "Screening page: basic or filtered (default from config)")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Only show this category (White, Hold, Black)")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Only show this screening status")
	listCmd.Flags().StringVar(&listFrom, "from", "", "Created on or after this date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listTo, "to", "", "Created on or before this date (YYYY-MM-DD)")
	listCmd.Flags().IntVar(&listMaxRows, "max-rows", 25, "Maximum rows to print (0 for all)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	b, err := openBackend(ctx, true)
	if err != nil {
		return err
	}
	defer b.Close()

	variant, err := b.variantFor(listVariant)
	if err != nil {
		return err
	}

	criteria, err := types.ParseCriteria(listCategory, listStatus, listFrom, listTo, b.loc)
	if err != nil {
		return err
	}
	if !variant.Filterable && (criteria.Category != "" || criteria.Status != "" || criteria.HasDateBounds()) {
		return fmt.Errorf("the %s page has no filters", variant.Key)
	}

	page := b.newPage(variant)
	defer page.Unmount()

	if err := page.Mount(ctx); err != nil {
		return fmt.Errorf("failed to load applicants: %w", err)
	}
	view, err := page.SetCriteria(criteria)
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).WithMaxRows(listMaxRows).PrintView(view)
	return nil
}
