package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jonathan/screening-desk/internal/importjob"
	"github.com/jonathan/screening-desk/internal/observability"
	"github.com/jonathan/screening-desk/internal/types"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Work with Slack To Raven Import documents",
}

var importShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show an import document and its available actions",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportShow,
}

var importRunCmd = &cobra.Command{
	Use:   "run NAME",
	Short: "Run the import and wait for it to finish",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportRun,
}

var importJoinCmd = &cobra.Command{
	Use:   "join NAME",
	Short: "Add the API user to the import's Slack workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportJoin,
}

func init() {
	importCmd.AddCommand(importShowCmd, importRunCmd, importJoinCmd)
	rootCmd.AddCommand(importCmd)
}

// loadImport opens the backend and fetches the named import document.
func loadImport(cmd *cobra.Command, name string) (*importjob.Form, *types.ImportJob, error) {
	b, err := openBackend(cmd.Context(), false)
	if err != nil {
		return nil, nil, err
	}
	form := importjob.NewForm(b.source)
	job, err := form.Load(cmd.Context(), name)
	if err != nil {
		return nil, nil, err
	}
	return form, job, nil
}

func runImportShow(cmd *cobra.Command, args []string) error {
	_, job, err := loadImport(cmd, args[0])
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintImportJob(job, importjob.Buttons(job))
	return nil
}

func runImportRun(cmd *cobra.Command, args []string) error {
	form, job, err := loadImport(cmd, args[0])
	if err != nil {
		return err
	}
	notice, _, err := form.RunImport(cmd.Context(), job)
	return reportNotice(cmd, notice, err)
}

func runImportJoin(cmd *cobra.Command, args []string) error {
	form, job, err := loadImport(cmd, args[0])
	if err != nil {
		return err
	}
	notice, err := form.JoinWorkspace(cmd.Context(), job)
	return reportNotice(cmd, notice, err)
}

// reportNotice prints a successful action's notice, or turns a failed one
// into the command's error.
func reportNotice(cmd *cobra.Command, notice *types.Notice, err error) error {
	if err != nil {
		if notice != nil {
			return errors.New(notice.Message)
		}
		return err
	}
	if notice != nil {
		observability.NewPrinter(cmd.OutOrStdout()).PrintNotice(*notice)
	}
	return nil
}
