// Package importjob implements the actions of the Slack To Raven Import form.
// The import itself runs on the record backend; this package gates the
// buttons and reports the outcome.
package importjob

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jonathan/screening-desk/internal/frappe"
	"github.com/jonathan/screening-desk/internal/inflight"
	"github.com/jonathan/screening-desk/internal/rendering"
	"github.com/jonathan/screening-desk/internal/types"
)

// Button labels and action paths.
const (
	LabelRunImport     = "Run Import"
	LabelJoinWorkspace = "Add me to Slack workspace"
	ActionRun          = "run"
	ActionJoin         = "join"
)

// Notice texts.
const (
	MsgMissingExport = "Please upload a Slack export ZIP first."
	TitleFinished    = "Slack Import Finished"
	TitleDone        = "Done"
)

var (
	// ErrMissingExport is returned by RunImport when no export is attached.
	ErrMissingExport = errors.New("slack export is not attached")
	// ErrNewDocument is returned for actions on an unsaved import document.
	ErrNewDocument = errors.New("import document has not been saved")
)

// Backend runs imports and workspace membership changes on the record backend.
type Backend interface {
	GetImportJob(ctx context.Context, name string) (*types.ImportJob, error)
	RunImport(ctx context.Context, docname string) (*types.ImportResult, error)
	JoinWorkspace(ctx context.Context, workspace string) (string, error)
}

// Buttons returns the form's action buttons. A new document has none.
func Buttons(job *types.ImportJob) []rendering.ImportButton {
	if job == nil || job.IsNew {
		return nil
	}
	run := rendering.ImportButton{
		Label:   LabelRunImport,
		Action:  ActionRun,
		Primary: true,
		Enabled: job.SlackExport != "",
	}
	if !run.Enabled {
		run.Hint = MsgMissingExport
	}
	return []rendering.ImportButton{
		run,
		{Label: LabelJoinWorkspace, Action: ActionJoin, Enabled: true},
	}
}

// Form dispatches the import form's actions.
type Form struct {
	backend Backend
	guard   *inflight.Guard
}

// NewForm creates a form over backend.
func NewForm(backend Backend) *Form {
	return &Form{backend: backend, guard: inflight.NewGuard()}
}

// Load fetches the import document named name.
func (f *Form) Load(ctx context.Context, name string) (*types.ImportJob, error) {
	job, err := f.backend.GetImportJob(ctx, name)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, &frappe.ApplicationError{
			Method:   "frappe.client.get",
			ExcType:  "DoesNotExistError",
			Messages: []string{fmt.Sprintf("%s %s not found", types.DoctypeSlackImport, name)},
		}
	}
	return job, nil
}

// RunImport runs job on the backend and waits for it to finish. The notice is
// nil when the backend returned no result.
func (f *Form) RunImport(ctx context.Context, job *types.ImportJob) (*types.Notice, *types.ImportResult, error) {
	if job.IsNew {
		return errorNotice(ErrNewDocument.Error()), nil, ErrNewDocument
	}
	if job.SlackExport == "" {
		return errorNotice(MsgMissingExport), nil, ErrMissingExport
	}

	release, err := f.guard.TryBegin(job.Name, ActionRun)
	if err != nil {
		return errorNotice("An import is already running for " + job.Name), nil, err
	}
	defer release()

	log.Printf("[import] running %s", job.Name)
	result, err := f.backend.RunImport(ctx, job.Name)
	if err != nil {
		log.Printf("[import] %s failed: %v", job.Name, err)
		return errorNotice(frappe.Detail(err)), nil, err
	}
	if result == nil {
		return nil, nil, nil
	}

	kind := types.NoticeError
	if result.Succeeded() {
		kind = types.NoticeSuccess
	}
	return &types.Notice{
		Kind:    kind,
		Title:   TitleFinished,
		Message: "Status: " + result.Status,
	}, result, nil
}

// JoinWorkspace adds the current user to job's workspace. The notice is nil
// when the backend sent no confirmation message.
func (f *Form) JoinWorkspace(ctx context.Context, job *types.ImportJob) (*types.Notice, error) {
	if job.IsNew {
		return errorNotice(ErrNewDocument.Error()), ErrNewDocument
	}

	workspace := job.Workspace()
	msg, err := f.backend.JoinWorkspace(ctx, workspace)
	if err != nil {
		log.Printf("[import] join %s failed: %v", workspace, err)
		return errorNotice(frappe.Detail(err)), err
	}
	if msg == "" {
		return nil, nil
	}
	return &types.Notice{Kind: types.NoticeSuccess, Title: TitleDone, Message: msg}, nil
}

func errorNotice(msg string) *types.Notice {
	return &types.Notice{Kind: types.NoticeError, Title: "Error", Message: msg}
}
