// Package screening runs the applicant screening page: it owns the cached
// applicant list and filter state of one page instance and dispatches the
// operator's save and schedule-interview actions to the record source.
package screening

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

// RecordSource is the system of record for Job Applicants.
type RecordSource interface {
	ListApplicants(ctx context.Context, q types.ListQuery) ([]types.Applicant, error)
	GetApplicant(ctx context.Context, fields types.FieldMap, id string) (*types.Applicant, error)
	UpdateApplicant(ctx context.Context, fields types.FieldMap, id string, values map[types.Field]string) error
	// EnsureInterviewRound finds or creates the screening-call interview
	// round and returns its name, or "" when none could be produced.
	EnsureInterviewRound(ctx context.Context) (string, error)
}

// Notice texts.
const (
	MsgUpdated             = "Updated successfully"
	MsgUpdateFailed        = "Failed to update"
	MsgRoundMissing        = "Could not create or find Interview Round"
	MsgRoundFailed         = "Failed to setup Interview Round"
	MsgApplicantMissing    = "Could not load Job Applicant details"
	MsgApplicantLoadFailed = "Failed to load Job Applicant"
	MsgInFlight            = "Please wait for the previous action to finish"
)

// Action names used as in-flight guard keys.
const (
	ActionSave              = "save"
	ActionScheduleInterview = "schedule_interview"
)

// ErrActionInFlight is returned when an action is re-triggered for a row
// before the previous attempt has finished.
var ErrActionInFlight = inflight.ErrActionInFlight

// Steps of the schedule-interview flow.
const (
	StepInterviewRound = "interview_round"
	StepLoadApplicant  = "load_applicant"
)

// ErrMissingID is returned when an action is dispatched without a row id.
var ErrMissingID = errors.New("applicant id is required")

// StepError reports which step of the schedule-interview flow failed. Cause is
// nil when the step completed but produced nothing.
type StepError struct {
	Step  string
	Cause error
}

func (e *StepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("schedule interview: %s: %v", e.Step, e.Cause)
	}
	return fmt.Sprintf("schedule interview: %s: no result", e.Step)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// Notice returns the blocking notice shown for the failure.
func (e *StepError) Notice() types.Notice {
	var msg string
	switch {
	case e.Step == StepInterviewRound && e.Cause == nil:
		msg = MsgRoundMissing
	case e.Step == StepInterviewRound:
		msg = MsgRoundFailed + ": " + frappe.Detail(e.Cause)
	case e.Cause == nil:
		msg = MsgApplicantMissing
	default:
		msg = MsgApplicantLoadFailed + ": " + frappe.Detail(e.Cause)
	}
	return errorNotice(msg)
}

// Dispatcher forwards operator actions to the record source. Every call is
// attempted once; failures are reported, never retried.
type Dispatcher struct {
	src      RecordSource
	fields   types.FieldMap
	resolver rendering.ResumeResolver
	guard    *inflight.Guard
}

// NewDispatcher creates a dispatcher writing through fields.
func NewDispatcher(src RecordSource, fields types.FieldMap, resolver rendering.ResumeResolver) *Dispatcher {
	return &Dispatcher{
		src:      src,
		fields:   fields,
		resolver: resolver,
		guard:    inflight.NewGuard(),
	}
}

// Busy reports whether an action is pending for row id.
func (d *Dispatcher) Busy(id string) bool {
	return d.guard.Busy(id)
}

// Save sends staged, a partial field map, as the update for applicant id. The
// returned notice is the success confirmation or the blocking failure report;
// err is non-nil exactly when the save did not happen.
func (d *Dispatcher) Save(ctx context.Context, id string, staged map[types.Field]string) (types.Notice, error) {
	if id == "" {
		return errorNotice(MsgUpdateFailed + ": " + ErrMissingID.Error()), ErrMissingID
	}

	release, err := d.guard.TryBegin(id, ActionSave)
	if err != nil {
		return errorNotice(MsgInFlight), err
	}
	defer release()

	if err := d.src.UpdateApplicant(ctx, d.fields, id, staged); err != nil {
		log.Printf("[screening] save %s failed: %v", id, err)
		return errorNotice(MsgUpdateFailed + ": " + frappe.Detail(err)), err
	}

	log.Printf("[screening] saved %s", id)
	return types.Notice{Kind: types.NoticeSuccess, Message: MsgUpdated}, nil
}

// ScheduleInterview prepares an Interview draft for applicant id. The
// interview round must exist before the applicant is read. Nothing is created
// in the record source; the operator submits the draft separately. Failures
// are returned as *StepError.
func (d *Dispatcher) ScheduleInterview(ctx context.Context, id string) (*types.InterviewDraft, error) {
	if id == "" {
		return nil, ErrMissingID
	}

	release, err := d.guard.TryBegin(id, ActionScheduleInterview)
	if err != nil {
		return nil, err
	}
	defer release()

	round, err := d.src.EnsureInterviewRound(ctx)
	if err != nil {
		log.Printf("[screening] ensure interview round failed: %v", err)
		return nil, &StepError{Step: StepInterviewRound, Cause: err}
	}
	if round == "" {
		return nil, &StepError{Step: StepInterviewRound}
	}

	applicant, err := d.src.GetApplicant(ctx, d.fields, id)
	if err != nil {
		log.Printf("[screening] load applicant %s failed: %v", id, err)
		return nil, &StepError{Step: StepLoadApplicant, Cause: err}
	}
	if applicant == nil {
		return nil, &StepError{Step: StepLoadApplicant}
	}

	draft := types.NewInterviewDraft(applicant.ID, round, d.resolver.Resolve(applicant.ResumeReference))
	log.Printf("[screening] prepared interview draft %s for %s", draft.Name, applicant.ID)
	return draft, nil
}

// NoticeFor converts an action error into the blocking notice shown for it.
func NoticeFor(err error) types.Notice {
	var stepErr *StepError
	switch {
	case errors.As(err, &stepErr):
		return stepErr.Notice()
	case errors.Is(err, ErrActionInFlight):
		return errorNotice(MsgInFlight)
	default:
		return errorNotice(frappe.Detail(err))
	}
}

func errorNotice(msg string) types.Notice {
	return types.Notice{Kind: types.NoticeError, Title: "Error", Message: msg}
}
