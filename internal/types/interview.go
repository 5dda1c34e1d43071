package types

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DoctypeInterview is the backend document type for interviews.
const DoctypeInterview = "Interview"

// InterviewDraft is an Interview that has been prepared for the operator but
// not yet created in the record source.
type InterviewDraft struct {
	Name           string `json:"name"`
	JobApplicant   string `json:"job_applicant" validate:"required"`
	InterviewRound string `json:"interview_round" validate:"required"`
	ResumeLink     string `json:"resume_link,omitempty"`

	// Schedule, filled in by the operator before the interview is created.
	ScheduledOn string `json:"scheduled_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
	FromTime    string `json:"from_time,omitempty" validate:"omitempty,datetime=15:04"`
	ToTime      string `json:"to_time,omitempty" validate:"omitempty,datetime=15:04"`
}

// NewInterviewDraft creates a draft for applicant in round with a local
// placeholder name, the way the backend desk names unsaved documents.
func NewInterviewDraft(applicantID, round, resumeLink string) *InterviewDraft {
	return &InterviewDraft{
		Name:           "new-interview-" + strings.SplitN(uuid.NewString(), "-", 2)[0],
		JobApplicant:   applicantID,
		InterviewRound: round,
		ResumeLink:     resumeLink,
	}
}

// Doc returns the draft as a backend document suitable for an insert call.
func (d *InterviewDraft) Doc() map[string]any {
	doc := map[string]any{
		"doctype":         DoctypeInterview,
		"job_applicant":   d.JobApplicant,
		"interview_round": d.InterviewRound,
	}
	for key, value := range map[string]string{
		"resume_link":  d.ResumeLink,
		"scheduled_on": d.ScheduledOn,
		"from_time":    timeOfDay(d.FromTime),
		"to_time":      timeOfDay(d.ToTime),
	} {
		if value != "" {
			doc[key] = value
		}
	}
	return doc
}

// Validate checks that the draft can be inserted.
func (d *InterviewDraft) Validate() error {
	if err := validator.New().Struct(d); err != nil {
		return err
	}
	if d.FromTime != "" && d.ToTime != "" && d.ToTime < d.FromTime {
		return fmt.Errorf("to time %s is before from time %s", d.ToTime, d.FromTime)
	}
	return nil
}

// timeOfDay expands an HH:MM form value to the backend's HH:MM:SS.
func timeOfDay(hhmm string) string {
	if hhmm == "" {
		return ""
	}
	return hhmm + ":00"
}

// DeskURL returns the backend desk route that opens a new Interview form
// pre-populated with the draft's fields.
func (d *InterviewDraft) DeskURL(deskBase string) string {
	q := url.Values{}
	q.Set("job_applicant", d.JobApplicant)
	q.Set("interview_round", d.InterviewRound)
	if d.ResumeLink != "" {
		q.Set("resume_link", d.ResumeLink)
	}
	return strings.TrimRight(deskBase, "/") + "/app/interview/new?" + q.Encode()
}
