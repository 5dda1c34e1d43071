package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/screening-desk/internal/rendering"
	"github.com/jonathan/screening-desk/internal/types"
)

func testView() rendering.View {
	p := rendering.NewPresenter(rendering.FilteredVariant, rendering.DefaultResumeResolver, "")
	view := p.Render([]types.Applicant{
		{ID: "HR-APP-0001", CandidateID: "CAND-1", Name: "Asha Rao", ResumeReference: "asha.pdf", Category: types.CategoryWhite},
		{ID: "HR-APP-0002", Name: "Bilal Khan", ScreeningStatus: types.StatusShortlisted},
	})
	view.Filters = p.FilterForm(types.FilterCriteria{Category: types.CategoryWhite})
	return view
}

func TestPrintView(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintView(testView())
	output := buf.String()

	assert.Contains(t, output, "JOB APPLICANT SCREENING")
	assert.Contains(t, output, "Filters: category=White")
	assert.Contains(t, output, "Showing 2 applicants")
	assert.Contains(t, output, "CAND-1")
	assert.Contains(t, output, "Asha Rao")
	assert.Contains(t, output, "/files/asha.pdf")
	assert.Contains(t, output, "Status: Shortlisted")
	assert.Equal(t, 1, strings.Count(output, "interview can be scheduled"))
}

func TestPrintView_MaxRows(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf).WithMaxRows(1)

	p.PrintView(testView())
	output := buf.String()

	assert.Contains(t, output, "Asha Rao")
	assert.NotContains(t, output, "Bilal Khan")
	assert.Contains(t, output, "... and 1 more applicants")
}

func TestPrintView_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	presenter := rendering.NewPresenter(rendering.BasicVariant, rendering.DefaultResumeResolver, "")
	p.PrintView(presenter.RenderError())

	assert.Contains(t, buf.String(), rendering.LoadErrorMessage)
	assert.NotContains(t, buf.String(), "Filters:")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("x", boxWidth*2))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)))
	}
	assert.Contains(t, buf.String(), "...")
}

func TestPrintNotice(t *testing.T) {
	tests := []struct {
		name   string
		notice types.Notice
		want   string
	}{
		{"success", types.Notice{Kind: types.NoticeSuccess, Message: "Updated successfully"}, "✅ Updated successfully\n"},
		{"titled error", types.Notice{Kind: types.NoticeError, Title: "Error", Message: "Failed to update"}, "⚠ Error: Failed to update\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).PrintNotice(tt.notice)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrintImportJob(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	job := &types.ImportJob{Name: "SRI-0001", Status: types.ImportCompleted, Summary: "42 messages imported"}
	p.PrintImportJob(job, []rendering.ImportButton{
		{Label: "Run Import", Hint: "Please upload a Slack export ZIP first."},
		{Label: "Add me to Slack workspace", Enabled: true},
	})
	output := buf.String()

	assert.Contains(t, output, "SLACK TO RAVEN IMPORT SRI-0001")
	assert.Contains(t, output, "Slack Export:  -")
	assert.Contains(t, output, "Workspace:     Slack")
	assert.Contains(t, output, "✗ Run Import (Please upload a Slack export ZIP first.)")
	assert.Contains(t, output, "• Add me to Slack workspace")
	assert.Contains(t, output, "42 messages imported")
}

func TestPrintImportJob_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintImportJob(nil, nil)
	assert.Empty(t, buf.String())
}

func TestPrintInterviewDraft(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	draft := &types.InterviewDraft{
		Name:           "new-interview-1",
		JobApplicant:   "HR-APP-0001",
		InterviewRound: "Call Round Interview",
		ScheduledOn:    "2026-03-02",
		FromTime:       "10:00",
	}
	p.PrintInterviewDraft(draft, "https://erp.example.com")
	output := buf.String()

	assert.Contains(t, output, "NEW INTERVIEW")
	assert.Contains(t, output, "HR-APP-0001")
	assert.Contains(t, output, "Resume Link:     -")
	assert.Contains(t, output, "2026-03-02 10:00--")
	assert.Contains(t, output, "https://erp.example.com/app/interview/new?")
}
