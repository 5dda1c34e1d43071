// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/screening-desk/internal/rendering"
	"github.com/jonathan/screening-desk/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxRowsToShow is the default number of applicants to display
	maxRowsToShow = 25
)

// Printer handles formatted output for the CLI
type Printer struct {
	out     io.Writer
	maxRows int
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, maxRows: maxRowsToShow}
}

// WithMaxRows sets how many applicant rows PrintView lists. Zero or less
// lists them all.
func (p *Printer) WithMaxRows(n int) *Printer {
	p.maxRows = n
	return p
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// PrintView outputs the rows of a rendered screening table.
func (p *Printer) PrintView(view rendering.View) {
	var sb strings.Builder

	if view.Filters != nil {
		if f := describeFilters(view.Filters); f != "" {
			sb.WriteString(fmt.Sprintf("Filters: %s\n\n", f))
		}
	}

	if len(view.Rows) == 0 {
		sb.WriteString(view.Message)
		p.printBox(strings.ToUpper(view.Title), sb.String())
		return
	}

	sb.WriteString(fmt.Sprintf("Showing %d applicants:\n\n", len(view.Rows)))

	count := len(view.Rows)
	if p.maxRows > 0 {
		count = min(count, p.maxRows)
	}
	for i := 0; i < count; i++ {
		row := view.Rows[i]
		sb.WriteString(fmt.Sprintf("%-14s %s\n", truncate(row.CandidateLabel, 14), row.Name))
		sb.WriteString(fmt.Sprintf("    Category: %-6s Status: %s\n", row.Category.Display, row.Status.Display))
		sb.WriteString(fmt.Sprintf("    Degree: %s  CTC: %s\n", row.Degree, row.Compensation))
		if row.ResumeURL != "" {
			sb.WriteString(fmt.Sprintf("    Resume: %s\n", row.ResumeURL))
		}
		if row.CanScheduleInterview {
			sb.WriteString("    ✓ interview can be scheduled\n")
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(view.Rows) > count {
		sb.WriteString(fmt.Sprintf("\n... and %d more applicants", len(view.Rows)-count))
	}

	p.printBox(strings.ToUpper(view.Title), strings.TrimSuffix(sb.String(), "\n"))
}

// describeFilters summarises the active filter selections.
func describeFilters(f *rendering.FilterForm) string {
	var parts []string
	for _, o := range f.Category {
		if o.Selected && o.Value != "" {
			parts = append(parts, "category="+o.Value)
		}
	}
	for _, o := range f.Status {
		if o.Selected && o.Value != "" {
			parts = append(parts, "status="+o.Value)
		}
	}
	if f.FromDate != "" {
		parts = append(parts, "from="+f.FromDate)
	}
	if f.ToDate != "" {
		parts = append(parts, "to="+f.ToDate)
	}
	return strings.Join(parts, " ")
}

// PrintNotice outputs a single notice line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintNotice(n types.Notice) {
	mark := "✅"
	if n.Blocking() {
		mark = "⚠"
	}
	if n.Title != "" {
		fmt.Fprintf(p.out, "%s %s: %s\n", mark, n.Title, n.Message)
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", mark, n.Message)
}

// PrintImportJob outputs an import document and the actions available on it.
func (p *Printer) PrintImportJob(job *types.ImportJob, buttons []rendering.ImportButton) {
	if job == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Slack Export:  %s\n", orDash(job.SlackExport)))
	sb.WriteString(fmt.Sprintf("Workspace:     %s\n", job.Workspace()))
	sb.WriteString(fmt.Sprintf("Status:        %s\n", orDash(job.Status)))

	if len(buttons) > 0 {
		sb.WriteString("\nActions:\n")
		for _, b := range buttons {
			if b.Enabled {
				sb.WriteString(fmt.Sprintf("  • %s\n", b.Label))
			} else {
				sb.WriteString(fmt.Sprintf("  ✗ %s (%s)\n", b.Label, b.Hint))
			}
		}
	}

	if job.Summary != "" {
		sb.WriteString("\n")
		sb.WriteString(job.Summary)
	}

	p.printBox("SLACK TO RAVEN IMPORT "+job.Name, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintInterviewDraft outputs a prepared Interview and the desk link that
// opens it.
func (p *Printer) PrintInterviewDraft(draft *types.InterviewDraft, deskBase string) {
	if draft == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Draft:           %s\n", draft.Name))
	sb.WriteString(fmt.Sprintf("Job Applicant:   %s\n", draft.JobApplicant))
	sb.WriteString(fmt.Sprintf("Interview Round: %s\n", draft.InterviewRound))
	sb.WriteString(fmt.Sprintf("Resume Link:     %s\n", orDash(draft.ResumeLink)))
	if draft.ScheduledOn != "" {
		sb.WriteString(fmt.Sprintf("Scheduled On:    %s %s-%s\n", draft.ScheduledOn, orDash(draft.FromTime), orDash(draft.ToTime)))
	}
	if deskBase != "" {
		sb.WriteString(fmt.Sprintf("\n%s", draft.DeskURL(deskBase)))
	}

	p.printBox("NEW INTERVIEW", strings.TrimSuffix(sb.String(), "\n"))
}

func orDash(s string) string {
	if s == "" {
		return rendering.Placeholder
	}
	return s
}
