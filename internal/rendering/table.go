package rendering

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/screening-desk/internal/filter"
	"github.com/jonathan/screening-desk/internal/types"
)

// Messages shown in place of table rows.
const (
	NoApplicantsMessage = "No applicants found"
	LoadingMessage      = "Loading..."
	LoadErrorMessage    = "Error loading data. Please refresh the page."
)

// Headers are the screening table column titles.
var Headers = []string{
	"Candidate ID",
	"Applicant Name",
	"Resume Link",
	"Degree",
	"Expected CTC",
	"Category",
	"Screening Status",
	"Actions",
}

// Variant configures one flavour of the screening page.
type Variant struct {
	Key               string
	Title             string
	Policy            filter.Policy
	Filterable        bool
	StatusEditable    bool
	ScheduleInterview bool
	Fields            types.FieldMap
	FilterStatuses    []types.ScreeningStatus
}

// BasicVariant is the plain screening table: no filter controls, every
// applicant shown, both category and status editable.
var BasicVariant = Variant{
	Key:            "basic",
	Title:          "Job Applicant Screening",
	Policy:         filter.PolicyShowAll,
	StatusEditable: true,
	Fields:         types.CompactFields,
}

// FilteredVariant adds filter controls, hides Hold and Black by default, shows
// status read-only and offers the schedule-interview action.
var FilteredVariant = Variant{
	Key:               "filtered",
	Title:             "Job Applicant Screening",
	Policy:            filter.PolicyHideByDefault,
	Filterable:        true,
	ScheduleInterview: true,
	Fields:            types.DetailedFields,
	FilterStatuses: []types.ScreeningStatus{
		types.StatusPendingScreening,
		types.StatusShortlisted,
		types.StatusScreeningCallScheduled,
		types.StatusOnHold,
		types.StatusNotEligible,
		types.StatusAccepted,
		types.StatusRejected,
		types.StatusHired,
	},
}

// VariantByKey looks up a predefined variant. An empty key selects FilteredVariant.
func VariantByKey(key string) (Variant, bool) {
	switch key {
	case "", FilteredVariant.Key:
		return FilteredVariant, true
	case BasicVariant.Key:
		return BasicVariant, true
	default:
		return Variant{}, false
	}
}

// Editable reports whether f is operator-editable in this variant.
func (v Variant) Editable(f types.Field) bool {
	switch f {
	case types.FieldCategory:
		return true
	case types.FieldScreeningStatus:
		return v.StatusEditable
	default:
		return false
	}
}

// Option is one entry of a select control.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Control is a category or status cell.
type Control struct {
	Field    types.Field
	Editable bool
	Value    string
	// Display is the text shown for a read-only control.
	Display string
	Options []Option
}

// Row is one rendered applicant.
type Row struct {
	ID                   string
	CandidateLabel       string
	CandidateURL         string
	Name                 string
	ResumeURL            string
	Degree               string
	Compensation         string
	Category             Control
	Status               Control
	CanScheduleInterview bool
	Busy                 bool
}

// FilterForm holds the filter controls of a filterable page.
type FilterForm struct {
	Category []Option
	Status   []Option
	FromDate string
	ToDate   string
}

// View is the complete rendered state of a screening table.
type View struct {
	Title   string
	Variant string
	Headers []string
	Rows    []Row
	// Message replaces the rows when there are none to show.
	Message string
	IsError bool
	Filters *FilterForm
}

// ErrUnknownRow is returned when staging or reading a row that is not rendered.
var ErrUnknownRow = errors.New("row is not on the page")

// FieldError reports a staged value the row's control cannot hold.
type FieldError struct {
	Field types.Field
	Value string
	Msg   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s (%q)", e.Field, e.Msg, e.Value)
}

// Presenter renders applicant records into a View and keeps the operator's
// staged edits until they are saved or the data is reloaded. It is not safe
// for concurrent use.
type Presenter struct {
	variant  Variant
	resolver ResumeResolver
	deskURL  string
	rendered map[string]types.Applicant
	staged   map[string]map[types.Field]string
}

// NewPresenter creates a presenter for variant. deskURL is the backend's base
// URL used for record links; it may be empty for relative links.
func NewPresenter(variant Variant, resolver ResumeResolver, deskURL string) *Presenter {
	return &Presenter{
		variant:  variant,
		resolver: resolver,
		deskURL:  strings.TrimRight(deskURL, "/"),
		rendered: make(map[string]types.Applicant),
		staged:   make(map[string]map[types.Field]string),
	}
}

// Variant returns the presenter's page variant.
func (p *Presenter) Variant() Variant {
	return p.variant
}

// Render replaces the previously rendered rows with records. Rendering the
// same records twice yields the same view.
func (p *Presenter) Render(records []types.Applicant) View {
	p.rendered = make(map[string]types.Applicant, len(records))

	view := View{
		Title:   p.variant.Title,
		Variant: p.variant.Key,
		Headers: Headers,
		Rows:    make([]Row, 0, len(records)),
	}
	for _, a := range records {
		p.rendered[a.ID] = a
		view.Rows = append(view.Rows, p.row(a))
	}
	if len(view.Rows) == 0 {
		view.Message = NoApplicantsMessage
	}
	return view
}

// RenderError returns a view with no rows and the load error message.
func (p *Presenter) RenderError() View {
	p.rendered = make(map[string]types.Applicant)
	return View{
		Title:   p.variant.Title,
		Variant: p.variant.Key,
		Headers: Headers,
		Message: LoadErrorMessage,
		IsError: true,
	}
}

func (p *Presenter) row(a types.Applicant) Row {
	r := Row{
		ID:             a.ID,
		CandidateLabel: firstNonEmpty(a.CandidateID, a.ID, Placeholder),
		Name:           firstNonEmpty(a.Name, Placeholder),
		ResumeURL:      p.resolver.Resolve(a.ResumeReference),
		Degree:         firstNonEmpty(a.Degree, Placeholder),
		Compensation:   CompensationText(a.CompensationUpperBound, firstNonEmpty(a.CurrencyCode, p.variant.Fields.DefaultCurrency)),
	}
	if a.ID != "" {
		r.CandidateURL = p.deskURL + "/app/job-applicant/" + url.PathEscape(a.ID)
	}

	category := p.stagedOr(a.ID, types.FieldCategory, string(a.Category))
	r.Category = Control{
		Field:    types.FieldCategory,
		Editable: true,
		Value:    category,
		Display:  firstNonEmpty(category, Placeholder),
		Options:  categoryOptions(category),
	}

	status := p.stagedOr(a.ID, types.FieldScreeningStatus, string(a.ScreeningStatus))
	r.Status = Control{
		Field:    types.FieldScreeningStatus,
		Editable: p.variant.StatusEditable,
		Value:    status,
		Display:  firstNonEmpty(status, string(types.StatusPendingScreening)),
	}
	if r.Status.Editable {
		r.Status.Options = statusOptions(types.ScreeningStatuses, status, "-- Select --")
	}

	// The interview action follows the saved category, not a staged one.
	r.CanScheduleInterview = p.variant.ScheduleInterview && a.Category == types.CategoryWhite
	return r
}

// FilterForm renders the filter controls for criteria, or nil when the
// variant has none.
func (p *Presenter) FilterForm(c types.FilterCriteria) *FilterForm {
	if !p.variant.Filterable {
		return nil
	}
	form := &FilterForm{
		Category: []Option{{Value: "", Label: "All", Selected: c.Category == types.CategoryUnset}},
		Status:   statusOptions(p.variant.FilterStatuses, string(c.Status), "All"),
		FromDate: types.FormValue(c.FromDate),
		ToDate:   types.FormValue(c.ToDate),
	}
	for _, cat := range types.Categories {
		form.Category = append(form.Category, Option{Value: string(cat), Label: string(cat), Selected: c.Category == cat})
	}
	return form
}

// Stage records an edited control value for a rendered row.
func (p *Presenter) Stage(id string, f types.Field, value string) error {
	if _, ok := p.rendered[id]; !ok {
		return ErrUnknownRow
	}
	if !p.variant.Editable(f) {
		return &FieldError{Field: f, Value: value, Msg: "not editable on this page"}
	}
	switch f {
	case types.FieldCategory:
		if !types.Category(value).IsValid() {
			return &FieldError{Field: f, Value: value, Msg: "unknown category"}
		}
	case types.FieldScreeningStatus:
		if !types.ScreeningStatus(value).IsValid() {
			return &FieldError{Field: f, Value: value, Msg: "unknown screening status"}
		}
	}

	if p.staged[id] == nil {
		p.staged[id] = make(map[types.Field]string)
	}
	p.staged[id][f] = value
	return nil
}

// Staged reads back the values of a row's editable controls: the staged value
// where one exists, otherwise the value the row was rendered with.
func (p *Presenter) Staged(id string) (map[types.Field]string, error) {
	a, ok := p.rendered[id]
	if !ok {
		return nil, ErrUnknownRow
	}
	out := map[types.Field]string{
		types.FieldCategory: p.stagedOr(id, types.FieldCategory, string(a.Category)),
	}
	if p.variant.StatusEditable {
		out[types.FieldScreeningStatus] = p.stagedOr(id, types.FieldScreeningStatus, string(a.ScreeningStatus))
	}
	return out, nil
}

// ClearStaged discards all staged edits.
func (p *Presenter) ClearStaged() {
	p.staged = make(map[string]map[types.Field]string)
}

func (p *Presenter) stagedOr(id string, f types.Field, current string) string {
	if v, ok := p.staged[id][f]; ok {
		return v
	}
	return current
}

func categoryOptions(selected string) []Option {
	opts := []Option{{Value: "", Label: "-- Select --", Selected: selected == ""}}
	for _, c := range types.Categories {
		opts = append(opts, Option{Value: string(c), Label: string(c), Selected: selected == string(c)})
	}
	return opts
}

func statusOptions(statuses []types.ScreeningStatus, selected, blankLabel string) []Option {
	opts := []Option{{Value: "", Label: blankLabel, Selected: selected == ""}}
	for _, s := range statuses {
		opts = append(opts, Option{Value: string(s), Label: string(s), Selected: selected == string(s)})
	}
	return opts
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
