// Package types provides type definitions for structured data used throughout the screening desk.
package types

import "time"

// DoctypeJobApplicant is the backend document type holding applicant records.
const DoctypeJobApplicant = "Job Applicant"

// Category is the operator-assigned screening classification of an applicant.
type Category string

// Category values. CategoryUnset is the blank value a fresh applicant carries.
const (
	CategoryUnset Category = ""
	CategoryWhite Category = "White"
	CategoryHold  Category = "Hold"
	CategoryBlack Category = "Black"
)

// Categories lists the selectable categories in display order.
var Categories = []Category{CategoryWhite, CategoryHold, CategoryBlack}

// IsValid reports whether c is one of the known categories, including unset.
func (c Category) IsValid() bool {
	switch c {
	case CategoryUnset, CategoryWhite, CategoryHold, CategoryBlack:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// ScreeningStatus is a stage label in the applicant screening workflow.
type ScreeningStatus string

// Screening stages, in the order the workflow advances.
const (
	StatusPendingScreening       ScreeningStatus = "Pending Screening"
	StatusShortlisted            ScreeningStatus = "Shortlisted"
	StatusScreeningCallScheduled ScreeningStatus = "Screening Call Scheduled"
	StatusOnHold                 ScreeningStatus = "On Hold"
	StatusNotEligible            ScreeningStatus = "Not Eligible"
	StatusInterviewScheduled     ScreeningStatus = "Interview Scheduled"
	StatusAccepted               ScreeningStatus = "Accepted"
	StatusRejected               ScreeningStatus = "Rejected"
	StatusHired                  ScreeningStatus = "Hired"
)

// ScreeningStatuses is the fixed ordered set of stage labels.
var ScreeningStatuses = []ScreeningStatus{
	StatusPendingScreening,
	StatusShortlisted,
	StatusScreeningCallScheduled,
	StatusOnHold,
	StatusNotEligible,
	StatusInterviewScheduled,
	StatusAccepted,
	StatusRejected,
	StatusHired,
}

// IsValid reports whether s is one of the known stage labels. The blank
// status is valid and means "not yet screened".
func (s ScreeningStatus) IsValid() bool {
	if s == "" {
		return true
	}
	for _, known := range ScreeningStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s ScreeningStatus) String() string {
	return string(s)
}

// Applicant is a Job Applicant record as read from the record source.
// Optional fields are empty strings or nil pointers when absent.
type Applicant struct {
	ID                     string          `json:"id"`
	CandidateID            string          `json:"candidate_id,omitempty"`
	Name                   string          `json:"name,omitempty"`
	ResumeReference        string          `json:"resume_reference,omitempty"`
	Degree                 string          `json:"degree,omitempty"`
	CompensationUpperBound *float64        `json:"compensation_upper_bound,omitempty"`
	CurrencyCode           string          `json:"currency_code,omitempty"`
	Category               Category        `json:"category,omitempty"`
	ScreeningStatus        ScreeningStatus `json:"screening_status,omitempty"`
	CreatedAt              *time.Time      `json:"created_at,omitempty"`
}

// Field names a logical applicant field that the screening pages can edit or
// display. The record source maps it to a backend fieldname via FieldMap.
type Field string

// Logical applicant fields.
const (
	FieldID              Field = "id"
	FieldCandidateID     Field = "candidate_id"
	FieldName            Field = "name"
	FieldResume          Field = "resume"
	FieldDegree          Field = "degree"
	FieldCompensation    Field = "compensation"
	FieldCurrency        Field = "currency"
	FieldCategory        Field = "category"
	FieldScreeningStatus Field = "screening_status"
	FieldCreatedAt       Field = "created_at"
)

// FieldMap binds logical fields to the backend's fieldnames. The two page
// variants in production read different columns for the resume and the
// expected compensation, so the mapping is data rather than code.
type FieldMap struct {
	Name            string
	Columns         map[Field]string
	DefaultCurrency string
}

// Column returns the backend fieldname for f, or "" when the map does not
// carry that field.
func (m FieldMap) Column(f Field) string {
	return m.Columns[f]
}

// ListColumns returns the backend fieldnames to request from a list call, in a
// stable order.
func (m FieldMap) ListColumns() []string {
	order := []Field{
		FieldID, FieldCandidateID, FieldName, FieldResume, FieldDegree,
		FieldCompensation, FieldCurrency, FieldCategory, FieldScreeningStatus,
		FieldCreatedAt,
	}
	cols := make([]string, 0, len(order))
	for _, f := range order {
		if c := m.Columns[f]; c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// DetailedFields is the mapping used by the filter-capable screening page.
var DetailedFields = FieldMap{
	Name: "detailed",
	Columns: map[Field]string{
		FieldID:              "name",
		FieldCandidateID:     "candidate_id",
		FieldName:            "applicant_name",
		FieldResume:          "resume_attachment",
		FieldDegree:          "degree",
		FieldCompensation:    "upper_range",
		FieldCurrency:        "currency",
		FieldCategory:        "candidate_category",
		FieldScreeningStatus: "screening_status",
		FieldCreatedAt:       "creation",
	},
}

// CompactFields is the mapping used by the basic screening page. It has no
// currency column, so amounts are shown in DefaultCurrency.
var CompactFields = FieldMap{
	Name: "compact",
	Columns: map[Field]string{
		FieldID:              "name",
		FieldCandidateID:     "candidate_id",
		FieldName:            "applicant_name",
		FieldResume:          "resume_link",
		FieldDegree:          "degree",
		FieldCompensation:    "employment_expected_ctc",
		FieldCategory:        "candidate_category",
		FieldScreeningStatus: "screening_status",
		FieldCreatedAt:       "creation",
	},
	DefaultCurrency: "INR",
}

// ListQuery describes a list call against the record source.
type ListQuery struct {
	Fields  FieldMap
	OrderBy string
	// Limit caps the number of records; 0 means unbounded.
	Limit int
}
