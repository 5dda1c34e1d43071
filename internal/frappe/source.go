package frappe

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/screening-desk/internal/schemas"
	"github.com/jonathan/screening-desk/internal/types"
)

// Methods names the site's whitelisted methods used by the screening desk.
type Methods struct {
	EnsureInterviewRound string
	RunImport            string
	JoinWorkspace        string
}

// DefaultMethods are the method paths of the alpinos app.
var DefaultMethods = Methods{
	EnsureInterviewRound: "alpinos.job_applicant_automation.ensure_call_round_interview_exists",
	RunImport:            "alpinos.slack_to_raven_import.run_slack_to_raven_import",
	JoinWorkspace:        "alpinos.slack_to_raven_import.add_current_user_to_slack_workspace",
}

// creationLayouts are the timestamp formats the backend uses for "creation".
var creationLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339Nano,
}

// Source exposes applicant, interview and import-job operations over a Client.
type Source struct {
	client  *Client
	methods Methods
	loc     *time.Location
}

// NewSource creates a Source. Backend timestamps carry no zone and are read in loc.
func NewSource(client *Client, methods Methods, loc *time.Location) *Source {
	if loc == nil {
		loc = time.Local
	}
	return &Source{client: client, methods: methods, loc: loc}
}

// DeskURL returns the backend site URL, used for links into its desk UI.
func (s *Source) DeskURL() string {
	return s.client.BaseURL()
}

// ListApplicants lists Job Applicants using the columns of q.Fields.
func (s *Source) ListApplicants(ctx context.Context, q types.ListQuery) ([]types.Applicant, error) {
	docs, err := s.client.GetList(ctx, types.DoctypeJobApplicant, q.Fields.ListColumns(), q.OrderBy, q.Limit)
	if err != nil {
		return nil, err
	}

	return DecodeApplicants(docs, q.Fields, s.loc), nil
}

// DecodeApplicants validates and decodes a listed page of documents. A
// document that fails either step is logged and left out; the rest are kept
// in order.
func DecodeApplicants(docs []map[string]any, fields types.FieldMap, loc *time.Location) []types.Applicant {
	out := make([]types.Applicant, 0, len(docs))
	for i, doc := range docs {
		if err := schemas.ValidateDocument(schemas.JobApplicant, doc); err != nil {
			log.Printf("[frappe] skipping Job Applicant %q (row %d): %v", stringValue(doc["name"]), i, err)
			continue
		}
		a, err := DecodeApplicant(doc, fields, loc)
		if err != nil {
			log.Printf("[frappe] skipping Job Applicant %q (row %d): %v", stringValue(doc["name"]), i, err)
			continue
		}
		out = append(out, a)
	}
	return out
}

// GetApplicant fetches one Job Applicant. It returns nil when the backend
// returned no document.
func (s *Source) GetApplicant(ctx context.Context, fields types.FieldMap, id string) (*types.Applicant, error) {
	doc, err := s.client.Get(ctx, types.DoctypeJobApplicant, id)
	if err != nil || doc == nil {
		return nil, err
	}
	if err := schemas.ValidateDocument(schemas.JobApplicant, doc); err != nil {
		return nil, &TransportError{Method: "frappe.client.get", Message: "unexpected Job Applicant document", Cause: err}
	}
	a, err := DecodeApplicant(doc, fields, s.loc)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateApplicant writes only the given fields of one Job Applicant.
func (s *Source) UpdateApplicant(ctx context.Context, fields types.FieldMap, id string, values map[types.Field]string) error {
	encoded := make(map[string]any, len(values))
	for f, v := range values {
		col := fields.Column(f)
		if col == "" {
			return fmt.Errorf("field %s has no column in the %s field map", f, fields.Name)
		}
		encoded[col] = v
	}
	_, err := s.client.SetValue(ctx, types.DoctypeJobApplicant, id, encoded)
	return err
}

// EnsureInterviewRound asks the backend for the screening-call interview round,
// creating it there if needed. It returns "" when the backend returned nothing.
func (s *Source) EnsureInterviewRound(ctx context.Context) (string, error) {
	var round string
	if _, err := s.client.CallInto(ctx, s.methods.EnsureInterviewRound, nil, &round); err != nil {
		return "", err
	}
	return strings.TrimSpace(round), nil
}

// InsertInterview creates the Interview described by draft and returns its name.
func (s *Source) InsertInterview(ctx context.Context, draft *types.InterviewDraft) (string, error) {
	saved, err := s.client.Insert(ctx, draft.Doc())
	if err != nil {
		return "", err
	}
	return stringValue(saved["name"]), nil
}

// GetImportJob fetches a Slack To Raven Import document.
func (s *Source) GetImportJob(ctx context.Context, name string) (*types.ImportJob, error) {
	doc, err := s.client.Get(ctx, types.DoctypeSlackImport, name)
	if err != nil || doc == nil {
		return nil, err
	}
	if err := schemas.ValidateDocument(schemas.SlackToRavenImport, doc); err != nil {
		return nil, &TransportError{Method: "frappe.client.get", Message: "unexpected import document", Cause: err}
	}
	return &types.ImportJob{
		Name:          stringValue(doc["name"]),
		IsNew:         isLocal(doc),
		SlackExport:   stringValue(doc["slack_export"]),
		WorkspaceName: stringValue(doc["workspace_name"]),
		Status:        stringValue(doc["status"]),
		Summary:       stringValue(doc["summary"]),
	}, nil
}

// RunImport runs the import job named docname on the backend and waits for it
// to finish.
func (s *Source) RunImport(ctx context.Context, docname string) (*types.ImportResult, error) {
	msg, err := s.client.Call(ctx, s.methods.RunImport, map[string]any{"docname": docname})
	if err != nil || msg == nil {
		return nil, err
	}
	if err := schemas.ValidateJSON(schemas.ImportResult, msg); err != nil {
		return nil, &TransportError{Method: s.methods.RunImport, Message: "unexpected import result", Cause: err}
	}
	var result types.ImportResult
	if err := json.Unmarshal(msg, &result); err != nil {
		return nil, &TransportError{Method: s.methods.RunImport, Message: "unexpected import result", Cause: err}
	}
	log.Printf("[frappe] import %s finished with status %s", docname, result.Status)
	return &result, nil
}

// JoinWorkspace adds the calling user to the named chat workspace and returns
// the backend's confirmation message, which may be empty.
func (s *Source) JoinWorkspace(ctx context.Context, workspace string) (string, error) {
	var reply struct {
		Message string `json:"message"`
	}
	if _, err := s.client.CallInto(ctx, s.methods.JoinWorkspace, map[string]any{"workspace_name": workspace}, &reply); err != nil {
		return "", err
	}
	return reply.Message, nil
}

// DecodeApplicant maps a backend document onto an Applicant using fields.
func DecodeApplicant(doc map[string]any, fields types.FieldMap, loc *time.Location) (types.Applicant, error) {
	get := func(f types.Field) any {
		col := fields.Column(f)
		if col == "" {
			return nil
		}
		return doc[col]
	}

	a := types.Applicant{
		ID:                     stringValue(get(types.FieldID)),
		CandidateID:            stringValue(get(types.FieldCandidateID)),
		Name:                   stringValue(get(types.FieldName)),
		ResumeReference:        stringValue(get(types.FieldResume)),
		Degree:                 stringValue(get(types.FieldDegree)),
		CompensationUpperBound: numberValue(get(types.FieldCompensation)),
		CurrencyCode:           stringValue(get(types.FieldCurrency)),
		Category:               types.Category(stringValue(get(types.FieldCategory))),
		ScreeningStatus:        types.ScreeningStatus(stringValue(get(types.FieldScreeningStatus))),
	}
	if a.ID == "" {
		return types.Applicant{}, &TransportError{Method: "decode", Message: "applicant record has no name"}
	}

	if raw := stringValue(get(types.FieldCreatedAt)); raw != "" {
		created, err := parseTimestamp(raw, loc)
		if err != nil {
			return types.Applicant{}, &TransportError{Method: "decode", Message: fmt.Sprintf("applicant %s has an invalid creation time", a.ID), Cause: err}
		}
		a.CreatedAt = &created
	}
	return a, nil
}

func parseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	var lastErr error
	for _, layout := range creationLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// numberValue reads a numeric field, accepting numeric strings. Anything else
// is treated as absent.
func numberValue(v any) *float64 {
	switch x := v.(type) {
	case float64:
		return &x
	case int:
		f := float64(x)
		return &f
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil
		}
		return &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// isLocal reports whether the document has not been saved yet.
func isLocal(doc map[string]any) bool {
	if v, ok := doc["__islocal"]; ok {
		switch x := v.(type) {
		case bool:
			return x
		case float64:
			return x != 0
		}
	}
	return strings.HasPrefix(stringValue(doc["name"]), "new-")
}
