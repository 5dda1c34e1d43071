package db

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/screening-desk/internal/frappe"
	"github.com/jonathan/screening-desk/internal/types"
)

// Table and row-owner names used by the backend's schema.
const (
	applicantTable      = "tabJob Applicant"
	interviewRoundTable = "tabInterview Round"
	systemUser          = "Administrator"
)

// CallRoundInterview is the interview round used for screening calls.
const CallRoundInterview = "Call Round Interview"

var orderByPattern = regexp.MustCompile(`^\s*([a-z_][a-z0-9_]*)(?:\s+(asc|desc))?\s*$`)

// ListApplicants lists Job Applicants using the columns of q.Fields.
func (db *DB) ListApplicants(ctx context.Context, q types.ListQuery) ([]types.Applicant, error) {
	cols := q.Fields.ListColumns()
	query, args, err := buildListQuery(cols, q.OrderBy, q.Limit)
	if err != nil {
		return nil, err
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applicants: %w", err)
	}
	defer rows.Close()

	docs := []map[string]any{}
	for rows.Next() {
		doc, err := scanDocument(rows, cols)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list applicants: %w", err)
	}
	return frappe.DecodeApplicants(docs, q.Fields, db.loc), nil
}

// GetApplicant retrieves one Job Applicant. It returns nil when no record
// has that name.
func (db *DB) GetApplicant(ctx context.Context, fields types.FieldMap, id string) (*types.Applicant, error) {
	cols := fields.ListColumns()
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE "name" = $1`, selectList(cols), pgx.Identifier{applicantTable}.Sanitize())

	rows, err := db.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get applicant %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get applicant %s: %w", id, err)
		}
		return nil, nil
	}
	doc, err := scanDocument(rows, cols)
	if err != nil {
		return nil, err
	}
	a, err := frappe.DecodeApplicant(doc, fields, db.loc)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateApplicant writes only the given fields of one Job Applicant and bumps
// its modified timestamp.
func (db *DB) UpdateApplicant(ctx context.Context, fields types.FieldMap, id string, values map[types.Field]string) error {
	query, args, err := buildUpdate(fields, id, values)
	if err != nil {
		return err
	}

	result, err := db.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update applicant %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return &frappe.ApplicationError{
			Method:   "set_value",
			ExcType:  "DoesNotExistError",
			Messages: []string{fmt.Sprintf("Job Applicant %s not found", id)},
		}
	}
	log.Printf("[db] updated applicant %s (%d fields)", id, len(values))
	return nil
}

// EnsureInterviewRound creates the screening-call interview round if it does
// not exist and returns its name.
func (db *DB) EnsureInterviewRound(ctx context.Context) (string, error) {
	_, err := db.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (name, round_name, expected_average_rating, owner, modified_by, creation, modified, docstatus)
		 VALUES ($1, $1, 0, $2, $2, NOW(), NOW(), 0)
		 ON CONFLICT (name) DO NOTHING`, pgx.Identifier{interviewRoundTable}.Sanitize()),
		CallRoundInterview, systemUser,
	)
	if err != nil {
		return "", fmt.Errorf("failed to ensure interview round: %w", err)
	}
	return CallRoundInterview, nil
}

// scanDocument reads one row selected with selectList(cols). Every column is
// selected as text so the row decodes exactly like a document from the API.
func scanDocument(rows pgx.Rows, cols []string) (map[string]any, error) {
	values := make([]*string, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to scan applicant: %w", err)
	}

	doc := make(map[string]any, len(cols))
	for i, col := range cols {
		if values[i] != nil {
			doc[col] = *values[i]
		}
	}
	return doc, nil
}

func selectList(cols []string) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = pgx.Identifier{col}.Sanitize() + "::text"
	}
	return strings.Join(parts, ", ")
}

func buildListQuery(cols []string, orderBy string, limit int) (string, []any, error) {
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("no columns to select")
	}

	query := fmt.Sprintf("SELECT %s FROM %s", selectList(cols), pgx.Identifier{applicantTable}.Sanitize())
	if orderBy != "" {
		m := orderByPattern.FindStringSubmatch(strings.ToLower(orderBy))
		if m == nil {
			return "", nil, fmt.Errorf("unsupported order %q", orderBy)
		}
		query += " ORDER BY " + pgx.Identifier{m[1]}.Sanitize()
		if m[2] != "" {
			query += " " + strings.ToUpper(m[2])
		}
	}

	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}
	return query, args, nil
}

func buildUpdate(fields types.FieldMap, id string, values map[types.Field]string) (string, []any, error) {
	if id == "" {
		return "", nil, fmt.Errorf("applicant id is required")
	}
	if len(values) == 0 {
		return "", nil, fmt.Errorf("no fields to update")
	}

	cols := make([]string, 0, len(values))
	byCol := make(map[string]string, len(values))
	for f, v := range values {
		col := fields.Column(f)
		if col == "" {
			return "", nil, fmt.Errorf("field %s has no column in the %s field map", f, fields.Name)
		}
		cols = append(cols, col)
		byCol[col] = v
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", pgx.Identifier{col}.Sanitize(), i+1))
		args = append(args, byCol[col])
	}
	sets = append(sets, `"modified" = NOW()`)
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE "name" = $%d`,
		pgx.Identifier{applicantTable}.Sanitize(), strings.Join(sets, ", "), len(args))
	return query, args, nil
}
