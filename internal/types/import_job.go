package types

import "strings"

// DoctypeSlackImport is the backend document type for Slack export imports.
const DoctypeSlackImport = "Slack To Raven Import"

// Import job statuses as written by the backend.
const (
	ImportNotStarted = "Not Started"
	ImportRunning    = "Running"
	ImportCompleted  = "Completed"
	ImportFailed     = "Failed"
)

// DefaultWorkspace is used when an import job has no workspace name.
const DefaultWorkspace = "Slack"

// ImportJob is a Slack To Raven Import document.
type ImportJob struct {
	Name          string `json:"name"`
	IsNew         bool   `json:"-"`
	SlackExport   string `json:"slack_export,omitempty"`
	WorkspaceName string `json:"workspace_name,omitempty"`
	Status        string `json:"status,omitempty"`
	Summary       string `json:"summary,omitempty"`
}

// Workspace returns the trimmed workspace name, falling back to DefaultWorkspace.
func (j *ImportJob) Workspace() string {
	if ws := strings.TrimSpace(j.WorkspaceName); ws != "" {
		return ws
	}
	return DefaultWorkspace
}

// ImportResult is returned by the backend after an import run.
type ImportResult struct {
	Status  string `json:"status"`
	Summary string `json:"summary,omitempty"`
}

// Succeeded reports whether the run finished as Completed.
func (r ImportResult) Succeeded() bool {
	return r.Status == ImportCompleted
}
