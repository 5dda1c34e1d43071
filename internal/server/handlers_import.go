package server

import (
	"bytes"
	"log"
	"net/http"
	"net/url"

	"github.com/jonathan/screening-desk/internal/frappe"
	"github.com/jonathan/screening-desk/internal/importjob"
	"github.com/jonathan/screening-desk/internal/rendering"
	"github.com/jonathan/screening-desk/internal/types"
)

func importPath(name string) string {
	return "/app/slack-to-raven-import/" + url.PathEscape(name)
}

// loadImportJob fetches the {name} import document, writing the error
// response when it cannot.
func (s *Server) loadImportJob(w http.ResponseWriter, r *http.Request) (*types.ImportJob, bool) {
	if s.imports == nil {
		s.errorResponse(w, http.StatusNotFound, "the import form is not configured")
		return nil, false
	}
	job, err := s.imports.Load(r.Context(), r.PathValue("name"))
	if err != nil {
		log.Printf("[server] load import %s: %v", r.PathValue("name"), err)
		s.errorResponse(w, HTTPStatus(err), frappe.Detail(err))
		return nil, false
	}
	return job, true
}

// handleImportForm renders the import document with its action buttons.
func (s *Server) handleImportForm(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadImportJob(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := s.pages.Import(&buf, rendering.ImportPage{
		BasePath: importPath(job.Name),
		Job:      job,
		Buttons:  importjob.Buttons(job),
		Notices:  sessionFrom(r).TakeFlash(),
	})
	s.writeHTML(w, http.StatusOK, &buf, err)
}

// handleRunImport runs the import and reports its outcome.
func (s *Server) handleRunImport(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadImportJob(w, r)
	if !ok {
		return
	}

	notice, result, err := s.imports.RunImport(r.Context(), job)
	if err == nil && result != nil {
		log.Printf("[server] import %s finished: %s", job.Name, result.Status)
	}
	if notice != nil {
		sessionFrom(r).Flash(*notice)
	}
	http.Redirect(w, r, importPath(job.Name), http.StatusSeeOther)
}

// handleJoinWorkspace adds the current user to the import's workspace.
func (s *Server) handleJoinWorkspace(w http.ResponseWriter, r *http.Request) {
	job, ok := s.loadImportJob(w, r)
	if !ok {
		return
	}

	notice, _ := s.imports.JoinWorkspace(r.Context(), job)
	if notice != nil {
		sessionFrom(r).Flash(*notice)
	}
	http.Redirect(w, r, importPath(job.Name), http.StatusSeeOther)
}
