package server

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/jonathan/screening-desk/internal/frappe"
	"github.com/jonathan/screening-desk/internal/rendering"
	"github.com/jonathan/screening-desk/internal/types"
)

// Notice texts for the new-interview form.
const (
	MsgInterviewCreated      = "Interview created"
	MsgInterviewFailed       = "Failed to create Interview"
	MsgInterviewNotSupported = "Interviews cannot be created from here; open the draft in the desk"
)

// handleCreateInterview inserts the submitted Interview draft.
func (s *Server) handleCreateInterview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	back := r.PostForm.Get("back")
	if !isAppPath(back) {
		back = "/app/screening"
	}
	draft := &types.InterviewDraft{
		Name:           r.PostForm.Get("draft"),
		JobApplicant:   strings.TrimSpace(r.PostForm.Get("job_applicant")),
		InterviewRound: strings.TrimSpace(r.PostForm.Get("interview_round")),
		ResumeLink:     s.resolver.Resolve(r.PostForm.Get("resume_link")),
		ScheduledOn:    r.PostForm.Get("scheduled_on"),
		FromTime:       r.PostForm.Get("from_time"),
		ToTime:         r.PostForm.Get("to_time"),
	}

	if s.interviews == nil {
		s.renderInterview(w, http.StatusNotImplemented, draft, back, []types.Notice{errorNotice(MsgInterviewNotSupported)})
		return
	}
	if err := draft.Validate(); err != nil {
		verr := &ErrValidation{Field: "interview", Message: err.Error()}
		s.renderInterview(w, HTTPStatus(verr), draft, back, []types.Notice{errorNotice(MsgInterviewFailed + ": " + verr.Error())})
		return
	}

	name, err := s.interviews.InsertInterview(r.Context(), draft)
	if err != nil {
		s.renderInterview(w, HTTPStatus(err), draft, back, []types.Notice{errorNotice(MsgInterviewFailed + ": " + frappe.Detail(err))})
		return
	}

	msg := MsgInterviewCreated
	if name != "" {
		msg += ": " + name
	}
	sessionFrom(r).Flash(types.Notice{Kind: types.NoticeSuccess, Message: msg})
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// renderInterview writes the new-interview form for draft.
func (s *Server) renderInterview(w http.ResponseWriter, status int, draft *types.InterviewDraft, back string, notices []types.Notice) {
	var buf bytes.Buffer
	err := s.pages.Interview(&buf, rendering.InterviewPage{
		Action:    "/app/interview",
		BackURL:   back,
		DeskURL:   draft.DeskURL(s.deskURL),
		CanCreate: s.interviews != nil,
		Draft:     draft,
		Notices:   notices,
	})
	s.writeHTML(w, status, &buf, err)
}
