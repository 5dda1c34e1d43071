package server

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/jonathan/screening-desk/internal/frappe"
	"github.com/jonathan/screening-desk/internal/rendering"
	"github.com/jonathan/screening-desk/internal/screening"
	"github.com/jonathan/screening-desk/internal/types"
)

// keepAliveInterval is how often an idle event stream is pinged.
const keepAliveInterval = 25 * time.Second

func screeningPath(variant rendering.Variant) string {
	return "/app/screening/" + variant.Key
}

// variantFor resolves the {variant} path segment.
func variantFor(r *http.Request) (rendering.Variant, error) {
	key := r.PathValue("variant")
	variant, ok := rendering.VariantByKey(key)
	if !ok || key == "" {
		return rendering.Variant{}, &ErrUnknownVariant{Key: key}
	}
	return variant, nil
}

// newPage is the PageFactory for the server's sessions.
func (s *Server) newPage(variant rendering.Variant, onEvent func(screening.Event)) *screening.Page {
	return screening.NewPage(s.records, screening.Options{
		Variant:     variant,
		Resolver:    s.resolver,
		DeskURL:     s.deskURL,
		ReloadDelay: s.cfg.ReloadDelay(),
		ListLimit:   s.cfg.ListLimit,
		OnEvent:     onEvent,
	})
}

// screeningPage returns the session's page for the request's variant, mounting
// it on first use. loadErr is the first mount's load failure.
func (s *Server) screeningPage(r *http.Request) (sess *Session, page *screening.Page, variant rendering.Variant, loadErr error, err error) {
	variant, err = variantFor(r)
	if err != nil {
		return nil, nil, variant, nil, err
	}
	sess = sessionFrom(r)
	page = sess.Page(variant, s.newPage)

	if mountErr := page.Mount(r.Context()); mountErr != nil {
		if errors.Is(mountErr, screening.ErrUnmounted) {
			return nil, nil, variant, nil, mountErr
		}
		loadErr = mountErr
	}
	return sess, page, variant, loadErr, nil
}

// handleScreeningIndex redirects to the configured default page.
func (s *Server) handleScreeningIndex(w http.ResponseWriter, r *http.Request) {
	variant, _ := rendering.VariantByKey(s.cfg.Variant)
	http.Redirect(w, r, screeningPath(variant), http.StatusSeeOther)
}

// handleScreeningPage renders the screening table with any pending notices.
func (s *Server) handleScreeningPage(w http.ResponseWriter, r *http.Request) {
	sess, page, variant, loadErr, err := s.screeningPage(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	// The error view asks the operator to refresh, so a refresh retries.
	if loadErr == nil && page.LoadFailed() {
		loadErr = page.Load(r.Context())
		if errors.Is(loadErr, screening.ErrUnmounted) {
			s.errorResponse(w, HTTPStatus(loadErr), loadErr.Error())
			return
		}
	}

	notices := sess.TakeFlash()
	if loadErr != nil {
		notices = append(notices, loadFailedNotice(loadErr))
	}
	s.renderScreening(w, variant, page.View(), notices)
}

// handleSetFilters replaces the page's filter criteria.
func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	sess, page, variant, _, err := s.screeningPage(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	criteria, err := types.ParseCriteria(
		r.PostFormValue("category"),
		r.PostFormValue("status"),
		r.PostFormValue("from_date"),
		r.PostFormValue("to_date"),
		s.loc,
	)
	if err != nil {
		sess.Flash(errorNotice((&ErrValidation{Field: "filters", Message: err.Error()}).Error()))
	} else if _, err := page.SetCriteria(criteria); err != nil {
		sess.Flash(errorNotice(err.Error()))
	}

	http.Redirect(w, r, screeningPath(variant), http.StatusSeeOther)
}

// handleReload re-fetches the applicant list.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	sess, page, variant, loadErr, err := s.screeningPage(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	// A page mounted by this request has just loaded.
	if loadErr == nil {
		loadErr = page.Load(r.Context())
	}
	if loadErr != nil {
		sess.Flash(loadFailedNotice(loadErr))
	}

	http.Redirect(w, r, screeningPath(variant), http.StatusSeeOther)
}

// handleSaveRow stages the row's submitted control values and saves them.
func (s *Server) handleSaveRow(w http.ResponseWriter, r *http.Request) {
	sess, page, variant, _, err := s.screeningPage(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	defer http.Redirect(w, r, screeningPath(variant), http.StatusSeeOther)

	if err := r.ParseForm(); err != nil {
		sess.Flash(errorNotice(screening.MsgUpdateFailed + ": " + err.Error()))
		return
	}
	req := types.SaveRowRequest{
		ID:              r.PathValue("id"),
		Category:        r.PostForm.Get(string(types.FieldCategory)),
		ScreeningStatus: r.PostForm.Get(string(types.FieldScreeningStatus)),
	}
	if err := req.Validate(); err != nil {
		sess.Flash(errorNotice(screening.MsgUpdateFailed + ": " + err.Error()))
		return
	}

	for _, f := range []types.Field{types.FieldCategory, types.FieldScreeningStatus} {
		if _, present := r.PostForm[string(f)]; !present || !variant.Editable(f) {
			continue
		}
		if err := page.Stage(req.ID, f, r.PostForm.Get(string(f))); err != nil {
			sess.Flash(errorNotice(screening.MsgUpdateFailed + ": " + err.Error()))
			return
		}
	}

	notice, err := page.Save(r.Context(), req.ID)
	if err != nil {
		log.Printf("[server] save %s on %s page: %v", req.ID, variant.Key, err)
	}
	sess.Flash(notice)
}

// handleScheduleInterview prepares an Interview draft for the row and renders
// the new-interview form.
func (s *Server) handleScheduleInterview(w http.ResponseWriter, r *http.Request) {
	sess, page, variant, _, err := s.screeningPage(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	draft, err := page.ScheduleInterview(r.Context(), r.PathValue("id"))
	if err != nil {
		sess.Flash(screening.NoticeFor(err))
		http.Redirect(w, r, screeningPath(variant), http.StatusSeeOther)
		return
	}

	s.renderInterview(w, http.StatusOK, draft, screeningPath(variant), nil)
}

// handleEvents streams the page's reload and notice events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	variant, err := variantFor(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	// Subscribe before the stream is opened to the client.
	events, cancel := sessionFrom(r).Subscribe(variant.Key)
	defer cancel()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				sse.WriteError("session expired")
				return
			}
			if err := sse.WritePageEvent(variant.Key, ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := sse.WriteComment("ping"); err != nil {
				return
			}
		}
	}
}

// renderScreening writes the screening page.
func (s *Server) renderScreening(w http.ResponseWriter, variant rendering.Variant, view rendering.View, notices []types.Notice) {
	var buf bytes.Buffer
	err := s.pages.Screening(&buf, rendering.ScreeningPage{
		BasePath: screeningPath(variant),
		View:     view,
		Notices:  notices,
	})
	s.writeHTML(w, http.StatusOK, &buf, err)
}

// writeHTML writes a rendered page, or a 500 when rendering failed.
func (s *Server) writeHTML(w http.ResponseWriter, status int, buf *bytes.Buffer, renderErr error) {
	if renderErr != nil {
		log.Printf("[server] render failed: %v", renderErr)
		s.errorResponse(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[server] write failed: %v", err)
	}
}

func loadFailedNotice(err error) types.Notice {
	return errorNotice(screening.MsgLoadFailed + ": " + frappe.Detail(err))
}

func errorNotice(msg string) types.Notice {
	return types.Notice{Kind: types.NoticeError, Title: "Error", Message: msg}
}
