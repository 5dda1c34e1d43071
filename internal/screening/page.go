package screening

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jonathan/screening-desk/internal/filter"
	"github.com/jonathan/screening-desk/internal/frappe"
	"github.com/jonathan/screening-desk/internal/rendering"
	"github.com/jonathan/screening-desk/internal/types"
)

// DefaultReloadDelay is how long a page waits after a successful save before
// re-fetching, giving server-side automation time to settle.
const DefaultReloadDelay = 500 * time.Millisecond

// DefaultOrderBy lists newest applicants first.
const DefaultOrderBy = "creation desc"

// reloadTimeout bounds a timer-driven reload.
const reloadTimeout = time.Minute

// MsgLoadFailed prefixes the notice raised when the applicant list cannot be loaded.
const MsgLoadFailed = "Failed to load applicants"

var (
	// ErrUnmounted is returned by operations on a page that has been unmounted.
	ErrUnmounted = errors.New("page is unmounted")
	// ErrNotSchedulable is returned when an interview is requested for a row
	// that does not offer the action.
	ErrNotSchedulable = errors.New("interview scheduling is not available for this applicant")
)

// EventType names a page event pushed to connected browsers.
type EventType string

// Page events.
const (
	// EventReload means the view changed and should be fetched again.
	EventReload EventType = "reload"
	// EventNotice carries a notice raised outside of any request.
	EventNotice EventType = "notice"
)

// Event is emitted by a page for changes that happen outside a request.
type Event struct {
	Type   EventType
	Notice *types.Notice
}

// Options configures a Page.
type Options struct {
	Variant  rendering.Variant
	Resolver rendering.ResumeResolver
	// DeskURL is the record backend's base URL for record links.
	DeskURL     string
	ReloadDelay time.Duration
	// ListLimit caps the number of applicants fetched; 0 fetches all.
	ListLimit int
	// OnEvent receives events from timer-driven reloads. It is called without
	// the page lock held and may be nil.
	OnEvent func(Event)
}

// Page is one operator's screening page instance. It owns the cached
// applicant list, the filter criteria, staged edits and pending reload
// timers. It is safe for concurrent use; no lock is held across remote calls.
type Page struct {
	src         RecordSource
	dispatcher  *Dispatcher
	variant     rendering.Variant
	reloadDelay time.Duration
	listLimit   int
	onEvent     func(Event)

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	presenter  *rendering.Presenter
	mounted    bool
	unmounted  bool
	loadFailed bool
	generation uint64
	records    []types.Applicant
	criteria   types.FilterCriteria
	view       rendering.View
	timers     map[*time.Timer]struct{}
}

// NewPage creates an unmounted page reading from src.
func NewPage(src RecordSource, opts Options) *Page {
	if opts.ReloadDelay <= 0 {
		opts.ReloadDelay = DefaultReloadDelay
	}
	if opts.Variant.Key == "" {
		opts.Variant = rendering.FilteredVariant
	}
	if opts.Resolver.PublicPrefix == "" && len(opts.Resolver.PassthroughPrefixes) == 0 {
		opts.Resolver = rendering.DefaultResumeResolver
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Page{
		src:         src,
		dispatcher:  NewDispatcher(src, opts.Variant.Fields, opts.Resolver),
		variant:     opts.Variant,
		reloadDelay: opts.ReloadDelay,
		listLimit:   opts.ListLimit,
		onEvent:     opts.OnEvent,
		ctx:         ctx,
		cancel:      cancel,
		presenter:   rendering.NewPresenter(opts.Variant, opts.Resolver, opts.DeskURL),
		timers:      make(map[*time.Timer]struct{}),
	}
	p.view = p.presenter.Render(nil)
	p.view.Message = rendering.LoadingMessage
	p.view.Filters = p.presenter.FilterForm(p.criteria)
	return p
}

// Variant returns the page variant.
func (p *Page) Variant() rendering.Variant {
	return p.variant
}

// Mount loads the page for the first time. Mounting an already mounted page
// does nothing.
func (p *Page) Mount(ctx context.Context) error {
	p.mu.Lock()
	if p.unmounted {
		p.mu.Unlock()
		return ErrUnmounted
	}
	if p.mounted {
		p.mu.Unlock()
		return nil
	}
	p.mounted = true
	p.mu.Unlock()

	return p.Load(ctx)
}

// Mounted reports whether Mount has been called and the page is still live.
func (p *Page) Mounted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mounted && !p.unmounted
}

// LoadFailed reports whether the most recent load failed, leaving the page
// showing the load error instead of applicants.
func (p *Page) LoadFailed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadFailed
}

// Load re-fetches every applicant, discards staged edits and re-renders with
// the current criteria. On failure the view shows the load error message.
func (p *Page) Load(ctx context.Context) error {
	p.mu.Lock()
	if p.unmounted {
		p.mu.Unlock()
		return ErrUnmounted
	}
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	records, err := p.src.ListApplicants(ctx, types.ListQuery{
		Fields:  p.variant.Fields,
		OrderBy: DefaultOrderBy,
		Limit:   p.listLimit,
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unmounted {
		return ErrUnmounted
	}
	if gen != p.generation {
		// A later load has started; its result wins.
		return nil
	}

	p.presenter.ClearStaged()
	if err != nil {
		log.Printf("[screening] load failed: %v", err)
		p.records = nil
		p.loadFailed = true
		p.view = p.presenter.RenderError()
		p.view.Filters = p.presenter.FilterForm(p.criteria)
		return err
	}

	log.Printf("[screening] loaded %d applicants", len(records))
	p.records = records
	p.loadFailed = false
	p.render()
	return nil
}

// render re-applies the criteria to the cached list. Callers hold p.mu.
func (p *Page) render() {
	visible := filter.Apply(p.records, p.criteria, p.variant.Policy)
	view := p.presenter.Render(visible)
	view.Filters = p.presenter.FilterForm(p.criteria)
	p.view = view
}

// Criteria returns the current filter criteria.
func (p *Page) Criteria() types.FilterCriteria {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.criteria
}

// SetCriteria replaces the filter criteria and re-renders from the cached
// list without fetching.
func (p *Page) SetCriteria(c types.FilterCriteria) (rendering.View, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unmounted {
		return rendering.View{}, ErrUnmounted
	}
	if !p.variant.Filterable {
		c = types.FilterCriteria{}
	}
	p.criteria = c
	if p.loadFailed {
		p.view.Filters = p.presenter.FilterForm(p.criteria)
	} else {
		p.render()
	}
	return p.snapshot(), nil
}

// Stage records an edited control value for row id.
func (p *Page) Stage(id string, f types.Field, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unmounted {
		return ErrUnmounted
	}
	if err := p.presenter.Stage(id, f, value); err != nil {
		return err
	}
	p.render()
	return nil
}

// View returns the current rendered view with busy rows marked.
func (p *Page) View() rendering.View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

func (p *Page) snapshot() rendering.View {
	view := p.view
	view.Rows = make([]rendering.Row, len(p.view.Rows))
	copy(view.Rows, p.view.Rows)
	for i := range view.Rows {
		view.Rows[i].Busy = p.dispatcher.Busy(view.Rows[i].ID)
	}
	return view
}

// Save sends row id's editable control values to the record source. On
// success a full reload is scheduled after the reload delay.
func (p *Page) Save(ctx context.Context, id string) (types.Notice, error) {
	p.mu.Lock()
	if p.unmounted {
		p.mu.Unlock()
		return errorNotice(MsgUpdateFailed + ": " + ErrUnmounted.Error()), ErrUnmounted
	}
	staged, err := p.presenter.Staged(id)
	p.mu.Unlock()
	if err != nil {
		return errorNotice(MsgUpdateFailed + ": " + err.Error()), err
	}

	notice, err := p.dispatcher.Save(ctx, id, staged)
	if err != nil {
		return notice, err
	}
	p.scheduleReload()
	return notice, nil
}

// ScheduleInterview prepares an Interview draft for row id.
func (p *Page) ScheduleInterview(ctx context.Context, id string) (*types.InterviewDraft, error) {
	p.mu.Lock()
	if p.unmounted {
		p.mu.Unlock()
		return nil, ErrUnmounted
	}
	allowed, found := false, false
	for _, row := range p.view.Rows {
		if row.ID == id {
			found = true
			allowed = row.CanScheduleInterview
			break
		}
	}
	p.mu.Unlock()

	if !found {
		return nil, rendering.ErrUnknownRow
	}
	if !allowed {
		return nil, ErrNotSchedulable
	}
	return p.dispatcher.ScheduleInterview(ctx, id)
}

// Unmount stops pending reloads and cancels timer-driven calls. Later
// operations return ErrUnmounted.
func (p *Page) Unmount() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unmounted {
		return
	}
	p.unmounted = true
	for t := range p.timers {
		t.Stop()
	}
	p.timers = make(map[*time.Timer]struct{})
	p.cancel()
}

// PendingReloads returns the number of scheduled reloads that have not fired.
func (p *Page) PendingReloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}

func (p *Page) scheduleReload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unmounted {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(p.reloadDelay, func() {
		p.mu.Lock()
		if _, ok := p.timers[t]; !ok {
			p.mu.Unlock()
			return
		}
		delete(p.timers, t)
		p.mu.Unlock()

		ctx, cancel := context.WithTimeout(p.ctx, reloadTimeout)
		defer cancel()

		err := p.Load(ctx)
		if errors.Is(err, ErrUnmounted) {
			return
		}
		if err != nil {
			n := types.Notice{Kind: types.NoticeError, Title: "Error", Message: MsgLoadFailed + ": " + frappe.Detail(err)}
			p.emit(Event{Type: EventNotice, Notice: &n})
		}
		p.emit(Event{Type: EventReload})
	})
	p.timers[t] = struct{}{}
}

func (p *Page) emit(ev Event) {
	if p.onEvent != nil {
		p.onEvent(ev)
	}
}
