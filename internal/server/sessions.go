package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/screening-desk/internal/rendering"
	"github.com/jonathan/screening-desk/internal/screening"
	"github.com/jonathan/screening-desk/internal/types"
)

// sessionCookie identifies an operator session in the browser.
const sessionCookie = "screening_session"

// subscriberBuffer is how many events an SSE subscriber may lag behind before
// events are dropped for it.
const subscriberBuffer = 16

// PageFactory builds an unmounted screening page for variant. onEvent receives
// the page's timer-driven events.
type PageFactory func(variant rendering.Variant, onEvent func(screening.Event)) *screening.Page

type subscriber struct {
	variant string
	ch      chan screening.Event
}

// Session is one operator's browser session. It owns one screening page per
// variant, the notices waiting for the next page render, and the SSE
// subscribers listening for page events.
type Session struct {
	ID       string
	Operator string

	mu       sync.Mutex
	pages    map[string]*screening.Page
	flash    []types.Notice
	subs     map[*subscriber]struct{}
	lastSeen time.Time
	closed   bool
}

func newSession(operator string, now time.Time) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Operator: operator,
		pages:    make(map[string]*screening.Page),
		subs:     make(map[*subscriber]struct{}),
		lastSeen: now,
	}
}

// Page returns the session's page for variant, creating it with factory on
// first use. The returned page may not be mounted yet. A closed session
// returns an unmounted page that it does not keep.
func (s *Session) Page(variant rendering.Variant, factory PageFactory) *screening.Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	if page, ok := s.pages[variant.Key]; ok {
		return page
	}
	if s.closed {
		page := factory(variant, nil)
		page.Unmount()
		return page
	}
	key := variant.Key
	page := factory(variant, func(ev screening.Event) {
		s.publish(key, ev)
	})
	s.pages[key] = page
	return page
}

// Flash queues a notice for the next page render.
func (s *Session) Flash(n types.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash = append(s.flash, n)
}

// TakeFlash returns and clears the queued notices.
func (s *Session) TakeFlash() []types.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	notices := s.flash
	s.flash = nil
	return notices
}

// Subscribe registers an SSE listener for variant's events. The channel is
// closed when the session closes; cancel unregisters it.
func (s *Session) Subscribe(variant string) (<-chan screening.Event, func()) {
	sub := &subscriber{variant: variant, ch: make(chan screening.Event, subscriberBuffer)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[sub]; ok {
				delete(s.subs, sub)
				close(sub.ch)
			}
		})
	}
}

// publish delivers a page event to the variant's subscribers. A notice nobody
// is listening for is kept for the next page render instead.
func (s *Session) publish(variant string, ev screening.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	delivered := false
	for sub := range s.subs {
		if sub.variant != variant {
			continue
		}
		select {
		case sub.ch <- ev:
			delivered = true
		default:
			log.Printf("[server] session %s: dropped %s event for a slow subscriber", s.ID, ev.Type)
		}
	}

	if !delivered && ev.Type == screening.EventNotice && ev.Notice != nil {
		s.flash = append(s.flash, *ev.Notice)
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// idleSince reports whether the session has been unused since cutoff. A
// session with a live event stream is never idle.
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) == 0 && s.lastSeen.Before(cutoff)
}

// close unmounts every page and ends every event stream.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	pages := s.pages
	s.pages = make(map[string]*screening.Page)
	for sub := range s.subs {
		close(sub.ch)
	}
	s.subs = make(map[*subscriber]struct{})
	s.mu.Unlock()

	// Unmount outside the lock; a firing reload may be publishing.
	for _, page := range pages {
		page.Unmount()
	}
}

// Sessions is the registry of live operator sessions.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	now      func() time.Time
}

// NewSessions creates a registry that evicts sessions unused for idle.
func NewSessions(idle time.Duration) *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		idle:     idle,
		now:      time.Now,
	}
}

// Lookup returns the session with id and marks it used, or nil.
func (r *Sessions) Lookup(id string) *Session {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	sess.touch(r.now())
	return sess
}

// Create starts a new session for operator.
func (r *Sessions) Create(operator string) *Session {
	sess := newSession(operator, r.now())

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()

	log.Printf("[server] session %s started for %q", sess.ID, operator)
	return sess
}

// Len returns the number of live sessions.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes and removes idle sessions and returns how many were evicted.
func (r *Sessions) Sweep() int {
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	var evicted []*Session
	for id, sess := range r.sessions {
		if sess.idleSince(cutoff) {
			evicted = append(evicted, sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range evicted {
		sess.close()
		log.Printf("[server] session %s expired", sess.ID)
	}
	return len(evicted)
}

// Run sweeps idle sessions every interval until ctx is done.
func (r *Sessions) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close closes every session.
func (r *Sessions) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}
