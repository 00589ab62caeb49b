package app

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/klabast/wb-services/garden-planner/internal/garden"
)

// Session is one browser's planner state: its bed layout and the crop
// selected for placement
type Session struct {
	ID string

	mu       sync.Mutex
	layout   *garden.Layout
	selected string
	lastSeen time.Time
}

// Layout returns a copy of the bed layout
func (s *Session) Layout() *garden.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.Clone()
}

// Selected returns the crop chosen for placement, if any
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Select chooses the crop placed by later Place calls without a crop
func (s *Session) Select(crop string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = crop
}

// Place puts crop into a cell, or the selected crop when crop is empty.
// It returns the crop that was placed.
func (s *Session) Place(row, col int, crop string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if crop == "" {
		crop = s.selected
	}
	if crop == "" {
		return "", errNoCropSelected
	}
	if err := s.layout.Place(row, col, crop); err != nil {
		return "", err
	}
	return crop, nil
}

// ClearCell empties a single cell
func (s *Session) ClearCell(row, col int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.ClearCell(row, col)
}

// Reset empties the whole bed and forgets the selected crop
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout.Reset()
	s.selected = ""
}

// SessionStore keeps sessions in memory, keyed by a cookie. Idle sessions
// are pruned whenever a new one is created.
type SessionStore struct {
	cookie     string
	ttl        time.Duration
	rows, cols int
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore creates a store whose sessions get rows x cols beds
func NewSessionStore(cfg SessionConfig, layout LayoutConfig, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{
		cookie:   cfg.CookieName,
		ttl:      cfg.TTL,
		rows:     layout.Rows,
		cols:     layout.Cols,
		now:      now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the request's session, starting a new one and setting the
// cookie when the request has none or it expired
func (st *SessionStore) Get(w http.ResponseWriter, r *http.Request) *Session {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	if c, err := r.Cookie(st.cookie); err == nil {
		if s, ok := st.sessions[c.Value]; ok && now.Sub(s.lastSeen) < st.ttl {
			s.lastSeen = now
			return s
		}
	}

	st.pruneLocked(now)
	s := &Session{
		ID:       uuid.NewString(),
		layout:   garden.NewLayout(st.rows, st.cols),
		lastSeen: now,
	}
	st.sessions[s.ID] = s

	http.SetCookie(w, &http.Cookie{
		Name:     st.cookie,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

// Len returns the number of live sessions
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *SessionStore) pruneLocked(now time.Time) {
	for id, s := range st.sessions {
		if now.Sub(s.lastSeen) >= st.ttl {
			delete(st.sessions, id)
		}
	}
}
