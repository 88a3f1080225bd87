package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// session is one open page. cycle increases on every city selection so that
// results of a superseded selection can be recognized and dropped.
type session struct {
	id string

	mu    sync.Mutex
	city  string
	cycle uint64
	state *Islands
}

// SessionView is a read-only copy of a session.
type SessionView struct {
	ID      string   `json:"id"`
	City    string   `json:"city,omitempty"`
	Cycle   uint64   `json:"cycle"`
	Islands *Islands `json:"islands,omitempty"`
}

// Sessions tracks open pages. Idle sessions expire after the TTL.
type Sessions struct {
	svc   *Service
	cache *cache.Cache
}

// NewSessions creates a registry serving pages from svc.
func NewSessions(svc *Service, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	c := cache.New(ttl, ttl/2)
	s := &Sessions{svc: svc, cache: c}
	c.OnEvicted(func(string, interface{}) {
		svc.metrics.Sessions.Set(float64(c.ItemCount()))
	})
	return s
}

// Open starts a new session with no city selected.
func (s *Sessions) Open() SessionView {
	sess := &session{id: uuid.NewString()}
	s.cache.SetDefault(sess.id, sess)
	s.svc.metrics.Sessions.Set(float64(s.cache.ItemCount()))
	return SessionView{ID: sess.id}
}

func (s *Sessions) get(id string) (*session, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	sess := v.(*session)
	// Touch to extend the expiry.
	s.cache.SetDefault(id, sess)
	return sess, nil
}

// Get returns the current view of a session.
func (s *Sessions) Get(id string) (SessionView, error) {
	sess, err := s.get(id)
	if err != nil {
		return SessionView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

func (sess *session) view() SessionView {
	return SessionView{ID: sess.id, City: sess.city, Cycle: sess.cycle, Islands: sess.state.clone()}
}

// Select switches the session to cityKey and recomputes every widget. If a
// newer selection lands while this one is computing, its results are discarded
// and ErrSuperseded is returned.
func (s *Sessions) Select(ctx context.Context, id, cityKey string) (*Islands, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	p, ok := s.svc.directory.Lookup(cityKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCity, cityKey)
	}

	sess.mu.Lock()
	sess.cycle++
	cycle := sess.cycle
	sess.city = p.Key
	sess.mu.Unlock()

	islands := s.svc.refresh(ctx, p, cycle)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.cycle != cycle {
		s.svc.metrics.StaleCycles.Inc()
		s.svc.logger.Debug("discarding stale refresh", "session", id, "cycle", cycle, "current", sess.cycle)
		return nil, ErrSuperseded
	}
	sess.state = islands
	return islands.clone(), nil
}

// Retry recomputes a single widget for the city of the last completed
// selection, leaving every other widget untouched. It returns ErrSuperseded
// while a newer selection is still computing.
func (s *Sessions) Retry(ctx context.Context, id string, kind WidgetKind) (WidgetState, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return WidgetState{}, err
	}
	sess, err := s.get(id)
	if err != nil {
		return WidgetState{}, err
	}

	sess.mu.Lock()
	if sess.state == nil {
		sess.mu.Unlock()
		return WidgetState{}, ErrNoSelection
	}
	// A selection still computing owns the page; its refresh replaces every widget.
	if sess.state.Cycle != sess.cycle {
		sess.mu.Unlock()
		return WidgetState{}, ErrSuperseded
	}
	cycle := sess.cycle
	city := sess.state.City.Key
	sess.mu.Unlock()

	p, ok := s.svc.directory.Lookup(city)
	if !ok {
		return WidgetState{}, fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}
	st := s.svc.computeWidget(ctx, kind, s.svc.loadInputs(ctx, p))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.cycle != cycle {
		s.svc.metrics.StaleCycles.Inc()
		return WidgetState{}, ErrSuperseded
	}
	sess.state.replace(st)
	return st, nil
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	return s.cache.ItemCount()
}

func (i *Islands) clone() *Islands {
	if i == nil {
		return nil
	}
	out := *i
	out.Widgets = append([]WidgetState(nil), i.Widgets...)
	return &out
}
