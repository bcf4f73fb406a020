package reminder

import (
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	errcode "github.com/hearthbot/remindd/internal/errors"
	"github.com/hearthbot/remindd/store"
)

// pageSize is how many reminders one list page shows.
const pageSize = 10

// Page is one view of a list session.
type Page struct {
	SessionID string
	// Index is the zero-based page number.
	Index int
	// PageCount is the total number of pages in the session.
	PageCount int
	Items     []*store.Reminder
}

type pageSession struct {
	ownerID  int64
	items    []*store.Reminder
	page     int
	lastSeen time.Time
}

// Paginator holds list-page sessions. A session belongs to the requester who
// opened it and expires after an idle timeout.
type Paginator struct {
	mu       sync.Mutex
	timeout  time.Duration
	now      func() time.Time
	sessions map[string]*pageSession
}

// NewPaginator creates a paginator with the given idle timeout.
func NewPaginator(timeout time.Duration) *Paginator {
	return &Paginator{
		timeout:  timeout,
		now:      time.Now,
		sessions: map[string]*pageSession{},
	}
}

// Open starts a session over the given reminders and returns its first page.
func (p *Paginator) Open(ownerID int64, items []*store.Reminder) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropExpired()

	session := &pageSession{
		ownerID:  ownerID,
		items:    items,
		lastSeen: p.now(),
	}
	id := shortuuid.New()
	p.sessions[id] = session
	return p.pageOf(id, session)
}

// Next turns the session one page forward, clamping at the last page.
func (p *Paginator) Next(sessionID string, ownerID int64) (*Page, error) {
	return p.turn(sessionID, ownerID, 1)
}

// Prev turns the session one page back, clamping at the first page.
func (p *Paginator) Prev(sessionID string, ownerID int64) (*Page, error) {
	return p.turn(sessionID, ownerID, -1)
}

func (p *Paginator) turn(sessionID string, ownerID int64, delta int) (*Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropExpired()

	session, ok := p.sessions[sessionID]
	if !ok {
		return nil, errcode.New(errcode.CodeNotFound, "list session expired")
	}
	if session.ownerID != ownerID {
		return nil, errcode.New(errcode.CodeInvalidArgument, "only the requester can turn pages")
	}

	session.page += delta
	if session.page < 0 {
		session.page = 0
	}
	if last := pageCount(len(session.items)) - 1; session.page > last {
		session.page = last
	}
	session.lastSeen = p.now()
	return p.pageOf(sessionID, session), nil
}

// SessionCount returns the number of live sessions.
func (p *Paginator) SessionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropExpired()
	return len(p.sessions)
}

// dropExpired removes idle sessions. Callers hold the lock.
func (p *Paginator) dropExpired() {
	deadline := p.now().Add(-p.timeout)
	for id, session := range p.sessions {
		if session.lastSeen.Before(deadline) {
			delete(p.sessions, id)
		}
	}
}

func (p *Paginator) pageOf(id string, session *pageSession) *Page {
	start := session.page * pageSize
	end := start + pageSize
	if end > len(session.items) {
		end = len(session.items)
	}
	if start > end {
		start = end
	}
	return &Page{
		SessionID: id,
		Index:     session.page,
		PageCount: pageCount(len(session.items)),
		Items:     session.items[start:end],
	}
}

func pageCount(n int) int {
	if n == 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}
