package payment

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/mobileshop/internal/models"
)

const DefaultPageTTL = 30 * time.Minute

// MaxPagesPerOrder bounds the live pages one order can hold; reloading the
// payment page beyond it drops the oldest.
const MaxPagesPerOrder = 3

// Page is one rendered payment page and the handshake behind it.
type Page struct {
	ID        string
	Handshake *Handshake
	Loader    *RelayLoader
	Widget    *RelayWidget
	expiresAt time.Time
}

// Registry keeps live payment pages in memory, keyed by page id.
type Registry struct {
	mu      sync.Mutex
	pages   map[string]*Page
	byOrder map[string][]string // page ids, oldest first
	ttl     time.Duration
	now     func() time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultPageTTL
	}
	return &Registry{
		pages:   make(map[string]*Page),
		byOrder: make(map[string][]string),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Start creates a relay-driven handshake for intent and registers it.
func (r *Registry) Start(intent models.PaymentIntent, storeName string) *Page {
	p := &Page{
		ID:     uuid.NewString(),
		Loader: &RelayLoader{},
		Widget: &RelayWidget{},
	}
	p.Handshake = NewHandshake(intent, storeName, p.Loader, p.Widget)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked()
	p.expiresAt = r.now().Add(r.ttl)
	r.pages[p.ID] = p

	order := intent.OrderID
	r.byOrder[order] = append(r.byOrder[order], p.ID)
	for len(r.byOrder[order]) > MaxPagesPerOrder {
		r.removeLocked(r.byOrder[order][0])
	}
	return p
}

// Get returns the page only if it belongs to orderID and has not expired.
func (r *Registry) Get(pageID, orderID string) (*Page, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pages[pageID]
	if !ok {
		return nil, false
	}
	if r.now().After(p.expiresAt) {
		r.removeLocked(pageID)
		return nil, false
	}
	if p.Handshake.OrderID() != orderID {
		return nil, false
	}
	p.expiresAt = r.now().Add(r.ttl)
	return p, true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

func (r *Registry) evictLocked() {
	now := r.now()
	for id, p := range r.pages {
		if now.After(p.expiresAt) {
			r.removeLocked(id)
		}
	}
}

func (r *Registry) removeLocked(id string) {
	p, ok := r.pages[id]
	if !ok {
		return
	}
	delete(r.pages, id)
	order := p.Handshake.OrderID()
	ids := r.byOrder[order]
	for i, v := range ids {
		if v == id {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(r.byOrder, order)
	} else {
		r.byOrder[order] = ids
	}
}
