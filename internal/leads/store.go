package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CallStatusPatch is the set of fields the reconciler overwrites on a lead
// when a provider status webhook arrives. Nil CallDuration means the provider
// omitted it ("unknown"), never zero.
type CallStatusPatch struct {
	CallStatus   string
	CallDuration *int
	LeadStatus   string // optional lifecycle transition (new/contacted)
	Notes        string // optional follow-up note
	LastUpdated  time.Time
}

// ListFilter narrows admin lead listings.
type ListFilter struct {
	Limit  int
	Offset int
	Status string
	Source string
}

// Store defines the lead persistence operations the core needs. Leads are
// created and patched, never deleted.
type Store interface {
	Create(ctx context.Context, lead *Lead) (string, error)
	AttachCallSID(ctx context.Context, id, callSid string) error
	FindByCallSID(ctx context.Context, callSid string) (*Lead, error)
	PatchCallStatus(ctx context.Context, id string, patch CallStatusPatch) error
	List(ctx context.Context, filter ListFilter) ([]*Lead, error)
}

// MemoryStore keeps leads in a map. It backs tests and the no-store dev mode.
type MemoryStore struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{leads: make(map[string]*Lead)}
}

// Create assigns an id and stores a copy of the lead.
func (s *MemoryStore) Create(_ context.Context, lead *Lead) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *lead
	stored.ID = uuid.New().String()
	s.leads[stored.ID] = &stored
	return stored.ID, nil
}

// AttachCallSID records the provider call identifier on an existing lead.
func (s *MemoryStore) AttachCallSID(_ context.Context, id, callSid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	lead.TwilioCallSid = callSid
	return nil
}

// FindByCallSID scans for the lead correlated with a provider call.
func (s *MemoryStore) FindByCallSID(_ context.Context, callSid string) (*Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, lead := range s.leads {
		if lead.TwilioCallSid == callSid {
			copied := *lead
			return &copied, nil
		}
	}
	return nil, ErrLeadNotFound
}

// PatchCallStatus applies a reconciler patch; last write wins.
func (s *MemoryStore) PatchCallStatus(_ context.Context, id string, patch CallStatusPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	lead.TwilioCallStatus = patch.CallStatus
	if patch.CallDuration != nil {
		lead.TwilioCallDuration = patch.CallDuration
	}
	if patch.LeadStatus != "" {
		lead.Status = patch.LeadStatus
	}
	if patch.Notes != "" {
		lead.Notes = patch.Notes
	}
	updated := patch.LastUpdated
	lead.LastUpdated = &updated
	return nil
}

// List returns leads newest first.
func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]*Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		if filter.Source != "" && lead.Source != filter.Source {
			continue
		}
		copied := *lead
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*Lead{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Get fetches one lead by id. Used by tests to assert persisted state.
func (s *MemoryStore) Get(id string) (*Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lead, ok := s.leads[id]
	if !ok {
		return nil, false
	}
	copied := *lead
	return &copied, true
}

// Len reports how many leads are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leads)
}
