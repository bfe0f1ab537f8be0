package leads

import (
	"context"
	"fmt"

	"github.com/olimpiarestoration/leadbridge/internal/sanity"
)

// SanityStore persists leads as documents in the Sanity content store. The
// store guarantees single-document atomic create/patch; nothing here assumes
// multi-document transactions.
type SanityStore struct {
	client *sanity.Client
}

// NewSanityStore wraps a configured Sanity client.
func NewSanityStore(client *sanity.Client) *SanityStore {
	if client == nil {
		panic("leads: sanity client required")
	}
	return &SanityStore{client: client}
}

var _ Store = (*SanityStore)(nil)

// Create inserts a lead document. Validation happens before this is called;
// the store persists what it is given.
func (s *SanityStore) Create(ctx context.Context, lead *Lead) (string, error) {
	doc := map[string]any{
		"_type":     "lead",
		"name":      lead.Name,
		"phone":     lead.Phone,
		"email":     lead.Email,
		"zip":       lead.Zip,
		"service":   lead.Service,
		"message":   lead.Message,
		"locale":    string(lead.Locale),
		"source":    lead.Source,
		"userAgent": lead.UserAgent,
		"ip":        lead.IP,
		"status":    lead.Status,
		"createdAt": lead.CreatedAt,
	}
	if lead.Consent {
		doc["consent"] = true
	}

	id, err := s.client.Create(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return id, nil
}

// AttachCallSID patches the provider call identifier onto the lead document.
func (s *SanityStore) AttachCallSID(ctx context.Context, id, callSid string) error {
	if err := s.client.PatchSet(ctx, id, map[string]any{"twilioCallSid": callSid}); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// FindByCallSID queries for the lead correlated with a provider call.
func (s *SanityStore) FindByCallSID(ctx context.Context, callSid string) (*Lead, error) {
	var lead Lead
	found, err := s.client.Fetch(ctx,
		`*[_type == "lead" && twilioCallSid == $callSid][0]`,
		map[string]any{"callSid": callSid}, &lead)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !found {
		return nil, ErrLeadNotFound
	}
	return &lead, nil
}

// PatchCallStatus overwrites status fields on the lead document. Concurrent
// webhooks for the same call apply last-write-wins on the same fields, which
// is harmless because each patch is self-contained.
func (s *SanityStore) PatchCallStatus(ctx context.Context, id string, patch CallStatusPatch) error {
	fields := map[string]any{
		"twilioCallStatus": patch.CallStatus,
		"lastUpdated":      patch.LastUpdated,
	}
	if patch.CallDuration != nil {
		fields["twilioCallDuration"] = *patch.CallDuration
	}
	if patch.LeadStatus != "" {
		fields["status"] = patch.LeadStatus
	}
	if patch.Notes != "" {
		fields["notes"] = patch.Notes
	}

	if err := s.client.PatchSet(ctx, id, fields); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// List fetches leads newest first for the staff view.
func (s *SanityStore) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	query := `*[_type == "lead"`
	params := map[string]any{}
	if filter.Status != "" {
		query += ` && status == $status`
		params["status"] = filter.Status
	}
	if filter.Source != "" {
		query += ` && source == $source`
		params["source"] = filter.Source
	}
	query += fmt.Sprintf(`] | order(createdAt desc) [%d...%d]`, filter.Offset, filter.Offset+filter.Limit)

	var out []*Lead
	if _, err := s.client.Fetch(ctx, query, params, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if out == nil {
		out = []*Lead{}
	}
	return out, nil
}
