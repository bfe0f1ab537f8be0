package leads

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_CreateAndAttach(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, &Lead{
		Phone:     "+15035551234",
		Source:    SourceCallbackButton,
		Status:    StatusNew,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected store-assigned id")
	}

	if err := store.AttachCallSID(ctx, id, "CA123"); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	lead, err := store.FindByCallSID(ctx, "CA123")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if lead.ID != id {
		t.Errorf("expected id %s, got %s", id, lead.ID)
	}
}

func TestMemoryStore_FindByCallSID_NotFound(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.FindByCallSID(context.Background(), "CA404"); err != ErrLeadNotFound {
		t.Errorf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestMemoryStore_AttachUnknownLead(t *testing.T) {
	store := NewMemoryStore()
	if err := store.AttachCallSID(context.Background(), "nope", "CA1"); err != ErrLeadNotFound {
		t.Errorf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestMemoryStore_PatchCallStatus(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, _ := store.Create(ctx, &Lead{Phone: "+15035551234", Status: StatusNew})
	duration := 45
	now := time.Now().UTC()

	err := store.PatchCallStatus(ctx, id, CallStatusPatch{
		CallStatus:   "completed",
		CallDuration: &duration,
		LeadStatus:   StatusContacted,
		LastUpdated:  now,
	})
	if err != nil {
		t.Fatalf("patch failed: %v", err)
	}

	lead, _ := store.Get(id)
	if lead.TwilioCallStatus != "completed" {
		t.Errorf("expected call status completed, got %q", lead.TwilioCallStatus)
	}
	if lead.TwilioCallDuration == nil || *lead.TwilioCallDuration != 45 {
		t.Errorf("expected duration 45, got %v", lead.TwilioCallDuration)
	}
	if lead.Status != StatusContacted {
		t.Errorf("expected status contacted, got %q", lead.Status)
	}
	if lead.LastUpdated == nil || !lead.LastUpdated.Equal(now) {
		t.Errorf("expected lastUpdated %v, got %v", now, lead.LastUpdated)
	}
}

func TestMemoryStore_PatchOmitsUnknownDuration(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, _ := store.Create(ctx, &Lead{Phone: "+15035551234", Status: StatusNew})
	duration := 45
	_ = store.PatchCallStatus(ctx, id, CallStatusPatch{CallStatus: "completed", CallDuration: &duration, LastUpdated: time.Now()})

	// A webhook without CallDuration must not zero out a known duration.
	_ = store.PatchCallStatus(ctx, id, CallStatusPatch{CallStatus: "completed", LastUpdated: time.Now()})

	lead, _ := store.Get(id)
	if lead.TwilioCallDuration == nil || *lead.TwilioCallDuration != 45 {
		t.Errorf("expected duration preserved at 45, got %v", lead.TwilioCallDuration)
	}
}

func TestMemoryStore_List(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		source := SourceContactForm
		if i%2 == 1 {
			source = SourceCallbackButton
		}
		_, _ = store.Create(ctx, &Lead{
			Phone:     "+15035551234",
			Source:    source,
			Status:    StatusNew,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	all, err := store.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 leads, got %d", len(all))
	}
	// Newest first.
	if !all[0].CreatedAt.After(all[4].CreatedAt) {
		t.Error("expected newest-first ordering")
	}

	callbacks, _ := store.List(ctx, ListFilter{Source: SourceCallbackButton})
	if len(callbacks) != 2 {
		t.Errorf("expected 2 callback leads, got %d", len(callbacks))
	}

	paged, _ := store.List(ctx, ListFilter{Limit: 2, Offset: 4})
	if len(paged) != 1 {
		t.Errorf("expected 1 lead on last page, got %d", len(paged))
	}

	past, _ := store.List(ctx, ListFilter{Offset: 99})
	if len(past) != 0 {
		t.Errorf("expected empty page past the end, got %d", len(past))
	}
}
