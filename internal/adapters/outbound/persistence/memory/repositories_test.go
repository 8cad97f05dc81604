//go:build !integration

package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"taskflow/internal/domain/entities"
	valueobjects "taskflow/internal/domain/value_objects"
)

func TestTokenRepositoryRevokeKeepsFirstTimestamp(t *testing.T) {
	repo := NewTokenRepository()
	issuedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()
	token := entities.NewToken("tok-1", "hash-1", "user-1", issuedAt, time.Hour)

	if appErr := repo.Create(ctx, token); appErr != nil {
		t.Fatalf("expected create success, got %v", appErr)
	}
	if appErr := repo.Create(ctx, token); appErr == nil || appErr.Code != "token_conflict" {
		t.Fatalf("expected duplicate hash conflict, got %v", appErr)
	}

	first := issuedAt.Add(time.Minute)
	if revoked, _ := repo.RevokeByHash(ctx, "hash-1", first); !revoked {
		t.Fatalf("expected first revoke applied")
	}
	if revoked, _ := repo.RevokeByHash(ctx, "hash-1", first.Add(time.Minute)); revoked {
		t.Fatalf("expected second revoke to be a no-op")
	}
	if revoked, _ := repo.RevokeByHash(ctx, "hash-unknown", first); revoked {
		t.Fatalf("expected unknown hash revoke to be a no-op")
	}

	stored, ok, _ := repo.FindByHash(ctx, "hash-1")
	if !ok || stored.RevokedAt == nil || !stored.RevokedAt.Equal(first) {
		t.Fatalf("expected first revocation timestamp kept, got %+v", stored)
	}
}

func TestTokenRepositoryConcurrentAccess(t *testing.T) {
	repo := NewTokenRepository()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_ = repo.Create(ctx, entities.NewToken("tok-1", "hash-1", "user-1", now, time.Hour))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		revokes int
	)
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, _ = repo.FindByHash(ctx, "hash-1")
		}()
		go func() {
			defer wg.Done()
			if revoked, _ := repo.RevokeByHash(ctx, "hash-1", now); revoked {
				mu.Lock()
				revokes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if revokes != 1 {
		t.Fatalf("expected exactly one effective revoke, got %d", revokes)
	}
}

func TestWebhookSubscriptionRepositoryLifecycle(t *testing.T) {
	repo := NewWebhookSubscriptionRepository()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	first := entities.WebhookSubscription{
		ID:          "sub-b",
		OwnerUserID: "user-1",
		URL:         "https://hooks.example.com/b",
		EventTypes:  []valueobjects.EventType{valueobjects.EventTaskCreated},
		Active:      true,
		CreatedAt:   now,
	}
	second := entities.WebhookSubscription{
		ID:          "sub-a",
		OwnerUserID: "user-1",
		URL:         "https://hooks.example.com/a",
		EventTypes:  []valueobjects.EventType{valueobjects.EventTaskCreated, valueobjects.EventTaskDeleted},
		Active:      true,
		CreatedAt:   now.Add(time.Second),
	}
	other := entities.WebhookSubscription{
		ID:          "sub-c",
		OwnerUserID: "user-2",
		EventTypes:  []valueobjects.EventType{valueobjects.EventTaskDeleted},
		Active:      true,
		CreatedAt:   now,
	}
	for _, subscription := range []entities.WebhookSubscription{first, second, other} {
		if appErr := repo.Create(ctx, subscription); appErr != nil {
			t.Fatalf("expected create success, got %v", appErr)
		}
	}

	owned, _ := repo.ListByOwner(ctx, "user-1")
	if len(owned) != 2 || owned[0].ID != "sub-b" || owned[1].ID != "sub-a" {
		t.Fatalf("expected owner subscriptions in creation order, got %+v", owned)
	}

	matches, _ := repo.ListActiveByEventType(ctx, valueobjects.EventTaskDeleted)
	if len(matches) != 2 {
		t.Fatalf("expected two task.deleted subscribers, got %+v", matches)
	}

	if updated, _ := repo.UpdateEventTypes(ctx, "sub-a", []valueobjects.EventType{valueobjects.EventFileDeleted}, now); !updated {
		t.Fatalf("expected update applied")
	}
	if deactivated, _ := repo.Deactivate(ctx, "sub-c", now); !deactivated {
		t.Fatalf("expected deactivation applied")
	}
	if deactivated, _ := repo.Deactivate(ctx, "sub-c", now); deactivated {
		t.Fatalf("expected second deactivation to be a no-op")
	}
	if updated, _ := repo.UpdateEventTypes(ctx, "sub-c", []valueobjects.EventType{valueobjects.EventFileDeleted}, now); updated {
		t.Fatalf("expected inactive subscription update rejected")
	}

	matches, _ = repo.ListActiveByEventType(ctx, valueobjects.EventTaskDeleted)
	if len(matches) != 0 {
		t.Fatalf("expected no task.deleted subscribers left, got %+v", matches)
	}

	stored, ok, _ := repo.FindByID(ctx, "sub-a")
	if !ok || len(stored.EventTypes) != 1 || stored.EventTypes[0] != valueobjects.EventFileDeleted {
		t.Fatalf("unexpected stored subscription %+v", stored)
	}
	stored.EventTypes[0] = valueobjects.EventTaskCreated
	again, _, _ := repo.FindByID(ctx, "sub-a")
	if again.EventTypes[0] != valueobjects.EventFileDeleted {
		t.Fatalf("expected stored event types isolated from callers")
	}
}
