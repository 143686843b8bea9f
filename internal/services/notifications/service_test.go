package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/girmay-ak/lang-app-sub002/internal/domain/enums"
	pgrepo "github.com/girmay-ak/lang-app-sub002/internal/repo/postgres"
)

type memoryOutbox struct {
	mu       sync.Mutex
	inserted []pgrepo.NotificationRecord
	sent     map[uuid.UUID]time.Time
	failed   map[uuid.UUID]int
}

func newMemoryOutbox() *memoryOutbox {
	return &memoryOutbox{
		sent:   make(map[uuid.UUID]time.Time),
		failed: make(map[uuid.UUID]int),
	}
}

func (s *memoryOutbox) Insert(_ context.Context, rec pgrepo.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, rec)
	return nil
}

func (s *memoryOutbox) MarkSent(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[id] = at
	return nil
}

func (s *memoryOutbox) MarkFailed(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id]++
	return nil
}

type stubDeliverer struct {
	mu        sync.Mutex
	err       error
	delivered []uuid.UUID
}

func (d *stubDeliverer) Deliver(_ context.Context, rec pgrepo.NotificationRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.delivered = append(d.delivered, rec.ID)
	return nil
}

func TestCreatePersistsPendingOutboxRow(t *testing.T) {
	outbox := newMemoryOutbox()
	svc := NewService(outbox, &stubDeliverer{}, nil)

	userID := uuid.New()
	id, err := svc.Create(context.Background(), userID, enums.NotificationSocialFavorited, "New favorite", "Anna added you", map[string]string{"actor_id": "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected notification id")
	}
	if len(outbox.inserted) != 1 {
		t.Fatalf("expected one outbox row, got %d", len(outbox.inserted))
	}

	row := outbox.inserted[0]
	if row.Status != string(enums.DeliveryStatusPending) {
		t.Fatalf("unexpected initial status: %q", row.Status)
	}
	if row.UserID != userID {
		t.Fatalf("unexpected target: %s", row.UserID)
	}
}

func TestCreateRejectsIncompletePayload(t *testing.T) {
	svc := NewService(newMemoryOutbox(), nil, nil)

	if _, err := svc.Create(context.Background(), uuid.Nil, enums.NotificationSocialFavorited, "t", "", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing user, got %v", err)
	}
	if _, err := svc.Create(context.Background(), uuid.New(), "", "t", "", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing category, got %v", err)
	}
	if _, err := svc.Create(context.Background(), uuid.New(), enums.NotificationSocialFavorited, "", "", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing title, got %v", err)
	}
}

func TestDeliverOneMarksSentOnSuccess(t *testing.T) {
	outbox := newMemoryOutbox()
	deliverer := &stubDeliverer{}
	svc := NewService(outbox, deliverer, nil)

	rec := pgrepo.NotificationRecord{ID: uuid.New(), UserID: uuid.New(), Category: "social_favorited", Title: "t"}
	svc.DeliverOne(context.Background(), rec)

	if len(deliverer.delivered) != 1 {
		t.Fatalf("expected one delivery, got %d", len(deliverer.delivered))
	}
	if _, ok := outbox.sent[rec.ID]; !ok {
		t.Fatal("row not marked sent")
	}
}

func TestDeliverOneMarksFailedAndSwallowsError(t *testing.T) {
	outbox := newMemoryOutbox()
	svc := NewService(outbox, &stubDeliverer{err: errors.New("no chat binding")}, nil)

	rec := pgrepo.NotificationRecord{ID: uuid.New(), UserID: uuid.New(), Category: "social_event_invite", Title: "t"}
	svc.DeliverOne(context.Background(), rec)

	if outbox.failed[rec.ID] != 1 {
		t.Fatalf("row not marked failed: %v", outbox.failed)
	}
	if _, ok := outbox.sent[rec.ID]; ok {
		t.Fatal("failed row marked sent")
	}
}

func TestRunDrainsQueuedDeliveries(t *testing.T) {
	outbox := newMemoryOutbox()
	deliverer := &stubDeliverer{}
	svc := NewService(outbox, deliverer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	if _, err := svc.Create(ctx, uuid.New(), enums.NotificationSocialFriendRequest, "New friend request", "", nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		deliverer.mu.Lock()
		n := len(deliverer.delivered)
		deliverer.mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("queued notification never delivered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
