package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/girmay-ak/lang-app-sub002/internal/repo/redis"
)

type memoryLastActive struct {
	touched map[uuid.UUID]time.Time
	err     error
}

func (s *memoryLastActive) TouchLastActive(_ context.Context, userID uuid.UUID, at time.Time) error {
	if s.err != nil {
		return s.err
	}
	if s.touched == nil {
		s.touched = make(map[uuid.UUID]time.Time)
	}
	s.touched[userID] = at
	return nil
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}

func TestHeartbeatSetsOnlineFlagWithTTL(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := redrepo.NewPresenceRepo(client)
	lastActive := &memoryLastActive{}
	svc := NewService(repo, lastActive, 90*time.Second, nil)

	ctx := context.Background()
	userID := uuid.New()

	if err := svc.Heartbeat(ctx, userID); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}

	online, err := svc.IsOnline(ctx, userID)
	if err != nil {
		t.Fatalf("is online: %v", err)
	}
	if !online {
		t.Fatal("expected online after heartbeat")
	}
	if _, ok := lastActive.touched[userID]; !ok {
		t.Fatal("last active not persisted")
	}

	// Flag drops once the key TTL elapses.
	mr.FastForward(2 * time.Minute)
	online, err = svc.IsOnline(ctx, userID)
	if err != nil {
		t.Fatalf("is online after expiry: %v", err)
	}
	if online {
		t.Fatal("expected offline after TTL expiry")
	}
}

func TestHeartbeatSucceedsWhenLastActiveWriteFails(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := redrepo.NewPresenceRepo(client)
	svc := NewService(repo, &memoryLastActive{err: errors.New("db down")}, 0, nil)

	if err := svc.Heartbeat(context.Background(), uuid.New()); err != nil {
		t.Fatalf("heartbeat with failing last-active store: %v", err)
	}
}

func TestOnlineSetDegradesToEmptyOverlayOnStoreFailure(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	repo := redrepo.NewPresenceRepo(client)
	svc := NewService(repo, nil, 0, nil)

	ctx := context.Background()
	a := uuid.New()
	b := uuid.New()
	if err := svc.Heartbeat(ctx, a); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}

	flags := svc.OnlineSet(ctx, []uuid.UUID{a, b})
	if !flags[a] || flags[b] {
		t.Fatalf("unexpected overlay: %v", flags)
	}

	// Kill the backend: the overlay degrades to empty instead of failing.
	mr.Close()
	_ = client.Close()

	flags = svc.OnlineSet(ctx, []uuid.UUID{a, b})
	if len(flags) != 0 {
		t.Fatalf("expected empty overlay after store failure, got %v", flags)
	}
}

func TestHeartbeatRejectsMissingUser(t *testing.T) {
	svc := NewService(redrepo.NewPresenceRepo(nil), nil, 0, nil)

	if err := svc.Heartbeat(context.Background(), uuid.Nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
