package nearby

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/girmay-ak/lang-app-sub002/internal/domain/model"
	discoverysvc "github.com/girmay-ak/lang-app-sub002/internal/services/discovery"
)

type stubLocator struct {
	fix   Fix
	err   error
	calls int
}

func (l *stubLocator) Current(_ context.Context) (Fix, error) {
	l.calls++
	if l.err != nil {
		return Fix{}, l.err
	}
	return l.fix, nil
}

type stubDiscoverer struct {
	mu      sync.Mutex
	users   []model.NearbyUser
	err     error
	calls   int
	queries []discoverysvc.Query
}

func (d *stubDiscoverer) Discover(_ context.Context, _ uuid.UUID, q discoverysvc.Query) ([]model.NearbyUser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.queries = append(d.queries, q)
	if d.err != nil {
		return nil, d.err
	}
	return d.users, nil
}

type recordingSaver struct {
	mu    sync.Mutex
	calls int
	done  chan struct{}
}

func (s *recordingSaver) SaveLocation(_ context.Context, _ uuid.UUID, _, _ float64) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.done != nil {
		select {
		case s.done <- struct{}{}:
		default:
		}
	}
	return nil
}

func TestStartFallsBackToDefaultCenterOnLocatorFailure(t *testing.T) {
	locator := &stubLocator{err: errors.New("no gps")}
	discoverer := &stubDiscoverer{users: []model.NearbyUser{{}}}
	w := NewWatcher(uuid.New(), locator, discoverer, nil, discoverysvc.Query{}, Config{}, nil)

	w.Start(context.Background())

	snap := w.Snapshot()
	if snap.State != StateReady {
		t.Fatalf("unexpected state: %s", snap.State)
	}
	if snap.Location == nil {
		t.Fatal("expected a location fix")
	}
	if snap.Location.Lat != defaultLat || snap.Location.Lon != defaultLon {
		t.Fatalf("unexpected fallback center: %v,%v", snap.Location.Lat, snap.Location.Lon)
	}
	if len(discoverer.queries) != 1 || discoverer.queries[0].Lat != defaultLat {
		t.Fatalf("query did not use fallback center: %+v", discoverer.queries)
	}
}

func TestSetFiltersBeforeStartOnlyRecordsFilters(t *testing.T) {
	discoverer := &stubDiscoverer{}
	w := NewWatcher(uuid.New(), &stubLocator{}, discoverer, nil, discoverysvc.Query{}, Config{}, nil)

	w.SetFilters(context.Background(), discoverysvc.Query{AvailableNow: true})
	if discoverer.calls != 0 {
		t.Fatalf("filters before start triggered a query: %d", discoverer.calls)
	}

	w.Start(context.Background())
	if discoverer.calls != 1 {
		t.Fatalf("expected one query after start, got %d", discoverer.calls)
	}
	if !discoverer.queries[0].AvailableNow {
		t.Fatal("recorded filters not used on the first query")
	}
}

func TestSetFiltersReusesKnownLocationWithoutLocator(t *testing.T) {
	locator := &stubLocator{fix: Fix{Lat: 48.85, Lon: 2.35, At: time.Now()}}
	discoverer := &stubDiscoverer{}
	w := NewWatcher(uuid.New(), locator, discoverer, nil, discoverysvc.Query{}, Config{}, nil)

	w.Start(context.Background())
	if locator.calls != 1 {
		t.Fatalf("expected one locate on start, got %d", locator.calls)
	}

	w.SetFilters(context.Background(), discoverysvc.Query{Languages: []string{"fr"}})
	if locator.calls != 1 {
		t.Fatalf("filter change touched the locator: %d calls", locator.calls)
	}
	if discoverer.calls != 2 {
		t.Fatalf("expected re-query on filter change, got %d", discoverer.calls)
	}
	last := discoverer.queries[len(discoverer.queries)-1]
	if last.Lat != 48.85 || last.Lon != 2.35 {
		t.Fatalf("re-query lost the known location: %+v", last)
	}
}

func TestRefreshReusesRecentFixWithinMaxAge(t *testing.T) {
	locator := &stubLocator{fix: Fix{Lat: 48.85, Lon: 2.35, At: time.Now()}}
	discoverer := &stubDiscoverer{}
	w := NewWatcher(uuid.New(), locator, discoverer, nil, discoverysvc.Query{}, Config{FixMaxAge: time.Minute}, nil)

	w.Start(context.Background())
	w.Refresh(context.Background())
	if locator.calls != 1 {
		t.Fatalf("refresh inside max age re-located: %d calls", locator.calls)
	}

	// Age the fix past the cache window; the next refresh must re-locate.
	w.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	w.Refresh(context.Background())
	if locator.calls != 2 {
		t.Fatalf("stale fix not re-resolved: %d calls", locator.calls)
	}
}

type gatedDiscoverer struct {
	firstStarted chan struct{}
	release      chan struct{}
	stale        []model.NearbyUser
	fresh        []model.NearbyUser

	mu    sync.Mutex
	calls int
}

func (d *gatedDiscoverer) Discover(_ context.Context, _ uuid.UUID, _ discoverysvc.Query) ([]model.NearbyUser, error) {
	d.mu.Lock()
	d.calls++
	call := d.calls
	d.mu.Unlock()

	if call == 1 {
		close(d.firstStarted)
		<-d.release
		return d.stale, nil
	}
	return d.fresh, nil
}

func TestStaleQueryResultIsDropped(t *testing.T) {
	staleUser := model.NearbyUser{User: model.User{DisplayName: "stale"}}
	freshUser := model.NearbyUser{User: model.User{DisplayName: "fresh"}}
	discoverer := &gatedDiscoverer{
		firstStarted: make(chan struct{}),
		release:      make(chan struct{}),
		stale:        []model.NearbyUser{staleUser},
		fresh:        []model.NearbyUser{freshUser},
	}
	locator := &stubLocator{fix: Fix{Lat: 1, Lon: 1, At: time.Now()}}
	w := NewWatcher(uuid.New(), locator, discoverer, nil, discoverysvc.Query{}, Config{}, nil)

	started := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(started)
	}()

	<-discoverer.firstStarted

	// A filter change while the first query is in flight supersedes it.
	w.SetFilters(context.Background(), discoverysvc.Query{AvailableNow: true})

	close(discoverer.release)
	<-started

	snap := w.Snapshot()
	if snap.State != StateReady {
		t.Fatalf("unexpected state: %s", snap.State)
	}
	if len(snap.Users) != 1 || snap.Users[0].DisplayName != "fresh" {
		t.Fatalf("stale query result applied: %+v", snap.Users)
	}
}

func TestQueryErrorSetsErrorState(t *testing.T) {
	discoverer := &stubDiscoverer{err: errors.New("validation error")}
	w := NewWatcher(uuid.New(), &stubLocator{fix: Fix{Lat: 1, Lon: 1, At: time.Now()}}, discoverer, nil, discoverysvc.Query{}, Config{}, nil)

	w.Start(context.Background())

	snap := w.Snapshot()
	if snap.State != StateError {
		t.Fatalf("unexpected state: %s", snap.State)
	}
	if snap.Err == nil {
		t.Fatal("expected snapshot error")
	}
}

func TestStartPushesResolvedLocation(t *testing.T) {
	saver := &recordingSaver{done: make(chan struct{}, 1)}
	discoverer := &stubDiscoverer{}
	w := NewWatcher(uuid.New(), &stubLocator{fix: Fix{Lat: 1, Lon: 1, At: time.Now()}}, discoverer, saver, discoverysvc.Query{}, Config{}, nil)

	w.Start(context.Background())

	select {
	case <-saver.done:
	case <-time.After(2 * time.Second):
		t.Fatal("location push never happened")
	}
}
