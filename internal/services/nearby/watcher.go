package nearby

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/girmay-ak/lang-app-sub002/internal/domain/model"
	discoverysvc "github.com/girmay-ak/lang-app-sub002/internal/services/discovery"
)

type State string

const (
	StateInitializing State = "initializing"
	StateLoading      State = "loading"
	StateReady        State = "ready"
	StateError        State = "error"
)

const (
	defaultLocateTimeout = 10 * time.Second
	defaultFixMaxAge     = 60 * time.Second
	locationPushTimeout  = 5 * time.Second

	// Fallback center when the device location cannot be resolved.
	defaultLat = 52.07
	defaultLon = 4.30
)

type Fix struct {
	Lat float64
	Lon float64
	At  time.Time
}

type Locator interface {
	Current(ctx context.Context) (Fix, error)
}

type Discoverer interface {
	Discover(ctx context.Context, viewerID uuid.UUID, q discoverysvc.Query) ([]model.NearbyUser, error)
}

type LocationSaver interface {
	SaveLocation(ctx context.Context, userID uuid.UUID, lat, lon float64) error
}

type Config struct {
	LocateTimeout time.Duration
	FixMaxAge     time.Duration
	DefaultLat    float64
	DefaultLon    float64
}

type Snapshot struct {
	State    State
	Users    []model.NearbyUser
	Location *Fix
	Err      error
}

// Watcher drives the discovery loop for one viewer: resolve the device
// location once, query, and re-query on filter changes without touching the
// locator again. Refresh re-resolves. Every query carries a monotonic
// generation; a superseded in-flight query cannot overwrite newer state.
type Watcher struct {
	viewerID   uuid.UUID
	locator    Locator
	discoverer Discoverer
	saver      LocationSaver
	cfg        Config
	logger     *zap.Logger
	now        func() time.Time

	mu       sync.Mutex
	gen      uint64
	state    State
	users    []model.NearbyUser
	location *Fix
	err      error
	filters  discoverysvc.Query
}

func NewWatcher(viewerID uuid.UUID, locator Locator, discoverer Discoverer, saver LocationSaver, filters discoverysvc.Query, cfg Config, logger *zap.Logger) *Watcher {
	if cfg.LocateTimeout <= 0 {
		cfg.LocateTimeout = defaultLocateTimeout
	}
	if cfg.FixMaxAge <= 0 {
		cfg.FixMaxAge = defaultFixMaxAge
	}
	if cfg.DefaultLat == 0 && cfg.DefaultLon == 0 {
		cfg.DefaultLat = defaultLat
		cfg.DefaultLon = defaultLon
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		viewerID:   viewerID,
		locator:    locator,
		discoverer: discoverer,
		saver:      saver,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		state:      StateInitializing,
		filters:    filters,
	}
}

// Start resolves the location once and runs the first discovery query.
func (w *Watcher) Start(ctx context.Context) {
	fix := w.resolveLocation(ctx)

	w.mu.Lock()
	w.location = &fix
	w.mu.Unlock()

	w.query(ctx, fix)
}

// SetFilters re-queries with the already-known location. Before the first
// location resolve it only records the filters.
func (w *Watcher) SetFilters(ctx context.Context, filters discoverysvc.Query) {
	w.mu.Lock()
	w.filters = filters
	loc := w.location
	w.mu.Unlock()

	if loc == nil {
		return
	}
	w.query(ctx, *loc)
}

// Refresh re-resolves the device location and re-queries.
func (w *Watcher) Refresh(ctx context.Context) {
	fix := w.resolveLocation(ctx)

	w.mu.Lock()
	w.location = &fix
	w.mu.Unlock()

	w.query(ctx, fix)
}

func (w *Watcher) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	users := make([]model.NearbyUser, len(w.users))
	copy(users, w.users)

	var loc *Fix
	if w.location != nil {
		v := *w.location
		loc = &v
	}

	return Snapshot{
		State:    w.state,
		Users:    users,
		Location: loc,
		Err:      w.err,
	}
}

// resolveLocation asks the locator with a bounded timeout, reusing a recent
// enough fix, and falls back to the configured default center when the
// locator is missing or fails.
func (w *Watcher) resolveLocation(ctx context.Context) Fix {
	w.mu.Lock()
	cached := w.location
	w.mu.Unlock()

	if cached != nil && w.now().Sub(cached.At) <= w.cfg.FixMaxAge {
		return *cached
	}

	if w.locator == nil {
		return w.defaultFix()
	}

	locateCtx, cancel := context.WithTimeout(ctx, w.cfg.LocateTimeout)
	defer cancel()

	fix, err := w.locator.Current(locateCtx)
	if err != nil {
		w.logger.Warn("location resolve failed, using default center",
			zap.String("viewer_id", w.viewerID.String()),
			zap.Error(err),
		)
		return w.defaultFix()
	}
	if fix.At.IsZero() {
		fix.At = w.now()
	}

	return fix
}

func (w *Watcher) defaultFix() Fix {
	return Fix{Lat: w.cfg.DefaultLat, Lon: w.cfg.DefaultLon, At: w.now()}
}

func (w *Watcher) query(ctx context.Context, fix Fix) {
	w.mu.Lock()
	w.gen++
	gen := w.gen
	w.state = StateLoading
	filters := w.filters
	w.mu.Unlock()

	w.pushLocation(fix)

	filters.Lat = fix.Lat
	filters.Lon = fix.Lon
	users, err := w.discoverer.Discover(ctx, w.viewerID, filters)

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		// A newer query superseded this one while it was in flight.
		return
	}
	if err != nil {
		w.state = StateError
		w.err = err
		return
	}
	w.state = StateReady
	w.err = nil
	w.users = users
}

// pushLocation writes the resolved coordinate back to the viewer's own
// record. Fire-and-forget: a failed push only stales the stored location.
func (w *Watcher) pushLocation(fix Fix) {
	if w.saver == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), locationPushTimeout)
		defer cancel()

		if err := w.saver.SaveLocation(ctx, w.viewerID, fix.Lat, fix.Lon); err != nil {
			w.logger.Warn("push viewer location failed",
				zap.String("viewer_id", w.viewerID.String()),
				zap.Error(err),
			)
		}
	}()
}
