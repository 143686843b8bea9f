package discovery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/girmay-ak/lang-app-sub002/internal/domain/enums"
	"github.com/girmay-ak/lang-app-sub002/internal/domain/geo"
	"github.com/girmay-ak/lang-app-sub002/internal/domain/model"
	pgrepo "github.com/girmay-ak/lang-app-sub002/internal/repo/postgres"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrQueryFailed = errors.New("discovery query failed")
)

const (
	defaultRadiusKM = 50.0
	maxRadiusKM     = 200.0
	candidateLimit  = 200
	avatarURLTTL    = 5 * time.Minute
)

type SearchStore interface {
	Search(ctx context.Context, q pgrepo.NearbySearch) ([]pgrepo.NearbyRecord, error)
	ListActive(ctx context.Context, viewerID uuid.UUID, onlyAvailable bool, limit int) ([]pgrepo.NearbyRecord, error)
}

type LanguageStore interface {
	ListForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]pgrepo.LanguageSet, error)
}

type PresenceOverlay interface {
	OnlineSet(ctx context.Context, userIDs []uuid.UUID) map[uuid.UUID]bool
}

type AvatarSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Query struct {
	Lat          float64
	Lon          float64
	RadiusKM     float64
	AvailableNow bool
	Languages    []string

	// SkillLevels is accepted for interface compatibility but not filtered
	// on in either query path.
	SkillLevels []string
}

type Config struct {
	DefaultRadiusKM float64
	MaxRadiusKM     float64
	CandidateLimit  int
}

type Service struct {
	store     SearchStore
	languages LanguageStore
	presence  PresenceOverlay
	avatars   AvatarSigner
	cfg       Config
	logger    *zap.Logger
}

func NewService(store SearchStore, languages LanguageStore, cfg Config, logger *zap.Logger) *Service {
	if cfg.DefaultRadiusKM <= 0 {
		cfg.DefaultRadiusKM = defaultRadiusKM
	}
	if cfg.MaxRadiusKM <= 0 {
		cfg.MaxRadiusKM = maxRadiusKM
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = candidateLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:     store,
		languages: languages,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *Service) AttachPresence(presence PresenceOverlay) {
	s.presence = presence
}

func (s *Service) AttachAvatarSigner(signer AvatarSigner) {
	s.avatars = signer
}

// Discover returns candidates around the given center ordered by ascending
// distance, the viewer excluded. Query failures on both paths are absorbed
// into an empty result: the nearby surface must never break on a discovery
// error. Validation failures still propagate.
func (s *Service) Discover(ctx context.Context, viewerID uuid.UUID, q Query) ([]model.NearbyUser, error) {
	if viewerID == uuid.Nil {
		return nil, ErrValidation
	}
	if err := geo.ValidateCoordinates(q.Lat, q.Lon); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if s.store == nil || s.languages == nil {
		return nil, fmt.Errorf("discovery dependencies are not configured")
	}

	if q.RadiusKM <= 0 {
		q.RadiusKM = s.cfg.DefaultRadiusKM
	}
	if q.RadiusKM > s.cfg.MaxRadiusKM {
		q.RadiusKM = s.cfg.MaxRadiusKM
	}

	users, err := s.discover(ctx, viewerID, q)
	if err != nil {
		s.logger.Warn("discovery failed, returning empty result",
			zap.String("viewer_id", viewerID.String()),
			zap.Error(err),
		)
		return []model.NearbyUser{}, nil
	}

	return users, nil
}

func (s *Service) discover(ctx context.Context, viewerID uuid.UUID, q Query) ([]model.NearbyUser, error) {
	records, err := s.store.Search(ctx, pgrepo.NearbySearch{
		ViewerID: viewerID,
		Lat:      q.Lat,
		Lon:      q.Lon,
		RadiusKM: q.RadiusKM,
		Limit:    s.cfg.CandidateLimit,
	})
	if err == nil {
		// The radius query already filtered and ordered by distance;
		// availability and languages are applied here.
		users, err := s.assemble(ctx, records, q.Lat, q.Lon)
		if err != nil {
			return nil, err
		}
		return s.filter(users, q, false), nil
	}

	s.logger.Warn("radius search failed, using fallback query",
		zap.String("viewer_id", viewerID.String()),
		zap.Error(err),
	)

	records, err = s.store.ListActive(ctx, viewerID, q.AvailableNow, s.cfg.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	users, err := s.assemble(ctx, records, q.Lat, q.Lon)
	if err != nil {
		return nil, err
	}

	users = s.filter(users, q, true)
	sortByDistance(users)
	return users, nil
}

// assemble maps repo records to NearbyUser, computing the distance in
// process when the query path did not, and attaching language sets, live
// online flags, and presigned avatar URLs.
func (s *Service) assemble(ctx context.Context, records []pgrepo.NearbyRecord, centerLat, centerLon float64) ([]model.NearbyUser, error) {
	ids := make([]uuid.UUID, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.UserID)
	}

	sets, err := s.languages.ListForUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: load candidate languages: %w", ErrQueryFailed, err)
	}

	var online map[uuid.UUID]bool
	if s.presence != nil {
		online = s.presence.OnlineSet(ctx, ids)
	}

	users := make([]model.NearbyUser, 0, len(records))
	for _, rec := range records {
		distance := math.NaN()
		if rec.DistanceKM != nil {
			distance = *rec.DistanceKM
		} else {
			distance = geo.DistanceBetween(&centerLat, &centerLon, rec.Lat, rec.Lon)
		}

		user := model.NearbyUser{
			User: model.User{
				ID:           rec.UserID,
				DisplayName:  rec.DisplayName,
				Bio:          rec.Bio,
				AvatarKey:    rec.AvatarKey,
				City:         rec.City,
				Lat:          rec.Lat,
				Lon:          rec.Lon,
				Availability: enums.Availability(rec.Availability),
				IsOnline:     rec.IsOnline,
				LastActiveAt: rec.LastActiveAt,
			},
			DistanceKM:        distance,
			FormattedDistance: geo.FormatDistance(distance),
		}

		if set, ok := sets[rec.UserID]; ok {
			user.Speaks = set.Speaks
			user.Learning = set.Learning
		}
		if online != nil {
			if flag, ok := online[rec.UserID]; ok {
				user.IsOnline = flag
			}
		}
		if s.avatars != nil && rec.AvatarKey != nil && *rec.AvatarKey != "" {
			if url, signErr := s.avatars.PresignGet(ctx, *rec.AvatarKey, avatarURLTTL); signErr == nil {
				user.AvatarURL = &url
			}
		}

		users = append(users, user)
	}

	return users, nil
}

// filter applies availability, language, and radius criteria. Radius is only
// enforced on the fallback path; candidates with an unknown (NaN) distance
// pass the radius check unconditionally.
func (s *Service) filter(users []model.NearbyUser, q Query, applyRadius bool) []model.NearbyUser {
	filtered := users[:0]
	for _, user := range users {
		if q.AvailableNow && user.Availability != enums.AvailabilityAvailable {
			continue
		}
		if len(q.Languages) > 0 && !speaksAnyOf(user, q.Languages) {
			continue
		}
		if applyRadius && !math.IsNaN(user.DistanceKM) && user.DistanceKM > q.RadiusKM {
			continue
		}
		filtered = append(filtered, user)
	}
	return filtered
}

// speaksAnyOf matches when any language the user speaks or learns intersects
// the requested set.
func speaksAnyOf(user model.NearbyUser, wanted []string) bool {
	for _, code := range wanted {
		for _, spoken := range user.Speaks {
			if spoken == code {
				return true
			}
		}
		for _, learning := range user.Learning {
			if learning == code {
				return true
			}
		}
	}
	return false
}

// sortByDistance orders ascending, unknown distances last.
func sortByDistance(users []model.NearbyUser) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i].DistanceKM, users[j].DistanceKM
		if math.IsNaN(a) {
			a = math.Inf(1)
		}
		if math.IsNaN(b) {
			b = math.Inf(1)
		}
		return a < b
	})
}
