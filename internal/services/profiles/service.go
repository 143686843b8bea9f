package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/girmay-ak/lang-app-sub002/internal/domain/enums"
	"github.com/girmay-ak/lang-app-sub002/internal/domain/geo"
	"github.com/girmay-ak/lang-app-sub002/internal/domain/model"
	pgrepo "github.com/girmay-ak/lang-app-sub002/internal/repo/postgres"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("user not found")
)

type UserStore interface {
	Get(ctx context.Context, userID uuid.UUID) (pgrepo.UserRecord, error)
	SaveLocation(ctx context.Context, userID uuid.UUID, lat, lon float64, at time.Time) error
	SetAvailability(ctx context.Context, userID uuid.UUID, status string) error
}

type LanguageStore interface {
	ListForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]pgrepo.LanguageSet, error)
	ReplaceForUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID, native, learning []string) error
}

type Service struct {
	pool      *pgxpool.Pool
	users     UserStore
	languages LanguageStore
	runTx     func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	now       func() time.Time
}

func NewService(pool *pgxpool.Pool, users UserStore, languages LanguageStore) *Service {
	s := &Service{
		pool:      pool,
		users:     users,
		languages: languages,
		now:       time.Now,
	}
	s.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return pgrepo.WithTx(ctx, s.pool, fn)
	}
	return s
}

// Get assembles the full profile: the user row plus the language sets
// partitioned from the per-user language rows.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (model.User, error) {
	if userID == uuid.Nil {
		return model.User{}, ErrValidation
	}

	rec, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("get user record: %w", err)
	}

	sets, err := s.languages.ListForUsers(ctx, []uuid.UUID{userID})
	if err != nil {
		return model.User{}, fmt.Errorf("load user languages: %w", err)
	}

	user := mapUserRecord(rec)
	if set, ok := sets[userID]; ok {
		user.Speaks = set.Speaks
		user.Learning = set.Learning
	}

	return user, nil
}

func (s *Service) SaveLocation(ctx context.Context, userID uuid.UUID, lat, lon float64) error {
	if userID == uuid.Nil {
		return ErrValidation
	}
	if err := geo.ValidateCoordinates(lat, lon); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if err := s.users.SaveLocation(ctx, userID, lat, lon, s.now().UTC()); err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("save location: %w", err)
	}

	return nil
}

func (s *Service) SetAvailability(ctx context.Context, userID uuid.UUID, status enums.Availability) error {
	if userID == uuid.Nil || !status.Valid() {
		return ErrValidation
	}

	if err := s.users.SetAvailability(ctx, userID, string(status)); err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("set availability: %w", err)
	}

	return nil
}

func (s *Service) SetLanguages(ctx context.Context, userID uuid.UUID, native, learning []string) error {
	if userID == uuid.Nil {
		return ErrValidation
	}
	if len(native) == 0 && len(learning) == 0 {
		return ErrValidation
	}

	return s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		return s.languages.ReplaceForUser(txCtx, tx, userID, native, learning)
	})
}

func mapUserRecord(rec pgrepo.UserRecord) model.User {
	return model.User{
		ID:           rec.ID,
		DisplayName:  rec.DisplayName,
		Bio:          rec.Bio,
		AvatarKey:    rec.AvatarKey,
		City:         rec.City,
		Lat:          rec.Lat,
		Lon:          rec.Lon,
		Availability: enums.Availability(rec.Availability),
		IsOnline:     rec.IsOnline,
		LastActiveAt: rec.LastActiveAt,
	}
}
