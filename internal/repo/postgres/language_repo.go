package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/girmay-ak/lang-app-sub002/internal/domain/enums"
)

type LanguageRepo struct {
	pool *pgxpool.Pool
}

func NewLanguageRepo(pool *pgxpool.Pool) *LanguageRepo {
	return &LanguageRepo{pool: pool}
}

type LanguageSet struct {
	Speaks   []string
	Learning []string
}

// ListForUsers loads the per-user language rows and partitions them by
// language_type. Users with no rows are absent from the result map.
func (r *LanguageRepo) ListForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]LanguageSet, error) {
	result := make(map[uuid.UUID]LanguageSet, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	if r.pool == nil {
		return result, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT user_id, language_code, language_type
FROM user_languages
WHERE user_id = ANY($1)
ORDER BY language_code
`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list user languages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID   uuid.UUID
			code     string
			langType string
		)
		if err := rows.Scan(&userID, &code, &langType); err != nil {
			return nil, fmt.Errorf("scan user language: %w", err)
		}

		set := result[userID]
		switch enums.LanguageType(langType) {
		case enums.LanguageTypeNative:
			set.Speaks = append(set.Speaks, code)
		case enums.LanguageTypeLearning:
			set.Learning = append(set.Learning, code)
		}
		result[userID] = set
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate user languages: %w", rows.Err())
	}

	return result, nil
}

func (r *LanguageRepo) ReplaceForUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID, native, learning []string) error {
	if userID == uuid.Nil {
		return fmt.Errorf("invalid user id")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	if _, err := tx.Exec(ctx, `
DELETE FROM user_languages
WHERE user_id = $1
`, userID); err != nil {
		return fmt.Errorf("clear user languages: %w", err)
	}

	insert := func(codes []string, langType string) error {
		for _, code := range codes {
			if code == "" {
				continue
			}
			if _, err := tx.Exec(ctx, `
INSERT INTO user_languages (user_id, language_code, language_type)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, language_code, language_type) DO NOTHING
`, userID, code, langType); err != nil {
				return fmt.Errorf("insert user language: %w", err)
			}
		}
		return nil
	}

	if err := insert(native, string(enums.LanguageTypeNative)); err != nil {
		return err
	}
	return insert(learning, string(enums.LanguageTypeLearning))
}
