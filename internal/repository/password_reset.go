package repository

import (
	"authgate/internal/logger"
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PasswordResetRepository struct {
	db *pgxpool.Pool
}

func NewPasswordResetRepository(db *pgxpool.Pool) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) Create(ctx context.Context, userID int, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO password_reset_tokens (token_hash, user_id, expires_at) VALUES ($1,$2,$3)`,
		tokenHash, userID, expiresAt,
	)
	if err != nil {
		logger.Log.Error("Create reset token failed", zap.Error(err), zap.Int("user_id", userID))
	}
	return err
}

// ConsumeAndResetPassword атомарно гасит токен сброса и ставит новый хеш пароля.
// Гашение — одним условным UPDATE: из двух конкурентных запросов с одним
// токеном пройдёт ровно один. Обе записи коммитятся одной транзакцией —
// падение между ними не оставит токен переиспользуемым.
func (r *PasswordResetRepository) ConsumeAndResetPassword(ctx context.Context, tokenHash, passwordHash string) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		logger.Log.Error("Ошибка открытия транзакции сброса пароля (repo)", zap.Error(err))
		return 0, err
	}
	defer tx.Rollback(ctx)

	var userID int
	err = tx.QueryRow(ctx, `
		UPDATE password_reset_tokens SET used_at = now()
		WHERE token_hash = $1
		  AND used_at IS NULL
		  AND expires_at > now()
		RETURNING user_id
	`, tokenHash).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		logger.Log.Error("Ошибка гашения токена сброса (repo)", zap.Error(err))
		return 0, err
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID); err != nil {
		logger.Log.Error("Ошибка обновления пароля в транзакции сброса (repo)", zap.Error(err), zap.Int("user_id", userID))
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Log.Error("Ошибка коммита транзакции сброса пароля (repo)", zap.Error(err))
		return 0, err
	}
	return userID, nil
}
