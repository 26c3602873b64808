package repository

import (
	"authgate/internal/logger"
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type RefreshTokenRepository struct {
	db *pgxpool.Pool
}

func NewRefreshTokenRepository(db *pgxpool.Pool) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) SaveRefreshToken(ctx context.Context, userID int, token string, expiresAt time.Time) error {
	logger.Log.Debug("Сохранение refresh токена (repo)", zap.Int("user_id", userID))
	query := `INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)`
	_, err := r.db.Exec(ctx, query, token, userID, expiresAt)
	if err != nil {
		logger.Log.Error("Ошибка сохранения refresh токена (repo)", zap.Error(err))
	}
	return err
}

// RevokeRefreshToken помечает токен отозванным.
// Ищем только по revoked = false: просроченный, но не отозванный токен
// по-прежнему можно отозвать явно — срок здесь сознательно не проверяется.
func (r *RefreshTokenRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	logger.Log.Debug("Отзыв refresh токена (repo)")
	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1 AND revoked = FALSE`
	tag, err := r.db.Exec(ctx, query, token)
	if err != nil {
		logger.Log.Error("Ошибка отзыва refresh токена (repo)", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
