package services

import (
	"authgate/internal/logger"
	"authgate/internal/repository"
	"authgate/internal/utils"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type PasswordService struct {
	repo        PasswordResetRepo
	users       UserRepo
	emailSender EmailSender // интерфейс отправки писем
	appURL      string      // фронтовый URL: https://example.com (ссылка вида /reset-password?token=...)
	tokenTTL    time.Duration
}

type PasswordResetRepo interface {
	Create(ctx context.Context, userID int, tokenHash string, expiresAt time.Time) error
	ConsumeAndResetPassword(ctx context.Context, tokenHash, passwordHash string) (int, error)
}

type EmailSender interface {
	SendPasswordReset(ctx context.Context, to, resetLink string) error
}

func NewPasswordService(repo PasswordResetRepo, users UserRepo, emailSender EmailSender, appURL string, tokenTTL time.Duration) *PasswordService {
	return &PasswordService{
		repo:        repo,
		users:       users,
		emailSender: emailSender,
		appURL:      appURL,
		tokenTTL:    tokenTTL,
	}
}

// RequestReset генерирует одноразовый токен и отправляет письмо со ссылкой.
// Возвращает nil всегда (не раскрываем, существует ли такой e-mail).
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	logger.Log.Info("Запрос на сброс пароля", zap.String("email", email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		// Не раскрываем наличие почты пользователю, но логируем для нас:
		logger.Log.Warn("Не удалось найти пользователя по email при запросе сброса",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil
	}

	// Криптостойкий токен: 32 случайных байта, в базе — только sha256
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		logger.Log.Error("Ошибка генерации токена для сброса", zap.Error(err), zap.Int("user_id", user.ID))
		return nil
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	tokenHash := hashResetToken(token)

	expires := time.Now().Add(s.tokenTTL)
	if err := s.repo.Create(ctx, user.ID, tokenHash, expires); err != nil {
		logger.Log.Error("Ошибка сохранения токена сброса пароля",
			zap.Int("user_id", user.ID),
			zap.Error(err),
		)
		return nil
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)
	if err := s.emailSender.SendPasswordReset(ctx, user.Email, resetLink); err != nil {
		// Не фейлим намеренно: запись уже создана, письмо — best effort
		logger.Log.Error("Ошибка отправки письма для сброса пароля",
			zap.Int("user_id", user.ID),
			zap.Error(err),
		)
	}

	logger.Log.Info("Письмо со ссылкой на сброс пароля поставлено на отправку",
		zap.Int("user_id", user.ID),
		zap.Time("expires_at", expires),
	)
	return nil
}

// ResetPassword подтверждает токен и устанавливает новый пароль.
// "Не найден", "истёк" и "уже использован" наружу неразличимы.
func (s *PasswordService) ResetPassword(ctx context.Context, token, newPassword string) error {
	logger.Log.Info("Попытка сброса пароля по токену")

	if len(newPassword) < 8 {
		logger.Log.Warn("Слишком короткий новый пароль")
		return ErrPasswordTooShort
	}

	pwHash, err := utils.HashPassword(newPassword)
	if err != nil {
		logger.Log.Error("Ошибка генерации хеша пароля", zap.Error(err))
		return err
	}

	userID, err := s.repo.ConsumeAndResetPassword(ctx, hashResetToken(token), pwHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Log.Warn("Неверный или просроченный токен при сбросе пароля")
			return ErrInvalidResetToken
		}
		logger.Log.Error("Ошибка сброса пароля", zap.Error(err))
		return err
	}

	logger.Log.Info("Пароль успешно сброшен", zap.Int("user_id", userID))
	return nil
}

// ChangePassword меняет пароль для авторизованного пользователя по старому паролю.
func (s *PasswordService) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	logger.Log.Info("Смена пароля (авторизованный пользователь)", zap.Int("user_id", userID))

	if len(newPassword) < 8 {
		logger.Log.Warn("Слишком короткий новый пароль", zap.Int("user_id", userID))
		return ErrPasswordTooShort
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		logger.Log.Error("Не удалось получить пользователя при смене пароля", zap.Error(err), zap.Int("user_id", userID))
		return err
	}

	if !utils.CheckPasswordHash(oldPassword, user.PasswordHash) {
		logger.Log.Warn("Старый пароль не совпадает", zap.Int("user_id", userID))
		return ErrIncorrectOldPassword
	}

	newHash, err := utils.HashPassword(newPassword)
	if err != nil {
		logger.Log.Error("Ошибка генерации нового хеша пароля", zap.Error(err), zap.Int("user_id", userID))
		return err
	}

	if err := s.users.UpdateUserPassword(ctx, userID, newHash); err != nil {
		logger.Log.Error("Ошибка обновления пароля пользователя",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("Пароль успешно изменён", zap.Int("user_id", userID))
	return nil
}

func hashResetToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
