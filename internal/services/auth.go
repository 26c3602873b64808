package services

import (
	"authgate/internal/logger"
	"authgate/internal/models"
	"authgate/internal/repository"
	"authgate/internal/utils"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type AuthService struct {
	users      UserRepo
	tokens     RefreshTokenRepo
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(users UserRepo, tokens RefreshTokenRepo, jwtSecret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

type UserRepo interface {
	CreateUser(ctx context.Context, user *models.User) error
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	UpdateUserPassword(ctx context.Context, userID int, passwordHash string) error
}

type RefreshTokenRepo interface {
	SaveRefreshToken(ctx context.Context, userID int, token string, expiresAt time.Time) error
	RevokeRefreshToken(ctx context.Context, token string) error
}

// RegisterUser создаёт аккаунт. Токены при регистрации не выдаются.
func (s *AuthService) RegisterUser(ctx context.Context, email, plainPassword string) (*models.User, error) {
	logger.Log.Info("Регистрация пользователя (service)", zap.String("email", email))
	if exists, err := s.users.IsEmailTaken(ctx, email); exists || err != nil {
		if err != nil {
			logger.Log.Error("Ошибка проверки email", zap.Error(err))
			return nil, err
		}
		return nil, ErrEmailTaken
	}

	hashed, err := utils.HashPassword(plainPassword)
	if err != nil {
		logger.Log.Error("Ошибка хеширования пароля", zap.Error(err))
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashed,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		// Гонка двух регистраций: предварительная проверка прошла у обоих,
		// вставку пропустил только один — уникальный индекс решает.
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		logger.Log.Error("Ошибка создания пользователя", zap.Error(err))
		return nil, err
	}
	logger.Log.Info("Пользователь зарегистрирован (service)", zap.Int("user_id", user.ID))
	return user, nil
}

// LoginUser проверяет учётные данные и выдаёт пару токенов.
// "Нет такого пользователя" и "неверный пароль" наружу неразличимы.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	logger.Log.Info("Попытка входа (service)", zap.String("email", email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Log.Error("Ошибка получения пользователя (service)", zap.Error(err))
			return "", "", err
		}
		logger.Log.Warn("Пользователь не найден (service)", zap.String("email", email))
		return "", "", ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Log.Warn("Неверный пароль (service)", zap.Int("user_id", user.ID))
		return "", "", ErrInvalidCredentials
	}

	// Активность проверяем только после пароля: ответ "аккаунт деактивирован"
	// не должен доставаться тому, кто пароль не знает.
	if !user.IsActive {
		logger.Log.Warn("Вход в деактивированный аккаунт (service)", zap.Int("user_id", user.ID))
		return "", "", ErrInactiveAccount
	}

	accessToken, err := utils.GenerateToken(s.jwtSecret, user.ID, utils.TokenTypeAccess, s.accessTTL)
	if err != nil {
		logger.Log.Error("Ошибка генерации access-токена", zap.Error(err))
		return "", "", err
	}

	refreshToken, err := utils.GenerateToken(s.jwtSecret, user.ID, utils.TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		logger.Log.Error("Ошибка генерации refresh-токена", zap.Error(err))
		return "", "", err
	}

	// Каждый вход — новая запись; прежние сессии не трогаем.
	expiresAt := time.Now().Add(s.refreshTTL)
	if err := s.tokens.SaveRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		logger.Log.Error("Ошибка сохранения refresh-токена", zap.Error(err))
		return "", "", err
	}

	logger.Log.Info("Вход выполнен (service)", zap.Int("user_id", user.ID))
	return accessToken, refreshToken, nil
}

// Logout отзывает refresh-токен по его точному значению.
// Повторный вызов с тем же токеном — ErrInvalidOrRevokedToken.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	logger.Log.Info("Выход пользователя (service)")
	err := s.tokens.RevokeRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrRevokedToken
		}
		logger.Log.Error("Ошибка отзыва refresh-токена (service)", zap.Error(err))
		return err
	}
	return nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		logger.Log.Warn("Пользователь не найден по ID (service)", zap.Int("user_id", id), zap.Error(err))
	}
	return user, err
}
