package services

import (
	"authgate/internal/logger"
	"authgate/internal/models"
	"authgate/internal/repository"
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// Мок-репозиторий пользователей (заглушка)
type mockUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*models.User // по email
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrEmailExists
	}
	m.nextID++
	user.ID = m.nextID
	user.IsActive = true
	user.CreatedAt = time.Now()
	stored := *user
	m.users[user.Email] = &stored
	return nil
}

func (m *mockUserRepo) IsEmailTaken(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.users[email]
	return exists, nil
}

func (m *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) UpdateUserPassword(_ context.Context, userID int, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockUserRepo) setActive(email string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		u.IsActive = active
	}
}

func (m *mockUserRepo) passwordHash(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		return u.PasswordHash
	}
	return ""
}

// Мок-репозиторий refresh-токенов
type mockRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func newMockRefreshTokenRepo() *mockRefreshTokenRepo {
	return &mockRefreshTokenRepo{tokens: make(map[string]*models.RefreshToken)}
}

func (m *mockRefreshTokenRepo) SaveRefreshToken(_ context.Context, userID int, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = &models.RefreshToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (m *mockRefreshTokenRepo) RevokeRefreshToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok || t.Revoked {
		return repository.ErrNotFound
	}
	t.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// Мок-репозиторий токенов сброса; пароль пишет в mockUserRepo —
// как настоящая транзакция, обе записи "коммитятся" вместе.
type mockPasswordResetRepo struct {
	mu      sync.Mutex
	users   *mockUserRepo
	records map[string]*models.PasswordResetToken // по хешу токена
}

func newMockPasswordResetRepo(users *mockUserRepo) *mockPasswordResetRepo {
	return &mockPasswordResetRepo{
		users:   users,
		records: make(map[string]*models.PasswordResetToken),
	}
}

func (m *mockPasswordResetRepo) Create(_ context.Context, userID int, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[tokenHash] = &models.PasswordResetToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (m *mockPasswordResetRepo) ConsumeAndResetPassword(ctx context.Context, tokenHash, passwordHash string) (int, error) {
	m.mu.Lock()
	rec, ok := m.records[tokenHash]
	if !ok || rec.UsedAt != nil || !rec.ExpiresAt.After(time.Now()) {
		m.mu.Unlock()
		return 0, repository.ErrNotFound
	}
	now := time.Now()
	rec.UsedAt = &now
	m.mu.Unlock()

	if err := m.users.UpdateUserPassword(ctx, rec.UserID, passwordHash); err != nil {
		return 0, err
	}
	return rec.UserID, nil
}

func (m *mockPasswordResetRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Мок отправки писем
type mockEmailSender struct {
	mu   sync.Mutex
	sent []string // ссылки из отправленных писем
}

func (m *mockEmailSender) SendPasswordReset(_ context.Context, _, resetLink string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, resetLink)
	return nil
}

func (m *mockEmailSender) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *mockEmailSender) lastLink() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1]
}
