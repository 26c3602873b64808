package handlers_test

import (
	"authgate/internal/handlers"
	"authgate/internal/logger"
	"authgate/internal/models"
	"authgate/internal/repository"
	"authgate/internal/routes"
	"authgate/internal/services"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

type memUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*models.User
}

func (m *memUserRepo) CreateUser(_ context.Context, user *models.User) error {
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

func (m *memUserRepo) IsEmailTaken(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.users[email]
	return exists, nil
}

func (m *memUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memUserRepo) GetUserByID(_ context.Context, id int) (*models.User, error) {
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

func (m *memUserRepo) UpdateUserPassword(_ context.Context, userID int, passwordHash string) error {
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

type memRefreshRepo struct {
	mu     sync.Mutex
	tokens map[string]bool // token -> revoked
}

func (m *memRefreshRepo) SaveRefreshToken(_ context.Context, _ int, token string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = false
	return nil
}

func (m *memRefreshRepo) RevokeRefreshToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	revoked, ok := m.tokens[token]
	if !ok || revoked {
		return repository.ErrNotFound
	}
	m.tokens[token] = true
	return nil
}

type memResetRepo struct {
	mu      sync.Mutex
	records map[string]time.Time // hash -> expires_at
}

func (m *memResetRepo) Create(_ context.Context, _ int, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[tokenHash] = expiresAt
	return nil
}

func (m *memResetRepo) ConsumeAndResetPassword(_ context.Context, tokenHash, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expires, ok := m.records[tokenHash]
	if !ok || !expires.After(time.Now()) {
		return 0, repository.ErrNotFound
	}
	delete(m.records, tokenHash)
	return 1, nil
}

func (m *memResetRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type memSender struct {
	mu   sync.Mutex
	sent int
}

func (m *memSender) SendPasswordReset(_ context.Context, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
	return nil
}

func (m *memSender) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent
}

type testEnv struct {
	router *mux.Router
	resets *memResetRepo
	sender *memSender
}

func newTestEnv() *testEnv {
	users := &memUserRepo{users: make(map[string]*models.User)}
	refresh := &memRefreshRepo{tokens: make(map[string]bool)}
	resets := &memResetRepo{records: make(map[string]time.Time)}
	sender := &memSender{}

	authService := services.NewAuthService(users, refresh, testSecret, 15*time.Minute, 7*24*time.Hour)
	passwordService := services.NewPasswordService(resets, users, sender, "https://app.example.com", 30*time.Minute)

	authHandler := handlers.NewAuthHandler(authService, passwordService)
	userHandler := handlers.NewUserHandler(authService, passwordService)

	router := mux.NewRouter()
	routes.InitRoutes(router, authHandler, userHandler, testSecret)

	return &testEnv{router: router, resets: resets, sender: sender}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginMeFlow(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "test@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "test@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var loginResp struct {
		Data struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
			TokenType    string `json:"token_type"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Data.AccessToken)
	require.NotEmpty(t, loginResp.Data.RefreshToken)
	assert.Equal(t, "bearer", loginResp.Data.TokenType)

	// Профиль по access-токену
	rec = env.do(t, http.MethodGet, "/users/me", nil, map[string]string{
		"Authorization": "Bearer " + loginResp.Data.AccessToken,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "test@example.com")

	// Refresh-токен в защищённый маршрут не пускаем
	rec = env.do(t, http.MethodGet, "/users/me", nil, map[string]string{
		"Authorization": "Bearer " + loginResp.Data.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	// Выход: первый раз — 200, второй — 401
	rec = env.do(t, http.MethodPost, "/auth/logout", map[string]string{
		"refresh_token": loginResp.Data.RefreshToken,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/auth/logout", map[string]string{
		"refresh_token": loginResp.Data.RefreshToken,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_BitIdenticalFailures(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "test@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	wrongPassword := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "test@example.com", "password": "wrong",
	}, nil)
	unknownEmail := env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "secret123",
	}, nil)

	// Побайтово одинаковые ответы — по ним нельзя перечислять аккаунты
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestForgotPassword_UniformAck(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "test@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	known := env.do(t, http.MethodPost, "/auth/forgot-password", map[string]string{
		"email": "test@example.com",
	}, nil)
	unknown := env.do(t, http.MethodPost, "/auth/forgot-password", map[string]string{
		"email": "nobody@example.com",
	}, nil)

	// Ответ одинаков, но запись и письмо создаются только для знакомого адреса
	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, known.Code, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
	assert.Equal(t, 1, env.resets.count())
	assert.Equal(t, 1, env.sender.count())
}

func TestUsersMe_WithoutToken(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/users/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "test@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "test@example.com", "password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))

	rec = env.do(t, http.MethodPost, "/users/me/password", map[string]string{
		"current_password": "не-тот-пароль", "new_password": "новый-пароль",
	}, map[string]string{"Authorization": "Bearer " + loginResp.Data.AccessToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Старый пароль продолжает работать
	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "test@example.com", "password": "secret123",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
