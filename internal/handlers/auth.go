package handlers

import (
	"authgate/internal/logger"
	"authgate/internal/services"
	helpers "authgate/internal/utils/helpres"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

type AuthHandler struct {
	authService     *services.AuthService
	passwordService *services.PasswordService
}

func NewAuthHandler(authService *services.AuthService, passwordService *services.PasswordService) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		passwordService: passwordService,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Register godoc
// @Summary Регистрация нового пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param input body registerRequest true "Данные регистрации"
// @Success 201 {object} models.User
// @Failure 400 {string} string "Email уже зарегистрирован"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в Register", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}
	logger.Log.Info("Регистрация пользователя", zap.String("email", req.Email))

	user, err := h.authService.RegisterUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			helpers.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Log.Error("Ошибка регистрации пользователя", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	helpers.JSON(w, http.StatusCreated, user)
}

// Login godoc
// @Summary Авторизация пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginRequest true "Данные для входа"
// @Success 200 {object} loginResponse
// @Failure 400 {string} string "Учётная запись деактивирована"
// @Failure 401 {string} string "Неверный email или пароль"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в Login", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}
	logger.Log.Info("Попытка входа", zap.String("email", req.Email))

	access, refresh, err := h.authService.LoginUser(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			helpers.Error(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, services.ErrInactiveAccount):
			helpers.Error(w, http.StatusBadRequest, err.Error())
		default:
			logger.Log.Error("Ошибка входа пользователя", zap.Error(err))
			helpers.Error(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		}
		return
	}

	helpers.JSON(w, http.StatusOK, loginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	})
}

// Logout godoc
// @Summary Выход (отзыв refresh токена)
// @Tags auth
// @Accept json
// @Produce json
// @Param input body logoutRequest true "Refresh токен"
// @Success 200 {string} string "Выход выполнен"
// @Failure 401 {string} string "Неверный или уже отозванный токен"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в Logout", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, services.ErrInvalidOrRevokedToken) {
			helpers.Error(w, http.StatusUnauthorized, err.Error())
			return
		}
		logger.Log.Error("Ошибка при отзыве токена", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		return
	}

	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Выход выполнен"})
}

// ForgotPassword godoc
// @Summary Запрос на сброс пароля
// @Tags auth
// @Accept json
// @Produce json
// @Param input body forgotPasswordRequest true "Email"
// @Success 200 {string} string "Если адрес зарегистрирован, письмо отправлено"
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в ForgotPassword", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	// Ответ одинаков для зарегистрированного и незнакомого адреса —
	// иначе по нему можно перечислять аккаунты.
	_ = h.passwordService.RequestReset(r.Context(), req.Email)

	helpers.JSON(w, http.StatusOK, map[string]string{
		"message": "Если такой адрес зарегистрирован, мы отправили письмо со ссылкой для сброса",
	})
}

// ResetPassword godoc
// @Summary Сброс пароля по токену из письма
// @Tags auth
// @Accept json
// @Produce json
// @Param input body resetPasswordRequest true "Токен и новый пароль"
// @Success 200 {string} string "Пароль изменён"
// @Failure 400 {string} string "Неверный, истёкший или уже использованный токен"
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в ResetPassword", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	if err := h.passwordService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidResetToken), errors.Is(err, services.ErrPasswordTooShort):
			helpers.Error(w, http.StatusBadRequest, err.Error())
		default:
			logger.Log.Error("Ошибка сброса пароля", zap.Error(err))
			helpers.Error(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		}
		return
	}

	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Пароль изменён"})
}
