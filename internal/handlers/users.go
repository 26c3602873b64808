package handlers

import (
	"authgate/internal/logger"
	"authgate/internal/middleware"
	"authgate/internal/services"
	helpers "authgate/internal/utils/helpres"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

type UserHandler struct {
	authService     *services.AuthService
	passwordService *services.PasswordService
}

func NewUserHandler(authService *services.AuthService, passwordService *services.PasswordService) *UserHandler {
	return &UserHandler{
		authService:     authService,
		passwordService: passwordService,
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Me godoc
// @Summary Профиль текущего пользователя
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.User
// @Failure 401 {string} string "Неверный или просроченный токен"
// @Router /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.ContextUserID).(int)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Неверный или просроченный токен")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		// Подпись валидна, но субъекта уже нет — токен больше ничего не удостоверяет
		logger.Log.Warn("Пользователь из токена не найден", zap.Int("user_id", userID), zap.Error(err))
		w.Header().Set("WWW-Authenticate", "Bearer")
		helpers.Error(w, http.StatusUnauthorized, "Неверный или просроченный токен")
		return
	}

	helpers.JSON(w, http.StatusOK, user)
}

// ChangePassword godoc
// @Summary Смена пароля текущего пользователя
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param input body changePasswordRequest true "Текущий и новый пароль"
// @Success 200 {string} string "Пароль изменён"
// @Failure 400 {string} string "Текущий пароль неверен"
// @Router /users/me/password [post]
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.ContextUserID).(int)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Неверный или просроченный токен")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в ChangePassword", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}

	err := h.passwordService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrIncorrectOldPassword), errors.Is(err, services.ErrPasswordTooShort):
			helpers.Error(w, http.StatusBadRequest, err.Error())
		default:
			logger.Log.Error("Ошибка смены пароля", zap.Error(err), zap.Int("user_id", userID))
			helpers.Error(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
		}
		return
	}

	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Пароль изменён"})
}
