package middleware

import (
	"authgate/internal/logger"
	"authgate/internal/reqctx"
	"authgate/internal/utils"
	helpers "authgate/internal/utils/helpres"
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// JWTAuth пропускает только запросы с валидным access-токеном в Authorization.
// Любой дефект токена — единый 401 с challenge WWW-Authenticate: Bearer.
func JWTAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				logger.WithCtx(r.Context()).Warn("JWTAuth: отсутствует access token")
				unauthorized(w)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := utils.ParseToken(jwtSecret, tokenString)
			if err != nil {
				logger.WithCtx(r.Context()).Warn("JWTAuth: неверный или просроченный токен",
					zap.Error(err))
				unauthorized(w)
				return
			}

			// Refresh-токен подписан тем же секретом, но сюда ему нельзя
			if claims.TokenType != utils.TokenTypeAccess {
				logger.WithCtx(r.Context()).Warn("JWTAuth: не access-токен",
					zap.String("token_type", claims.TokenType))
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), ContextUserID, claims.UserID)
			ctx = reqctx.WithUserID(ctx, claims.UserID)

			logger.WithCtx(ctx).Debug("JWTAuth: токен валиден", zap.Int("user_id", claims.UserID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	helpers.Error(w, http.StatusUnauthorized, "Неверный или просроченный токен")
}
