package routes

import (
	"authgate/internal/handlers"
	"authgate/internal/middleware"
	helpers "authgate/internal/utils/helpres"
	"net/http"

	"github.com/gorilla/mux"
)

func InitRoutes(
	router *mux.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	jwtSecret string,
) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logging)

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		helpers.JSON(w, http.StatusOK, map[string]string{"message": "authgate is running"})
	}).Methods("GET")

	// --- Публичные маршруты ---
	auth := router.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", authHandler.Register).Methods("POST")
	auth.HandleFunc("/login", authHandler.Login).Methods("POST")
	auth.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	auth.HandleFunc("/forgot-password", authHandler.ForgotPassword).Methods("POST")
	auth.HandleFunc("/reset-password", authHandler.ResetPassword).Methods("POST")

	// --- Защищённые JWT ---
	users := router.PathPrefix("/users").Subrouter()
	users.Use(middleware.JWTAuth(jwtSecret))
	users.HandleFunc("/me", userHandler.Me).Methods("GET")
	users.HandleFunc("/me/password", userHandler.ChangePassword).Methods("POST")
}
