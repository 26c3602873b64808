package app

import (
	"authgate/internal/config"
	"authgate/internal/db"
	"authgate/internal/handlers"
	"authgate/internal/repository"
	"authgate/internal/routes"
	"authgate/internal/services"

	"github.com/gorilla/mux"
)

func InitApp(cfg *config.Config) (*mux.Router, error) {
	if err := db.RunMigrations(cfg); err != nil {
		return nil, err
	}

	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}

	// Репозитории
	userRepo := repository.NewUserRepository(conn)
	refreshRepo := repository.NewRefreshTokenRepository(conn)
	resetRepo := repository.NewPasswordResetRepository(conn)

	// Сервисы
	emailService := services.NewEmailService(cfg)
	authService := services.NewAuthService(userRepo, refreshRepo, cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	passwordService := services.NewPasswordService(resetRepo, userRepo, emailService, cfg.FrontendURL, cfg.PasswordResetTTL())

	// Хендлеры
	authHandler := handlers.NewAuthHandler(authService, passwordService)
	userHandler := handlers.NewUserHandler(authService, passwordService)

	// Воркеры отправки почты
	for i := 0; i < 3; i++ {
		go services.StartEmailWorker(emailService)
	}

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, authHandler, userHandler, cfg.JWTSecret)

	return router, nil
}
