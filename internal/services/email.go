package services

import (
	"authgate/internal/config"
	"authgate/internal/logger"
	helpers "authgate/internal/utils/helpres"
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

type EmailJob struct {
	To      []string
	Subject string
	Body    string
	IsHTML  bool
}

// EmailQueue — общая очередь писем; разгребается воркерами из app.
var EmailQueue = make(chan EmailJob, 100)

type EmailService struct {
	auth        smtp.Auth
	from        string
	host        string
	port        string
	resetTTLMin int
}

func NewEmailService(cfg *config.Config) *EmailService {
	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	return &EmailService{
		auth:        auth,
		from:        cfg.SMTPUser,
		host:        cfg.SMTPHost,
		port:        cfg.SMTPPort,
		resetTTLMin: int(cfg.PasswordResetTTL().Minutes()),
	}
}

func (s *EmailService) Send(to []string, subject, body string, isHTML bool) error {
	contentType := "text/plain"
	if isHTML {
		contentType = "text/html"
	}
	msg := []byte("Subject: " + subject + "\r\n" +
		"Content-Type: " + contentType + "; charset=\"utf-8\"\r\n\r\n" +
		body)

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, s.auth, s.from, to, msg)
}

// SendPasswordReset ставит письмо со ссылкой на сброс в очередь.
// Возвращает nil сразу: доставка — best effort и не держит запрос.
func (s *EmailService) SendPasswordReset(_ context.Context, to, resetLink string) error {
	html := helpers.BuildPasswordResetHTML(resetLink, s.resetTTLMin)
	EmailQueue <- EmailJob{
		To:      []string{to},
		Subject: "Сброс пароля",
		Body:    html,
		IsHTML:  true,
	}
	return nil
}

// StartEmailWorker разгребает очередь писем. Запускается в несколько горутин.
func StartEmailWorker(s *EmailService) {
	for job := range EmailQueue {
		if err := s.Send(job.To, job.Subject, job.Body, job.IsHTML); err != nil {
			logger.Log.Error("Ошибка отправки письма (worker)",
				zap.Strings("to", job.To),
				zap.String("subject", job.Subject),
				zap.Error(err),
			)
		}
	}
}
