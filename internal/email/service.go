package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/redmonkez12/notebook-api/internal/logging"
)

type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	otpTTL       time.Duration
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword string, otpTTL time.Duration) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
		otpTTL:       otpTTL,
	}
}

// SendOTPEmail sends the one-time passcode to the user
// This method is designed to be called in a goroutine
func (s *Service) SendOTPEmail(ctx context.Context, toEmail, code string) error {
	logger := logging.GetLoggerFromContext(ctx)

	subject := "Notebook App - OTP Verification"
	body, err := renderOTPEmail(code, int(s.otpTTL.Minutes()))
	if err != nil {
		logger.Error("failed to render otp email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		logger.Error("failed to send otp email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("otp email sent", "email", toEmail)
	return nil
}

// SendWelcomeEmail greets a freshly registered user
// This method is designed to be called in a goroutine
func (s *Service) SendWelcomeEmail(ctx context.Context, toEmail, username string) error {
	logger := logging.GetLoggerFromContext(ctx)

	subject := "Welcome to Notebook"
	body, err := renderWelcomeEmail(username)
	if err != nil {
		logger.Error("failed to render welcome email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		logger.Error("failed to send welcome email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("welcome email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	// Build message
	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg)
}

var otpTemplate = template.Must(template.New("otp").Parse(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Your one-time passcode</h2>
    <p style="font-size: 28px; letter-spacing: 4px; font-weight: bold;">{{.Code}}</p>
    <p>This OTP is valid for {{.ValidMinutes}} minutes.</p>
    <p>Do not share it with anyone.</p>
    <p style="margin-top: 30px; font-size: 12px; color: #666;">If you didn't request a password reset, you can safely ignore this email.</p>
</body>
</html>
`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Hello {{.Username}},</h2>
    <p>Welcome to Notebook!</p>
    <p>We're excited to have you on board. Start organizing your ideas and notes today.</p>
    <p style="margin-top: 30px;">&ndash; Notebook Team</p>
</body>
</html>
`))

func renderOTPEmail(code string, validMinutes int) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Code         string
		ValidMinutes int
	}{
		Code:         code,
		ValidMinutes: validMinutes,
	}

	if err := otpTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

func renderWelcomeEmail(username string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Username string
	}{
		Username: username,
	}

	if err := welcomeTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
