package service

import (
	"fmt"
	"log"
	"time"

	"github.com/campuslink/campuslink/internal/config"
	"github.com/campuslink/campuslink/internal/models"
	"github.com/wneessen/go-mail"
)

// ==============================================
// EMAIL SERVICE
// ==============================================

// EmailService delivers outbound mail over SMTP. When no SMTP host is
// configured (local development) it logs the message instead of sending.
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewEmailService(cfg config.Config) *EmailService {
	return &EmailService{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.FromEmail,
	}
}

// Send delivers a plain-text email.
func (s *EmailService) Send(to, subject, body string) error {
	if s.host == "" {
		log.Printf("📧 [dry-run] to=%s subject=%q", to, subject)
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("setting from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.port),
	}
	if s.username != "" && s.password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.username),
			mail.WithPassword(s.password),
		)
	}

	client, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

// ==============================================
// EMAIL TEMPLATES
// ==============================================

func passwordResetEmail(name, code string, kind models.OTPKind, ttl time.Duration) (subject string, body string) {
	subject = "OTP for CampusLink Password Reset"
	if kind == models.OTPKindResend {
		subject = "Your OTP Has Been Resent"
	}

	body = fmt.Sprintf(`Hello %s,

You have requested to reset your password. Use the OTP below to proceed.

%s

This OTP is valid for %d seconds.

If you didn't request this, please ignore this email and your password will remain unchanged.

Best regards,
CampusLink Team
`, name, code, int(ttl.Seconds()))

	return subject, body
}

func welcomeEmail(name, password string) (subject string, body string) {
	subject = "Welcome to CampusLink - Your Account Details"
	body = fmt.Sprintf(`Hello %s,

Welcome to CampusLink! Your account has been successfully created.

Your temporary password is: %s

Please log in and change your password immediately.

Best regards,
CampusLink Team
`, name, password)

	return subject, body
}
