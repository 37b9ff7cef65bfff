package services

import (
	"fmt"
	"html"
	"log"
	"net/smtp"
	"strings"

	"github.com/fofrafo/dynamic-form/internal/models"
)

// EmailService notifies the clinic about callback requests. Without SMTP
// settings it logs the mails instead.
type EmailService struct {
	host        string
	port        string
	user        string
	pass        string
	from        string
	clinic      string
	frontendURL string
	devMode     bool
}

func NewEmailService(host, port, user, pass, from, clinic, frontendURL string) *EmailService {
	devMode := host == "" || user == ""
	if devMode {
		log.Println("⚠ Email service running in DEV MODE (logging to console)")
	}
	return &EmailService{
		host:        host,
		port:        port,
		user:        user,
		pass:        pass,
		from:        from,
		clinic:      clinic,
		frontendURL: frontendURL,
		devMode:     devMode,
	}
}

func reasonLabel(reason string) string {
	if reason == "confirmation" {
		return "Appointment confirmation"
	}
	return "Callback"
}

func (s *EmailService) SendCallbackRequest(c *models.CallbackRequest) error {
	subject := fmt.Sprintf("%s requested (%s appointment)", reasonLabel(c.Reason), c.Duration)
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; margin: 0; padding: 0; background-color: #f8fafc;">
  <div style="max-width: 480px; margin: 40px auto; background: white; border-radius: 12px; box-shadow: 0 4px 24px rgba(0,0,0,0.08); overflow: hidden;">
    <div style="background: #2563eb; padding: 24px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 22px; font-weight: 700;">%s</h1>
    </div>
    <div style="padding: 32px;">
      <p style="color: #1e293b; font-size: 14px; line-height: 1.6; margin: 0 0 16px;">%s</p>
      <p style="color: #64748b; font-size: 13px; margin: 0 0 24px;">Planned appointment length: %s</p>
      <a href="%s/callbacks" style="display: inline-block; background: #2563eb; color: white; text-decoration: none; padding: 12px 32px; border-radius: 8px; font-weight: 600; font-size: 14px;">
        Open callback list
      </a>
      <p style="color: #94a3b8; font-size: 12px; margin: 24px 0 0;">Session %s</p>
    </div>
  </div>
</body>
</html>`,
		html.EscapeString(reasonLabel(c.Reason)),
		html.EscapeString(c.Summary),
		html.EscapeString(string(c.Duration)),
		s.frontendURL,
		c.SessionID,
	)

	return s.sendHTML(s.clinic, subject, body)
}

// SendOpenCallbackDigest lists requests that are still open.
func (s *EmailService) SendOpenCallbackDigest(open []*models.CallbackRequest) error {
	var rows strings.Builder
	for _, c := range open {
		fmt.Fprintf(&rows, `<tr><td style="padding: 6px 8px; color: #64748b;">%s</td><td style="padding: 6px 8px;">%s</td><td style="padding: 6px 8px;">%s</td></tr>`,
			c.CreatedAt.Format("02.01. 15:04"),
			html.EscapeString(reasonLabel(c.Reason)),
			html.EscapeString(c.Summary),
		)
	}

	subject := fmt.Sprintf("%d open callback requests", len(open))
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; background-color: #f8fafc;">
  <div style="max-width: 640px; margin: 40px auto; background: white; border-radius: 12px; padding: 24px;">
    <h2 style="margin: 0 0 16px; font-size: 20px; color: #1e293b;">Still waiting for a call</h2>
    <table style="width: 100%%; border-collapse: collapse; font-size: 13px;">%s</table>
    <p style="margin: 24px 0 0;"><a href="%s/callbacks" style="color: #2563eb;">Open callback list</a></p>
  </div>
</body>
</html>`, rows.String(), s.frontendURL)

	return s.sendHTML(s.clinic, subject, body)
}

func (s *EmailService) sendHTML(to, subject, htmlBody string) error {
	if s.devMode {
		log.Printf("📧 [DEV EMAIL] To: %s | Subject: %s", to, subject)
		log.Printf("📧 Body:\n%s", htmlBody)
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	log.Printf("📧 Email sent to %s: %s", to, subject)
	return nil
}
