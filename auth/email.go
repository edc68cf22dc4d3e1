package auth

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/adamspd/FlashMind/models"
	"github.com/adamspd/FlashMind/utils"
)

// Mailer sends a plain text email.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// EmailService sends mail over SMTP, or logs it when no credentials are set.
type EmailService struct {
	config *models.EmailConfig
}

func NewEmailService(config *models.EmailConfig) *EmailService {
	return &EmailService{config: config}
}

func (es *EmailService) Configured() bool {
	return es.config.Username != "" && es.config.Password != ""
}

func (es *EmailService) BuildWelcomeEmail(user *models.User) (string, string) {
	subject := "Welcome to FlashMind AI"
	body := fmt.Sprintf(`Hello %s,

Your FlashMind AI account is ready.

Paste your lecture notes at %s and we will turn them into quiz cards you can
study right away. Every session you finish is saved so you can watch your
score improve.

Happy studying,
The FlashMind team`, user.Email, es.config.BaseURL)

	return subject, body
}

func (es *EmailService) SendEmail(to, subject, body string) error {
	if !es.Configured() {
		utils.LogInfo("SMTP not configured, logging email instead")
		utils.LogInfo("To: %s | Subject: %s", to, subject)
		utils.LogDebug("Body: %s", body)
		return nil
	}

	return es.send(to, subject, body)
}

func (es *EmailService) buildMessage(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", es.config.FromName, es.config.FromAddress)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// dial opens an implicit TLS connection on port 465 and a plain one
// elsewhere. Plain connections are upgraded with STARTTLS in send.
func (es *EmailService) dial() (net.Conn, error) {
	addr := net.JoinHostPort(es.config.SMTPHost, fmt.Sprintf("%d", es.config.SMTPPort))
	dialer := &net.Dialer{Timeout: 15 * time.Second}

	if es.config.SMTPPort == 465 {
		utils.LogDebug("Connecting to SMTP server %s with SSL", addr)
		return tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: es.config.SMTPHost})
	}

	utils.LogDebug("Connecting to SMTP server %s (plain)", addr)
	return dialer.Dial("tcp", addr)
}

func (es *EmailService) send(to, subject, body string) error {
	utils.LogInfo("Sending email to %s: %s", to, subject)

	conn, err := es.dial()
	if err != nil {
		utils.LogError("Failed to connect to SMTP server: %v", err)
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, es.config.SMTPHost)
	if err != nil {
		utils.LogError("Failed to create SMTP client: %v", err)
		return err
	}
	defer client.Quit()

	if es.config.SMTPPort != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: es.config.SMTPHost}); err != nil {
				utils.LogError("Failed to start TLS: %v", err)
				return err
			}
		}
	}

	if err := client.Auth(smtp.PlainAuth("", es.config.Username, es.config.Password, es.config.SMTPHost)); err != nil {
		utils.LogError("SMTP authentication failed: %v", err)
		return err
	}

	if err := client.Mail(es.config.FromAddress); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("open data writer: %w", err)
	}
	if _, err := writer.Write(es.buildMessage(to, subject, body)); err != nil {
		writer.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}

	utils.LogInfo("Email sent successfully to %s", to)
	return nil
}
