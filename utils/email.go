// utils/email.go
package utils

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// SendPasswordResetEmail sends a reset link to the given address
func SendPasswordResetEmail(email, username, resetLink string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPortStr := os.Getenv("SMTP_PORT")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	fromEmail := os.Getenv("FROM_EMAIL")

	if smtpHost == "" || smtpPortStr == "" || smtpUser == "" || smtpPass == "" || fromEmail == "" {
		return fmt.Errorf("missing SMTP configuration")
	}

	smtpPort, err := strconv.Atoi(smtpPortStr)
	if err != nil {
		return fmt.Errorf("invalid SMTP port: %v", err)
	}

	subject := "Password Reset Request"
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Reset Your Password</h2>
			<p>Hello %s,</p>
			<p>You have requested to reset your password. Click the link below to choose a new one:</p>
			<p><a href="%s">%s</a></p>
			<p>This link will expire in 15 minutes.</p>
			<p>If you did not request a password reset, please ignore this email.</p>
		</body>
		</html>
	`, username, resetLink, resetLink)

	m := gomail.NewMessage()
	m.SetHeader("From", fromEmail)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	return nil
}
