package main

import (
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ajemaa/portfolio/internal/config"
)

// ContactMessage is a submission from the contact form.
type ContactMessage struct {
	Name    string
	Email   string
	Message string
}

// Mailer delivers contact form submissions.
type Mailer interface {
	Send(msg ContactMessage) error
}

type smtpMailer struct {
	cfg config.SMTPConfig
}

func newSMTPMailer(cfg config.SMTPConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

// headerSafe strips line breaks so user input cannot add mail headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func (m *smtpMailer) Send(msg ContactMessage) error {
	if !m.cfg.Configured() {
		return fmt.Errorf("SMTP credentials not configured")
	}
	to := m.cfg.To
	if to == "" {
		to = m.cfg.User
	}

	subject := fmt.Sprintf("Portfolio Contact: %s", headerSafe(msg.Name))
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, msg.Name, msg.Email, msg.Message)

	raw := []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + m.cfg.User + "\r\n" +
		"Reply-To: " + headerSafe(msg.Email) + "\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	if err := smtp.SendMail(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.User, []string{to}, raw); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

const maxMessageLen = 5000

func validateContact(msg ContactMessage) error {
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return fmt.Errorf("please fill in your name, email and message")
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		return fmt.Errorf("please enter a valid email address")
	}
	if len(msg.Message) > maxMessageLen {
		return fmt.Errorf("message is too long")
	}
	return nil
}

// handleContact answers with an HTMX fragment either way.
func (a *App) handleContact(c *gin.Context) {
	msg := ContactMessage{
		Name:    strings.TrimSpace(c.PostForm("fullName")),
		Email:   strings.TrimSpace(c.PostForm("email")),
		Message: strings.TrimSpace(c.PostForm("message")),
	}
	if err := validateContact(msg); err != nil {
		c.HTML(http.StatusBadRequest, "contact-error.html", gin.H{
			"error": err.Error(),
		})
		return
	}

	if err := a.mailer.Send(msg); err != nil {
		log.Printf("[Contact] error sending email: %v", err)
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
		return
	}

	log.Printf("[Contact] message sent from %s", a.db.HashIP(c.ClientIP()))
	c.HTML(http.StatusOK, "contact-success.html", gin.H{
		"success": "Thank you for your message! I'll get back to you soon.",
	})
}
