package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"excos_backend/pkg/metrics"
)

// SMTPSender delivers mail over plain SMTP with optional SSL/STARTTLS.
type SMTPSender struct {
	config    Config
	templates *TemplateManager
	auth      smtp.Auth
}

// NewSMTPSender creates a sender with templates loaded and auth configured.
func NewSMTPSender(config Config) (Sender, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid email config: %w", err)
	}

	tm, err := NewTemplateManager(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create template manager: %w", err)
	}

	sender := &SMTPSender{
		config:    config,
		templates: tm,
	}

	if config.Username != "" && config.Password != "" {
		sender.auth = smtp.PlainAuth("", config.Username, config.Password, config.SMTPHost)
	}

	return sender, nil
}

// Send delivers one email.
func (s *SMTPSender) Send(email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	message := s.buildMessage(email)

	return s.sendSMTP(email.To, message)
}

// SendTemplate renders a template and sends it with a text fallback part.
func (s *SMTPSender) SendTemplate(to []string, subject, templateName string, data interface{}) error {
	htmlBody, err := s.templates.Render(templateName, data)
	if err != nil {
		metrics.IncrementEmailSent(templateName, err)
		return fmt.Errorf("failed to render template: %w", err)
	}

	textBody := s.htmlToText(htmlBody)

	email := &Email{
		To:       to,
		Subject:  subject,
		Body:     textBody,
		HTMLBody: htmlBody,
	}

	err = s.Send(email)
	metrics.IncrementEmailSent(templateName, err)
	return err
}

// SendPasswordReset sends the password reset link.
func (s *SMTPSender) SendPasswordReset(to, userName, resetURL string) error {
	data := PasswordResetData{
		TemplateData: TemplateData{
			UserName:     userName,
			Subject:      "Reset your EXCOS password",
			SupportEmail: s.config.FromEmail,
		},
		ResetURL:  resetURL,
		ExpiresIn: "1 hour",
	}

	return s.SendTemplate([]string{to}, "Reset your EXCOS password", "password_reset", data)
}

// SendSubmissionConfirmation confirms a newly filed complaint and carries
// its reference number.
func (s *SMTPSender) SendSubmissionConfirmation(to, userName, referenceNumber, examName, trackURL string) error {
	data := SubmissionConfirmationData{
		TemplateData: TemplateData{
			UserName:     userName,
			Subject:      "Your complaint has been received",
			SupportEmail: s.config.FromEmail,
		},
		ReferenceNumber: referenceNumber,
		ExamName:        examName,
		TrackURL:        trackURL,
	}

	return s.SendTemplate([]string{to}, fmt.Sprintf("Complaint %s received", referenceNumber), "submission_confirmation", data)
}

// SendResponseNotification tells a student an admin responded to their complaint.
func (s *SMTPSender) SendResponseNotification(to, userName, referenceNumber, responderName, responseText, complaintURL string) error {
	data := ResponseNotificationData{
		TemplateData: TemplateData{
			UserName:     userName,
			Subject:      "New response on your complaint",
			SupportEmail: s.config.FromEmail,
		},
		ReferenceNumber: referenceNumber,
		ResponderName:   responderName,
		ResponseText:    responseText,
		ComplaintURL:    complaintURL,
	}

	return s.SendTemplate([]string{to}, fmt.Sprintf("New response on complaint %s", referenceNumber), "response_notification", data)
}

// SendStatusChange tells a student their complaint status changed.
func (s *SMTPSender) SendStatusChange(to, userName, referenceNumber, newStatus, complaintURL string) error {
	data := StatusChangeData{
		TemplateData: TemplateData{
			UserName:     userName,
			Subject:      "Complaint status updated",
			SupportEmail: s.config.FromEmail,
		},
		ReferenceNumber: referenceNumber,
		NewStatus:       newStatus,
		ComplaintURL:    complaintURL,
	}

	return s.SendTemplate([]string{to}, fmt.Sprintf("Complaint %s is now %s", referenceNumber, newStatus), "status_change", data)
}

func (s *SMTPSender) buildMessage(email *Email) []byte {
	headers := []string{
		fmt.Sprintf("From: %s <%s>", s.config.FromName, s.config.FromEmail),
		fmt.Sprintf("To: %s", strings.Join(email.To, ", ")),
		fmt.Sprintf("Subject: %s", email.Subject),
		"MIME-version: 1.0;",
		"Content-Type: multipart/alternative; boundary=\"EXCOS_BOUNDARY\"",
		"",
	}

	var body []string

	if email.Body != "" {
		body = append(body,
			"--EXCOS_BOUNDARY",
			"Content-Type: text/plain; charset=UTF-8",
			"",
			email.Body,
			"",
		)
	}

	if email.HTMLBody != "" {
		body = append(body,
			"--EXCOS_BOUNDARY",
			"Content-Type: text/html; charset=UTF-8",
			"",
			email.HTMLBody,
			"",
		)
	}

	body = append(body, "--EXCOS_BOUNDARY--")

	message := strings.Join(headers, "\r\n") + "\r\n" + strings.Join(body, "\r\n")
	return []byte(message)
}

func (s *SMTPSender) sendSMTP(to []string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var client *smtp.Client
	var err error

	if s.config.UseSSL {
		tlsConfig := &tls.Config{
			ServerName: s.config.SMTPHost,
		}
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("failed to connect via SSL: %w", err)
		}
		client, err = smtp.NewClient(conn, s.config.SMTPHost)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
	} else {
		client, err = smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
	}
	defer client.Close()

	if s.config.UseTLS && !s.config.UseSSL {
		if err = client.StartTLS(&tls.Config{ServerName: s.config.SMTPHost}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if s.auth != nil {
		if err = client.Auth(s.auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	for _, recipient := range to {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	_, err = w.Write(message)
	if err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}

	return client.Quit()
}

// htmlToText produces a rough plain-text alternative part.
func (s *SMTPSender) htmlToText(html string) string {
	text := strings.ReplaceAll(html, "<br/>", "\n")
	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "<p>", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n")

	for {
		start := strings.Index(text, "<")
		if start == -1 {
			break
		}
		end := strings.Index(text, ">")
		if end == -1 {
			break
		}
		text = text[:start] + text[end+1:]
	}

	return strings.TrimSpace(text)
}
