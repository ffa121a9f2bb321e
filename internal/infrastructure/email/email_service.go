package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"sync"
	texttemplate "text/template"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"github.com/driftmail/newsletter/internal/core/domain/subscription"
	"github.com/driftmail/newsletter/internal/core/ports"
)

//go:embed templates/confirmation.html templates/confirmation.txt
var templateFS embed.FS

// confirmationTemplates is the process-wide compiled template pair. Parsed
// once on first use and immutable afterwards; notifiers receive it through
// their constructor rather than reaching for it ambiently.
type confirmationTemplates struct {
	html *template.Template
	text *texttemplate.Template
}

var (
	templatesOnce sync.Once
	templates     *confirmationTemplates
	templatesErr  error
)

func loadConfirmationTemplates() (*confirmationTemplates, error) {
	templatesOnce.Do(func() {
		htmlTmpl, err := template.ParseFS(templateFS, "templates/confirmation.html")
		if err != nil {
			templatesErr = fmt.Errorf("failed to parse html template: %w", err)
			return
		}
		textTmpl, err := texttemplate.ParseFS(templateFS, "templates/confirmation.txt")
		if err != nil {
			templatesErr = fmt.Errorf("failed to parse text template: %w", err)
			return
		}
		templates = &confirmationTemplates{html: htmlTmpl, text: textTmpl}
	})
	return templates, templatesErr
}

// confirmationData holds data for the confirmation email templates
type confirmationData struct {
	Name string
	Link string
}

func (t *confirmationTemplates) render(data confirmationData) (htmlBody, textBody string, err error) {
	var htmlBuf bytes.Buffer
	if err := t.html.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute html template: %w", err)
	}
	var textBuf bytes.Buffer
	if err := t.text.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute text template: %w", err)
	}
	return htmlBuf.String(), textBuf.String(), nil
}

// EmailConfig holds SendGrid notifier configuration
type EmailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

// SendGridNotifier delivers confirmation links by email through SendGrid.
type SendGridNotifier struct {
	config    *EmailConfig
	logger    *logrus.Logger
	client    *sendgrid.Client
	templates *confirmationTemplates
}

// NewSendGridNotifier creates a new SendGrid-backed confirmation notifier
func NewSendGridNotifier(config *EmailConfig, logger *logrus.Logger) (ports.ConfirmationNotifier, error) {
	tmpls, err := loadConfirmationTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	return &SendGridNotifier{
		config:    config,
		logger:    logger,
		client:    sendgrid.NewSendClient(config.SendGridAPIKey),
		templates: tmpls,
	}, nil
}

// Notify sends the confirmation email. Both the HTML and the plain-text part
// carry the link. The echoed link is always empty for this channel.
func (e *SendGridNotifier) Notify(ctx context.Context, sub subscription.NewSubscriber, link string) (string, error) {
	htmlBody, textBody, err := e.templates.render(confirmationData{Name: sub.Name(), Link: link})
	if err != nil {
		return "", fmt.Errorf("failed to render confirmation email: %w", err)
	}

	from := mail.NewEmail(e.config.FromName, e.config.FromEmail)
	recipient := mail.NewEmail(sub.Name(), sub.Email())
	message := mail.NewSingleEmail(from, "Please confirm your subscription", recipient, textBody, htmlBody)

	response, err := e.client.SendWithContext(ctx, message)
	if err != nil {
		e.logger.WithFields(logrus.Fields{"to": sub.Email()}).WithError(err).Error("Failed to send confirmation email")
		return "", fmt.Errorf("failed to send confirmation email: %w", err)
	}
	if response.StatusCode >= 400 {
		e.logger.WithFields(logrus.Fields{
			"to":          sub.Email(),
			"status_code": response.StatusCode,
		}).Error("SendGrid rejected confirmation email")
		return "", fmt.Errorf("sendgrid rejected confirmation email: status %d", response.StatusCode)
	}

	e.logger.WithFields(logrus.Fields{
		"to":          sub.Email(),
		"status_code": response.StatusCode,
	}).Info("Confirmation email sent")

	return "", nil
}
