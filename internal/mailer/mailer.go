package mailer

import (
	"context"
	"fmt"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"github.com/voltaria/voltaria-backend/pkg/config"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/metrics"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
	HTML    bool
}

// Mailer dispatches email over SMTP.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// sendFunc performs one SMTP delivery attempt. Swappable in tests.
type sendFunc func(host string, port int, username, password string, m *gomail.Message) error

type mailer struct {
	cfg     config.MailConfig
	logg    *logger.Logger
	metrics *metrics.MailMetrics
	send    sendFunc
}

// New constructs the SMTP mailer.
func New(cfg config.MailConfig, logg *logger.Logger, mailMetrics *metrics.MailMetrics) (Mailer, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &mailer{
		cfg:     cfg,
		logg:    logg,
		metrics: mailMetrics,
		send:    dialAndSend,
	}, nil
}

func dialAndSend(host string, port int, username, password string, m *gomail.Message) error {
	return gomail.NewDialer(host, port, username, password).DialAndSend(m)
}

// Send delivers the message through the primary SMTP host, falling back to the
// secondary host when one is configured. Each attempt is bounded by the
// configured send timeout. Both hosts failing surfaces a dependency error.
func (m *mailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subject is required")
	}

	message := gomail.NewMessage()
	message.SetHeader("From", m.cfg.From)
	message.SetHeader("To", msg.To)
	message.SetHeader("Subject", msg.Subject)
	if msg.HTML {
		message.SetBody("text/html", msg.Body)
	} else {
		message.SetBody("text/plain", msg.Body)
	}

	primaryErr := m.attempt(ctx, m.cfg.Host, m.cfg.Port, message)
	if primaryErr == nil {
		m.metrics.ObserveSent(m.cfg.Host)
		return nil
	}
	m.metrics.ObserveFailed(m.cfg.Host)
	logCtx := m.logg.WithFields(ctx, map[string]any{"host": m.cfg.Host, "to": msg.To})
	m.logg.Error(logCtx, "mail dispatch failed on primary host", primaryErr)

	if m.cfg.FallbackHost == "" {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, primaryErr, "mail dispatch failed")
	}

	m.metrics.ObserveFallback()
	fallbackErr := m.attempt(ctx, m.cfg.FallbackHost, m.cfg.FallbackPort, message)
	if fallbackErr == nil {
		m.metrics.ObserveSent(m.cfg.FallbackHost)
		return nil
	}
	m.metrics.ObserveFailed(m.cfg.FallbackHost)
	logCtx = m.logg.WithFields(ctx, map[string]any{"host": m.cfg.FallbackHost, "to": msg.To})
	m.logg.Error(logCtx, "mail dispatch failed on fallback host", fallbackErr)

	return pkgerrors.Wrap(pkgerrors.CodeDependency, fallbackErr, "mail dispatch failed on both hosts")
}

// attempt runs one delivery bounded by the send timeout. gomail has no context
// support, so the dial runs in a goroutine and the slow path is abandoned.
func (m *mailer) attempt(ctx context.Context, host string, port int, message *gomail.Message) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.SendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- m.send(host, port, m.cfg.Username, m.cfg.Password, message)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s timed out: %w", host, ctx.Err())
	}
}
