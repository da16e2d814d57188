package email

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

type Message struct {
	ToName      string
	ToAddress   string
	Subject     string
	TextContent string
	HTMLContent string
}

// Sender delivers a single message synchronously so callers can log the outcome
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func New(cfg config.EmailConfig, logger utils.Logger) Sender {
	if cfg.Provider == "sendgrid" && cfg.SendGridAPIKey != "" {
		return NewSendgridSender(cfg)
	}
	return NewConsoleSender(logger)
}

type SendgridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendgridSender(cfg config.EmailConfig) *SendgridSender {
	return &SendgridSender{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
	}
}

// Send posts msg through the SendGrid v3 API. The client has no per-request
// context, so a cancelled ctx only short-circuits before the call.
func (s *SendgridSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	to := sgmail.NewEmail(msg.ToName, msg.ToAddress)
	html := msg.HTMLContent
	if html == "" {
		html = msg.TextContent
	}
	m := sgmail.NewSingleEmail(s.from, msg.Subject, to, msg.TextContent, html)

	res, err := s.client.Send(m)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sending email - status: %d - body: %s", res.StatusCode, res.Body)
	}
	return nil
}

// ConsoleSender logs messages instead of sending them. Sent keeps a copy for tests.
type ConsoleSender struct {
	logger utils.Logger

	mu   sync.Mutex
	Sent []Message
}

func NewConsoleSender(logger utils.Logger) *ConsoleSender {
	return &ConsoleSender{logger: logger}
}

func (s *ConsoleSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	s.Sent = append(s.Sent, msg)
	s.mu.Unlock()

	s.logger.Info("Email (console)",
		"to", msg.ToAddress,
		"subject", msg.Subject,
		"body", msg.TextContent)
	return nil
}

func (s *ConsoleSender) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.Sent...)
}
