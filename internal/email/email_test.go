package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

func TestNew_SelectsProvider(t *testing.T) {
	logger := utils.NewNopLogger()

	assert.IsType(t, &ConsoleSender{}, New(config.EmailConfig{Provider: "console"}, logger))
	assert.IsType(t, &ConsoleSender{}, New(config.EmailConfig{Provider: "sendgrid"}, logger))
	assert.IsType(t, &SendgridSender{}, New(config.EmailConfig{Provider: "sendgrid", SendGridAPIKey: "SG.x"}, logger))
}

func TestConsoleSender_RecordsMessages(t *testing.T) {
	s := NewConsoleSender(utils.NewNopLogger())
	require.NoError(t, s.Send(context.Background(), Message{ToAddress: "a@example.com", Subject: "Reminder"}))

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Reminder", msgs[0].Subject)
}

func TestSendgridSender_CancelledContext(t *testing.T) {
	s := NewSendgridSender(config.EmailConfig{SendGridAPIKey: "SG.x", FromEmail: "quiz@example.com"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Send(ctx, Message{ToAddress: "a@example.com", Subject: "Reminder", TextContent: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
