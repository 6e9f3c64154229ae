package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/todoapi/internal/telegram"
)

// StartHandler handles the /start command
type StartHandler struct {
	logger *logrus.Logger
}

// NewStartHandler creates a new start command handler
func NewStartHandler(logger *logrus.Logger) *StartHandler {
	return &StartHandler{
		logger: logger,
	}
}

// Handle processes the /start command
func (h *StartHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	welcomeText := `🎯 *Welcome to todoapi!*

I keep a shared todo list. Start with /add, see everything with /list and tap a button to tick an item off.

Send /help for all commands.`

	if err := reply(bot, message.Chat.ID, welcomeText); err != nil {
		return fmt.Errorf("failed to send start message: %w", err)
	}

	h.logger.WithField("chat_id", message.Chat.ID).Info("Sent start message")

	return nil
}
