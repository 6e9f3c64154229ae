package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/todoapi/internal/telegram"
)

// HelpText lists every command the bot registers.
const HelpText = `📚 Help

• /add <title> [| description] - Add a new todo
• /list - Show all todos
• /toggle <id> - Complete or reopen a todo (also /done)
• /edit <id> <title> - Rename a todo
• /describe <id> [text] - Set the description, or clear it
• /delete <id> - Delete a todo`

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, HelpText)

	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.WithField("chat_id", message.Chat.ID).Info("Sent help message")

	return nil
}
