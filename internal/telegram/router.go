package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Router handles message routing and command parsing
type Router struct {
	logger    *logrus.Logger
	handlers  map[string]CommandHandler
	callbacks map[string]CallbackHandler
}

// CommandHandler defines the interface for command handlers
type CommandHandler interface {
	Handle(bot Sender, message *tgbotapi.Message, args []string) error
}

// CallbackHandler handles inline keyboard presses. payload is the callback
// data after the "prefix:" part.
type CallbackHandler interface {
	HandleCallback(bot Sender, query *tgbotapi.CallbackQuery, payload string) error
}

// NewRouter creates a new message router
func NewRouter(logger *logrus.Logger) *Router {
	return &Router{
		logger:    logger,
		handlers:  make(map[string]CommandHandler),
		callbacks: make(map[string]CallbackHandler),
	}
}

// RegisterCommand registers a command handler
func (r *Router) RegisterCommand(command string, handler CommandHandler) {
	r.handlers[command] = handler
	r.logger.Debugf("Registered command: %s", command)
}

// RegisterCallback registers a callback handler for data starting with prefix
func (r *Router) RegisterCallback(prefix string, handler CallbackHandler) {
	r.callbacks[prefix] = handler
	r.logger.Debugf("Registered callback: %s", prefix)
}

// HandleMessage handles incoming messages
func (r *Router) HandleMessage(bot Sender, message *tgbotapi.Message) {
	// Only process text commands
	if message.Text == "" || !message.IsCommand() {
		return
	}

	fields := logrus.Fields{
		"chat_id":    message.Chat.ID,
		"message_id": message.MessageID,
	}
	if message.From != nil {
		fields["user_id"] = message.From.ID
		fields["username"] = message.From.UserName
	}

	command := message.Command()
	args := strings.Fields(message.CommandArguments())
	fields["command"] = command

	handler, exists := r.handlers[command]
	if !exists {
		r.logger.WithFields(fields).Warn("Unknown command")
		bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❓ Unknown command. Use /help to see available commands."))
		return
	}

	r.logger.WithFields(fields).Info("Received command")
	if err := handler.Handle(bot, message, args); err != nil {
		r.logger.WithFields(fields).WithError(err).Error("Command handler failed")
		bot.Send(tgbotapi.NewMessage(message.Chat.ID, "❌ An error occurred while processing your command. Please try again."))
	}
}

// HandleCallbackQuery handles callback queries from inline keyboards
func (r *Router) HandleCallbackQuery(bot Sender, query *tgbotapi.CallbackQuery) {
	fields := logrus.Fields{
		"callback_id": query.ID,
		"data":        query.Data,
	}
	if query.From != nil {
		fields["user_id"] = query.From.ID
	}
	r.logger.WithFields(fields).Info("Received callback query")

	// Answer the callback query to remove loading state
	bot.Request(tgbotapi.NewCallback(query.ID, ""))

	prefix, payload, _ := strings.Cut(query.Data, ":")
	handler, exists := r.callbacks[prefix]
	if !exists {
		r.logger.WithFields(fields).Warn("Unknown callback")
		return
	}
	if err := handler.HandleCallback(bot, query, payload); err != nil {
		r.logger.WithFields(fields).WithError(err).Error("Callback handler failed")
	}
}
