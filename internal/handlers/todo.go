package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/todoapi/internal/models"
	"github.com/Kerhoff/todoapi/internal/repository"
	"github.com/Kerhoff/todoapi/internal/telegram"
)

// TodoService is the part of the service layer the bot commands use.
type TodoService interface {
	CreateTodo(ctx context.Context, in models.CreateTodoInput) (*models.Todo, error)
	ListTodos(ctx context.Context) ([]*models.Todo, error)
	UpdateTodo(ctx context.Context, in models.UpdateTodoInput) (*models.Todo, error)
	ToggleTodo(ctx context.Context, in models.ToggleTodoInput) (*models.Todo, error)
	DeleteTodo(ctx context.Context, in models.DeleteTodoInput) (*models.DeleteResult, error)
}

// ToggleCallbackPrefix is the inline keyboard data prefix for toggles.
const ToggleCallbackPrefix = "toggle"

// maxListButtons caps the inline keyboard under /list.
const maxListButtons = 20

func reply(bot telegram.Sender, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := bot.Send(msg)
	return err
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func checkbox(t *models.Todo) string {
	if t.Completed {
		return "✅"
	}
	return "⬜"
}

// parseID reads the todo id from the first argument. It replies with usage
// and returns ok=false when the argument is missing or not a number.
func parseID(bot telegram.Sender, chatID int64, args []string, usage string) (int64, bool, error) {
	if len(args) == 0 {
		return 0, false, reply(bot, chatID, "❌ Please provide a todo ID.\nUsage: `"+usage+"`")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false, reply(bot, chatID, "❌ Invalid ID. Please provide a numeric todo ID.")
	}
	return id, true, nil
}

// notFound reports a missing todo to the chat. It returns handled=false for
// every other error so the router logs it.
func notFound(bot telegram.Sender, chatID, id int64, err error) (bool, error) {
	if !repository.IsNotFound(err) {
		return false, nil
	}
	return true, reply(bot, chatID, fmt.Sprintf("❌ Todo *#%d* not found.", id))
}

// ---------------------------------------------------------------------------
// AddHandler – /add <title> [| description]
// ---------------------------------------------------------------------------

// AddHandler handles the /add command to create a new todo item.
type AddHandler struct {
	svc    TodoService
	logger *logrus.Logger
}

// NewAddHandler creates a new AddHandler.
func NewAddHandler(svc TodoService, logger *logrus.Logger) *AddHandler {
	return &AddHandler{svc: svc, logger: logger}
}

// Handle processes the /add command.
func (h *AddHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	title, description, hasDescription := strings.Cut(strings.Join(args, " "), "|")
	title = strings.TrimSpace(title)
	if title == "" {
		return reply(bot, message.Chat.ID,
			"❌ Please provide a todo text.\nUsage: `/add Buy groceries | milk, eggs`")
	}

	in := models.CreateTodoInput{Title: title}
	if description = strings.TrimSpace(description); hasDescription && description != "" {
		in.Description = &description
	}

	todo, err := h.svc.CreateTodo(context.Background(), in)
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"todo_id": todo.ID,
	}).Info("Todo created from chat")

	return reply(bot, message.Chat.ID, fmt.Sprintf("✅ *Todo added!*\n\n⬜ *#%d* %s", todo.ID, escape(todo.Title)))
}

// ---------------------------------------------------------------------------
// ListHandler – /list
// ---------------------------------------------------------------------------

// ListHandler handles the /list command. Each todo gets an inline button
// that toggles it.
type ListHandler struct {
	svc    TodoService
	logger *logrus.Logger
}

// NewListHandler creates a new ListHandler.
func NewListHandler(svc TodoService, logger *logrus.Logger) *ListHandler {
	return &ListHandler{svc: svc, logger: logger}
}

// Handle processes the /list command.
func (h *ListHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	todos, err := h.svc.ListTodos(context.Background())
	if err != nil {
		return fmt.Errorf("list todos: %w", err)
	}

	if len(todos) == 0 {
		return reply(bot, message.Chat.ID, "📋 *No todos yet!*\n\nAdd one with `/add <text>`")
	}

	var sb strings.Builder
	sb.WriteString("📋 *Todos*\n\n")

	stats := models.Stats{Total: len(todos)}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range todos {
		if t.Completed {
			stats.Completed++
		}
		sb.WriteString(fmt.Sprintf("%s *#%d* %s\n", checkbox(t), t.ID, escape(t.Title)))
		if t.HasDescription() {
			sb.WriteString(fmt.Sprintf("      _%s_\n", escape(*t.Description)))
		}
		if len(rows) < maxListButtons {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("%s #%d", checkbox(t), t.ID),
					fmt.Sprintf("%s:%d", ToggleCallbackPrefix, t.ID),
				),
			))
		}
	}

	sb.WriteString(fmt.Sprintf("\n_%d of %d completed, %d pending_", stats.Completed, stats.Total, stats.Pending()))

	msg := tgbotapi.NewMessage(message.Chat.ID, sb.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := bot.Send(msg); err != nil {
		return err
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"count":   len(todos),
	}).Info("Listed todos")

	return nil
}

// ---------------------------------------------------------------------------
// ToggleHandler – /toggle <id>, /done <id>, inline button
// ---------------------------------------------------------------------------

// ToggleHandler flips the completed flag of a todo.
type ToggleHandler struct {
	svc    TodoService
	logger *logrus.Logger
}

// NewToggleHandler creates a new ToggleHandler.
func NewToggleHandler(svc TodoService, logger *logrus.Logger) *ToggleHandler {
	return &ToggleHandler{svc: svc, logger: logger}
}

// Handle processes the /toggle command.
func (h *ToggleHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	id, ok, err := parseID(bot, message.Chat.ID, args, "/toggle 5")
	if !ok {
		return err
	}
	return h.toggle(bot, message.Chat.ID, id)
}

// HandleCallback processes a "toggle:<id>" inline button press.
func (h *ToggleHandler) HandleCallback(bot telegram.Sender, query *tgbotapi.CallbackQuery, payload string) error {
	if query.Message == nil {
		return nil
	}
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return fmt.Errorf("bad toggle payload %q: %w", payload, err)
	}
	return h.toggle(bot, query.Message.Chat.ID, id)
}

func (h *ToggleHandler) toggle(bot telegram.Sender, chatID, id int64) error {
	todo, err := h.svc.ToggleTodo(context.Background(), models.ToggleTodoInput{ID: id})
	if err != nil {
		if handled, rerr := notFound(bot, chatID, id, err); handled {
			return rerr
		}
		return fmt.Errorf("toggle todo: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id":   chatID,
		"todo_id":   todo.ID,
		"completed": todo.Completed,
	}).Info("Todo toggled from chat")

	if todo.Completed {
		return reply(bot, chatID, fmt.Sprintf("🎉 Todo *#%d* completed!\n\n%s", todo.ID, escape(todo.Title)))
	}
	return reply(bot, chatID, fmt.Sprintf("↩️ Todo *#%d* reopened.\n\n%s", todo.ID, escape(todo.Title)))
}

// ---------------------------------------------------------------------------
// EditHandler – /edit <id> <title>
// ---------------------------------------------------------------------------

// EditHandler replaces the title of a todo and leaves everything else.
type EditHandler struct {
	svc    TodoService
	logger *logrus.Logger
}

// NewEditHandler creates a new EditHandler.
func NewEditHandler(svc TodoService, logger *logrus.Logger) *EditHandler {
	return &EditHandler{svc: svc, logger: logger}
}

// Handle processes the /edit command.
func (h *EditHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	id, ok, err := parseID(bot, message.Chat.ID, args, "/edit 5 New title")
	if !ok {
		return err
	}
	title := strings.TrimSpace(strings.Join(args[1:], " "))
	if title == "" {
		return reply(bot, message.Chat.ID, "❌ Please provide the new title.\nUsage: `/edit 5 New title`")
	}

	todo, err := h.svc.UpdateTodo(context.Background(), models.UpdateTodoInput{
		ID:    id,
		Title: models.Some(title),
	})
	if err != nil {
		if handled, rerr := notFound(bot, message.Chat.ID, id, err); handled {
			return rerr
		}
		return fmt.Errorf("edit todo: %w", err)
	}

	return reply(bot, message.Chat.ID, fmt.Sprintf("✏️ Todo *#%d* renamed: %s", todo.ID, escape(todo.Title)))
}

// ---------------------------------------------------------------------------
// DescribeHandler – /describe <id> [text]
// ---------------------------------------------------------------------------

// DescribeHandler sets the description of a todo, or clears it when no text
// follows the id.
type DescribeHandler struct {
	svc    TodoService
	logger *logrus.Logger
}

// NewDescribeHandler creates a new DescribeHandler.
func NewDescribeHandler(svc TodoService, logger *logrus.Logger) *DescribeHandler {
	return &DescribeHandler{svc: svc, logger: logger}
}

// Handle processes the /describe command.
func (h *DescribeHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	id, ok, err := parseID(bot, message.Chat.ID, args, "/describe 5 2% milk")
	if !ok {
		return err
	}

	var description *string
	if text := strings.TrimSpace(strings.Join(args[1:], " ")); text != "" {
		description = &text
	}

	todo, err := h.svc.UpdateTodo(context.Background(), models.UpdateTodoInput{
		ID:          id,
		Description: models.Some(description),
	})
	if err != nil {
		if handled, rerr := notFound(bot, message.Chat.ID, id, err); handled {
			return rerr
		}
		return fmt.Errorf("describe todo: %w", err)
	}

	if description == nil {
		return reply(bot, message.Chat.ID, fmt.Sprintf("🧹 Description of *#%d* cleared.", todo.ID))
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("📝 Todo *#%d* description: _%s_", todo.ID, escape(*todo.Description)))
}

// ---------------------------------------------------------------------------
// DeleteHandler – /delete <id>
// ---------------------------------------------------------------------------

// DeleteHandler handles the /delete command to remove a todo.
type DeleteHandler struct {
	svc    TodoService
	logger *logrus.Logger
}

// NewDeleteHandler creates a new DeleteHandler.
func NewDeleteHandler(svc TodoService, logger *logrus.Logger) *DeleteHandler {
	return &DeleteHandler{svc: svc, logger: logger}
}

// Handle processes the /delete command.
func (h *DeleteHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	id, ok, err := parseID(bot, message.Chat.ID, args, "/delete 5")
	if !ok {
		return err
	}

	if _, err := h.svc.DeleteTodo(context.Background(), models.DeleteTodoInput{ID: id}); err != nil {
		if handled, rerr := notFound(bot, message.Chat.ID, id, err); handled {
			return rerr
		}
		return fmt.Errorf("delete todo: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"todo_id": id,
	}).Info("Todo deleted from chat")

	return reply(bot, message.Chat.ID, fmt.Sprintf("🗑 Todo *#%d* deleted.", id))
}
