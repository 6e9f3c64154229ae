package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/todoapi/internal/telegram"
)

// Registrar is implemented by both telegram.Bot and telegram.Router.
type Registrar interface {
	RegisterCommand(command string, handler telegram.CommandHandler)
	RegisterCallback(prefix string, handler telegram.CallbackHandler)
}

// Register wires every bot command to svc.
func Register(r Registrar, svc TodoService, logger *logrus.Logger) {
	r.RegisterCommand("start", NewStartHandler(logger))
	r.RegisterCommand("help", NewHelpHandler(logger))

	toggle := NewToggleHandler(svc, logger)

	r.RegisterCommand("add", NewAddHandler(svc, logger))
	r.RegisterCommand("list", NewListHandler(svc, logger))
	r.RegisterCommand("toggle", toggle)
	r.RegisterCommand("done", toggle)
	r.RegisterCommand("edit", NewEditHandler(svc, logger))
	r.RegisterCommand("describe", NewDescribeHandler(svc, logger))
	r.RegisterCommand("delete", NewDeleteHandler(svc, logger))

	r.RegisterCallback(ToggleCallbackPrefix, toggle)
}
