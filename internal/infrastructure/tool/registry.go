package tool

import (
	domaintool "github.com/retailvoice/callbridge/internal/domain/tool"
	"github.com/retailvoice/callbridge/internal/domain/repository"
	"go.uber.org/zap"
)

// Deps aggregates the external dependencies the four tools need. Single
// configuration point for the tool subsystem.
type Deps struct {
	Registry      domaintool.Registry
	OrderBackend  repository.OrderBackend
	Templates     repository.TemplateStore
	EmailSender   repository.EmailSender
	Notifier      repository.OpsNotifier
	Logger        *zap.Logger
}

// RegisterAllTools registers the four call-support tools in one place.
// This is the only tool registration entry point; adding a fifth tool
// means adding it here.
func RegisterAllTools(deps Deps) int {
	tools := []domaintool.Tool{
		NewCheckOrderStatusTool(deps.OrderBackend, deps.Logger),
		NewRegisterReturnTool(deps.OrderBackend, deps.Logger),
		NewSendEmailTool(deps.OrderBackend, deps.Templates, deps.EmailSender, deps.Logger),
		NewTransferToHumanTool(deps.Notifier, deps.Logger),
	}

	registered := 0
	for _, t := range tools {
		if err := deps.Registry.Register(t); err != nil {
			deps.Logger.Warn("failed to register tool", zap.String("tool", t.Name()), zap.Error(err))
			continue
		}
		registered++
	}
	return registered
}
