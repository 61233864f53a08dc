package tool

import (
	"context"

	"go.uber.org/zap"

	"github.com/retailvoice/callbridge/internal/domain/entity"
	"github.com/retailvoice/callbridge/internal/domain/repository"
	domaintool "github.com/retailvoice/callbridge/internal/domain/tool"
)

// SendEmailTool sends one of a small set of templated emails (tracking
// info, a return form, a callback confirmation) to the identified
// customer.
type SendEmailTool struct {
	backend   repository.OrderBackend
	templates repository.TemplateStore
	sender    repository.EmailSender
	logger    *zap.Logger
}

func NewSendEmailTool(backend repository.OrderBackend, templates repository.TemplateStore, sender repository.EmailSender, logger *zap.Logger) *SendEmailTool {
	return &SendEmailTool{backend: backend, templates: templates, sender: sender, logger: logger}
}

func (t *SendEmailTool) Name() string { return "send_email" }

func (t *SendEmailTool) Description() string {
	return "Send the caller a templated email: tracking info, a return form, or a callback confirmation."
}

func (t *SendEmailTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"template": map[string]any{"type": "string", "enum": []string{"tracking", "return_form", "callback"}},
			"order_id": map[string]any{"type": "string", "description": "Order id to pull customer/order details from, optional"},
		},
		"required": []string{"template"},
	}
}

func (t *SendEmailTool) Execute(ctx context.Context, args map[string]any) (*domaintool.Result, error) {
	templateName, _ := args["template"].(string)
	if templateName == "" {
		return domaintool.TextResult("どのメールをお送りするか教えていただけますか。"), nil
	}

	orderID, _ := args["order_id"].(string)

	var order *entity.Order
	if orderID != "" {
		o, err := t.backend.GetOrder(ctx, orderID)
		if err != nil {
			t.logger.Warn("order lookup failed for email", zap.String("order_id", orderID), zap.Error(err))
		} else {
			order = o
		}
	}

	if order == nil || order.CustomerEmail == "" {
		return domaintool.TextResult("メールアドレスを確認させていただけますか。"), nil
	}

	params := map[string]string{
		"customerName":   order.CustomerName,
		"orderId":        order.OrderID,
		"carrier":        order.Carrier,
		"trackingNumber": order.TrackingNumber,
		"trackingUrl":    order.TrackingURL,
		"shopName":       "当店",
	}

	subject, body, err := t.templates.Render(ctx, templateName, params)
	if err != nil {
		t.logger.Warn("template render failed", zap.String("template", templateName), zap.Error(err))
		return domaintool.TextResult("メールの送信中にエラーが発生しました。"), nil
	}

	if err := t.sender.Send(ctx, order.CustomerEmail, subject, body); err != nil {
		t.logger.Warn("email send failed", zap.String("to", order.CustomerEmail), zap.Error(err))
		return domaintool.TextResult("メールの送信中にエラーが発生しました。"), nil
	}

	return domaintool.TextResult("ご登録のメールアドレスに送信いたしました。"), nil
}
