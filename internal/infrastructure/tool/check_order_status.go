package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/retailvoice/callbridge/internal/domain/entity"
	"github.com/retailvoice/callbridge/internal/domain/repository"
	domaintool "github.com/retailvoice/callbridge/internal/domain/tool"
	"github.com/retailvoice/callbridge/internal/domain/valueobject"
	"go.uber.org/zap"
)

// CheckOrderStatusTool answers "where is my order" style questions.
type CheckOrderStatusTool struct {
	backend repository.OrderBackend
	logger  *zap.Logger
}

func NewCheckOrderStatusTool(backend repository.OrderBackend, logger *zap.Logger) *CheckOrderStatusTool {
	return &CheckOrderStatusTool{backend: backend, logger: logger}
}

func (t *CheckOrderStatusTool) Name() string { return "check_order_status" }

func (t *CheckOrderStatusTool) Description() string {
	return "Look up the status of a customer's order by phone number or order id. If neither is given, uses the caller's own number."
}

func (t *CheckOrderStatusTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"phone_number": map[string]any{"type": "string", "description": "Customer phone number, optional"},
			"order_id":     map[string]any{"type": "string", "description": "Order id, optional"},
		},
	}
}

func (t *CheckOrderStatusTool) Execute(ctx context.Context, args map[string]any) (*domaintool.Result, error) {
	phone, _ := args["phone_number"].(string)
	orderID, _ := args["order_id"].(string)

	if phone == "" && orderID == "" {
		if callerNumber, ok := domaintool.CallerNumberFromContext(ctx); ok {
			phone = callerNumber
		}
	}

	if orderID != "" {
		order, err := t.backend.GetOrder(ctx, orderID)
		if err != nil {
			t.logger.Warn("order lookup failed", zap.String("order_id", orderID), zap.Error(err))
			return domaintool.TextResult("申し訳ございません、注文情報の確認中にエラーが発生しました。"), nil
		}
		return domaintool.TextResult(describeOrder(*order)), nil
	}

	if phone == "" {
		return domaintool.TextResult("お電話番号または注文番号を教えていただけますか。"), nil
	}

	normalized := valueobject.NormalizePhone(phone)
	ident, err := t.backend.SearchByPhone(ctx, normalized)
	if err != nil {
		t.logger.Warn("phone lookup failed", zap.String("phone", normalized), zap.Error(err))
		return domaintool.TextResult("申し訳ございません、注文情報の確認中にエラーが発生しました。"), nil
	}
	if !ident.Found || len(ident.Orders) == 0 {
		return domaintool.TextResult("お客様のご注文が見つかりませんでした。"), nil
	}
	if len(ident.Orders) == 1 {
		return domaintool.TextResult(describeSummary(ident.Orders[0])), nil
	}
	return domaintool.TextResult(disambiguate(ident.Orders)), nil
}

func describeOrder(o entity.Order) string {
	return valueobject.StatusMessage(o.Status, o.Carrier, o.TrackingNumber)
}

func describeSummary(o entity.OrderSummary) string {
	if o.StatusMessage != "" {
		return o.StatusMessage
	}
	return valueobject.StatusMessage(o.Status, o.Carrier, o.TrackingNumber)
}

func disambiguate(orders []entity.OrderSummary) string {
	var b strings.Builder
	b.WriteString("複数のご注文が見つかりました。どちらについてお答えしましょうか。")
	for i, o := range orders {
		fmt.Fprintf(&b, " %d件目: 注文番号%s、ご注文日%s。", i+1, o.OrderID, o.OrderDate)
	}
	return b.String()
}
