package tool

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/retailvoice/callbridge/internal/domain/entity"
	"github.com/retailvoice/callbridge/internal/domain/repository"
	domaintool "github.com/retailvoice/callbridge/internal/domain/tool"
	"github.com/retailvoice/callbridge/internal/domain/valueobject"
)

// RegisterReturnTool files a return after checking eligibility.
type RegisterReturnTool struct {
	backend repository.OrderBackend
	logger  *zap.Logger
}

func NewRegisterReturnTool(backend repository.OrderBackend, logger *zap.Logger) *RegisterReturnTool {
	return &RegisterReturnTool{backend: backend, logger: logger}
}

func (t *RegisterReturnTool) Name() string { return "register_return" }

func (t *RegisterReturnTool) Description() string {
	return "Register a return or exchange request for an order, after confirming eligibility."
}

func (t *RegisterReturnTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"order_id":  map[string]any{"type": "string"},
			"reason":    map[string]any{"type": "string", "enum": []string{"defective", "damaged", "wrong_item", "size_issue", "image_different", "other"}},
			"condition": map[string]any{"type": "string", "enum": []string{"unopened", "opened"}},
			"request":   map[string]any{"type": "string", "enum": []string{"refund", "exchange"}},
		},
		"required": []string{"order_id", "reason", "condition", "request"},
	}
}

func (t *RegisterReturnTool) Execute(ctx context.Context, args map[string]any) (*domaintool.Result, error) {
	orderID, _ := args["order_id"].(string)
	if orderID == "" {
		return domaintool.TextResult("注文番号を教えていただけますか。"), nil
	}

	order, err := t.backend.GetOrder(ctx, orderID)
	if err != nil {
		t.logger.Warn("order lookup failed for return", zap.String("order_id", orderID), zap.Error(err))
		return domaintool.StructuredResult(false, "ご注文の確認中にエラーが発生しました。担当者におつなぎしましょうか。", true), nil
	}

	in := entity.ReturnInput{
		OrderID:   orderID,
		Reason:    entity.ReturnReason(stringArg(args, "reason")),
		Condition: entity.ReturnCondition(stringArg(args, "condition")),
		Request:   entity.ReturnRequest(stringArg(args, "request")),
	}

	decision := valueobject.DecideEligibility(valueobject.EligibilityInput{
		TotalAmount:       order.TotalAmount,
		DaysSinceDelivery: daysSinceDelivery(order.ShippedDate),
		Reason:            in.Reason,
		Condition:         in.Condition,
	})

	if !decision.Eligible {
		return domaintool.StructuredResult(false, ineligibilityMessage(decision.Reason), decision.RequiresHandoff), nil
	}

	result, err := t.backend.RegisterReturn(ctx, in)
	if err != nil {
		t.logger.Warn("register return failed", zap.String("order_id", orderID), zap.Error(err))
		return domaintool.StructuredResult(false, "返品登録中にエラーが発生しました。担当者におつなぎしましょうか。", true), nil
	}
	if !result.Success {
		// A failed backend registration always needs a human to sort out,
		// regardless of the eligibility decision that got us this far.
		return domaintool.StructuredResult(false, result.Message, true), nil
	}

	msg := fmt.Sprintf("返品の手続きを承りました。受付番号は%sです。", result.ReturnID)
	if decision.BuyerPaysShip {
		msg += " 返送料はお客様のご負担となります。"
	}
	return domaintool.StructuredResult(true, msg, false), nil
}

// ineligibilityReasons maps DecideEligibility's internal log-tag Reason
// values to the Japanese sentence the assistant should actually speak.
// An unrecognized tag falls back to a generic handoff message rather than
// leaking the English tag to the caller.
var ineligibilityReasons = map[string]string{
	"high-value, needs agent":                  "高額商品のため、担当者が対応いたします。",
	"outside return window":                    "返品期間を過ぎているため、担当者におつなぎいたします。",
	"opened item, customer-convenience reason": "開封済みのお客様都合によるご返品のため、担当者が対応いたします。",
}

func ineligibilityMessage(reason string) string {
	if msg, ok := ineligibilityReasons[reason]; ok {
		return msg
	}
	return "担当者におつなぎいたします。"
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func daysSinceDelivery(shippedDate string) int {
	if shippedDate == "" {
		return 0
	}
	t, err := time.Parse("2006-01-02", shippedDate)
	if err != nil {
		return 0
	}
	return int(time.Since(t).Hours() / 24)
}
