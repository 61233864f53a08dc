// Package prompt is C5: a single-purpose per-call prompt builder. Unlike
// a filesystem-discovery, multi-channel prompt engine, there is exactly
// one "channel" here — the phone call — so no
// workspace/system/channel layering applies. Only the policy-block-plus-
// context-block shape survives.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/retailvoice/callbridge/internal/domain/entity"
	"github.com/retailvoice/callbridge/internal/domain/repository"
)

// Composer builds the one opaque instruction string handed to the LLM
// session at UpdateSession time.
type Composer struct {
	templates repository.TemplateStore
}

func NewComposer(templates repository.TemplateStore) *Composer {
	return &Composer{templates: templates}
}

// Compose combines the fixed policy block with a context block derived
// from the caller's identification context.
func (c *Composer) Compose(ctx context.Context, ident entity.IdentificationContext) (string, error) {
	policy, err := c.templates.PolicyBlock(ctx)
	if err != nil {
		return "", fmt.Errorf("compose prompt: %w", err)
	}

	var b strings.Builder
	b.WriteString(policy)
	b.WriteString("\n\n")
	b.WriteString(contextBlock(ident))
	return b.String(), nil
}

func contextBlock(ident entity.IdentificationContext) string {
	var b strings.Builder

	switch {
	case ident.Error:
		b.WriteString("お客様情報の照会中にエラーが発生しました。お名前とご注文番号を口頭でお伺いし、会話を続けてください。\n")
	case !ident.Found:
		b.WriteString("お客様情報は見つかりませんでした。お名前を伺い、ご注文に関するお話であればご注文番号も伺ってください。\n")
	default:
		fmt.Fprintf(&b, "現在のお客様: %s様。\n", ident.CustomerName)
		if ident.GreetingHint != "" {
			fmt.Fprintf(&b, "挨拶の例: %s\n", ident.GreetingHint)
		}
		b.WriteString("本人確認が否定された場合は謝罪し、改めてお名前を伺ってください。\n")
	}

	if len(ident.Orders) > 0 {
		latest := ident.Orders[0]
		b.WriteString("直近のご注文情報（聞かれた場合のみ案内してください。自発的に話さないこと）:\n")
		fmt.Fprintf(&b, "- 注文番号: %s、ご注文日: %s、状況: %s\n", latest.OrderID, latest.OrderDate, latest.StatusMessage)
		if latest.TrackingNumber != "" {
			fmt.Fprintf(&b, "- 配送業者: %s、追跡番号: %s\n", latest.Carrier, latest.TrackingNumber)
		}
		var items []string
		for _, it := range latest.Items {
			items = append(items, it.Name)
		}
		if len(items) > 0 {
			fmt.Fprintf(&b, "- 商品: %s\n", strings.Join(items, "、"))
		}
	}

	return b.String()
}
