package valueobject

import (
	"fmt"
	"strings"

	"github.com/retailvoice/callbridge/internal/domain/entity"
)

// MapStatus converts a backend status code into the closed status enum.
// Unknown codes conservatively map to pending rather than erroring — a
// single stray code must never abort a lookup.
func MapStatus(code string) entity.OrderStatus {
	switch strings.TrimSpace(code) {
	case "10":
		return entity.StatusPending
	case "20":
		return entity.StatusPreparing
	case "30":
		return entity.StatusConfirmed
	case "40":
		return entity.StatusShipped
	case "50":
		return entity.StatusDelivered
	case "99":
		return entity.StatusCancelled
	default:
		return entity.StatusPending
	}
}

var carrierTable = []struct {
	substr string
	name   string
}{
	{"ヤマト", "ヤマト運輸"},
	{"yamato", "ヤマト運輸"},
	{"佐川", "佐川急便"},
	{"sagawa", "佐川急便"},
	{"ゆうパック", "日本郵便 (ゆうパック)"},
	{"日本郵便", "日本郵便 (ゆうパック)"},
	{"japan post", "日本郵便 (ゆうパック)"},
	{"西濃", "西濃運輸"},
	{"seino", "西濃運輸"},
	{"福山", "福山通運"},
	{"fukuyama", "福山通運"},
}

// ExtractCarrier matches a free-form delivery-method string against a fixed
// table of known Japanese carriers. An unmatched string is returned as-is.
func ExtractCarrier(deliveryMethod string) string {
	lower := strings.ToLower(deliveryMethod)
	for _, c := range carrierTable {
		if strings.Contains(lower, strings.ToLower(c.substr)) || strings.Contains(deliveryMethod, c.substr) {
			return c.name
		}
	}
	return deliveryMethod
}

// InferPlatform maps a backend store-id prefix onto the storefront platform
// it is hosted on.
func InferPlatform(storeID string) string {
	switch {
	case strings.HasPrefix(storeID, "rakuten") || strings.HasPrefix(storeID, "1"):
		return "rakuten"
	case strings.HasPrefix(storeID, "amazon") || strings.HasPrefix(storeID, "2"):
		return "amazon"
	default:
		return "shopify"
	}
}

// StatusMessage renders a human-readable Japanese sentence describing an
// order's current status, folding in carrier/tracking information when
// present.
func StatusMessage(status entity.OrderStatus, carrier, trackingNumber string) string {
	switch status {
	case entity.StatusPending:
		return "ご注文を確認中です。"
	case entity.StatusPreparing:
		return "商品を準備中です。"
	case entity.StatusConfirmed:
		return "ご注文が確定しました。発送までお待ちください。"
	case entity.StatusShipped:
		if carrier != "" && trackingNumber != "" {
			return fmt.Sprintf("商品は%sにて発送済みです。追跡番号は%sです。", carrier, trackingNumber)
		}
		return "商品は発送済みです。"
	case entity.StatusDelivered:
		return "商品はお届け済みです。"
	case entity.StatusCancelled:
		return "ご注文はキャンセルされています。"
	case entity.StatusReturned:
		return "返品処理が完了しています。"
	default:
		return "ご注文状況を確認できませんでした。"
	}
}
