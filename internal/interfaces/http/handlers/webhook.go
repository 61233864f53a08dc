// Package handlers holds C8: the gin handler the carrier's inbound-call
// webhook posts to, plus the XML response builders it uses.
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/retailvoice/callbridge/internal/domain/repository"
	"github.com/retailvoice/callbridge/internal/domain/valueobject"
)

// WebhookHandler answers the carrier's inbound-call webhook.
type WebhookHandler struct {
	backend    repository.OrderBackend
	bridgeHost string // host:port the media WebSocket listens on
	logger     *zap.Logger
}

func NewWebhookHandler(backend repository.OrderBackend, bridgeHost string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{backend: backend, bridgeHost: bridgeHost, logger: logger.With(zap.String("component", "webhook_handler"))}
}

// HandleInboundCall identifies the caller synchronously and returns TwiML
// opening a bidirectional media stream to the bridge.
func (h *WebhookHandler) HandleInboundCall(c *gin.Context) {
	callSid := c.PostForm("CallSid")
	from := c.PostForm("From")

	phone := valueobject.NormalizePhone(from)
	ident, err := h.backend.SearchByPhone(c.Request.Context(), phone)
	if err != nil {
		h.logger.Warn("identification lookup failed", zap.String("call_sid", callSid), zap.Error(err))
	}

	blob, marshalErr := json.Marshal(ident)
	if marshalErr != nil {
		h.logger.Error("identification context marshal failed", zap.Error(marshalErr))
		blob = []byte("{}")
	}
	encoded := base64.StdEncoding.EncodeToString(blob)

	scheme := "wss"
	if isLocalHost(c.Request.Host) {
		scheme = "ws"
	}
	streamURL := fmt.Sprintf("%s://%s/media", scheme, h.bridgeHost)

	xml := buildConnectStreamXML(streamURL, map[string]string{
		"customerContext": encoded,
		"callerPhone":     phone,
		"callSid":         callSid,
	})

	c.Header("Content-Type", "text/xml; charset=utf-8")
	c.String(http.StatusOK, xml)
}

func isLocalHost(host string) bool {
	h, _, err := net.SplitHostPort(host)
	if err != nil {
		h = host
	}
	return h == "localhost" || h == "127.0.0.1" || strings.HasPrefix(h, "192.168.") || strings.HasPrefix(h, "10.")
}

func buildConnectStreamXML(streamURL string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<Response><Connect><Stream url="`)
	b.WriteString(xmlEscape(streamURL))
	b.WriteString(`">`)
	for name, value := range params {
		fmt.Fprintf(&b, `<Parameter name="%s" value="%s"/>`, xmlEscape(name), xmlEscape(value))
	}
	b.WriteString(`</Stream></Connect></Response>`)
	return b.String()
}

// buildBlindTransferXML is not on the critical path: the session
// mediator's handoff branch does not call it, and it is exercised only by
// its own tests.
func buildBlindTransferXML(number, statusCallbackURL string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<Response><Dial`)
	if statusCallbackURL != "" {
		fmt.Fprintf(&b, ` action="%s" method="POST"`, xmlEscape(statusCallbackURL))
	}
	b.WriteString(`><Number>`)
	b.WriteString(xmlEscape(number))
	b.WriteString(`</Number></Dial></Response>`)
	return b.String()
}

// buildHoldMusicXML is likewise not on the critical path: a future
// carrier-transfer flow could park a caller here while paging a human.
func buildHoldMusicXML(audioURL string, loop int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	fmt.Fprintf(&b, `<Response><Play loop="%d">%s</Play></Response>`, loop, xmlEscape(audioURL))
	return b.String()
}

func xmlEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(s)
}
