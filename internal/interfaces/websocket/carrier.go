// Package websocket is C3: the media WebSocket endpoint the carrier
// connects to for one call. Unlike a general-purpose hub with many
// concurrent clients, every connection here belongs to exactly one call.
package websocket

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/retailvoice/callbridge/pkg/safego"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	readLimit   = 512 * 1024
	pongWait    = 60 * time.Second
	pingPeriod  = 30 * time.Second
	writeWait   = 10 * time.Second
)

// InboundKind discriminates the carrier wire protocol.
type InboundKind string

const (
	InboundConnected InboundKind = "connected"
	InboundStart     InboundKind = "start"
	InboundMedia     InboundKind = "media"
	InboundStop      InboundKind = "stop"
	InboundMark      InboundKind = "mark"
)

// InboundEvent is the single shape every carrier frame is parsed into.
type InboundEvent struct {
	Kind InboundKind

	StreamID         string            // InboundStart
	CallID           string            // InboundStart
	CustomParameters map[string]string // InboundStart: customerContext, callerPhone, callSid

	Payload string // InboundMedia: base64 audio frame

	MarkName string // InboundMark
}

type wireFrame struct {
	Event string `json:"event"`
	Start struct {
		StreamSid     string            `json:"streamSid"`
		CallSid       string            `json:"callSid"`
		CustomParameters map[string]string `json:"customParameters"`
	} `json:"start"`
	Media struct {
		Payload string `json:"payload"`
	} `json:"media"`
	Mark struct {
		Name string `json:"name"`
	} `json:"mark"`
}

func parseInbound(raw []byte) (InboundEvent, bool) {
	var w wireFrame
	if err := json.Unmarshal(raw, &w); err != nil {
		return InboundEvent{}, false
	}
	switch InboundKind(w.Event) {
	case InboundConnected, InboundStop:
		return InboundEvent{Kind: InboundKind(w.Event)}, true
	case InboundStart:
		return InboundEvent{
			Kind:             InboundStart,
			StreamID:         w.Start.StreamSid,
			CallID:           w.Start.CallSid,
			CustomParameters: w.Start.CustomParameters,
		}, true
	case InboundMedia:
		return InboundEvent{Kind: InboundMedia, Payload: w.Media.Payload}, true
	case InboundMark:
		return InboundEvent{Kind: InboundMark, MarkName: w.Mark.Name}, true
	default:
		return InboundEvent{}, false
	}
}

// CarrierSession is one call's media connection to the carrier.
type CarrierSession struct {
	conn   *websocket.Conn
	logger *zap.Logger

	writeMu sync.Mutex

	inbound chan InboundEvent
}

// Upgrade promotes an HTTP request to a carrier media session.
func Upgrade(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*CarrierSession, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &CarrierSession{
		conn:    conn,
		logger:  logger.With(zap.String("component", "carrier_session")),
		inbound: make(chan InboundEvent, 64),
	}, nil
}

// Inbound is the channel of parsed carrier events. Closed when the read
// loop exits (socket closed or unrecoverable error).
func (c *CarrierSession) Inbound() <-chan InboundEvent { return c.inbound }

// Run starts the read loop. Blocks until the connection closes; call it
// from a safego.Go-launched goroutine.
func (c *CarrierSession) Run() {
	defer close(c.inbound)

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logger.Info("carrier session closed", zap.Error(err))
			return
		}
		ev, ok := parseInbound(raw)
		if !ok {
			c.logger.Warn("dropped malformed carrier frame")
			continue
		}
		c.inbound <- ev
	}
}

// StartKeepalive launches the ping ticker; pair with Run via safego.Go.
func (c *CarrierSession) StartKeepalive(logger *zap.Logger) {
	safego.Go(logger, "carrier-keepalive", func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for range ticker.C {
			if err := c.ping(); err != nil {
				return
			}
		}
	})
}

func (c *CarrierSession) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *CarrierSession) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// SendMedia forwards one assistant audio frame to the carrier.
func (c *CarrierSession) SendMedia(payload string) error {
	return c.writeJSON(map[string]any{
		"event": "media",
		"media": map[string]string{"payload": payload},
	})
}

// SendMark asks the carrier to acknowledge playback of a named marker
// once it has actually been played out.
func (c *CarrierSession) SendMark(name string) error {
	return c.writeJSON(map[string]any{
		"event": "mark",
		"mark":  map[string]string{"name": name},
	})
}

// Clear discards any queued, not-yet-played assistant audio.
func (c *CarrierSession) Clear() error {
	return c.writeJSON(map[string]any{"event": "clear"})
}

// Close closes the underlying connection.
func (c *CarrierSession) Close() error {
	return c.conn.Close()
}

// DecodeCustomParameter base64-decodes a start event's customParameters
// entry. Used for the identification context blob set by C8.
func DecodeCustomParameter(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}
