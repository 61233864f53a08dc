// Package realtime is C2: the WebSocket client to the streaming
// speech-to-speech LLM. It owns the socket, translates the wire protocol
// into the typed Event union, and exposes the outbound operations the
// mediator drives turn-taking with.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/retailvoice/callbridge/pkg/safego"
)

// Config configures one LLM session connection.
type Config struct {
	URL             string // wss://... endpoint of the streaming LLM service
	APIKey          string
	ProtocolVersion string // sent as a beta-protocol header the service requires
}

// Session is a single call's connection to the LLM. Not safe for use by more
// than one mediator at a time, but the reader goroutine and the outbound
// methods below may run concurrently with each other.
type Session struct {
	cfg    Config
	logger *zap.Logger

	conn   *websocket.Conn
	connMu sync.Mutex // guards writes; gorilla connections require single-writer discipline

	events     chan Event // ordered, kind-specific payloads the mediator consumes
	diagnostic chan Event // every event, including KindUnknown, for observability

	closeOnce sync.Once
	closed    chan struct{}
}

// NewSession constructs a session. Connect must be called before any other
// operation.
func NewSession(cfg Config, logger *zap.Logger) *Session {
	return &Session{
		cfg:        cfg,
		logger:     logger.With(zap.String("component", "llm_session")),
		events:     make(chan Event, 64),
		diagnostic: make(chan Event, 64),
		closed:     make(chan struct{}),
	}
}

// Events is the ordered event channel the mediator selects on.
func (s *Session) Events() <-chan Event { return s.events }

// Diagnostic carries every event, including unknown kinds, for logging.
func (s *Session) Diagnostic() <-chan Event { return s.diagnostic }

// Connect opens the WebSocket and starts the reader goroutine.
func (s *Session) Connect(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	if s.cfg.ProtocolVersion != "" {
		header.Set("OpenAI-Beta", s.cfg.ProtocolVersion)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("llm session dial: %w", err)
	}
	s.conn = conn

	safego.Go(s.logger, "llm-reader", s.readLoop)
	return nil
}

// WaitForSessionUpdated blocks until a session.updated event arrives or
// budget elapses. A timeout is non-fatal — the caller proceeds regardless.
func (s *Session) WaitForSessionUpdated(ctx context.Context, budget time.Duration) bool {
	timer := time.NewTimer(budget)
	defer timer.Stop()
	for {
		select {
		case ev := <-s.events:
			if ev.Kind == KindSessionUpdated {
				return true
			}
			// Not what we're waiting for — requeue is unsafe (ordering),
			// so route it straight to diagnostics; the mediator's main
			// loop hasn't started consuming s.events yet at this point in
			// the connecting state.
			s.fanoutDiagnostic(ev)
		case <-timer.C:
			return false
		case <-ctx.Done():
			return false
		}
	}
}

func (s *Session) readLoop() {
	defer close(s.closed)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.logger.Info("llm session closed", zap.Error(err))
			return
		}
		ev := parseEvent(data)
		s.fanoutDiagnostic(ev)

		if ev.Kind == KindError && ev.ErrorCode == BenignErrorCode {
			continue // silently discarded, per the error policy
		}
		select {
		case s.events <- ev:
		default:
			s.logger.Warn("llm event channel full, dropping event", zap.String("kind", string(ev.Kind)))
		}
	}
}

func (s *Session) fanoutDiagnostic(ev Event) {
	select {
	case s.diagnostic <- ev:
	default:
	}
}

// wireEvent is the loose shape every inbound frame is first unmarshalled
// into before being narrowed to an Event.
type wireEvent struct {
	Type  string `json:"type"`
	Delta string `json:"delta"`
	Transcript string `json:"transcript"`
	Name  string `json:"name"`
	CallID string `json:"call_id"`
	Arguments string `json:"arguments"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseEvent(raw []byte) Event {
	var w wireEvent
	if err := json.Unmarshal(raw, &w); err != nil {
		return Event{Kind: KindUnknown, RawJSON: string(raw)}
	}

	switch Kind(w.Type) {
	case KindSessionCreated, KindSessionUpdated, KindResponseCreated, KindResponseDone,
		KindAudioDone, KindSpeechStarted, KindSpeechStopped:
		return Event{Kind: Kind(w.Type)}
	case KindAudioDelta:
		return Event{Kind: KindAudioDelta, AudioFrame: w.Delta}
	case KindAudioTranscriptDone, KindInputTranscriptDone:
		return Event{Kind: Kind(w.Type), Transcript: w.Transcript}
	case KindFunctionCallArgsDone:
		return Event{Kind: KindFunctionCallArgsDone, FunctionName: w.Name, FunctionCallID: w.CallID, ArgumentsJSON: w.Arguments}
	case KindError:
		return Event{Kind: KindError, ErrorCode: w.Error.Code, ErrorMessage: w.Error.Message}
	default:
		return Event{Kind: KindUnknown, RawKind: w.Type, RawJSON: string(raw)}
	}
}

func (s *Session) send(v any) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.conn.WriteJSON(v)
}

// UpdateSession sets modalities, codec, voice, turn-detection and tool
// schemas for the call.
func (s *Session) UpdateSession(cfg SessionConfig) error {
	return s.send(map[string]any{"type": "session.update", "session": cfg})
}

// SendAudio appends one caller audio frame to the input buffer.
func (s *Session) SendAudio(base64Frame string) error {
	return s.send(map[string]any{"type": "input_audio_buffer.append", "audio": base64Frame})
}

// CreateResponse requests a new assistant response.
func (s *Session) CreateResponse() error {
	return s.send(map[string]any{"type": "response.create"})
}

// CancelResponse aborts the currently generating response.
func (s *Session) CancelResponse() error {
	return s.send(map[string]any{"type": "response.cancel"})
}

// ClearInputBuffer discards buffered but uncommitted caller audio.
func (s *Session) ClearInputBuffer() error {
	return s.send(map[string]any{"type": "input_audio_buffer.clear"})
}

// CommitInputBuffer commits the buffered caller audio as a turn.
func (s *Session) CommitInputBuffer() error {
	return s.send(map[string]any{"type": "input_audio_buffer.commit"})
}

// SendToolResult materializes a tool-output conversation item and
// immediately requests a follow-up response.
func (s *Session) SendToolResult(callID, result string) error {
	if err := s.send(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type":    "function_call_output",
			"call_id": callID,
			"output":  result,
		},
	}); err != nil {
		return err
	}
	return s.CreateResponse()
}

// Disconnect closes the underlying socket exactly once.
func (s *Session) Disconnect() {
	s.closeOnce.Do(func() {
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}
