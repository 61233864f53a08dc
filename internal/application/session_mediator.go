package application

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/retailvoice/callbridge/internal/domain/entity"
	"github.com/retailvoice/callbridge/internal/domain/repository"
	"github.com/retailvoice/callbridge/internal/domain/service"
	domaintool "github.com/retailvoice/callbridge/internal/domain/tool"
	"github.com/retailvoice/callbridge/internal/infrastructure/llm/realtime"
	"github.com/retailvoice/callbridge/internal/infrastructure/prompt"
	toolexec "github.com/retailvoice/callbridge/internal/infrastructure/tool"
	carrierws "github.com/retailvoice/callbridge/internal/interfaces/websocket"
	"github.com/retailvoice/callbridge/pkg/safego"
)

// MediatorConfig carries the timing parameters A1 may override.
type MediatorConfig struct {
	EchoCooldown          time.Duration
	GreetingStabilization time.Duration
	SessionUpdatedBudget  time.Duration
	Voice                 string
	InputAudioFormat      string
	OutputAudioFormat     string
	TurnDetection         realtime.TurnDetectionConfig
}

func DefaultMediatorConfig() MediatorConfig {
	return MediatorConfig{
		EchoCooldown:          service.DefaultEchoCooldown,
		GreetingStabilization: 1200 * time.Millisecond,
		SessionUpdatedBudget:  3 * time.Second,
		Voice:                 "alloy",
		InputAudioFormat:      "g711_ulaw",
		OutputAudioFormat:     "g711_ulaw",
		TurnDetection: realtime.TurnDetectionConfig{
			Threshold:         0.8,
			PrefixPaddingMs:   600,
			SilenceDurationMs: 1000,
		},
	}
}

// SessionMediator is C7: it owns one call end to end, coupling the
// carrier media socket to the LLM realtime session through the turn
// arbiter.
type SessionMediator struct {
	cfg       MediatorConfig
	logger    *zap.Logger
	carrier   *carrierws.CarrierSession
	llm       *realtime.Session
	arbiter   *service.TurnArbiter
	state     *service.CallStateMachine
	tools     *toolexec.Executor
	composer  *prompt.Composer
	sink      repository.TranscriptSink
	registry  domaintool.Registry
	calls     *CallRegistry // optional; nil when no monitor is attached

	call        entity.CallIdentity
	ident       entity.IdentificationContext
	sinkRef     repository.TranscriptRef
	pendingCall map[string]pendingToolCall // function_call_id -> call info
}

type pendingToolCall struct {
	name string
}

// NewSessionMediator wires one call's components together. The LLM
// session and carrier session are expected to be freshly constructed and
// not yet connected/running.
func NewSessionMediator(
	cfg MediatorConfig,
	logger *zap.Logger,
	carrier *carrierws.CarrierSession,
	llmSession *realtime.Session,
	tools *toolexec.Executor,
	registry domaintool.Registry,
	composer *prompt.Composer,
	sink repository.TranscriptSink,
	call entity.CallIdentity,
	ident entity.IdentificationContext,
) *SessionMediator {
	m := &SessionMediator{
		cfg:         cfg,
		logger:      logger.With(zap.String("call_id", call.CallID)),
		carrier:     carrier,
		llm:         llmSession,
		tools:       tools,
		registry:    registry,
		composer:    composer,
		sink:        sink,
		call:        call,
		ident:       ident,
		pendingCall: make(map[string]pendingToolCall),
	}
	m.state = service.NewCallStateMachine(m.logger)
	m.state.OnTransition(func(_, to service.CallState) {
		if m.calls != nil {
			m.calls.SetState(m.call.CallID, string(to))
		}
	})
	m.arbiter = service.NewTurnArbiter(cfg.EchoCooldown, service.Hooks{
		CancelAssistant:       func() { _ = m.llm.CancelResponse() },
		ClearCarrierBuffer:    func() { _ = m.carrier.Clear() },
		EmitAudioCompleteMark: func() { _ = m.carrier.SendMark("audio-complete") },
	})
	return m
}

// WithCallRegistry attaches the monitor TUI's call registry. Optional —
// a mediator built without one simply never reports its state anywhere.
func (m *SessionMediator) WithCallRegistry(registry *CallRegistry) *SessionMediator {
	m.calls = registry
	return m
}

// Run drives the call's full lifecycle. The caller is expected to have
// already started the carrier session's read loop (via safego.Go against
// carrier.Run) so it could read the initial "start" frame and resolve the
// call identity before a mediator could be constructed. Run blocks until
// the call ends.
func (m *SessionMediator) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctx = domaintool.WithCallID(ctx, m.call.CallID)
	ctx = domaintool.WithCallerNumber(ctx, m.call.CallerNumber)

	ref, err := m.sink.StartCall(ctx, repository.StartCallInput{
		CallID:       m.call.CallID,
		CallerPhone:  m.call.CallerNumber,
		CustomerName: m.ident.CustomerName,
		Identified:   m.ident.Found,
	})
	if err != nil {
		m.logger.Warn("transcript start failed", zap.Error(err))
	}
	m.sinkRef = ref

	if m.calls != nil {
		m.calls.Upsert(CallStatus{
			CallID:       m.call.CallID,
			CallerNumber: m.call.CallerNumber,
			CustomerName: m.ident.CustomerName,
			Identified:   m.ident.Found,
			State:        "connecting",
			StartedAt:    m.call.StartedAt,
		})
	}

	if !m.connect(ctx) {
		m.closeCall(ctx)
		return
	}

	m.carrier.StartKeepalive(m.logger)
	m.loop(ctx)
}

// RunAsync is Run started on its own goroutine, for callers (the media
// WebSocket handler) that need to return control immediately.
func (m *SessionMediator) RunAsync(ctx context.Context) {
	safego.Go(m.logger, "mediator-loop", func() { m.Run(ctx) })
}

func (m *SessionMediator) connect(ctx context.Context) bool {
	prompt, err := m.composer.Compose(ctx, m.ident)
	if err != nil {
		m.logger.Error("prompt composition failed", zap.Error(err))
		return false
	}

	if err := m.llm.Connect(ctx); err != nil {
		m.logger.Error("llm connect failed", zap.Error(err))
		return false
	}

	toolSchemas := make([]realtime.ToolSchema, 0, len(m.registry.List()))
	for _, def := range m.registry.List() {
		toolSchemas = append(toolSchemas, realtime.ToolSchema{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters,
		})
	}

	err = m.llm.UpdateSession(realtime.SessionConfig{
		Modalities:        []string{"text", "audio"},
		Instructions:      prompt,
		Voice:             m.cfg.Voice,
		InputAudioFormat:  m.cfg.InputAudioFormat,
		OutputAudioFormat: m.cfg.OutputAudioFormat,
		TurnDetection:     m.cfg.TurnDetection,
		Tools:             toolSchemas,
		ToolChoice:        "auto",
	})
	if err != nil {
		m.logger.Error("llm session update failed", zap.Error(err))
		return false
	}

	if !m.llm.WaitForSessionUpdated(ctx, m.cfg.SessionUpdatedBudget) {
		m.logger.Warn("session.updated not observed within budget, proceeding anyway")
	}

	time.Sleep(m.cfg.GreetingStabilization)

	if err := m.llm.CreateResponse(); err != nil {
		m.logger.Error("initial response create failed", zap.Error(err))
		return false
	}

	_ = m.state.Transition(service.StateGreeting)
	return true
}

func (m *SessionMediator) loop(ctx context.Context) {
	defer m.closeCall(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-m.carrier.Inbound():
			if !ok {
				return
			}
			if !m.handleCarrierEvent(ctx, ev) {
				return
			}

		case ev, ok := <-m.llm.Events():
			if !ok {
				return
			}
			m.handleLLMEvent(ctx, ev)
		}
	}
}

func (m *SessionMediator) handleCarrierEvent(ctx context.Context, ev carrierws.InboundEvent) bool {
	switch ev.Kind {
	case carrierws.InboundMedia:
		if !m.arbiter.GateCallerAudio() {
			if err := m.llm.SendAudio(ev.Payload); err != nil {
				m.logger.Warn("forward caller audio failed", zap.Error(err))
			}
		}
	case carrierws.InboundMark:
		if ev.MarkName == "audio-complete" {
			m.arbiter.OnCarrierMarkAudioComplete()
		}
	case carrierws.InboundStop:
		_ = m.state.Transition(service.StateClosing)
		return false
	}
	return true
}

func (m *SessionMediator) handleLLMEvent(ctx context.Context, ev realtime.Event) {
	switch ev.Kind {
	case realtime.KindResponseCreated:
		m.arbiter.OnResponseCreated()
		_ = m.state.Transition(service.StateResponding)
	case realtime.KindResponseDone:
		m.arbiter.OnResponseDone()
		_ = m.state.Transition(service.StateListening)
	case realtime.KindAudioDelta:
		m.arbiter.OnAudioDelta()
		if err := m.carrier.SendMedia(ev.AudioFrame); err != nil {
			m.logger.Warn("forward assistant audio failed", zap.Error(err))
		}
	case realtime.KindAudioDone:
		m.arbiter.OnAudioDone()
	case realtime.KindSpeechStarted:
		m.arbiter.OnSpeechStarted()
	case realtime.KindAudioTranscriptDone:
		m.sink.AppendMessage(ctx, m.sinkRef, entity.SpeakerAssistant, ev.Transcript)
	case realtime.KindInputTranscriptDone:
		m.sink.AppendMessage(ctx, m.sinkRef, entity.SpeakerCaller, ev.Transcript)
	case realtime.KindFunctionCallArgsDone:
		_ = m.state.Transition(service.StateInTool)
		m.runTool(ctx, ev)
	case realtime.KindError:
		m.logger.Warn("llm reported error", zap.String("code", ev.ErrorCode), zap.String("message", ev.ErrorMessage))
	}
}

func (m *SessionMediator) runTool(ctx context.Context, ev realtime.Event) {
	result, err := m.tools.Execute(ctx, ev.FunctionName, ev.ArgumentsJSON)
	if err != nil {
		m.logger.Error("tool dispatch failed unexpectedly", zap.Error(err))
		result = domaintool.TextResult("a system error occurred")
	}

	output := toolResultToText(result)
	m.sink.AppendToolCall(ctx, m.sinkRef, ev.FunctionName, ev.ArgumentsJSON, output)

	if err := m.llm.SendToolResult(ev.FunctionCallID, output); err != nil {
		m.logger.Warn("send tool result failed", zap.Error(err))
	}

	if result.Kind == domaintool.KindHandoff {
		m.notifyHandoff(ctx, result)
	}

	_ = m.state.Transition(service.StateListening)
}

func (m *SessionMediator) notifyHandoff(ctx context.Context, result *domaintool.Result) {
	m.logger.Info("call flagged for human handoff",
		zap.String("reason", result.HandoffReason),
		zap.String("priority", string(result.HandoffPriority)),
	)
	// No carrier-level transfer is made here and handoff.carrier_transfer_enabled
	// is not read: the handoff stays spoken-only, the assistant having
	// already voiced the handoff message via SendToolResult above.
}

func toolResultToText(result *domaintool.Result) string {
	switch result.Kind {
	case domaintool.KindText:
		return result.Text
	case domaintool.KindStructured:
		return result.Message
	case domaintool.KindHandoff:
		return result.HandoffSummary
	default:
		return ""
	}
}

func (m *SessionMediator) closeCall(ctx context.Context) {
	elapsed := m.state.Elapsed()
	_ = m.state.Transition(service.StateClosing)
	m.sink.EndCall(ctx, m.sinkRef, elapsed.Seconds())
	m.llm.Disconnect()
	_ = m.carrier.Close()
	if m.calls != nil {
		m.calls.End(m.call.CallID)
	}
}

// DecodeIdentificationContext reverses C8's base64/JSON encoding of the
// customParameters blob carried by the carrier's start event.
func DecodeIdentificationContext(encoded string) (entity.IdentificationContext, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return entity.IdentificationContext{}, err
	}
	var ident entity.IdentificationContext
	if err := json.Unmarshal(raw, &ident); err != nil {
		return entity.IdentificationContext{}, err
	}
	return ident, nil
}
