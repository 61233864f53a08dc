package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/retailvoice/callbridge/internal/application"
	"github.com/retailvoice/callbridge/internal/domain/entity"
	"github.com/retailvoice/callbridge/internal/domain/repository"
	domaintool "github.com/retailvoice/callbridge/internal/domain/tool"
	"github.com/retailvoice/callbridge/internal/infrastructure/llm/realtime"
	"github.com/retailvoice/callbridge/internal/infrastructure/prompt"
	toolexec "github.com/retailvoice/callbridge/internal/infrastructure/tool"
	carrierws "github.com/retailvoice/callbridge/internal/interfaces/websocket"
	"github.com/retailvoice/callbridge/pkg/safego"
)

// startFrameWait bounds how long the media handler waits for the
// carrier's first "start" frame before giving up on the call.
const startFrameWait = 5 * time.Second

// MediaHandler upgrades the carrier's media connection and spins up one
// SessionMediator per call.
type MediaHandler struct {
	llmConfig realtime.Config
	mediator  application.MediatorConfig
	registry  domaintool.Registry
	tools     *toolexec.Executor
	composer  *prompt.Composer
	sink      repository.TranscriptSink
	calls     *application.CallRegistry
	logger    *zap.Logger
}

func NewMediaHandler(
	llmConfig realtime.Config,
	mediatorCfg application.MediatorConfig,
	registry domaintool.Registry,
	tools *toolexec.Executor,
	composer *prompt.Composer,
	sink repository.TranscriptSink,
	calls *application.CallRegistry,
	logger *zap.Logger,
) *MediaHandler {
	return &MediaHandler{
		llmConfig: llmConfig,
		mediator:  mediatorCfg,
		registry:  registry,
		tools:     tools,
		composer:  composer,
		sink:      sink,
		calls:     calls,
		logger:    logger.With(zap.String("component", "media_handler")),
	}
}

// HandleMedia upgrades the connection, waits for the carrier's initial
// start frame to learn the call's identity, then hands the call off to a
// freshly constructed SessionMediator.
func (h *MediaHandler) HandleMedia(c *gin.Context) {
	carrier, err := carrierws.Upgrade(c.Writer, c.Request, h.logger)
	if err != nil {
		h.logger.Warn("media upgrade failed", zap.Error(err))
		return
	}

	safego.Go(h.logger, "carrier-reader", carrier.Run)

	var start carrierws.InboundEvent
	select {
	case ev, ok := <-carrier.Inbound():
		if !ok || ev.Kind != carrierws.InboundStart:
			h.logger.Warn("carrier connection closed before start frame")
			carrier.Close()
			return
		}
		start = ev
	case <-time.After(startFrameWait):
		h.logger.Warn("timed out waiting for carrier start frame")
		carrier.Close()
		return
	}

	call := entity.CallIdentity{
		CallID:       start.CallID,
		CallerNumber: start.CustomParameters["callerPhone"],
		StartedAt:    time.Now().UTC(),
	}

	ident := entity.IdentificationContext{}
	if blob, ok := start.CustomParameters["customerContext"]; ok {
		decoded, err := application.DecodeIdentificationContext(blob)
		if err != nil {
			h.logger.Warn("identification context decode failed", zap.String("call_id", call.CallID), zap.Error(err))
		} else {
			ident = decoded
		}
	}

	llmSession := realtime.NewSession(h.llmConfig, h.logger)

	mediator := application.NewSessionMediator(
		h.mediator,
		h.logger,
		carrier,
		llmSession,
		h.tools,
		h.registry,
		h.composer,
		h.sink,
		call,
		ident,
	).WithCallRegistry(h.calls)

	mediator.RunAsync(context.Background())
}
