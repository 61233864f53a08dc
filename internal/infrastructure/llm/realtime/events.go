package realtime

// Kind discriminates the realtime LLM event protocol. A tagged union over a
// single Event struct, per the redesign direction in SPEC_FULL.md §9 —
// deliberately not an "any"-keyed dynamic map.
type Kind string

const (
	KindSessionCreated         Kind = "session.created"
	KindSessionUpdated         Kind = "session.updated"
	KindResponseCreated        Kind = "response.created"
	KindResponseDone           Kind = "response.done"
	KindAudioDelta             Kind = "response.audio.delta"
	KindAudioDone              Kind = "response.audio.done"
	KindAudioTranscriptDone    Kind = "response.audio_transcript.done"
	KindSpeechStarted          Kind = "input_audio_buffer.speech_started"
	KindSpeechStopped          Kind = "input_audio_buffer.speech_stopped"
	KindInputTranscriptDone    Kind = "conversation.item.input_audio_transcription.completed"
	KindFunctionCallArgsDone   Kind = "response.function_call_arguments.done"
	KindError                  Kind = "error"
	KindUnknown                Kind = "unknown"
)

// BenignErrorCode is the one error code the LLM session discards silently:
// a barge-in racing a response that has already completed.
const BenignErrorCode = "response_cancel_not_active"

// Event is the single shape every inbound LLM message is parsed into.
// Only the fields relevant to Kind are populated; the rest are zero.
type Event struct {
	Kind Kind

	AudioFrame string // KindAudioDelta: base64 carrier-codec audio
	Transcript string // KindAudioTranscriptDone / KindInputTranscriptDone

	FunctionName string         // KindFunctionCallArgsDone
	FunctionCallID string       // KindFunctionCallArgsDone
	ArgumentsJSON  string       // KindFunctionCallArgsDone

	ErrorCode    string // KindError
	ErrorMessage string // KindError

	RawKind string // KindUnknown: the wire kind string, preserved for diagnostics
	RawJSON string // KindUnknown: the raw payload, preserved for diagnostics
}

// TurnDetectionConfig mirrors the LLM service's server-side VAD parameters.
type TurnDetectionConfig struct {
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
}

// SessionConfig is the payload of UpdateSession.
type SessionConfig struct {
	Modalities          []string            `json:"modalities"`
	Instructions        string              `json:"instructions"`
	Voice               string              `json:"voice"`
	InputAudioFormat    string              `json:"input_audio_format"`
	OutputAudioFormat   string              `json:"output_audio_format"`
	InputTranscription  string              `json:"input_audio_transcription_model,omitempty"`
	TurnDetection       TurnDetectionConfig `json:"turn_detection"`
	Tools               []ToolSchema        `json:"tools"`
	ToolChoice          string              `json:"tool_choice"`
}

// ToolSchema is the wire shape of one tool definition sent to the LLM.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
