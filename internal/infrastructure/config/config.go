// Package config is A1: layered viper configuration. Priority (low to
// high): built-in defaults -> global ~/.callbridge/config.yaml -> project
// ./config.yaml -> CALLBRIDGE_* environment variables. An environment
// variable is named CALLBRIDGE_ plus the key upper-cased with dots replaced
// by underscores (CALLBRIDGE_HTTP_PORT); it is read only for keys that have
// a built-in default or appear in a config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the whole application configuration tree.
type Config struct {
	HTTP         HTTPConfig         `mapstructure:"http"`
	Carrier      CarrierConfig      `mapstructure:"carrier"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Backend      BackendConfig      `mapstructure:"backend"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Log          LogConfig          `mapstructure:"log"`
	Turn         TurnConfig         `mapstructure:"turn"`
	Handoff      HandoffConfig      `mapstructure:"handoff"`
	Notify       NotifyConfig       `mapstructure:"notify"`
	SMTP         SMTPConfig         `mapstructure:"smtp"`
	TemplatesDir string             `mapstructure:"templates_dir"`
}

// SMTPConfig is the outbound mail transport send_email uses.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	StartTLS bool   `mapstructure:"start_tls"`
}

// HTTPConfig is the inbound webhook/health listener.
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, production
}

// CarrierConfig is the media WebSocket endpoint the carrier dials into.
type CarrierConfig struct {
	BridgeHost string `mapstructure:"bridge_host"` // host:port advertised to the carrier in TwiML
}

// LLMConfig is the streaming speech-to-speech provider.
type LLMConfig struct {
	URL             string `mapstructure:"url"`
	APIKey          string `mapstructure:"api_key"`
	ProtocolVersion string `mapstructure:"protocol_version"`
	Voice           string `mapstructure:"voice"`
}

// BackendConfig is the order/customer backend OAuth2 client.
type BackendConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	TimeoutSec   int    `mapstructure:"timeout_seconds"`
}

// DatabaseConfig is the transcript store.
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // sqlite, postgres
	DSN  string `mapstructure:"dsn"`
}

// LogConfig controls the zap logger factory (A2).
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TurnConfig resolves the §9 open question on cooldown/stabilization
// timing: config-overridable, defaulting to the spec values.
type TurnConfig struct {
	EchoCooldownMs          int     `mapstructure:"echo_cooldown_ms"`
	GreetingStabilizationMs int     `mapstructure:"greeting_stabilization_ms"`
	SessionUpdatedBudgetMs  int     `mapstructure:"session_updated_budget_ms"`
	VADThreshold            float64 `mapstructure:"vad_threshold"`
	VADPrefixPaddingMs      int     `mapstructure:"vad_prefix_padding_ms"`
	VADSilenceDurationMs    int     `mapstructure:"vad_silence_duration_ms"`
}

// HandoffConfig resolves the §9 open question on carrier-level transfer:
// disabled by default, so a handoff stays spoken-only until opted in.
type HandoffConfig struct {
	CarrierTransferEnabled bool   `mapstructure:"carrier_transfer_enabled"`
	TransferNumber         string `mapstructure:"transfer_number"`
}

// NotifyConfig is A5's destination. An empty BotToken makes the notifier
// a no-op rather than an error.
type NotifyConfig struct {
	TelegramBotToken string `mapstructure:"telegram_bot_token"`
	TelegramChatID   int64  `mapstructure:"telegram_chat_id"`
}

// Load reads the layered configuration.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	globalDir := filepath.Join(os.Getenv("HOME"), ".callbridge")
	v.AddConfigPath(globalDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read global config: %w", err)
		}
	}

	for _, localDir := range []string{"./config", "."} {
		localPath := filepath.Join(localDir, "config.yaml")
		if _, err := os.Stat(localPath); err == nil {
			v2 := viper.New()
			v2.SetConfigFile(localPath)
			if err := v2.ReadInConfig(); err == nil {
				_ = v.MergeConfigMap(v2.AllSettings())
			}
			break
		}
	}

	v.SetEnvPrefix("CALLBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.mode", "production")

	v.SetDefault("carrier.bridge_host", "localhost:3000")

	v.SetDefault("llm.protocol_version", "realtime=v1")
	v.SetDefault("llm.voice", "alloy")

	v.SetDefault("backend.timeout_seconds", 10)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "callbridge.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("turn.echo_cooldown_ms", 400)
	v.SetDefault("turn.greeting_stabilization_ms", 1200)
	v.SetDefault("turn.session_updated_budget_ms", 3000)
	v.SetDefault("turn.vad_threshold", 0.8)
	v.SetDefault("turn.vad_prefix_padding_ms", 600)
	v.SetDefault("turn.vad_silence_duration_ms", 1000)

	v.SetDefault("handoff.carrier_transfer_enabled", false)

	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.start_tls", true)

	v.SetDefault("templates_dir", "./templates")
}
