package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Provider modes.
const (
	ProviderLive    = "live"
	ProviderFixture = "fixture"
)

// Session backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Chat transports.
const (
	ChatSimulated = "simulated"
	ChatRedis     = "redis"
	ChatNATS      = "nats"
)

// Assistant providers.
const (
	AssistantAPI    = "api"
	AssistantOpenAI = "openai"
	AssistantNone   = "none"
)

// Config holds runtime configuration values for the web service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	APIBaseURL         string
	APITimeout         time.Duration
	ProviderMode       string
	SessionBackend     string
	SessionTTL         time.Duration
	RedisURL           string
	NATSURL            string
	ChatTransport      string
	ChatReplyMinDelay  time.Duration
	ChatReplyMaxDelay  time.Duration
	LeaveRedirectDelay time.Duration
	PageRenderBudget   time.Duration
	AssistantProvider  string
	OpenAIAPIKey       string
	OpenAIModel        string
	RateLimitMax       int
	RateLimitWindow    time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// NeedsRedis reports whether any configured component talks to redis.
func (c Config) NeedsRedis() bool {
	return c.SessionBackend == SessionRedis || c.ChatTransport == ChatRedis
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FRIENDZONE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "FriendZone Web")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("api.base_url", "http://localhost:5000")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("provider.mode", ProviderLive)
	v.SetDefault("session.backend", SessionMemory)
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("chat.transport", ChatSimulated)
	v.SetDefault("chat.reply_min_delay", "1s")
	v.SetDefault("chat.reply_max_delay", "3s")
	v.SetDefault("leave.redirect_delay", "1500ms")
	v.SetDefault("page.render_budget", "300ms")
	v.SetDefault("assistant.provider", AssistantAPI)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("rate_limit.max", 30)
	v.SetDefault("rate_limit.window", "1m")

	durations := map[string]time.Duration{}
	for _, key := range []string{"api.timeout", "session.ttl", "chat.reply_min_delay", "chat.reply_max_delay", "leave.redirect_delay", "page.render_budget", "rate_limit.window"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		APIBaseURL:         strings.TrimRight(v.GetString("api.base_url"), "/"),
		APITimeout:         durations["api.timeout"],
		ProviderMode:       strings.ToLower(v.GetString("provider.mode")),
		SessionBackend:     strings.ToLower(v.GetString("session.backend")),
		SessionTTL:         durations["session.ttl"],
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		ChatTransport:      strings.ToLower(v.GetString("chat.transport")),
		ChatReplyMinDelay:  durations["chat.reply_min_delay"],
		ChatReplyMaxDelay:  durations["chat.reply_max_delay"],
		LeaveRedirectDelay: durations["leave.redirect_delay"],
		PageRenderBudget:   durations["page.render_budget"],
		AssistantProvider:  strings.ToLower(v.GetString("assistant.provider")),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		OpenAIModel:        v.GetString("openai.model"),
		RateLimitMax:       v.GetInt("rate_limit.max"),
		RateLimitWindow:    durations["rate_limit.window"],
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.ProviderMode {
	case ProviderLive, ProviderFixture:
	default:
		return fmt.Errorf("unknown provider mode %q", c.ProviderMode)
	}

	switch c.SessionBackend {
	case SessionMemory, SessionRedis:
	default:
		return fmt.Errorf("unknown session backend %q", c.SessionBackend)
	}

	switch c.ChatTransport {
	case ChatSimulated, ChatRedis:
	case ChatNATS:
		if c.NATSURL == "" {
			return fmt.Errorf("nats url must be provided for the nats chat transport")
		}
	default:
		return fmt.Errorf("unknown chat transport %q", c.ChatTransport)
	}

	switch c.AssistantProvider {
	case AssistantAPI, AssistantNone:
	case AssistantOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("openai api key must be provided for the openai assistant")
		}
	default:
		return fmt.Errorf("unknown assistant provider %q", c.AssistantProvider)
	}

	if c.NeedsRedis() && c.RedisURL == "" {
		return fmt.Errorf("redis url must be provided")
	}

	if c.ProviderMode == ProviderLive && c.APIBaseURL == "" {
		return fmt.Errorf("api base url must be provided in live mode")
	}

	if c.ChatReplyMinDelay < 0 || c.ChatReplyMaxDelay < c.ChatReplyMinDelay {
		return fmt.Errorf("chat reply delay window is invalid")
	}

	return nil
}
