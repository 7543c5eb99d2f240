package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "friendzone",
		Subsystem: "ai",
		Name:      "completion_duration_seconds",
		Help:      "Duration of assistant completion requests",
	}, []string{"model", "operation"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "friendzone",
		Subsystem: "ai",
		Name:      "completion_failures_total",
		Help:      "Number of assistant completion failures",
	}, []string{"model", "operation"})
)

// OpenAIConfig defines configuration options for the OpenAI assistant.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIAssistant implements Assistant against the OpenAI chat completion API.
type OpenAIAssistant struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIAssistant builds a new assistant using the provided configuration.
func NewOpenAIAssistant(cfg OpenAIConfig) (*OpenAIAssistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 500
	}

	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}

	tracer := otel.Tracer("github.com/noah-isme/friendzone-web/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(config)

	return &OpenAIAssistant{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Suggest asks the model for topics, icebreakers, activities or a custom answer.
func (a *OpenAIAssistant) Suggest(ctx context.Context, input SuggestionInput) (string, error) {
	return a.complete(ctx, "suggest", suggestionSystemPrompt(input.Type), buildSuggestionPrompt(input))
}

// Chat answers a free-text message in the context of a community.
func (a *OpenAIAssistant) Chat(ctx context.Context, input ChatInput) (string, error) {
	prompt := input.Message
	if input.CommunityName != "" {
		prompt = fmt.Sprintf("Topluluk: %s (%s)\n\n%s", input.CommunityName, input.Category, input.Message)
	}
	return a.complete(ctx, "chat", chatSystemPrompt(), prompt)
}

func (a *OpenAIAssistant) complete(parent context.Context, operation, system, user string) (string, error) {
	ctx, span := a.tracer.Start(parent, "openai."+operation, trace.WithAttributes(
		attribute.String("model", a.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	resp, err := a.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(a.cfg.Model, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", a.fail(span, operation, fmt.Errorf("openai %s: %w", operation, err))
	}

	if len(resp.Choices) == 0 {
		return "", a.fail(span, operation, fmt.Errorf("no choices returned from openai"))
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", a.fail(span, operation, fmt.Errorf("empty completion returned from openai"))
	}

	a.logger.Debug().Str("operation", operation).Int("tokens", resp.Usage.TotalTokens).Msg("assistant completion created")
	return content, nil
}

func (a *OpenAIAssistant) fail(span trace.Span, operation string, err error) error {
	aiFailures.WithLabelValues(a.cfg.Model, operation).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func suggestionSystemPrompt(kind string) string {
	switch kind {
	case "icebreaker":
		return "Sen bir buz kırıcı soru uzmanısın. Eğlenceli ve güvenli sorular üret."
	case "activity":
		return "Sen bir etkinlik planlama uzmanısın. Yaratıcı, uygulanabilir ve bütçe dostu etkinlikler öner."
	case "topic":
		return "Sen bir sohbet moderatörüsün. İlgi çekici ve düşündürücü konular öner."
	default:
		return "Sen bir üniversite öğrenci topluluğu asistanısın. Yardımcı, yaratıcı ve pratik öneriler sun."
	}
}

func chatSystemPrompt() string {
	return "Sen FriendZone üniversite topluluklarının yardımsever asistanısın. Kısa ve samimi yanıtlar ver."
}

func orUnset(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Belirtilmemiş"
	}
	return value
}

func buildSuggestionPrompt(input SuggestionInput) string {
	builder := strings.Builder{}
	builder.WriteString("Topluluk Bilgileri:\n")
	builder.WriteString("- Adı: " + input.CommunityName + "\n")
	builder.WriteString("- Kategori: " + input.Category + "\n")
	description := input.Description
	if description == "" {
		description = "Yok"
	}
	builder.WriteString("- Açıklama: " + description + "\n")
	builder.WriteString(fmt.Sprintf("- Üye Sayısı: %d\n\nÜye Bilgileri:\n", len(input.Members)))

	for i, member := range input.Members {
		builder.WriteString(fmt.Sprintf("Üye %d:\n", i+1))
		builder.WriteString("- İsim: " + member.Name + "\n")
		builder.WriteString("- Kişilik: " + orUnset(member.Personality) + "\n")
		builder.WriteString("- Hobiler: " + orUnset(strings.Join(member.Hobbies, ", ")) + "\n")
		builder.WriteString("- Bölüm: " + orUnset(member.Department) + "\n")
	}

	builder.WriteString("\n")
	switch input.Type {
	case "topic":
		builder.WriteString("Lütfen bu topluluk için 3 ilgi çekici sohbet konusu öner. Konular üyelerin ortak ilgi alanlarına uygun olsun.")
	case "activity":
		builder.WriteString("Lütfen bu topluluk için 3 uygulanabilir etkinlik öner. Etkinlikler üyelerin hobileri ve kişilik özelliklerine uygun olsun.")
	case "icebreaker":
		builder.WriteString("Lütfen bu topluluk için 5 eğlenceli buz kırıcı soru öner. Sorular üyelerin birbirini daha iyi tanımasını sağlasın.")
	default:
		builder.WriteString("Lütfen bu topluluk için genel önerilerde bulun. Topluluğun gelişimi için faydalı tavsiyeler ver.")
	}
	if input.Prompt != "" {
		builder.WriteString("\n\nİstek: " + input.Prompt)
	}
	return builder.String()
}
