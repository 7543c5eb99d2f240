package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/config"
	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/observability"
	"github.com/noah-isme/friendzone-web/internal/provider"
	"github.com/noah-isme/friendzone-web/internal/render"
	"github.com/noah-isme/friendzone-web/pkg/ai"
)

const (
	customFallbackReply = "Üzgünüm, bir hata oluştu. Lütfen daha sonra tekrar deneyin."
	chatFallbackReply   = "Üzgünüm, şu anda yardımcı olamıyorum. Lütfen daha sonra tekrar deneyin."
	fallbackTitlePrefix = "Demo Önerisi - "
)

var suggestionTitles = map[models.SuggestionType]string{
	models.SuggestionTopic:      "Sohbet Konusu Önerileri",
	models.SuggestionIcebreaker: "Buz Kırıcı Sorular",
	models.SuggestionActivity:   "Etkinlik Önerileri",
}

type fallbackSuggestion struct {
	text string
	html string
}

var fallbackSuggestions = map[models.SuggestionType]fallbackSuggestion{
	models.SuggestionTopic: {
		text: "1. Gelecekteki Teknoloji Trendleri\nYapay zeka, blockchain ve metaverse gibi teknolojilerin üniversite hayatımıza etkileri\n\n" +
			"2. Remote Çalışma Kültürü\nPandemi sonrası iş hayatındaki değişimler ve yeni nesil çalışma modelleri\n\n" +
			"3. Sürdürülebilir Teknoloji\nYeşil bilişim ve çevre dostu teknoloji çözümleri",
		html: "1. <strong>Gelecekteki Teknoloji Trendleri</strong><br>Yapay zeka, blockchain ve metaverse gibi teknolojilerin üniversite hayatımıza etkileri<br><br>" +
			"2. <strong>Remote Çalışma Kültürü</strong><br>Pandemi sonrası iş hayatındaki değişimler ve yeni nesil çalışma modelleri<br><br>" +
			"3. <strong>Sürdürülebilir Teknoloji</strong><br>Yeşil bilişim ve çevre dostu teknoloji çözümleri",
	},
	models.SuggestionIcebreaker: {
		text: "* En sevdiğiniz ders hangisi ve neden?\n* Boş zamanlarınızda ne yapmaktan hoşlanırsınız?\n" +
			"* Üniversite hayatınızın en unutulmaz anısı nedir?\n* Hangi alanda kendinizi geliştirmek istiyorsunuz?\n" +
			"* Gelecek 5 yıl içinde neler başarmak istiyorsunuz?",
		html: "• <strong>En sevdiğiniz ders hangisi ve neden?</strong><br>• <strong>Boş zamanlarınızda ne yapmaktan hoşlanırsınız?</strong><br>" +
			"• <strong>Üniversite hayatınızın en unutulmaz anısı nedir?</strong><br>• <strong>Hangi alanda kendinizi geliştirmek istiyorsunuz?</strong><br>" +
			"• <strong>Gelecek 5 yıl içinde neler başarmak istiyorsunuz?</strong>",
	},
	models.SuggestionActivity: {
		text: "1. Haftalık Kodlama Buluşması\nHer hafta farklı bir programlama konsepti üzerine workshop\n\n" +
			"2. Proje Fikirleri Yarışması\nTakımlar halinde yenilikçi proje fikirleri geliştirme\n\n" +
			"3. Teknoloji Sohbetleri\nAlanında uzman konuklarla söyleşi ve networking",
		html: "1. <strong>Haftalık Kodlama Buluşması</strong><br>Her hafta farklı bir programlama konsepti üzerine workshop<br><br>" +
			"2. <strong>Proje Fikirleri Yarışması</strong><br>Takımlar halinde yenilikçi proje fikirleri geliştirme<br><br>" +
			"3. <strong>Teknoloji Sohbetleri</strong><br>Alanında uzman konuklarla söyleşi ve networking",
	},
}

// SuggestionTitle returns the panel heading for a suggestion type.
func SuggestionTitle(kind models.SuggestionType) string {
	if title, ok := suggestionTitles[kind]; ok {
		return title
	}
	return "AI Önerisi"
}

// SuggestionParams describes one suggestion request for a loaded community.
type SuggestionParams struct {
	Community models.Community
	Members   []models.CommunityMember
	Type      models.SuggestionType
	Prompt    string
}

// AssistantBackend produces raw assistant text.
type AssistantBackend interface {
	Suggest(ctx context.Context, auth provider.Auth, params SuggestionParams) (string, error)
	Chat(ctx context.Context, auth provider.Auth, message string, community *models.Community) (string, error)
}

// AssistantAPI is the slice of the FriendZone client used by the api backend.
type AssistantAPI interface {
	Suggestion(ctx context.Context, token string, req dto.SuggestionRequest) (dto.SuggestionEnvelope, error)
	AssistantChat(ctx context.Context, token string, req dto.AssistantChatRequest) (dto.AssistantChatEnvelope, error)
}

// AssistantService answers suggestion and chat requests. Backend failures never
// surface to the caller; they yield the fixed fallback content instead.
type AssistantService interface {
	GetSuggestion(ctx context.Context, auth provider.Auth, params SuggestionParams) (dto.SuggestionResponse, error)
	Chat(ctx context.Context, auth provider.Auth, message string, community *models.Community) (dto.AssistantChatResponse, error)
}

type assistantService struct {
	backend AssistantBackend
	logger  zerolog.Logger
}

// NewAssistantService wraps a backend with fallback handling.
func NewAssistantService(backend AssistantBackend, logger zerolog.Logger) AssistantService {
	return &assistantService{
		backend: backend,
		logger:  logger.With().Str("component", "assistant_service").Logger(),
	}
}

// NewAssistantBackend selects the backend named by cfg.AssistantProvider.
// It returns nil when the assistant is disabled.
func NewAssistantBackend(cfg *config.Config, api AssistantAPI, logger zerolog.Logger) (AssistantBackend, error) {
	switch cfg.AssistantProvider {
	case config.AssistantNone:
		return nil, nil
	case config.AssistantOpenAI:
		assistant, err := ai.NewOpenAIAssistant(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		return NewOpenAIBackend(assistant), nil
	case config.AssistantAPI, "":
		if api == nil {
			return nil, fmt.Errorf("api assistant requires an api client")
		}
		return NewAPIBackend(api), nil
	default:
		return nil, fmt.Errorf("unknown assistant provider %q", cfg.AssistantProvider)
	}
}

func (s *assistantService) GetSuggestion(ctx context.Context, auth provider.Auth, params SuggestionParams) (dto.SuggestionResponse, error) {
	if !params.Type.Valid() {
		return dto.SuggestionResponse{}, ErrInvalidSuggestionType
	}

	text, err := s.backend.Suggest(ctx, auth, params)
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("empty suggestion")
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("type", string(params.Type)).Int64("community_id", params.Community.ID).Msg("assistant suggestion failed, using fallback")
		observability.AssistantFallbacks().WithLabelValues("suggestion").Inc()
		return fallbackFor(params.Type), nil
	}

	text = strings.TrimSpace(text)
	return dto.SuggestionResponse{
		Type:  string(params.Type),
		Title: SuggestionTitle(params.Type),
		Text:  text,
		HTML:  string(render.FormatSuggestion(text)),
	}, nil
}

func (s *assistantService) Chat(ctx context.Context, auth provider.Auth, message string, community *models.Community) (dto.AssistantChatResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return dto.AssistantChatResponse{}, ErrEmptyMessage
	}

	reply, err := s.backend.Chat(ctx, auth, message, community)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = fmt.Errorf("empty reply")
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("assistant chat failed, using fallback")
		observability.AssistantFallbacks().WithLabelValues("chat").Inc()
		return dto.AssistantChatResponse{
			Reply:    chatFallbackReply,
			HTML:     string(render.FormatMessage(chatFallbackReply)),
			Fallback: true,
		}, nil
	}

	reply = strings.TrimSpace(reply)
	return dto.AssistantChatResponse{Reply: reply, HTML: string(render.FormatMessage(reply))}, nil
}

func fallbackFor(kind models.SuggestionType) dto.SuggestionResponse {
	fallback, ok := fallbackSuggestions[kind]
	if !ok {
		return dto.SuggestionResponse{
			Type:     string(kind),
			Title:    SuggestionTitle(kind),
			Text:     customFallbackReply,
			HTML:     string(render.FormatMessage(customFallbackReply)),
			Fallback: true,
		}
	}
	return dto.SuggestionResponse{
		Type:     string(kind),
		Title:    fallbackTitlePrefix + SuggestionTitle(kind),
		Text:     fallback.text,
		HTML:     fallback.html,
		Fallback: true,
	}
}

type apiBackend struct {
	api AssistantAPI
}

// NewAPIBackend forwards assistant requests to the FriendZone API.
func NewAPIBackend(api AssistantAPI) AssistantBackend {
	return &apiBackend{api: api}
}

func (b *apiBackend) Suggest(ctx context.Context, auth provider.Auth, params SuggestionParams) (string, error) {
	envelope, err := b.api.Suggestion(ctx, auth.Token, dto.SuggestionRequest{
		CommunityID: params.Community.ID,
		Type:        string(params.Type),
		Prompt:      params.Prompt,
	})
	if err != nil {
		return "", err
	}
	return envelope.Suggestion, nil
}

func (b *apiBackend) Chat(ctx context.Context, auth provider.Auth, message string, community *models.Community) (string, error) {
	req := dto.AssistantChatRequest{Message: message}
	if community != nil {
		req.CommunityID = community.ID
	}
	envelope, err := b.api.AssistantChat(ctx, auth.Token, req)
	if err != nil {
		return "", err
	}
	return envelope.Response, nil
}

type openAIBackend struct {
	assistant ai.Assistant
}

// NewOpenAIBackend generates suggestions locally through an LLM.
func NewOpenAIBackend(assistant ai.Assistant) AssistantBackend {
	return &openAIBackend{assistant: assistant}
}

func (b *openAIBackend) Suggest(ctx context.Context, _ provider.Auth, params SuggestionParams) (string, error) {
	members := make([]ai.MemberProfile, 0, len(params.Members))
	for _, member := range params.Members {
		members = append(members, ai.MemberProfile{Name: member.Name, Department: member.Department})
	}
	return b.assistant.Suggest(ctx, ai.SuggestionInput{
		CommunityName: params.Community.Name,
		Category:      params.Community.Category.Label(),
		Description:   params.Community.Description,
		Members:       members,
		Type:          string(params.Type),
		Prompt:        params.Prompt,
	})
}

func (b *openAIBackend) Chat(ctx context.Context, _ provider.Auth, message string, community *models.Community) (string, error) {
	input := ai.ChatInput{Message: message}
	if community != nil {
		input.CommunityName = community.Name
		input.Category = community.Category.Label()
	}
	return b.assistant.Chat(ctx, input)
}
