package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/provider"
	"github.com/noah-isme/friendzone-web/internal/service"
)

type failingBackend struct{}

func (failingBackend) Suggest(context.Context, provider.Auth, service.SuggestionParams) (string, error) {
	return "", errors.New("upstream unavailable")
}

func (failingBackend) Chat(context.Context, provider.Auth, string, *models.Community) (string, error) {
	return "", errors.New("upstream unavailable")
}

type echoBackend struct{}

func (echoBackend) Suggest(_ context.Context, _ provider.Auth, params service.SuggestionParams) (string, error) {
	return "* " + params.Community.Name, nil
}

func (echoBackend) Chat(_ context.Context, _ provider.Auth, message string, _ *models.Community) (string, error) {
	return "Yanıt: " + message, nil
}

func TestCommunityDetailPage(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/communities/3", acceptHTML())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	require.Contains(t, body, `<h1 id="communityName">Sanat ve Kültür</h1>`)
	require.Contains(t, body, `id="chatMessages"`)

	_, ok := env.views.Detail(env.sid, 3)
	require.True(t, ok)
}

func TestCommunityDetailMissingCommunityFallsBack(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/communities/99", acceptHTML())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "Teknoloji Meraklıları")
}

func TestCommunityDetailRejectsNonNumericID(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/communities/abc")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommunityDetailSendMessage(t *testing.T) {
	env := newTestEnv(t)

	var before []models.ChatMessage
	resp := env.do(t, http.MethodGet, "/communities/3/messages")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &before)

	var sent dto.ChatMessageResponse
	resp = env.do(t, http.MethodPost, "/communities/3/messages", asJSON(dto.SendMessageRequest{Text: "  Merhaba <b>herkes</b> "}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &sent)
	require.Equal(t, "Merhaba <b>herkes</b>", sent.Message.Content)
	require.Equal(t, "Deniz Arslan", sent.Message.UserName)
	require.Equal(t, int64(3), sent.Message.CommunityID)
	require.Contains(t, sent.HTML, "Merhaba &lt;b&gt;herkes&lt;/b&gt;")

	var after []models.ChatMessage
	resp = env.do(t, http.MethodGet, "/communities/3/messages")
	decode(t, resp, &after)
	require.Len(t, after, len(before)+1)

	resp = env.do(t, http.MethodPost, "/communities/3/messages", asJSON(dto.SendMessageRequest{Text: " \t "}))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCommunityDetailTranscriptFragment(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/communities/3/messages", acceptHTML())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(readBody(t, resp), `<div id="chatMessages">`))
}

func TestCommunityDetailClearChatNeedsConfirmation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodDelete, "/communities/3/messages")
	require.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)
	body := decode(t, resp, nil)

	var details map[string]string
	require.NoError(t, json.Unmarshal(body.Details, &details))
	require.Equal(t, service.PromptClearChat, details["prompt"])

	resp = env.do(t, http.MethodDelete, "/communities/3/messages?confirm=true")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var transcript []models.ChatMessage
	resp = env.do(t, http.MethodGet, "/communities/3/messages")
	decode(t, resp, &transcript)
	require.Empty(t, transcript)
}

func TestCommunityDetailLeave(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/communities/2/leave", asJSON(struct{}{}))
	require.Equal(t, http.StatusPreconditionRequired, resp.StatusCode)

	var nav dto.Navigation
	resp = env.do(t, http.MethodPost, "/communities/2/leave", asJSON(dto.ConfirmRequest{Confirm: true}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &nav)
	require.Equal(t, "/communities", nav.To)
	require.Equal(t, int64(1500), nav.AfterMs)

	// no longer a member
	resp = env.do(t, http.MethodPost, "/communities/2/leave", func(req *http.Request) {
		req.Header.Set("X-Confirm", "true")
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCommunityDetailLeaveRedirectsBrowsers(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/communities/2/leave?confirm=true", acceptHTML())
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/communities", resp.Header.Get(fiber.HeaderLocation))
}

func TestCommunityDetailSuggestionWithoutAssistant(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/communities/3/assistant", asJSON(dto.SuggestionForm{Type: "topic"}))
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestCommunityDetailSuggestionValidatesType(t *testing.T) {
	env := newTestEnv(t, withAssistant(service.NewAssistantService(echoBackend{}, zerolog.Nop())))

	resp := env.do(t, http.MethodPost, "/communities/3/assistant", asJSON(dto.SuggestionForm{Type: "poem"}))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCommunityDetailSuggestion(t *testing.T) {
	env := newTestEnv(t, withAssistant(service.NewAssistantService(echoBackend{}, zerolog.Nop())))

	var panel dto.SuggestionPanelResponse
	resp := env.do(t, http.MethodPost, "/communities/3/assistant", asJSON(dto.SuggestionForm{Type: "activity"}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &panel)

	require.False(t, panel.Suggestion.Fallback)
	require.Equal(t, "* Sanat ve Kültür", panel.Suggestion.Text)
	require.Contains(t, panel.Suggestion.HTML, "• <strong>Sanat ve Kültür</strong>")
	require.Contains(t, panel.Panel, "response-suggestion")
}

func TestCommunityDetailSuggestionFallback(t *testing.T) {
	env := newTestEnv(t, withAssistant(service.NewAssistantService(failingBackend{}, zerolog.Nop())))

	var panel dto.SuggestionPanelResponse
	resp := env.do(t, http.MethodPost, "/communities/3/assistant", asJSON(dto.SuggestionForm{Type: "icebreaker"}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &panel)

	require.True(t, panel.Suggestion.Fallback)
	require.True(t, strings.HasPrefix(panel.Suggestion.Title, "Demo Önerisi - "))
	require.Contains(t, panel.Panel, "fallback")
}

func TestAssistantChat(t *testing.T) {
	env := newTestEnv(t, withAssistant(service.NewAssistantService(echoBackend{}, zerolog.Nop())))

	var reply dto.AssistantChatResponse
	resp := env.do(t, http.MethodPost, "/assistant/chat", asJSON(dto.AssistantChatForm{Message: "Selam"}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &reply)
	require.Equal(t, "Yanıt: Selam", reply.Reply)

	// scoped to an open detail view
	resp = env.do(t, http.MethodGet, "/communities/3", acceptHTML())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/assistant/chat", asJSON(dto.AssistantChatForm{Message: "Nasılsın", CommunityID: 3}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &reply)
	require.Equal(t, "Yanıt: Nasılsın", reply.Reply)
}

func TestAssistantChatWithoutAssistant(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/assistant/chat", asJSON(dto.AssistantChatForm{Message: "Selam"}))
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
