package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/noah-isme/friendzone-web/internal/chat"
	"github.com/noah-isme/friendzone-web/internal/friendzone"
	"github.com/noah-isme/friendzone-web/internal/models"
	"github.com/noah-isme/friendzone-web/internal/provider"
)

func simulatedFactory(min, max time.Duration) chat.Factory {
	return func(_ context.Context, community models.Community, roster []models.CommunityMember) (chat.Transport, error) {
		return chat.NewSimulated(community.ID, roster, zerolog.Nop(),
			chat.WithDelayWindow(min, max),
			chat.WithRand(rand.New(rand.NewSource(42))),
		), nil
	}
}

func newDetail(p provider.Provider, factory chat.Factory, assistant AssistantService, notifier Notifier) *CommunityDetailController {
	return NewCommunityDetailController(DetailConfig{
		Provider:   p,
		Auth:       testAuth(),
		Transports: factory,
		Assistant:  assistant,
		Notifier:   notifier,
		Logger:     zerolog.Nop(),
	})
}

func TestDetailLoad(t *testing.T) {
	detail := newDetail(newStub(), nil, nil, nil)
	defer detail.Close()

	require.NoError(t, detail.Load(context.Background(), 3))

	snapshot := detail.Snapshot()
	require.False(t, snapshot.Degraded)
	require.Equal(t, int64(3), snapshot.Community.ID)
	require.Len(t, snapshot.Members, 4)
	require.Len(t, snapshot.Chat, 4)
	require.Len(t, snapshot.Activities, 4)
	require.Equal(t, int64(3), detail.RequestedID())
}

func TestDetailLoadFallsBackWhenCommunityFails(t *testing.T) {
	p := newStub()
	p.fetchCommunity = func(context.Context, int64) (*models.Community, error) {
		return nil, friendzone.ErrTransport
	}
	detail := newDetail(p, nil, nil, nil)
	defer detail.Close()

	require.NoError(t, detail.Load(context.Background(), 42))

	snapshot := detail.Snapshot()
	require.True(t, snapshot.Degraded)
	require.Equal(t, int64(1), snapshot.Community.ID)
	require.Equal(t, "Teknoloji Meraklıları", snapshot.Community.Name)
	require.Equal(t, 24, snapshot.Community.MemberCount)
	require.Equal(t, 30, snapshot.Community.MaxMembers)
	require.Equal(t, 92, snapshot.Community.CompatibilityPercent())
	require.Equal(t, int64(42), detail.RequestedID())
}

func TestDetailCollectionsNeedCommunity(t *testing.T) {
	detail := newDetail(newStub(), nil, nil, nil)
	defer detail.Close()

	require.NoError(t, detail.LoadMembers(context.Background()))
	require.NoError(t, detail.LoadChat(context.Background()))
	require.NoError(t, detail.LoadActivities(context.Background()))

	snapshot := detail.Snapshot()
	require.Nil(t, snapshot.Community)
	require.Empty(t, snapshot.Members)
	require.Empty(t, snapshot.Chat)
	require.Empty(t, snapshot.Activities)
}

func TestDetailStats(t *testing.T) {
	detail := newDetail(newStub(), nil, nil, nil)
	defer detail.Close()
	require.NoError(t, detail.Load(context.Background(), 1))

	stats := detail.Stats()
	require.Equal(t, 3, stats.ActiveMembers)
	require.Equal(t, 92, stats.AvgCompatibility)
	require.Equal(t, 3, stats.ActivitiesThisWeek)
	require.Equal(t, 2.5, stats.ResponseTimeHours)
}

func TestSendMessageRejectsBlankInput(t *testing.T) {
	detail := newDetail(newStub(), nil, nil, nil)
	defer detail.Close()
	require.NoError(t, detail.Load(context.Background(), 1))
	before := detail.Transcript()

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := detail.SendMessage(context.Background(), text)
		require.ErrorIs(t, err, ErrEmptyMessage, "%q", text)
	}
	require.Equal(t, before, detail.Transcript())
}

func TestSendMessageKeepsTextAsTyped(t *testing.T) {
	detail := newDetail(newStub(), nil, nil, nil)
	defer detail.Close()
	require.NoError(t, detail.Load(context.Background(), 1))

	for _, text := range []string{"x < y ve <div> etiketi", "<b>kalın</b> yazı", "a && b > c"} {
		msg, err := detail.SendMessage(context.Background(), "  "+text+"\n")
		require.NoError(t, err)
		require.Equal(t, text, msg.Content)

		transcript := detail.Transcript()
		require.Equal(t, text, transcript[len(transcript)-1].Content)
	}
}

func TestSendMessageBeforeLoad(t *testing.T) {
	detail := newDetail(newStub(), nil, nil, nil)
	defer detail.Close()

	_, err := detail.SendMessage(context.Background(), "merhaba")
	require.ErrorIs(t, err, ErrCommunityNotLoaded)
}

func TestSendMessageAppendsOnceAndGetsOneReply(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	detail := newDetail(newStub(), simulatedFactory(chat.DefaultReplyMinDelay, chat.DefaultReplyMaxDelay), nil, nil)
	require.NoError(t, detail.Load(context.Background(), 1))
	events, cancel := detail.Subscribe()
	before := len(detail.Transcript())

	sent := time.Now()
	msg, err := detail.SendMessage(context.Background(), "  hi ")
	require.NoError(t, err)
	require.Equal(t, "hi", msg.Content)
	require.Equal(t, "Deniz Arslan", msg.UserName)

	transcript := detail.Transcript()
	require.Len(t, transcript, before+1)
	require.Equal(t, msg, transcript[len(transcript)-1])

	first := <-events
	require.Equal(t, ChatAppended, first.Kind)
	require.Equal(t, msg.ID, first.Message.ID)

	select {
	case reply := <-events:
		elapsed := time.Since(sent)
		require.Equal(t, ChatAppended, reply.Kind)
		require.Contains(t, chat.Responses, reply.Message.Content)
		require.GreaterOrEqual(t, elapsed, chat.DefaultReplyMinDelay)
		require.Less(t, elapsed, chat.DefaultReplyMaxDelay+500*time.Millisecond)
	case <-time.After(4 * time.Second):
		t.Fatal("no simulated reply")
	}

	require.Len(t, detail.Transcript(), before+2)

	select {
	case extra := <-events:
		t.Fatalf("unexpected second reply %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	detail.Close()
}

func TestClearChatRequiresConfirmation(t *testing.T) {
	notifier := &recordingNotifier{}
	detail := newDetail(newStub(), nil, nil, notifier)
	defer detail.Close()
	require.NoError(t, detail.Load(context.Background(), 1))

	var asked string
	err := detail.ClearChat(ConfirmFunc(func(prompt string) bool {
		asked = prompt
		return false
	}))
	require.ErrorIs(t, err, ErrNotConfirmed)
	require.Equal(t, PromptClearChat, asked)
	require.Len(t, detail.Transcript(), 4)
	require.Empty(t, notifier.all())

	events, cancel := detail.Subscribe()
	defer cancel()

	require.NoError(t, detail.ClearChat(Answer(true)))
	require.Empty(t, detail.Transcript())
	require.Equal(t, ChatCleared, (<-events).Kind)
	require.Equal(t, "Sohbet geçmişi temizlendi", notifier.last().Message)

	_, err = detail.SendMessage(context.Background(), "yeniden")
	require.NoError(t, err)
	require.Len(t, detail.Transcript(), 1)
}

func TestLeaveCommunity(t *testing.T) {
	p := newStub()
	notifier := &recordingNotifier{}
	detail := newDetail(p, nil, nil, notifier)
	defer detail.Close()
	require.NoError(t, detail.Load(context.Background(), 2))

	_, err := detail.LeaveCommunity(context.Background(), Answer(false))
	require.ErrorIs(t, err, ErrNotConfirmed)
	require.Zero(t, p.leaveCalls.Load())

	nav, err := detail.LeaveCommunity(context.Background(), Answer(true))
	require.NoError(t, err)
	require.Equal(t, "/communities", nav.To)
	require.Equal(t, int64(1500), nav.AfterMs)
	require.Equal(t, "Topluluktan ayrıldınız", notifier.last().Message)
	require.False(t, detail.Snapshot().Community.IsMember)

	joined, err := p.FetchJoined(context.Background(), testAuth())
	require.NoError(t, err)
	require.Empty(t, joined)
}

func TestLeaveCommunityFailureKeepsState(t *testing.T) {
	p := newStub()
	p.leave = func(context.Context, int64) error {
		return &friendzone.APIError{Status: 403, Message: "Yönetici ayrılamaz"}
	}
	notifier := &recordingNotifier{}
	detail := newDetail(p, nil, nil, notifier)
	defer detail.Close()
	require.NoError(t, detail.Load(context.Background(), 2))
	before := detail.Snapshot()

	_, err := detail.LeaveCommunity(context.Background(), Answer(true))
	require.Error(t, err)
	require.Equal(t, before.Community, detail.Snapshot().Community)
	require.Equal(t, models.NotifyError, notifier.last().Kind)
	require.Equal(t, "Topluluktan ayrılırken bir hata oluştu: Yönetici ayrılamaz", notifier.last().Message)
}

type stubAssistant struct {
	mu     sync.Mutex
	params SuggestionParams
	err    error
}

func (s *stubAssistant) Suggest(_ context.Context, _ provider.Auth, params SuggestionParams) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = params
	if s.err != nil {
		return "", s.err
	}
	return "1. Hackathon", nil
}

func (s *stubAssistant) Chat(_ context.Context, _ provider.Auth, message string, _ *models.Community) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "cevap: " + message, nil
}

func TestRequestSuggestionWithoutAssistant(t *testing.T) {
	notifier := &recordingNotifier{}
	detail := newDetail(newStub(), nil, nil, notifier)
	defer detail.Close()

	_, err := detail.RequestSuggestion(context.Background(), models.SuggestionTopic, "")
	require.ErrorIs(t, err, ErrAssistantUnavailable)
	require.Equal(t, "AI asistanı henüz hazır değil", notifier.last().Message)
}

func TestRequestSuggestionUsesPromptMap(t *testing.T) {
	backend := &stubAssistant{}
	notifier := &recordingNotifier{}
	detail := newDetail(newStub(), nil, NewAssistantService(backend, zerolog.Nop()), notifier)
	defer detail.Close()

	_, err := detail.RequestSuggestion(context.Background(), models.SuggestionTopic, "")
	require.ErrorIs(t, err, ErrCommunityNotLoaded)
	require.Equal(t, "Topluluk bilgisi bulunamadı", notifier.last().Message)

	require.NoError(t, detail.Load(context.Background(), 1))

	suggestion, err := detail.RequestSuggestion(context.Background(), models.SuggestionIcebreaker, "")
	require.NoError(t, err)
	require.False(t, suggestion.Fallback)
	require.Equal(t, "Bu topluluk için 5 eğlenceli buz kırıcı soru üret", backend.params.Prompt)
	require.Len(t, backend.params.Members, 4)
	require.Equal(t, int64(1), backend.params.Community.ID)

	_, err = detail.RequestSuggestion(context.Background(), models.SuggestionCustom, "Kamp listesi")
	require.NoError(t, err)
	require.Equal(t, "Kamp listesi", backend.params.Prompt)

	_, err = detail.RequestSuggestion(context.Background(), models.SuggestionType("poem"), "")
	require.ErrorIs(t, err, ErrInvalidSuggestionType)
}

func TestRequestSuggestionFallsBack(t *testing.T) {
	backend := &stubAssistant{err: friendzone.ErrTransport}
	detail := newDetail(newStub(), nil, NewAssistantService(backend, zerolog.Nop()), nil)
	defer detail.Close()
	require.NoError(t, detail.Load(context.Background(), 1))

	suggestion, err := detail.RequestSuggestion(context.Background(), models.SuggestionActivity, "")
	require.NoError(t, err)
	require.True(t, suggestion.Fallback)
	require.Equal(t, "Demo Önerisi - Etkinlik Önerileri", suggestion.Title)
}

func TestClosedDetailDropsLateLoads(t *testing.T) {
	p := newStub()
	entered := make(chan struct{})
	release := make(chan struct{})
	p.fetchCommunity = func(ctx context.Context, id int64) (*models.Community, error) {
		close(entered)
		<-release
		<-ctx.Done()
		community := models.Community{ID: id, Name: "stale"}
		return &community, nil
	}
	detail := newDetail(p, nil, nil, nil)

	done := make(chan error, 1)
	go func() { done <- detail.Load(context.Background(), 9) }()
	<-entered

	detail.Close()
	close(release)

	require.ErrorIs(t, <-done, ErrViewClosed)
	require.Nil(t, detail.Snapshot().Community)
}

func TestCloseReleasesTransportAndSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	detail := newDetail(newStub(), simulatedFactory(time.Hour, 2*time.Hour), nil, nil)
	require.NoError(t, detail.Load(context.Background(), 1))
	events, cancel := detail.Subscribe()
	defer cancel()

	_, err := detail.SendMessage(context.Background(), "bekleyen yanıt")
	require.NoError(t, err)
	<-events

	detail.Close()
	_, open := <-events
	require.False(t, open)

	_, err = detail.SendMessage(context.Background(), "kapalı")
	require.ErrorIs(t, err, ErrViewClosed)
}
