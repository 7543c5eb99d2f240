package chat

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/friendzone-web/internal/models"
)

// Default reply window of the simulated transport.
const (
	DefaultReplyMinDelay = time.Second
	DefaultReplyMaxDelay = 3 * time.Second
)

// Responses is the fixed set the simulated transport replies with.
var Responses = []string{
	"Harika fikir! Ben de katılıyorum.",
	"Bunu daha önce hiç düşünmemiştim, ilginç.",
	"Bu konuda biraz daha detay verebilir misin?",
	"Evet kesinlikle! Hadi bunu birlikte geliştirelim.",
	"Bu hafta sonu için plan yapabiliriz.",
}

// Simulated is a stand-in for a real-time channel: every sent message yields one
// synthetic reply from a random roster member after a random delay. Nothing leaves the process.
type Simulated struct {
	communityID int64
	roster      []models.CommunityMember
	minDelay    time.Duration
	maxDelay    time.Duration
	now         func() time.Time
	logger      zerolog.Logger

	randMu sync.Mutex
	rand   *rand.Rand

	idMu   sync.Mutex
	lastID int64

	box     *outbox
	stateMu sync.Mutex
	stopped bool
	closing chan struct{}
	wg      sync.WaitGroup
}

// SimulatedOption customises a simulated transport.
type SimulatedOption func(*Simulated)

// WithDelayWindow sets the [min, max) reply delay.
func WithDelayWindow(min, max time.Duration) SimulatedOption {
	return func(s *Simulated) {
		if min < 0 || max < min {
			return
		}
		s.minDelay, s.maxDelay = min, max
	}
}

// WithRand replaces the random source.
func WithRand(r *rand.Rand) SimulatedOption {
	return func(s *Simulated) {
		if r != nil {
			s.rand = r
		}
	}
}

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) SimulatedOption {
	return func(s *Simulated) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSimulated builds a simulated transport over a roster snapshot.
func NewSimulated(communityID int64, roster []models.CommunityMember, logger zerolog.Logger, opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		communityID: communityID,
		roster:      append([]models.CommunityMember(nil), roster...),
		minDelay:    DefaultReplyMinDelay,
		maxDelay:    DefaultReplyMaxDelay,
		now:         time.Now,
		logger:      logger.With().Str("component", "chat_simulated").Logger(),
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
		closing:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.box = newOutbox(s.logger)
	return s
}

// ReplyDelay draws a delay uniformly from [min, max).
func ReplyDelay(r *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(r.Int63n(int64(max-min)))
}

// Send schedules one synthetic reply. An empty roster produces no reply.
func (s *Simulated) Send(_ context.Context, _ models.ChatMessage) error {
	if s.box.isClosed() {
		return ErrClosed
	}
	if len(s.roster) == 0 {
		s.logger.Debug().Int64("community_id", s.communityID).Msg("empty roster, no simulated reply")
		return nil
	}

	s.randMu.Lock()
	delay := ReplyDelay(s.rand, s.minDelay, s.maxDelay)
	author := s.roster[s.rand.Intn(len(s.roster))]
	content := Responses[s.rand.Intn(len(Responses))]
	s.randMu.Unlock()

	s.stateMu.Lock()
	if s.stopped {
		s.stateMu.Unlock()
		return ErrClosed
	}
	s.wg.Add(1)
	s.stateMu.Unlock()

	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-s.closing:
			return
		}

		s.box.deliver(models.ChatMessage{
			ID:          s.nextID(),
			CommunityID: s.communityID,
			UserID:      author.ID,
			UserName:    author.Name,
			Content:     content,
			Timestamp:   s.now().UTC(),
			Type:        models.ChatKindMessage,
		})
	}()

	return nil
}

// Deliveries streams synthetic replies.
func (s *Simulated) Deliveries() <-chan models.ChatMessage {
	return s.box.ch
}

// Close cancels pending replies and waits for their timers to stop.
func (s *Simulated) Close() error {
	s.stateMu.Lock()
	if s.stopped {
		s.stateMu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.closing)
	s.stateMu.Unlock()

	s.wg.Wait()
	s.box.close()
	return nil
}

func (s *Simulated) nextID() int64 {
	s.idMu.Lock()
	defer s.idMu.Unlock()

	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}
