package session

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/friendzone-web/internal/models"
)

type memoryEntry struct {
	token     string
	user      *models.User
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*memoryEntry
}

// NewMemoryStore returns a process-local store. A zero ttl keeps sessions forever.
func NewMemoryStore(ttl time.Duration, now func() time.Time) Store {
	if now == nil {
		now = time.Now
	}
	return &memoryStore{ttl: ttl, now: now, entries: make(map[string]*memoryEntry)}
}

func (s *memoryStore) live(sid string) *memoryEntry {
	entry, ok := s.entries[sid]
	if !ok {
		return nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		return nil
	}
	return entry
}

func (s *memoryStore) touch(sid string) *memoryEntry {
	entry := s.live(sid)
	if entry == nil {
		entry = &memoryEntry{}
		s.entries[sid] = entry
	}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	return entry
}

func (s *memoryStore) GetToken(_ context.Context, sid string) (string, error) {
	if err := checkID(sid); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry := s.live(sid); entry != nil {
		return entry.token, nil
	}
	return "", nil
}

func (s *memoryStore) SetToken(_ context.Context, sid, token string) error {
	if err := checkID(sid); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(sid).token = token
	return nil
}

func (s *memoryStore) GetUser(_ context.Context, sid string) (*models.User, error) {
	if err := checkID(sid); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry := s.live(sid)
	if entry == nil || entry.user == nil {
		return nil, nil
	}
	user := *entry.user
	user.Hobbies = append([]string(nil), entry.user.Hobbies...)
	return &user, nil
}

func (s *memoryStore) SetUser(_ context.Context, sid string, user models.User) error {
	if err := checkID(sid); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Hobbies = append([]string(nil), user.Hobbies...)
	s.touch(sid).user = &user
	return nil
}

func (s *memoryStore) Clear(_ context.Context, sid string) error {
	if err := checkID(sid); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sid)
	return nil
}
