package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"tattty/internal/design"
)

var ErrNotFound = errors.New("session not found")

// Session is one user's questionnaire progress in one chat.
type Session struct {
	ChatID   int64            `json:"chat_id"`
	UserID   int64            `json:"user_id"`
	Username string           `json:"username,omitempty"`
	Step     int              `json:"step"`
	Answers  design.UserStory `json:"answers"`

	// MessageID is the chat message carrying the current step keyboard.
	MessageID int `json:"message_id,omitempty"`

	DesignFileID string `json:"design_file_id,omitempty"`
	LastPrompt   string `json:"last_prompt,omitempty"`
	LastSeed     int64  `json:"last_seed,omitempty"`

	Generating   bool      `json:"generating,omitempty"`
	GenerationID string    `json:"generation_id,omitempty"` // run that set Generating
	UpdatedAt    time.Time `json:"updated_at"`
}

// Reset clears progress but keeps identity and the last delivered design.
func (s *Session) Reset() {
	s.Step = 0
	s.Answers = design.UserStory{}
	s.MessageID = 0
	s.Generating = false
	s.GenerationID = ""
}

type Store interface {
	// Get returns ErrNotFound when no session exists.
	Get(ctx context.Context, chatID, userID int64) (Session, error)
	Save(ctx context.Context, sess Session) error
	Delete(ctx context.Context, chatID, userID int64) error
}

type Options struct {
	TTL time.Duration
	Now func() time.Time
}

type key struct {
	ChatID int64
	UserID int64
}

type MemoryStore struct {
	mu       sync.Mutex
	sessions map[key]Session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(opts Options) *MemoryStore {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &MemoryStore{
		sessions: make(map[key]Session),
		ttl:      ttl,
		now:      now,
	}
}

func (s *MemoryStore) Get(_ context.Context, chatID, userID int64) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{ChatID: chatID, UserID: userID}
	sess, ok := s.sessions[k]
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.now().Sub(sess.UpdatedAt) > s.ttl {
		delete(s.sessions, k)
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore) Save(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.UpdatedAt = s.now()
	s.sessions[key{ChatID: sess.ChatID, UserID: sess.UserID}] = sess
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, chatID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, key{ChatID: chatID, UserID: userID})
	return nil
}

// Prune drops sessions idle longer than the TTL and returns how many were
// removed.
func (s *MemoryStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, sess := range s.sessions {
		if now.Sub(sess.UpdatedAt) > s.ttl {
			delete(s.sessions, k)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
