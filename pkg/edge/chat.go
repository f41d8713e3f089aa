package edge

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one chat turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one conversation.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// ChatStore keeps sessions in memory and mirrors every mutation to a
// JSON file, so history survives edge restarts.
type ChatStore struct {
	mu       sync.Mutex
	path     string
	sessions map[string]*Session
}

// OpenChatStore loads the store at path, creating it on first use.
func OpenChatStore(path string) (*ChatStore, error) {
	s := &ChatStore{path: path, sessions: make(map[string]*Session)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read chat store %s: %w", path, err)
	}
	var sessions []*Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("parse chat store %s: %w", path, err)
	}
	for _, sess := range sessions {
		s.sessions[sess.ID] = sess
	}
	return s, nil
}

// Create starts a session. An empty title gets a placeholder until the
// first message names it.
func (s *ChatStore) Create(title string) (*Session, error) {
	if title == "" {
		title = "New conversation"
	}
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return s.copyOf(sess), s.saveLocked()
}

// Get returns a session copy.
func (s *ChatStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return s.copyOf(sess), true
}

// List returns all sessions, most recently updated first.
func (s *ChatStore) List() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, s.copyOf(sess))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

// Append adds one turn to a session, creating the session when the ID
// is unknown. The first user message titles an untitled session.
func (s *ChatStore) Append(id, role, content string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		now := time.Now()
		sess = &Session{ID: id, Title: "New conversation", CreatedAt: now, UpdatedAt: now}
		s.sessions[id] = sess
	}
	now := time.Now()
	sess.Messages = append(sess.Messages, Message{Role: role, Content: content, Timestamp: now})
	sess.UpdatedAt = now
	if sess.Title == "New conversation" && role == "user" {
		sess.Title = truncate(content, 48)
	}
	return s.copyOf(sess), s.saveLocked()
}

// Rename sets a session title.
func (s *ChatStore) Rename(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("unknown session %s", id)
	}
	sess.Title = title
	sess.UpdatedAt = time.Now()
	return s.saveLocked()
}

// Delete removes a session.
func (s *ChatStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false, nil
	}
	delete(s.sessions, id)
	return true, s.saveLocked()
}

// Recent returns the last n messages of a session, oldest first.
func (s *ChatStore) Recent(id string, n int) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	msgs := sess.Messages
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

func (s *ChatStore) copyOf(sess *Session) *Session {
	cp := *sess
	cp.Messages = make([]Message, len(sess.Messages))
	copy(cp.Messages, sess.Messages)
	return &cp
}

func (s *ChatStore) saveLocked() error {
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.Before(sessions[j].CreatedAt) })
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chat store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write chat store %s: %w", s.path, err)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
