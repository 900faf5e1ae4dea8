package history

import (
	"context"
	"sync"

	"github.com/agentcore/chatcore/pkg/models"
)

// MemoryStore is an in-process Store used by tests and the bootstrap CLI.
// Every read/write deep-clones messages so callers can never observe
// mutation through a shared pointer.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]*models.Message
	summary  map[string]*models.Message
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: map[string][]*models.Message{},
		summary:  map[string]*models.Message{},
	}
}

func (s *MemoryStore) Append(ctx context.Context, session models.Session, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := session.ID()
	s.messages[id] = append(s.messages[id], cloneMessage(msg))
	return nil
}

func (s *MemoryStore) Messages(ctx context.Context, session models.Session, limit int) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[session.ID()]
	start := 0
	if limit > 0 && len(msgs) > limit {
		start = len(msgs) - limit
	}
	out := make([]*models.Message, 0, len(msgs)-start)
	for _, m := range msgs[start:] {
		out = append(out, cloneMessage(m))
	}
	return out, nil
}

func (s *MemoryStore) Summary(ctx context.Context, session models.Session) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.summary[session.ID()]
	if !ok {
		return nil, nil
	}
	return cloneMessage(sum), nil
}

func (s *MemoryStore) SetSummary(ctx context.Context, session models.Session, summary *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary[session.ID()] = cloneMessage(summary)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := session.ID()
	delete(s.messages, id)
	delete(s.summary, id)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, session models.Session, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sid := session.ID()
	msgs := s.messages[sid]
	for i, m := range msgs {
		if m.ID == id {
			s.messages[sid] = append(msgs[:i], msgs[i+1:]...)
			break
		}
	}
	return nil
}

func cloneMessage(m *models.Message) *models.Message {
	if m == nil {
		return nil
	}
	clone := *m
	if m.Metadata != nil {
		clone.Metadata = make(map[string]string, len(m.Metadata))
		for k, v := range m.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}
