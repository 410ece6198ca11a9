// Package memory implements the entity store in process memory. It backs
// tests and mirrors the durable store's semantics: reads return an
// independent copy of the record, so a caller's mutations are invisible
// until written back, and concurrent read-modify-write cycles race exactly
// as they do against the real store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/microvote/microvote/internal/models"
	"github.com/microvote/microvote/internal/store"
)

type memStore struct {
	mu    sync.RWMutex
	chats map[int64][]byte
	polls map[int64][]byte
}

// New creates an empty in-memory entity store.
func New() store.Store {
	return &memStore{
		chats: make(map[int64][]byte),
		polls: make(map[int64][]byte),
	}
}

func (s *memStore) Chat(_ context.Context, id int64) (*models.Chat, error) {
	s.mu.RLock()
	raw, ok := s.chats[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	chat := &models.Chat{}
	if err := json.Unmarshal(raw, chat); err != nil {
		return nil, fmt.Errorf("failed to decode chat record: %w", err)
	}
	return chat, nil
}

func (s *memStore) PutChat(_ context.Context, chat *models.Chat) error {
	raw, err := json.Marshal(chat)
	if err != nil {
		return fmt.Errorf("failed to encode chat record: %w", err)
	}
	s.mu.Lock()
	s.chats[chat.ID] = raw
	s.mu.Unlock()
	return nil
}

func (s *memStore) Poll(_ context.Context, id int64) (*models.Poll, error) {
	s.mu.RLock()
	raw, ok := s.polls[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	poll := &models.Poll{}
	if err := json.Unmarshal(raw, poll); err != nil {
		return nil, fmt.Errorf("failed to decode poll record: %w", err)
	}
	return poll, nil
}

func (s *memStore) PutPoll(_ context.Context, poll *models.Poll) error {
	raw, err := json.Marshal(poll)
	if err != nil {
		return fmt.Errorf("failed to encode poll record: %w", err)
	}
	s.mu.Lock()
	s.polls[poll.ID] = raw
	s.mu.Unlock()
	return nil
}

func (s *memStore) Polls(_ context.Context) ([]*models.Poll, error) {
	s.mu.RLock()
	ids := make([]int64, 0, len(s.polls))
	for id := range s.polls {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	polls := make([]*models.Poll, 0, len(ids))
	for _, id := range ids {
		poll := &models.Poll{}
		if err := json.Unmarshal(s.polls[id], poll); err != nil {
			s.mu.RUnlock()
			return nil, fmt.Errorf("failed to decode poll record: %w", err)
		}
		polls = append(polls, poll)
	}
	s.mu.RUnlock()
	return polls, nil
}
