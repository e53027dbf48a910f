package staging

import (
	"context"
	"encoding/json"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process Store used in tests and local development.
// Drafts are deep-copied through JSON on the way in and out, which keeps
// callers from mutating stored state and doubles as a serializability check.
type MemoryStore struct {
	mu     sync.Mutex
	drafts map[primitive.ObjectID][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drafts: make(map[primitive.ObjectID][]byte),
	}
}

func (s *MemoryStore) Load(_ context.Context, studentID primitive.ObjectID) (*RoutineDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.drafts[studentID]
	if !ok {
		return nil, ErrDraftNotFound
	}
	var draft RoutineDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

func (s *MemoryStore) Save(_ context.Context, draft *RoutineDraft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.StudentID] = raw
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, studentID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, studentID)
	return nil
}
