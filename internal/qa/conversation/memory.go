package conversation

import (
	"context"
	"sync"

	"github.com/daycare-qa/server/internal/qa/model"
)

// MemoryRepository keeps session history in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string][]model.ConversationMessage
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string][]model.ConversationMessage)}
}

func (r *MemoryRepository) Append(ctx context.Context, sessionID string, msg model.ConversationMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = append(r.sessions[sessionID], msg)
	return nil
}

func (r *MemoryRepository) History(ctx context.Context, sessionID string) ([]model.ConversationMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := r.sessions[sessionID]
	out := make([]model.ConversationMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (r *MemoryRepository) Clear(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

var _ model.ConversationRepository = (*MemoryRepository)(nil)
