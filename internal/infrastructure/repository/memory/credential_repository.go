package memory

import (
	"context"
	"sync"

	"github.com/gridpulse/fantasy-api/internal/domain/credential"
)

// CredentialRepository keeps credentials in process memory. Used when no
// database is configured; a restart forgets every owner.
type CredentialRepository struct {
	mu    sync.RWMutex
	items map[string]credential.Stored
}

func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{items: make(map[string]credential.Stored)}
}

func (r *CredentialRepository) Get(_ context.Context, ownerID string) (credential.Stored, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.items[ownerID]
	if !ok {
		return credential.Stored{}, false, nil
	}

	return record, true, nil
}

func (r *CredentialRepository) Save(_ context.Context, record credential.Stored) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[record.OwnerID] = record
	return nil
}

func (r *CredentialRepository) Delete(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, ownerID)
	return nil
}
