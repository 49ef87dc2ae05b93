package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"registrar/internal/voter/models"
	id "registrar/pkg/domain"
)

// InMemory keeps voters in a map guarded by a RWMutex. Records are copied on
// the way in and out so callers never share state with the store.
type InMemory struct {
	mu      sync.RWMutex
	voters  map[id.VoterID]models.Voter
	byEmail map[string]id.VoterID
	nextID  id.VoterID
}

func NewInMemory() *InMemory {
	return &InMemory{
		voters:  make(map[id.VoterID]models.Voter),
		byEmail: make(map[string]id.VoterID),
	}
}

func (s *InMemory) FindAll(_ context.Context) ([]*models.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Voter, 0, len(s.voters))
	for _, v := range s.voters {
		v := v
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) FindByID(_ context.Context, voterID id.VoterID) (*models.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.voters[voterID]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voterID, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	v := s.voters[voterID]
	return &v, nil
}

// Save inserts when the ID is unassigned and replaces otherwise.
func (s *InMemory) Save(_ context.Context, voter *models.Voter) (*models.Voter, error) {
	if voter == nil {
		return nil, fmt.Errorf("voter is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if holder, taken := s.byEmail[voter.Email]; taken && holder != voter.ID {
		return nil, ErrConflict
	}

	saved := *voter
	if saved.ID.IsNil() {
		s.nextID++
		saved.ID = s.nextID
	} else {
		existing, ok := s.voters[saved.ID]
		if !ok {
			return nil, ErrNotFound
		}
		if existing.Email != saved.Email {
			delete(s.byEmail, existing.Email)
		}
	}
	s.voters[saved.ID] = saved
	s.byEmail[saved.Email] = saved.ID

	out := saved
	return &out, nil
}

func (s *InMemory) Delete(_ context.Context, voterID id.VoterID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.voters[voterID]
	if !ok {
		return ErrNotFound
	}
	delete(s.voters, voterID)
	delete(s.byEmail, v.Email)
	return nil
}
