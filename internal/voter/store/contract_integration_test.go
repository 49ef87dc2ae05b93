//go:build integration

package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/suite"

	"registrar/internal/voter/models"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
)

type voterStore interface {
	FindAll(ctx context.Context) ([]*models.Voter, error)
	FindByID(ctx context.Context, voterID id.VoterID) (*models.Voter, error)
	FindByEmail(ctx context.Context, email string) (*models.Voter, error)
	Save(ctx context.Context, voter *models.Voter) (*models.Voter, error)
	Delete(ctx context.Context, voterID id.VoterID) error
}

// storeContractSuite holds the behavior every durable store must share.
// Backend suites embed it and assign store in SetupTest.
type storeContractSuite struct {
	suite.Suite
	store voterStore
}

func newVoter(email string) *models.Voter {
	return &models.Voter{Email: email, Name: "Jane Doe", PasswordHash: "$2a$10$digest"}
}

func (s *storeContractSuite) TestRoundTrip() {
	ctx := context.Background()
	saved, err := s.store.Save(ctx, newVoter("round@example.com"))
	s.Require().NoError(err)
	s.False(saved.ID.IsNil())

	byID, err := s.store.FindByID(ctx, saved.ID)
	s.Require().NoError(err)
	s.Equal(saved, byID)

	byEmail, err := s.store.FindByEmail(ctx, "round@example.com")
	s.Require().NoError(err)
	s.Equal(saved, byEmail)
}

func (s *storeContractSuite) TestMissingRecords() {
	ctx := context.Background()
	_, err := s.store.FindByID(ctx, 424242)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByEmail(ctx, "nobody@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(ctx, 424242), sentinel.ErrNotFound)

	ghost := newVoter("ghost@example.com")
	ghost.ID = 424242
	_, err = s.store.Save(ctx, ghost)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *storeContractSuite) TestUpdateMovesEmail() {
	ctx := context.Background()
	saved, err := s.store.Save(ctx, newVoter("before@example.com"))
	s.Require().NoError(err)

	saved.Email = "after@example.com"
	saved.Name = "Jane Smith"
	_, err = s.store.Save(ctx, saved)
	s.Require().NoError(err)

	_, err = s.store.FindByEmail(ctx, "before@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
	found, err := s.store.FindByEmail(ctx, "after@example.com")
	s.Require().NoError(err)
	s.Equal("Jane Smith", found.Name)
	s.Equal(saved.PasswordHash, found.PasswordHash)
}

func (s *storeContractSuite) TestListOrderedByID() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.store.Save(ctx, newVoter(fmt.Sprintf("list%d@example.com", i)))
		s.Require().NoError(err)
	}
	all, err := s.store.FindAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Less(all[0].ID, all[1].ID)
	s.Less(all[1].ID, all[2].ID)
}

func (s *storeContractSuite) TestDeleteFreesEmail() {
	ctx := context.Background()
	saved, err := s.store.Save(ctx, newVoter("reuse@example.com"))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Delete(ctx, saved.ID))

	_, err = s.store.FindByID(ctx, saved.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.Save(ctx, newVoter("reuse@example.com"))
	s.NoError(err)
}

func (s *storeContractSuite) TestUpdateOntoTakenEmailConflicts() {
	ctx := context.Background()
	_, err := s.store.Save(ctx, newVoter("held@example.com"))
	s.Require().NoError(err)
	other, err := s.store.Save(ctx, newVoter("free@example.com"))
	s.Require().NoError(err)

	other.Email = "held@example.com"
	_, err = s.store.Save(ctx, other)
	s.ErrorIs(err, sentinel.ErrConflict)
}

// TestConcurrentUniqueEmailViolation verifies that concurrent registrations
// with the same email result in exactly one success.
func (s *storeContractSuite) TestConcurrentUniqueEmailViolation() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Save(ctx, newVoter("race@example.com"))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should get conflict error")
}
