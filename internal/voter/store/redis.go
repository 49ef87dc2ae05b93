package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"registrar/internal/voter/models"
	id "registrar/pkg/domain"
)

const (
	redisSeqKey   = "voter:seq"
	redisIndexKey = "voter:ids"
	// optimistic transactions are retried this many times before giving up
	redisMaxRetries = 3
)

// RedisStore keeps each voter as a JSON value under voter:{id}, a sorted set
// of ids for listing, and voter:email:{email} -> id for the unique index.
// Every write watches the email key it claims and sets it in the same MULTI
// as the record, so a failed write never leaves a claim behind.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed voter store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type redisRecord struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
}

func recordKey(voterID id.VoterID) string {
	return "voter:" + voterID.String()
}

func emailKey(email string) string {
	return "voter:email:" + email
}

func (s *RedisStore) FindAll(ctx context.Context) ([]*models.Voter, error) {
	ids, err := s.client.ZRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list voter ids: %w", err)
	}
	voters := make([]*models.Voter, 0, len(ids))
	if len(ids) == 0 {
		return voters, nil
	}
	keys := make([]string, len(ids))
	for i, raw := range ids {
		keys[i] = "voter:" + raw
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load voters: %w", err)
	}
	for _, val := range values {
		raw, ok := val.(string)
		if !ok {
			// deleted between ZRANGE and MGET
			continue
		}
		v, err := decodeVoter([]byte(raw))
		if err != nil {
			return nil, err
		}
		voters = append(voters, v)
	}
	return voters, nil
}

func (s *RedisStore) FindByID(ctx context.Context, voterID id.VoterID) (*models.Voter, error) {
	raw, err := s.client.Get(ctx, recordKey(voterID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find voter by id: %w", err)
	}
	return decodeVoter(raw)
}

func (s *RedisStore) FindByEmail(ctx context.Context, email string) (*models.Voter, error) {
	rawID, err := s.client.Get(ctx, emailKey(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find voter by email: %w", err)
	}
	return s.FindByID(ctx, id.VoterID(rawID))
}

// Save inserts when the ID is unassigned and replaces otherwise.
func (s *RedisStore) Save(ctx context.Context, voter *models.Voter) (*models.Voter, error) {
	if voter == nil {
		return nil, fmt.Errorf("voter is required")
	}
	saved := *voter
	if saved.ID.IsNil() {
		newID, err := s.client.Incr(ctx, redisSeqKey).Result()
		if err != nil {
			return nil, fmt.Errorf("allocate voter id: %w", err)
		}
		saved.ID = id.VoterID(newID)
		err = s.withWatch(ctx, func(tx *redis.Tx) error {
			return s.insert(ctx, tx, saved)
		}, emailKey(saved.Email))
		if err != nil {
			return nil, err
		}
		return &saved, nil
	}

	err := s.withWatch(ctx, func(tx *redis.Tx) error {
		return s.update(ctx, tx, saved)
	}, recordKey(saved.ID), emailKey(saved.Email))
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// withWatch runs fn under WATCH on keys, retrying when a watched key
// changes before EXEC.
func (s *RedisStore) withWatch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < redisMaxRetries; attempt++ {
		err := s.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("write %v: too much contention", keys)
}

// insert writes the email claim, the record and the index entry in one
// MULTI. The email key is watched, so a concurrent claim aborts EXEC.
func (s *RedisStore) insert(ctx context.Context, tx *redis.Tx, saved models.Voter) error {
	if err := s.checkEmailFree(ctx, tx, saved); err != nil {
		return err
	}
	payload, err := encodeVoter(saved)
	if err != nil {
		return err
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, emailKey(saved.Email), saved.ID.Int64(), 0)
		pipe.Set(ctx, recordKey(saved.ID), payload, 0)
		pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(saved.ID), Member: saved.ID.String()})
		return nil
	})
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("insert voter: %w", err)
	}
	return err
}

func (s *RedisStore) update(ctx context.Context, tx *redis.Tx, saved models.Voter) error {
	raw, err := tx.Get(ctx, recordKey(saved.ID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("load voter for update: %w", err)
	}
	existing, err := decodeVoter(raw)
	if err != nil {
		return err
	}

	emailChanged := existing.Email != saved.Email
	if emailChanged {
		if err := s.checkEmailFree(ctx, tx, saved); err != nil {
			return err
		}
	}

	payload, err := encodeVoter(saved)
	if err != nil {
		return err
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recordKey(saved.ID), payload, 0)
		if emailChanged {
			pipe.Set(ctx, emailKey(saved.Email), saved.ID.Int64(), 0)
			pipe.Del(ctx, emailKey(existing.Email))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("update voter: %w", err)
	}
	return err
}

// checkEmailFree reads the watched email key and rejects it when another
// voter holds it.
func (s *RedisStore) checkEmailFree(ctx context.Context, tx *redis.Tx, saved models.Voter) error {
	holder, err := tx.Get(ctx, emailKey(saved.Email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check voter email holder: %w", err)
	}
	if holder != saved.ID.String() {
		return ErrConflict
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, voterID id.VoterID) error {
	return s.withWatch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, recordKey(voterID)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return fmt.Errorf("load voter for delete: %w", err)
		}
		existing, err := decodeVoter(raw)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, recordKey(voterID))
			pipe.Del(ctx, emailKey(existing.Email))
			pipe.ZRem(ctx, redisIndexKey, voterID.String())
			return nil
		})
		return err
	}, recordKey(voterID))
}

// Health pings the Redis server.
func (s *RedisStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func encodeVoter(v models.Voter) ([]byte, error) {
	payload, err := json.Marshal(redisRecord{
		ID:           v.ID.Int64(),
		Email:        v.Email,
		Name:         v.Name,
		PasswordHash: v.PasswordHash,
	})
	if err != nil {
		return nil, fmt.Errorf("encode voter: %w", err)
	}
	return payload, nil
}

func decodeVoter(raw []byte) (*models.Voter, error) {
	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode voter: %w", err)
	}
	return &models.Voter{
		ID:           id.VoterID(rec.ID),
		Email:        rec.Email,
		Name:         rec.Name,
		PasswordHash: rec.PasswordHash,
	}, nil
}

