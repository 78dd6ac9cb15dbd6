package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis key prefixes for the cache tier.
const (
	redisSessionPrefix = "session:"
	redisTokenPrefix   = "session_token:"
	redisUserPrefix    = "user_sessions:"
)

// RedisCacheStore implements CacheStore on Redis. Session records are
// stored as JSON under their id with a token-digest index key alongside,
// both carrying the session's remaining TTL. The per-user active-session
// index is a Redis set.
type RedisCacheStore struct {
	client redis.UniversalClient
}

// NewRedisCacheStore creates a Redis-backed cache tier.
func NewRedisCacheStore(client redis.UniversalClient) *RedisCacheStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	return &RedisCacheStore{client: client}
}

func (s *RedisCacheStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	data, err := s.client.Get(ctx, redisSessionPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// A corrupt cache record is treated as a miss; the durable tier
		// repopulates it.
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *RedisCacheStore) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	raw, err := s.client.Get(ctx, redisTokenPrefix+tokenHash).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return s.Get(ctx, id)
}

func (s *RedisCacheStore) Set(ctx context.Context, sess *Session, ttl time.Duration) error {
	if sess == nil || sess.TokenHash == "" {
		return ErrInvalidSession
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Join(ErrInvalidSession, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisSessionPrefix+sess.ID.String(), data, ttl)
	pipe.Set(ctx, redisTokenPrefix+sess.TokenHash, sess.ID.String(), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisCacheStore) Delete(ctx context.Context, id uuid.UUID, tokenHash string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, redisSessionPrefix+id.String())
	if tokenHash != "" {
		pipe.Del(ctx, redisTokenPrefix+tokenHash)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisCacheStore) DeleteTokenIndex(ctx context.Context, tokenHash string) error {
	if err := s.client.Del(ctx, redisTokenPrefix+tokenHash).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisCacheStore) AddToUserIndex(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.client.SAdd(ctx, redisUserPrefix+userID.String(), id.String()).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisCacheStore) RemoveFromUserIndex(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.client.SRem(ctx, redisUserPrefix+userID.String(), id.String()).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisCacheStore) UserIndex(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	members, err := s.client.SMembers(ctx, redisUserPrefix+userID.String()).Result()
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		id, err := uuid.Parse(member)
		if err != nil {
			// Malformed entries are skipped; readers prune what does not
			// resolve.
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var _ CacheStore = (*RedisCacheStore)(nil)
