package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/w3licence/licence-gateway/pkg/model"
)

const (
	defaultKeyPrefix = "licence-gateway:"
)

// RedisStoreConfig configures a RedisStore
type RedisStoreConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisStore connects to Redis and returns a RedisStore
func NewRedisStore(ctx context.Context, config *RedisStoreConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})
	err := client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close() // nolint: errcheck
		return nil, errors.Wrap(err, "redis ping")
	}
	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, keyPrefix: prefix}, nil
}

// RedisStore implements model.SessionStore and model.ChallengeStore in
// Redis. Entries expire through key TTLs.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// Close closes the Redis client
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) sessionKey(id string) string  { return r.keyPrefix + "session:" + id }
func (r *RedisStore) nonceKey(nonce string) string { return r.keyPrefix + "nonce:" + nonce }

// SaveSession implements model.SessionStore
func (r *RedisStore) SaveSession(ctx context.Context, session *model.Session) error {
	return r.set(ctx, r.sessionKey(session.ID), session, time.Until(session.ExpiresAt))
}

// Session implements model.SessionStore
func (r *RedisStore) Session(ctx context.Context, id string) (*model.Session, error) {
	raw, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, model.ErrPersisterNoResults
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get session")
	}
	session := &model.Session{}
	err = json.Unmarshal(raw, session)
	if err != nil {
		return nil, errors.Wrap(err, "decode session")
	}
	if session.Expired(time.Now()) {
		return nil, model.ErrPersisterNoResults
	}
	return session, nil
}

// DeleteSession implements model.SessionStore
func (r *RedisStore) DeleteSession(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.sessionKey(id)).Err()
}

// SaveChallenge implements model.ChallengeStore
func (r *RedisStore) SaveChallenge(ctx context.Context, challenge *model.LoginChallenge) error {
	return r.set(ctx, r.nonceKey(challenge.Nonce), challenge, time.Until(challenge.ExpiresAt))
}

// ConsumeChallenge implements model.ChallengeStore. GETDEL makes the
// nonce single use across gateway replicas.
func (r *RedisStore) ConsumeChallenge(ctx context.Context, nonce string) (*model.LoginChallenge, error) {
	raw, err := r.client.GetDel(ctx, r.nonceKey(nonce)).Bytes()
	if err == redis.Nil {
		return nil, model.ErrPersisterNoResults
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis getdel nonce")
	}
	challenge := &model.LoginChallenge{}
	err = json.Unmarshal(raw, challenge)
	if err != nil {
		return nil, errors.Wrap(err, "decode challenge")
	}
	if challenge.Expired(time.Now()) {
		return nil, model.ErrPersisterNoResults
	}
	return challenge, nil
}

func (r *RedisStore) set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, raw, ttl).Err()
}
