package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/ports"
)

// ErrSessionExpired is returned when saving a session whose expiry has already passed.
var ErrSessionExpired = errors.New("session already expired")

// RedisStore keeps sessions in redis with a TTL matching the session expiry.
// A per-user set of tokens backs DeleteByUserID.
type RedisStore struct {
	client     redis.UniversalClient
	prefix     string
	userPrefix string
	clock      ports.Clock
}

var _ ports.SessionStore = (*RedisStore)(nil)

// RedisConfig holds connection settings for NewRedisClient.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w: %w", cfg.Addr, ports.ErrConnectionFailed, err)
	}
	return client, nil
}

func NewRedisStore(client redis.UniversalClient, clock ports.Clock) *RedisStore {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &RedisStore{
		client:     client,
		prefix:     "auth:session:",
		userPrefix: "auth:user_sessions:",
		clock:      clock,
	}
}

func (r *RedisStore) key(token string) string {
	return r.prefix + token
}

func (r *RedisStore) userKey(userID int64) string {
	return fmt.Sprintf("%s%d", r.userPrefix, userID)
}

func (r *RedisStore) Save(ctx context.Context, session *domain.Session) error {
	ttl := session.ExpiresAt.Sub(r.clock.Now())
	if ttl <= 0 {
		return ErrSessionExpired
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	userKey := r.userKey(session.UserID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(session.Token), data, ttl)
		pipe.SAdd(ctx, userKey, session.Token)
		// Sessions share one TTL, so the newest one bounds the index.
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, r.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if !session.ExpiresAt.After(r.clock.Now()) {
		return nil, nil
	}
	return &session, nil
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	session, err := r.Get(ctx, token)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key(token))
	if session != nil {
		pipe.SRem(ctx, r.userKey(session.UserID), token)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (r *RedisStore) DeleteByUserID(ctx context.Context, userID int64) error {
	userKey := r.userKey(userID)
	tokens, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("listing user sessions: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, r.key(token))
	}
	keys = append(keys, userKey)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("deleting user sessions: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
