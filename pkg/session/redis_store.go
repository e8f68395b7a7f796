package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/constants"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/metrics"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/models"
)

const updateRetries = 5

// RedisStore is the external-store implementation of Store. Sessions are
// JSON documents with a native key TTL, so the background sweep has nothing
// to do here.
type RedisStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

func NewRedisStore(url string, ttl time.Duration, logger *logrus.Logger, m *metrics.Metrics) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis session backend")
	return &RedisStore{rdb: rdb, ttl: ttl, logger: logger, metrics: m}, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) key(callSID string) string {
	return constants.SessionKeyPrefix + callSID
}

func (s *RedisStore) Get(ctx context.Context, callSID string) (*models.Session, error) {
	data, err := s.rdb.Get(ctx, s.key(callSID)).Bytes()
	if errors.Is(err, redis.Nil) {
		session := models.NewSession(callSID)
		if err := s.Put(ctx, session); err != nil {
			return nil, err
		}
		return session, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", callSID, err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", callSID, err)
	}
	if session.GenerativeCache == nil {
		session.GenerativeCache = make(map[string]string)
	}
	return &session, nil
}

func (s *RedisStore) Put(ctx context.Context, session *models.Session) error {
	session.LastUpdated = time.Now()
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", session.CallSID, err)
	}
	if err := s.rdb.Set(ctx, s.key(session.CallSID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session %s: %w", session.CallSID, err)
	}
	return nil
}

// Update is an optimistic WATCH transaction: the mutation is retried if
// another writer touches the key between read and write.
func (s *RedisStore) Update(ctx context.Context, callSID string, mutate func(*models.Session)) (*models.Session, error) {
	key := s.key(callSID)
	var updated *models.Session

	txn := func(tx *redis.Tx) error {
		var session *models.Session

		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			session = models.NewSession(callSID)
		case err != nil:
			return err
		default:
			session = &models.Session{}
			if err := json.Unmarshal(data, session); err != nil {
				return err
			}
			if session.GenerativeCache == nil {
				session.GenerativeCache = make(map[string]string)
			}
		}

		mutate(session)
		session.LastUpdated = time.Now()

		encoded, err := json.Marshal(session)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = session
		return nil
	}

	for attempt := 0; attempt < updateRetries; attempt++ {
		err := s.rdb.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, fmt.Errorf("failed to update session %s: %w", callSID, err)
	}
	return nil, fmt.Errorf("failed to update session %s: too many concurrent writers", callSID)
}

func (s *RedisStore) Delete(ctx context.Context, callSID string) error {
	removed, err := s.rdb.Del(ctx, s.key(callSID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", callSID, err)
	}
	if removed > 0 {
		s.metrics.SessionsEvicted.Inc()
	}
	return nil
}

// Sweep is a no-op: Redis evicts sessions through the key TTL set on every
// write.
func (s *RedisStore) Sweep(ctx context.Context, ttl time.Duration, chunkSize int) (int, error) {
	return 0, nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	var cursor uint64
	count := 0
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, constants.SessionKeyPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to scan sessions: %w", err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}
