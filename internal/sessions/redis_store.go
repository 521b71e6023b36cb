package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mediaforge/internal/domain/session"

	goredis "github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "upload_session:"

// RedisStore is the restart-safe Store implementation. Sessions are
// stored as JSON under upload_session:{id} with a per-key TTL; an index
// set tracks live ids so the sweep can enumerate them without SCANning
// the whole keyspace.
type RedisStore struct {
	client *goredis.Client
}

const sessionIndexKey = "upload_sessions:index"

func NewRedisStore(client *goredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, id string) (*session.UploadSession, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id).Result()
	if err == goredis.Nil {
		return nil, nil // cache miss, session unknown or TTL-evicted
	}
	if err != nil {
		return nil, err
	}

	var s session.UploadSession
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("corrupt session %s: %w", id, err)
	}
	if s.UploadedChunks == nil {
		s.UploadedChunks = make(map[int]struct{})
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *session.UploadSession, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+s.ID, data, ttl)
	pipe.SAdd(ctx, sessionIndexKey, s.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+id)
	pipe.SRem(ctx, sessionIndexKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) List(ctx context.Context) ([]*session.UploadSession, error) {
	ids, err := r.client.SMembers(ctx, sessionIndexKey).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*session.UploadSession, 0, len(ids))
	for _, id := range ids {
		s, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if s == nil {
			// TTL already evicted the payload; drop the dangling index entry.
			r.client.SRem(ctx, sessionIndexKey, id)
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
