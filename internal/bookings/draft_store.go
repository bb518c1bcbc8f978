package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wedbook/internal/shared/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DraftStore keeps drafts between requests
type DraftStore interface {
	Save(ctx context.Context, draft *Draft) error
	Get(ctx context.Context, id string) (*Draft, error)
	Delete(ctx context.Context, id string) error
	// Lock takes the draft's exclusive lock for ttl. ErrDraftBusy means another
	// request holds it.
	Lock(ctx context.Context, id string, ttl time.Duration) (unlock func(), err error)
}

// compare-and-delete so an expired lock taken over by another request is not released
const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`

type redisDraftStore struct {
	client   redis.Cmdable
	ttl      time.Duration
	newToken func() string
}

func NewRedisDraftStore(client redis.Cmdable, ttl time.Duration) DraftStore {
	if ttl <= 0 {
		ttl = constants.TTL_DRAFT_DEFAULT
	}
	return &redisDraftStore{
		client:   client,
		ttl:      ttl,
		newToken: uuid.NewString,
	}
}

func (s *redisDraftStore) Save(ctx context.Context, draft *Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := s.client.Set(ctx, constants.BuildDraftKey(draft.ID), string(data), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (s *redisDraftStore) Get(ctx context.Context, id string) (*Draft, error) {
	data, err := s.client.Get(ctx, constants.BuildDraftKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	var draft Draft
	if err := json.Unmarshal([]byte(data), &draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &draft, nil
}

func (s *redisDraftStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, constants.BuildDraftKey(id)).Err()
}

func (s *redisDraftStore) Lock(ctx context.Context, id string, ttl time.Duration) (func(), error) {
	key := constants.BuildDraftLockKey(id)
	token := s.newToken()

	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to lock draft: %w", err)
	}
	if !ok {
		return nil, ErrDraftBusy
	}

	return func() {
		// the request context may already be gone
		s.client.Eval(context.WithoutCancel(ctx), unlockScript, []string{key}, token)
	}, nil
}
