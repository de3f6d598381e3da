package overlay

import (
	"context"
	"errors"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const prefsTTL = 30 * 24 * time.Hour

// PrefStore remembers the last overlay configuration of a browser.
type PrefStore struct {
	redis *redis.Client
}

func NewPrefStore(client *redis.Client) *PrefStore {
	return &PrefStore{redis: client}
}

func prefsKey(clientID string) string {
	return "videosync:overlay-prefs:" + clientID
}

func (s *PrefStore) Save(ctx context.Context, clientID string, cfg Configuration) error {
	if s == nil || s.redis == nil || clientID == "" {
		return nil
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, prefsKey(clientID), raw, prefsTTL).Err()
}

// Load returns the stored configuration, or false when there is none.
func (s *PrefStore) Load(ctx context.Context, clientID string) (Configuration, bool, error) {
	if s == nil || s.redis == nil || clientID == "" {
		return nil, false, nil
	}
	raw, err := s.redis.Get(ctx, prefsKey(clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var cfg Configuration
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}
