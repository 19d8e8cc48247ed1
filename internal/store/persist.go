package store

import (
	"encoding/json"
	"fmt"

	"github.com/tgienger/taskboard/internal/logging"
)

// Persister saves and restores serialized state by key
type Persister interface {
	Load(key string) (data []byte, found bool, err error)
	Save(key string, data []byte) error
}

// UserKey scopes a persistence key to one signed-in user
func UserKey(name, userID string) string {
	return name + ":" + userID
}

// Persist restores the saved state of s under key, then saves every later
// change. Save failures are logged, not returned. The returned function stops
// persisting.
func Persist[S any](s *Store[S], key string, p Persister) (func(), error) {
	data, found, err := p.Load(key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if found {
		var state S
		if err := json.Unmarshal(data, &state); err != nil {
			logging.Logger.WithError(err).WithField("key", key).Warn("discarding unreadable saved state")
		} else {
			s.Update(func(S) S { return state })
		}
	}

	return s.Subscribe(func(state S) {
		data, err := json.Marshal(state)
		if err == nil {
			err = p.Save(key, data)
		}
		if err != nil {
			logging.Logger.WithError(err).WithField("key", key).Error("failed to persist state")
		}
	}), nil
}
