package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	cryptoUtils "github.com/mirakyc/onboarding/utils/crypto"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned for unknown or expired sessions
var ErrSessionNotFound = errors.New("session not found or expired")

const maxDispatchAttempts = 10

// Store keeps session state in redis under a sliding TTL
type Store struct {
	client *redis.Client
	ttl    time.Duration
	key    []byte
}

// NewStore creates a session store. A non-empty secret encrypts state at rest.
func NewStore(client *redis.Client, ttl time.Duration, secret string) *Store {
	s := &Store{client: client, ttl: ttl}
	if secret != "" {
		s.key = cryptoUtils.DeriveKey(secret)
	}
	return s
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (s *Store) encode(state State) ([]byte, error) {
	if s.key != nil {
		return cryptoUtils.EncryptJSON(state, s.key)
	}
	return json.Marshal(state)
}

func (s *Store) decode(data []byte) (State, error) {
	var state State
	var err error
	if s.key != nil {
		err = cryptoUtils.DecryptJSON(data, s.key, &state)
	} else {
		err = json.Unmarshal(data, &state)
	}
	if err != nil {
		return State{}, fmt.Errorf("decode session: %w", err)
	}
	return state, nil
}

// Create starts a new session with the initial state
func (s *Store) Create(ctx context.Context) (string, State, error) {
	id := uuid.New().String()
	state := InitialState()

	data, err := s.encode(state)
	if err != nil {
		return "", State{}, err
	}
	if err := s.client.Set(ctx, sessionKey(id), data, s.ttl).Err(); err != nil {
		return "", State{}, fmt.Errorf("Create.Set: %w", err)
	}
	return id, state, nil
}

// Get returns the state of a session
func (s *Store) Get(ctx context.Context, id string) (State, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, ErrSessionNotFound
		}
		return State{}, fmt.Errorf("Get: %w", err)
	}
	return s.decode(data)
}

// Dispatch applies an action to a session atomically and refreshes its TTL
func (s *Store) Dispatch(ctx context.Context, id string, action Action) (State, error) {
	key := sessionKey(id)
	var next State

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrSessionNotFound
			}
			return err
		}

		current, err := s.decode(data)
		if err != nil {
			return err
		}

		next, err = Reduce(current, action)
		if err != nil {
			return err
		}

		encoded, err := s.encode(next)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxDispatchAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return State{}, err
		}
		return next, nil
	}

	return State{}, fmt.Errorf("Dispatch: session %s changed concurrently, giving up", id)
}

// Delete removes a session
func (s *Store) Delete(ctx context.Context, id string) error {
	removed, err := s.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if removed == 0 {
		return ErrSessionNotFound
	}
	return nil
}
