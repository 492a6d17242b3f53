package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"visitor_access_go/config"
	"visitor_access_go/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionConflict = errors.New("session update conflict")
)

// SessionStore keeps per-browser sessions. Update is atomic per session id:
// concurrent updates of the same session are applied one after the other.
type SessionStore interface {
	Create(ctx context.Context, sess *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Update(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// NewSession builds an unsaved session with a fresh id and wizard
func NewSession(ttl time.Duration) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Wizard:    models.NewWizardState(),
	}
}

// NewSessionStore picks Redis when REDIS_URL is configured and reachable,
// the in-process store otherwise.
func NewSessionStore(cfg *config.Config) SessionStore {
	if cfg.RedisURL == "" {
		log.Println("Session store: in-memory")
		return NewMemorySessionStore()
	}

	client := NewRedisClient(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[WARNING] Redis at %s unreachable: %v. Falling back to in-memory sessions.", cfg.RedisURL, err)
		return NewMemorySessionStore()
	}

	log.Printf("Session store: Redis (%s, db %d)", cfg.RedisURL, cfg.RedisDB)
	return NewRedisSessionStore(client)
}

// NewRedisClient creates a Redis client from REDIS_URL, REDIS_PASSWORD and REDIS_DB
func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// MemorySessionStore keeps sessions serialized in process memory. Values are
// stored as JSON so callers never share maps or slices with the store.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	locks    map[string]*sync.Mutex
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string][]byte),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (m *MemorySessionStore) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

func (m *MemorySessionStore) load(id string) (*models.Session, error) {
	m.mu.Lock()
	data, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if sess.IsExpired() {
		m.remove(id)
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (m *MemorySessionStore) save(sess *models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	m.mu.Lock()
	m.sessions[sess.ID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	delete(m.locks, id)
	m.mu.Unlock()
}

func (m *MemorySessionStore) Create(ctx context.Context, sess *models.Session) error {
	return m.save(sess)
}

func (m *MemorySessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	return m.load(id)
}

func (m *MemorySessionStore) Update(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	l := m.lockFor(id)
	l.Lock()
	defer l.Unlock()

	sess, err := m.load(id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := m.save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	m.remove(id)
	return nil
}

// Cleanup drops expired sessions and returns how many were removed
func (m *MemorySessionStore) Cleanup() int {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	removed := 0
	for _, id := range ids {
		if _, err := m.load(id); errors.Is(err, ErrSessionNotFound) {
			removed++
		}
	}
	return removed
}

const (
	redisSessionPrefix = "visitor_access:session:"
	redisMaxRetries    = 5
)

// RedisSessionStore keeps sessions as JSON strings with a TTL matching the
// session expiry. Update uses WATCH/MULTI so concurrent writers retry.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (r *RedisSessionStore) key(id string) string {
	return redisSessionPrefix + id
}

func sessionTTL(sess *models.Session) time.Duration {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}

func (r *RedisSessionStore) Create(ctx context.Context, sess *models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(sess.ID), data, sessionTTL(sess)).Err(); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &sess, nil
}

func (r *RedisSessionStore) Update(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	key := r.key(id)
	var updated *models.Session

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		var sess models.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return fmt.Errorf("decoding session: %w", err)
		}
		if err := fn(&sess); err != nil {
			return err
		}
		payload, err := json.Marshal(&sess)
		if err != nil {
			return fmt.Errorf("encoding session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, sessionTTL(&sess))
			return nil
		})
		if err == nil {
			updated = &sess
		}
		return err
	}

	for i := 0; i < redisMaxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrSessionConflict
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}
