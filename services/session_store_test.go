package services

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"visitor_access_go/config"
	"visitor_access_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	sess := NewSession(time.Hour)
	sess.User = &models.User{ID: 1, Username: "guardia", Role: "ADMIN"}
	require.NoError(t, store.Create(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "guardia", got.User.Username)
	assert.Equal(t, models.StepFormType, got.Wizard.Step)

	got.Wizard.Step = models.StepSummary
	again, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepFormType, again.Wizard.Step, "callers never share state with the store")

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStoreUpdateIsAtomic(t *testing.T) {
	store, sess := newTestSession(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, sess.ID, func(s *models.Session) error {
				s.Wizard.PendingLoads++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Wizard.PendingLoads)
}

func TestMemorySessionStoreUpdateErrorDiscardsChanges(t *testing.T) {
	store, sess := newTestSession(t)
	ctx := context.Background()

	_, err := store.Update(ctx, sess.ID, func(s *models.Session) error {
		s.Wizard.Step = models.StepSummary
		return errors.New("abort")
	})
	assert.Error(t, err)

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepFormType, got.Wizard.Step)
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	expired := NewSession(-time.Minute)
	live := NewSession(time.Hour)
	require.NoError(t, store.Create(ctx, expired))
	require.NoError(t, store.Create(ctx, live))

	_, err := store.Update(ctx, expired.ID, func(*models.Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Create(ctx, expired))
	assert.Equal(t, 1, store.Cleanup())
	_, err = store.Get(ctx, live.ID)
	assert.NoError(t, err)
}

func TestNewSessionStoreFallsBackToMemory(t *testing.T) {
	store := NewSessionStore(&config.Config{})
	assert.IsType(t, &MemorySessionStore{}, store)

	store = NewSessionStore(&config.Config{RedisURL: "127.0.0.1:1"})
	assert.IsType(t, &MemorySessionStore{}, store)
}

// TestRedisSessionStore runs against a real server when REDIS_TEST_URL is set
func TestRedisSessionStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_URL")
	if addr == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	db, _ := strconv.Atoi(os.Getenv("REDIS_TEST_DB"))
	client := NewRedisClient(&config.Config{RedisURL: addr, RedisDB: db})
	defer client.Close()

	store := NewRedisSessionStore(client)
	ctx := context.Background()
	sess := NewSession(time.Minute)
	require.NoError(t, store.Create(ctx, sess))
	defer store.Delete(ctx, sess.ID)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Update(ctx, sess.ID, func(s *models.Session) error {
				s.Wizard.PendingLoads++
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Positive(t, got.Wizard.PendingLoads)

	ttl, err := client.TTL(ctx, redisSessionPrefix+sess.ID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
