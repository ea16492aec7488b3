package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sekolahku/siswa-api/internal/siswa"
)

// MemoryRepository keeps accounts in process memory for development and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
	now     func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (m *MemoryRepository) Create(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := m.byEmail[email]; exists {
		return User{}, ErrDuplicateEmail
	}

	if u.ID == "" {
		u.ID = siswa.NewID()
	}
	now := m.now()
	u.CreatedAt = now
	u.UpdatedAt = now

	m.byID[u.ID] = u
	m.byEmail[email] = u.ID
	return u, nil
}

func (m *MemoryRepository) GetByEmail(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return m.byID[id], nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

const (
	userKeyPrefix = "user:record:"
	userEmailKey  = "user:email"
)

// RedisRepository persists accounts as JSON values with an email→ID hash for
// login lookups and duplicate checks.
type RedisRepository struct {
	client *redis.Client
	now    func() time.Time
}

var _ Repository = (*RedisRepository)(nil)

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client, now: time.Now}
}

func (r *RedisRepository) Create(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = siswa.NewID()
	}
	now := r.now()
	u.CreatedAt = now
	u.UpdatedAt = now

	email := strings.ToLower(u.Email)
	ok, err := r.client.HSetNX(ctx, userEmailKey, email, u.ID).Result()
	if err != nil {
		return User{}, fmt.Errorf("failed to reserve email: %w", err)
	}
	if !ok {
		return User{}, ErrDuplicateEmail
	}

	data, err := json.Marshal(struct {
		User
		PasswordHash string `json:"password_hash"`
	}{u, u.PasswordHash})
	if err != nil {
		return User{}, fmt.Errorf("failed to encode user: %w", err)
	}
	if err := r.client.Set(ctx, userKeyPrefix+u.ID, data, 0).Err(); err != nil {
		r.client.HDel(ctx, userEmailKey, email)
		return User{}, fmt.Errorf("failed to store user: %w", err)
	}
	return u, nil
}

func (r *RedisRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	id, err := r.client.HGet(ctx, userEmailKey, strings.ToLower(email)).Result()
	if errors.Is(err, redis.Nil) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to look up email: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *RedisRepository) GetByID(ctx context.Context, id string) (User, error) {
	val, err := r.client.Get(ctx, userKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to load user %s: %w", id, err)
	}

	var stored struct {
		User
		PasswordHash string `json:"password_hash"`
	}
	if err := json.Unmarshal([]byte(val), &stored); err != nil {
		return User{}, fmt.Errorf("corrupt user record %s: %w", id, err)
	}
	u := stored.User
	u.PasswordHash = stored.PasswordHash
	return u, nil
}
