package siswa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	siswaKeyPrefix = "siswa:record:"
	siswaIndexKey  = "siswa:ids"
	siswaNISKey    = "siswa:nis"
)

// RedisRepository persists records as JSON values with a set index for
// listing and a hash mapping NIS→ID for uniqueness checks. Filtering and
// sorting happen in process; the dataset is one school's student body, not
// a scan-hostile volume.
type RedisRepository struct {
	client *redis.Client
	now    func() time.Time
}

var _ Repository = (*RedisRepository)(nil)

// NewRedisRepository creates a repository on an existing client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client, now: time.Now}
}

func (r *RedisRepository) List(ctx context.Context, params ListParams) (Page, error) {
	params.Normalize()

	ids, err := r.client.SMembers(ctx, siswaIndexKey).Result()
	if err != nil {
		return Page{}, fmt.Errorf("failed to list siswa ids: %w", err)
	}

	all := make([]Siswa, 0, len(ids))
	for _, id := range ids {
		s, err := r.load(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue // index entry outlived its record
		}
		if err != nil {
			return Page{}, err
		}
		all = append(all, s)
	}

	filtered := filterRecords(all, params)
	sortRecords(filtered, params)
	return paginate(filtered, params), nil
}

func (r *RedisRepository) Get(ctx context.Context, id string) (Siswa, error) {
	return r.load(ctx, id)
}

func (r *RedisRepository) Create(ctx context.Context, s Siswa) (Siswa, error) {
	if s.ID == "" {
		s.ID = NewID()
	}
	now := r.now()
	s.CreatedAt = now
	s.UpdatedAt = now

	// HSetNX on the NIS index doubles as the uniqueness check.
	ok, err := r.client.HSetNX(ctx, siswaNISKey, s.NIS, s.ID).Result()
	if err != nil {
		return Siswa{}, fmt.Errorf("failed to reserve NIS: %w", err)
	}
	if !ok {
		return Siswa{}, ErrDuplicateNIS
	}

	if err := r.store(ctx, s); err != nil {
		r.client.HDel(ctx, siswaNISKey, s.NIS)
		return Siswa{}, err
	}
	return s, nil
}

func (r *RedisRepository) Update(ctx context.Context, id string, in UpdateInput) (Siswa, error) {
	s, err := r.load(ctx, id)
	if err != nil {
		return Siswa{}, err
	}

	oldNIS := s.NIS
	if in.NIS != nil && *in.NIS != oldNIS {
		ok, err := r.client.HSetNX(ctx, siswaNISKey, *in.NIS, id).Result()
		if err != nil {
			return Siswa{}, fmt.Errorf("failed to reserve NIS: %w", err)
		}
		if !ok {
			return Siswa{}, ErrDuplicateNIS
		}
		r.client.HDel(ctx, siswaNISKey, oldNIS)
	}

	applyUpdate(&s, in)
	s.UpdatedAt = r.now()
	if err := r.store(ctx, s); err != nil {
		return Siswa{}, err
	}
	return s, nil
}

func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	s, err := r.load(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, siswaKeyPrefix+id)
	pipe.SRem(ctx, siswaIndexKey, id)
	pipe.HDel(ctx, siswaNISKey, s.NIS)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete siswa: %w", err)
	}
	return nil
}

func (r *RedisRepository) load(ctx context.Context, id string) (Siswa, error) {
	val, err := r.client.Get(ctx, siswaKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return Siswa{}, ErrNotFound
	}
	if err != nil {
		return Siswa{}, fmt.Errorf("failed to load siswa %s: %w", id, err)
	}

	var s Siswa
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return Siswa{}, fmt.Errorf("corrupt siswa record %s: %w", id, err)
	}
	return s, nil
}

func (r *RedisRepository) store(ctx context.Context, s Siswa) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode siswa: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, siswaKeyPrefix+s.ID, data, 0)
	pipe.SAdd(ctx, siswaIndexKey, s.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store siswa: %w", err)
	}
	return nil
}
