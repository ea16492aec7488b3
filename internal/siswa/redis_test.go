package siswa

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
)

// Integration tests against a local Redis on DB 15. Skipped with -short or
// when no instance is reachable.
func redisRepo(t *testing.T) *RedisRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skip("Redis not available:", err)
	}
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return NewRedisRepository(client)
}

func TestRedisRepository_CRUD(t *testing.T) {
	repo := redisRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, Siswa{Nama: "Budi Santoso", NIS: "1001", Kelas: "X-IPA-1", Jurusan: "IPA"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	got, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Nama != "Budi Santoso" || got.NIS != "1001" {
		t.Errorf("Get() = %+v", got)
	}

	if _, err := repo.Create(ctx, Siswa{Nama: "Lain", NIS: "1001", Kelas: "X-IPA-2", Jurusan: "IPA"}); !errors.Is(err, ErrDuplicateNIS) {
		t.Errorf("duplicate Create() error = %v, want ErrDuplicateNIS", err)
	}

	kelas := "XI-IPA-1"
	updated, err := repo.Update(ctx, created.ID, UpdateInput{Kelas: &kelas})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Kelas != "XI-IPA-1" || updated.Nama != "Budi Santoso" {
		t.Errorf("Update() = %+v", updated)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := repo.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestRedisRepository_NISFreedAfterUpdate(t *testing.T) {
	repo := redisRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, Siswa{Nama: "Budi Santoso", NIS: "2001", Kelas: "X-IPA-1", Jurusan: "IPA"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	newNIS := "2002"
	if _, err := repo.Update(ctx, created.ID, UpdateInput{NIS: &newNIS}); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	// The old NIS is released and can be reused.
	if _, err := repo.Create(ctx, Siswa{Nama: "Ani Wijaya", NIS: "2001", Kelas: "X-IPA-2", Jurusan: "IPA"}); err != nil {
		t.Errorf("Create() with released NIS failed: %v", err)
	}
	// The new NIS is reserved.
	if _, err := repo.Create(ctx, Siswa{Nama: "Citra Lestari", NIS: "2002", Kelas: "X-IPA-2", Jurusan: "IPA"}); !errors.Is(err, ErrDuplicateNIS) {
		t.Errorf("Create() with taken NIS error = %v, want ErrDuplicateNIS", err)
	}
}

func TestRedisRepository_List(t *testing.T) {
	repo := redisRepo(t)
	ctx := context.Background()

	seed := []Siswa{
		{Nama: "Budi Santoso", NIS: "3001", Kelas: "X-IPA-1", Jurusan: "IPA"},
		{Nama: "Ani Wijaya", NIS: "3002", Kelas: "X-IPA-1", Jurusan: "IPA"},
		{Nama: "Citra Lestari", NIS: "3003", Kelas: "XI-IPS-2", Jurusan: "IPS"},
	}
	for _, s := range seed {
		if _, err := repo.Create(ctx, s); err != nil {
			t.Fatalf("seed Create(%s) failed: %v", s.NIS, err)
		}
	}

	page, err := repo.List(ctx, ListParams{Jurusan: "IPA", SortBy: "nis", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Total = %d, want 2", page.Total)
	}
	if len(page.Data) == 2 && (page.Data[0].NIS != "3001" || page.Data[1].NIS != "3002") {
		t.Errorf("order = %v", names(page.Data))
	}
}
