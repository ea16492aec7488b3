package siswa

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepository keeps records in process memory. Used in development and
// as the test double for the Redis repository.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]Siswa
	now     func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[string]Siswa),
		now:     time.Now,
	}
}

func (m *MemoryRepository) List(_ context.Context, params ListParams) (Page, error) {
	params.Normalize()

	m.mu.RLock()
	all := make([]Siswa, 0, len(m.records))
	for _, s := range m.records {
		all = append(all, s)
	}
	m.mu.RUnlock()

	filtered := filterRecords(all, params)
	sortRecords(filtered, params)
	return paginate(filtered, params), nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (Siswa, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.records[id]
	if !ok {
		return Siswa{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryRepository) Create(_ context.Context, s Siswa) (Siswa, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.records {
		if existing.NIS == s.NIS {
			return Siswa{}, ErrDuplicateNIS
		}
	}

	if s.ID == "" {
		s.ID = NewID()
	}
	now := m.now()
	s.CreatedAt = now
	s.UpdatedAt = now
	m.records[s.ID] = s
	return s, nil
}

func (m *MemoryRepository) Update(_ context.Context, id string, in UpdateInput) (Siswa, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.records[id]
	if !ok {
		return Siswa{}, ErrNotFound
	}

	if in.NIS != nil && *in.NIS != s.NIS {
		for _, existing := range m.records {
			if existing.NIS == *in.NIS {
				return Siswa{}, ErrDuplicateNIS
			}
		}
	}

	applyUpdate(&s, in)
	s.UpdatedAt = m.now()
	m.records[id] = s
	return s, nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// applyUpdate copies the non-nil fields of a partial update onto the record.
func applyUpdate(s *Siswa, in UpdateInput) {
	if in.Nama != nil {
		s.Nama = *in.Nama
	}
	if in.NIS != nil {
		s.NIS = *in.NIS
	}
	if in.Kelas != nil {
		s.Kelas = *in.Kelas
	}
	if in.Jurusan != nil {
		s.Jurusan = *in.Jurusan
	}
	if in.Email != nil {
		s.Email = *in.Email
	}
	if in.Telepon != nil {
		s.Telepon = *in.Telepon
	}
	if in.Alamat != nil {
		s.Alamat = *in.Alamat
	}
}

func filterRecords(all []Siswa, params ListParams) []Siswa {
	out := all[:0]
	search := strings.ToLower(params.Search)
	for _, s := range all {
		if search != "" &&
			!strings.Contains(strings.ToLower(s.Nama), search) &&
			!strings.Contains(strings.ToLower(s.NIS), search) &&
			!strings.Contains(strings.ToLower(s.Email), search) {
			continue
		}
		if params.Kelas != "" && s.Kelas != params.Kelas {
			continue
		}
		if params.Jurusan != "" && s.Jurusan != params.Jurusan {
			continue
		}
		out = append(out, s)
	}
	return out
}

func sortRecords(records []Siswa, params ListParams) {
	asc := params.SortOrder == "asc"
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		var less bool
		switch params.SortBy {
		case "nama":
			less = a.Nama < b.Nama
		case "nis":
			less = a.NIS < b.NIS
		case "kelas":
			less = a.Kelas < b.Kelas
		case "jurusan":
			less = a.Jurusan < b.Jurusan
		default:
			less = a.CreatedAt.Before(b.CreatedAt)
		}
		if asc {
			return less
		}
		return !less
	})
}

func paginate(records []Siswa, params ListParams) Page {
	total := len(records)
	totalPages := (total + params.Limit - 1) / params.Limit

	start := (params.Page - 1) * params.Limit
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}

	return Page{
		Data:       append([]Siswa(nil), records[start:end]...),
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
