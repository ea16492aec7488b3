// Package siswa holds the student record domain: model, input validation and
// the pluggable repositories backing the CRUD API.
package siswa

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no student matches the requested ID.
	ErrNotFound = errors.New("siswa not found")

	// ErrDuplicateNIS is returned when a create or update would reuse an
	// existing student number.
	ErrDuplicateNIS = errors.New("NIS already registered")
)

// Siswa is one student record.
type Siswa struct {
	ID        string    `json:"id"`
	Nama      string    `json:"nama"`
	NIS       string    `json:"nis"`
	Kelas     string    `json:"kelas"`
	Jurusan   string    `json:"jurusan"`
	Email     string    `json:"email,omitempty"`
	Telepon   string    `json:"telepon,omitempty"`
	Alamat    string    `json:"alamat,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput is the payload for creating a student.
type CreateInput struct {
	Nama    string `json:"nama"`
	NIS     string `json:"nis"`
	Kelas   string `json:"kelas"`
	Jurusan string `json:"jurusan"`
	Email   string `json:"email,omitempty"`
	Telepon string `json:"telepon,omitempty"`
	Alamat  string `json:"alamat,omitempty"`
}

// UpdateInput is the payload for partial updates; nil fields are untouched.
type UpdateInput struct {
	Nama    *string `json:"nama,omitempty"`
	NIS     *string `json:"nis,omitempty"`
	Kelas   *string `json:"kelas,omitempty"`
	Jurusan *string `json:"jurusan,omitempty"`
	Email   *string `json:"email,omitempty"`
	Telepon *string `json:"telepon,omitempty"`
	Alamat  *string `json:"alamat,omitempty"`
}

// ListParams control pagination, search, filtering and sorting.
type ListParams struct {
	Page      int
	Limit     int
	Search    string // matches nama, NIS or email
	Kelas     string
	Jurusan   string
	SortBy    string // nama, nis, kelas, jurusan, created_at
	SortOrder string // asc or desc
}

// Normalize clamps pagination and fills sorting defaults.
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.SortBy == "" {
		p.SortBy = "created_at"
	}
	if p.SortOrder != "asc" {
		p.SortOrder = "desc"
	}
}

// Page is one page of results plus pagination metadata.
type Page struct {
	Data       []Siswa `json:"data"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Total      int     `json:"total"`
	TotalPages int     `json:"totalPages"`
}

// Repository is the persistent record store boundary. The production
// deployment backs it with Redis; tests and development use the in-memory
// implementation.
type Repository interface {
	List(ctx context.Context, params ListParams) (Page, error)
	Get(ctx context.Context, id string) (Siswa, error)
	Create(ctx context.Context, s Siswa) (Siswa, error)
	Update(ctx context.Context, id string, in UpdateInput) (Siswa, error)
	Delete(ctx context.Context, id string) error
}

// NewID generates a random 128-bit hex identifier.
func NewID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// math/rand quality is unacceptable for IDs; crypto/rand failing
		// means the host is broken.
		panic(err)
	}
	return hex.EncodeToString(buf)
}
