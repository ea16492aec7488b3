// Package user holds the account records behind the auth API.
package user

import (
	"context"
	"errors"
	"regexp"
	"time"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned when registering an email that already
	// has an account.
	ErrDuplicateEmail = errors.New("email already registered")
)

// User is one account. PasswordHash never leaves the repository layer in API
// responses.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Nama         string    `json:"nama"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Repository is the account store boundary.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}

var (
	namaRe     = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	upperRe    = regexp.MustCompile(`[A-Z]`)
	lowerRe    = regexp.MustCompile(`[a-z]`)
	digitRe    = regexp.MustCompile(`[0-9]`)
)

// ValidateRegistration checks a registration payload, returning a
// field→message map. Empty map means valid.
func ValidateRegistration(nama, email, password string) map[string]string {
	errs := make(map[string]string)

	switch {
	case len(nama) < 3:
		errs["nama"] = "Nama minimal 3 karakter"
	case len(nama) > 100:
		errs["nama"] = "Nama maksimal 100 karakter"
	case !namaRe.MatchString(nama):
		errs["nama"] = "Nama hanya boleh mengandung huruf dan spasi"
	}

	switch {
	case !emailRe.MatchString(email):
		errs["email"] = "Email tidak valid"
	case len(email) > 100:
		errs["email"] = "Email maksimal 100 karakter"
	}

	switch {
	case len(password) < 6:
		errs["password"] = "Password minimal 6 karakter"
	case len(password) > 50:
		errs["password"] = "Password maksimal 50 karakter"
	case !upperRe.MatchString(password):
		errs["password"] = "Password harus mengandung minimal 1 huruf kapital"
	case !lowerRe.MatchString(password):
		errs["password"] = "Password harus mengandung minimal 1 huruf kecil"
	case !digitRe.MatchString(password):
		errs["password"] = "Password harus mengandung minimal 1 angka"
	}

	return errs
}
