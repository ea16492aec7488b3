package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/sekolahku/siswa-api/internal/auth"
	"github.com/sekolahku/siswa-api/internal/user"
	"github.com/sekolahku/siswa-api/middleware"
)

// AuthHandler serves registration, login and session introspection.
type AuthHandler struct {
	users  user.Repository
	tokens *auth.Manager
	log    zerolog.Logger
}

func NewAuthHandler(users user.Repository, tokens *auth.Manager, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		log:    log.With().Str("component", "auth").Logger(),
	}
}

type registerRequest struct {
	Nama     string `json:"nama"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errs := user.ValidateRegistration(req.Nama, req.Email, req.Password); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("password hashing failed")
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan server")
		return
	}

	created, err := h.users.Create(r.Context(), user.User{
		Nama:         req.Nama,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if errors.Is(err, user.ErrDuplicateEmail) {
		respondError(w, http.StatusConflict, "Email sudah terdaftar")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("user create failed")
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan server")
		return
	}

	token, err := h.tokens.GenerateToken(created.ID, created.Email, created.Nama)
	if err != nil {
		h.log.Error().Err(err).Msg("token generation failed")
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan server")
		return
	}

	respondData(w, http.StatusCreated, authResponse{User: created, Token: token})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email dan password wajib diisi")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, user.ErrNotFound) || (err == nil && !auth.VerifyPassword(req.Password, u.PasswordHash)) {
		// One message for both cases so login probing cannot distinguish
		// unknown emails from wrong passwords.
		respondError(w, http.StatusUnauthorized, "Email atau password salah")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("user lookup failed")
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan server")
		return
	}

	token, err := h.tokens.GenerateToken(u.ID, u.Email, u.Nama)
	if err != nil {
		h.log.Error().Err(err).Msg("token generation failed")
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan server")
		return
	}

	respondData(w, http.StatusOK, authResponse{User: u, Token: token})
}

// Me handles GET /api/auth/me behind RequireAuth.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	u, err := h.users.GetByID(r.Context(), claims.UserID)
	if errors.Is(err, user.ErrNotFound) {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("user lookup failed")
		respondError(w, http.StatusInternalServerError, "Terjadi kesalahan server")
		return
	}

	respondData(w, http.StatusOK, u)
}

// Logout handles POST /api/auth/logout. Tokens are stateless; the endpoint
// exists for API parity and lets clients drop their copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, Response{Success: true, Message: "Logout berhasil"})
}
