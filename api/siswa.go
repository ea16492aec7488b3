package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/sekolahku/siswa-api/internal/siswa"
	"github.com/sekolahku/siswa-api/middleware"
)

// SiswaHandler serves the student CRUD API.
type SiswaHandler struct {
	repo siswa.Repository
	log  zerolog.Logger
}

func NewSiswaHandler(repo siswa.Repository, log zerolog.Logger) *SiswaHandler {
	return &SiswaHandler{
		repo: repo,
		log:  log.With().Str("component", "siswa").Logger(),
	}
}

// List handles GET /api/siswa with pagination, search, filtering and sorting.
func (h *SiswaHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	params := siswa.ListParams{
		Page:      page,
		Limit:     limit,
		Search:    q.Get("search"),
		Kelas:     q.Get("kelas"),
		Jurusan:   q.Get("jurusan"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	result, err := h.repo.List(r.Context(), params)
	if err != nil {
		h.log.Error().Err(err).Msg("list siswa failed")
		respondError(w, http.StatusInternalServerError, "Gagal mengambil data siswa")
		return
	}

	respondData(w, http.StatusOK, result)
}

// Get handles GET /api/siswa/{id}.
func (h *SiswaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, siswa.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Siswa tidak ditemukan")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("get siswa failed")
		respondError(w, http.StatusInternalServerError, "Gagal mengambil data siswa")
		return
	}

	respondData(w, http.StatusOK, s)
}

// Create handles POST /api/siswa.
func (h *SiswaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in siswa.CreateInput
	if !decodeJSON(w, r, &in) {
		return
	}

	if errs := siswa.ValidateCreate(in); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	record := siswa.Siswa{
		Nama:    in.Nama,
		NIS:     in.NIS,
		Kelas:   in.Kelas,
		Jurusan: in.Jurusan,
		Email:   in.Email,
		Telepon: in.Telepon,
		Alamat:  in.Alamat,
	}
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		record.CreatedBy = claims.UserID
	}

	created, err := h.repo.Create(r.Context(), record)
	if errors.Is(err, siswa.ErrDuplicateNIS) {
		respondError(w, http.StatusConflict, "NIS sudah terdaftar")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("create siswa failed")
		respondError(w, http.StatusInternalServerError, "Gagal menambah data siswa")
		return
	}

	respondData(w, http.StatusCreated, created)
}

// Update handles PUT /api/siswa/{id} with partial semantics.
func (h *SiswaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var in siswa.UpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}

	if errs := siswa.ValidateUpdate(in); len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	updated, err := h.repo.Update(r.Context(), id, in)
	switch {
	case errors.Is(err, siswa.ErrNotFound):
		respondError(w, http.StatusNotFound, "Siswa tidak ditemukan")
		return
	case errors.Is(err, siswa.ErrDuplicateNIS):
		respondError(w, http.StatusConflict, "NIS sudah terdaftar")
		return
	case err != nil:
		h.log.Error().Err(err).Str("id", id).Msg("update siswa failed")
		respondError(w, http.StatusInternalServerError, "Gagal mengubah data siswa")
		return
	}

	respondData(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/siswa/{id}.
func (h *SiswaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.repo.Delete(r.Context(), id)
	if errors.Is(err, siswa.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Siswa tidak ditemukan")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("delete siswa failed")
		respondError(w, http.StatusInternalServerError, "Gagal menghapus data siswa")
		return
	}

	respond(w, http.StatusOK, Response{Success: true, Message: "Siswa berhasil dihapus"})
}
