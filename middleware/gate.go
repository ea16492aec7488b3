// Package middleware is the request gate: every inbound request passes the
// security admission pipeline here before reaching a business handler, and
// protected routes additionally require a valid session token.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/sekolahku/siswa-api/internal/security"
)

// Gate applies the admission decision produced by the security checker.
type Gate struct {
	checker *security.Checker
	log     zerolog.Logger
}

// NewGate creates the admission middleware.
func NewGate(checker *security.Checker, log zerolog.Logger) *Gate {
	return &Gate{
		checker: checker,
		log:     log.With().Str("component", "gate").Logger(),
	}
}

// Handler wraps next with the security checks. Security response headers are
// stamped on every response, rejections included; rate-limit headers are
// attached whenever the limiter ran.
func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := g.checker.Check(r, r.URL.Path)

		for k, v := range security.SecurityHeaders() {
			w.Header().Set(k, v)
		}
		for k, v := range decision.Headers {
			w.Header().Set(k, v)
		}

		if !decision.Allowed {
			WriteError(w, decision.StatusCode, decision.Error, decision.Reason)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// WriteError writes the standard JSON rejection body. No internal detail
// beyond the reason string is ever exposed.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := map[string]interface{}{
		"success": false,
		"error":   errCode,
	}
	if message != "" {
		body["message"] = message
	}
	json.NewEncoder(w).Encode(body)
}
