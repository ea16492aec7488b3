package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sekolahku/siswa-api/api"
	"github.com/sekolahku/siswa-api/internal/auth"
	"github.com/sekolahku/siswa-api/internal/config"
	"github.com/sekolahku/siswa-api/internal/pattern"
	"github.com/sekolahku/siswa-api/internal/ratelimit"
	"github.com/sekolahku/siswa-api/internal/security"
	"github.com/sekolahku/siswa-api/internal/siswa"
	"github.com/sekolahku/siswa-api/internal/user"
	"github.com/sekolahku/siswa-api/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := newLogger(cfg.Server)

	var policy *config.Policy
	if path := os.Getenv("POLICY_FILE"); path != "" {
		policy, err = config.LoadPolicyFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to load policy file")
		}
		log.Info().Str("path", path).Msg("policy file loaded")
	}
	rateCfg := policy.RateLimitConfig("minute")
	patternCfg := policy.PatternConfig()

	// Backend selection: Redis when configured and reachable, in-process
	// otherwise. An unreachable Redis degrades to the memory limiter rather
	// than refusing to start.
	memLimiter := ratelimit.NewMemoryLimiter()
	var base ratelimit.Limiter = memLimiter
	var redisClient *redis.Client
	hasRedis := false

	if cfg.Redis.Configured() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rl := ratelimit.NewRedisLimiter(redisClient)

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rl.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, using in-memory rate limiter")
			redisClient.Close()
			redisClient = nil
		} else {
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
			base = rl
			hasRedis = true
		}
		cancel()
	} else {
		log.Info().Msg("redis not configured, using in-memory rate limiter")
	}

	limiter := ratelimit.NewFailover(base, 0, log)
	detector := pattern.New(patternCfg)

	checker := security.NewChecker(security.Options{
		Enabled:          cfg.Security.Enabled,
		RateLimitEnabled: cfg.Security.RateLimitEnabled,
		PatternEnabled:   cfg.Security.PatternEnabled,
		UserAgentEnabled: cfg.Security.UserAgentEnabled,
		SkipLocalhost:    cfg.Security.SkipLocalhost,
		Development:      cfg.Server.IsDevelopment(),
		WhitelistedIPs:   cfg.Security.WhitelistedIPs,
		BlacklistedIPs:   cfg.Security.BlacklistedIPs,
	}, limiter, rateCfg, detector, log)

	gate := middleware.NewGate(checker, log)
	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var siswaRepo siswa.Repository
	var userRepo user.Repository
	if hasRedis {
		siswaRepo = siswa.NewRedisRepository(redisClient)
		userRepo = user.NewRedisRepository(redisClient)
	} else {
		siswaRepo = siswa.NewMemoryRepository()
		userRepo = user.NewMemoryRepository()
	}

	authHandler := api.NewAuthHandler(userRepo, tokens, log)
	siswaHandler := api.NewSiswaHandler(siswaRepo, log)
	statusHandler := api.NewSecurityStatusHandler(cfg.Security, limiter, rateCfg, detector, cfg.Server.Env, hasRedis, log)

	r := mux.NewRouter()
	r.Use(middleware.RequestLog(log))
	r.Use(gate.Handler)

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	r.HandleFunc("/api/security/status", statusHandler.Status).Methods(http.MethodGet)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuth(tokens))
	protected.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/siswa", siswaHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/siswa", siswaHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/siswa/{id}", siswaHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/siswa/{id}", siswaHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/siswa/{id}", siswaHandler.Delete).Methods(http.MethodDelete)

	stopSweeper := startSweeper(memLimiter, time.Minute)
	defer stopSweeper()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Env).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	if redisClient != nil {
		redisClient.Close()
	}
}

func newLogger(server config.ServerConfig) zerolog.Logger {
	if server.IsDevelopment() {
		return zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// startSweeper periodically drops expired in-memory rate windows. Returns a
// stop function.
func startSweeper(limiter *ratelimit.MemoryLimiter, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				limiter.Sweep()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "siswa-api",
	})
}
