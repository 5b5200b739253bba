package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/provider-verify/internal/credibility"
	"github.com/sells-group/provider-verify/internal/model"
	"github.com/sells-group/provider-verify/internal/store"
	"github.com/sells-group/provider-verify/internal/verify"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the verification HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env, cfg.Server.RatePerSecond, cfg.Server.RateBurst),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter wires the HTTP surface around a fully initialized engine.
func newRouter(env *engineEnv, rps float64, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(rateLimit(rps, burst))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/verify", func(w http.ResponseWriter, req *http.Request) {
		var in batchRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if in.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		listed := model.Listed{
			Name:          in.Name,
			ListedAddress: in.ListedAddress,
			ListedPhone:   in.ListedPhone,
		}
		result, err := env.Service.Verify(req.Context(), listed, in.Candidates)
		if err != nil {
			zap.L().Error("verify request failed", zap.String("provider", in.Name), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "verification failed")
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	r.Post("/resolve", func(w http.ResponseWriter, req *http.Request) {
		var in batchRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		listed := model.Listed{
			Name:          in.Name,
			ListedAddress: in.ListedAddress,
			ListedPhone:   in.ListedPhone,
		}
		match, err := env.Learned.Resolve(req.Context(), listed, in.Candidates)
		if err != nil {
			zap.L().Error("resolve request failed", zap.String("provider", in.Name), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "resolution failed")
			return
		}
		writeJSON(w, http.StatusOK, match)
	})

	r.Post("/feedback", func(w http.ResponseWriter, req *http.Request) {
		var fb verify.Feedback
		if err := json.NewDecoder(req.Body).Decode(&fb); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		out, err := env.Service.ApplyFeedback(req.Context(), fb)
		if err != nil {
			if errors.Is(err, credibility.ErrInvalidDecision) {
				writeError(w, http.StatusBadRequest, "decision must be approve or reject")
				return
			}
			zap.L().Error("feedback request failed", zap.String("provider", fb.ProviderName), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "feedback failed")
			return
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Get("/history", func(w http.ResponseWriter, req *http.Request) {
		histories, err := env.Service.Histories(req.Context())
		if err != nil {
			zap.L().Error("history list failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "history lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, histories)
	})

	r.Get("/history/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		h, err := env.Service.History(req.Context(), name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "no history for provider")
				return
			}
			zap.L().Error("history lookup failed", zap.String("provider", name), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "history lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, h)
	})

	r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		runs, err := env.Service.Runs(req.Context(), req.URL.Query().Get("provider"), limit)
		if err != nil {
			zap.L().Error("runs list failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "runs lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Get("/weights", func(w http.ResponseWriter, req *http.Request) {
		weights, err := env.Credibility.All(req.Context())
		if err != nil {
			zap.L().Error("weights list failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "weights lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, weights)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// rateLimit caps request throughput per client IP.
func rateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		// Crude bound on map growth for long-running servers.
		if len(limiters) > 10000 {
			limiters = make(map[string]*rate.Limiter)
		}
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[ip] = l
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiterFor(req.RemoteAddr).Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
