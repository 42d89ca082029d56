package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/devhub-tools/wikibot/internal/analytics"
	"github.com/devhub-tools/wikibot/internal/bot"
	"github.com/devhub-tools/wikibot/internal/config"
	"github.com/devhub-tools/wikibot/internal/corpus"
	"github.com/devhub-tools/wikibot/internal/devhub"
	"github.com/devhub-tools/wikibot/internal/logger"
	"github.com/devhub-tools/wikibot/internal/session"
)

func main() {
	_ = godotenv.Load()

	log := logger.New("gateway")
	cfg, err := config.LoadGateway()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Both corpora must be resident before the first command is accepted.
	loadCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	snap, err := corpus.Load(loadCtx, nil, cfg.WikiSourceURL, cfg.RSASourceURL)
	cancel()
	if err != nil {
		log.Error("load corpora", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("corpora loaded",
		slog.Int("wiki_categories", len(snap.Wiki)),
		slog.Int("rsa_articles", len(snap.Articles)),
	)

	lookup := devhub.New(cfg.SearchAPIPrefix, cfg.SearchAPISuffix, log)
	tracker := session.NewTracker(cfg.SessionCapacity, cfg.SessionTTL)

	publisher := analytics.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	defer publisher.Close()

	var store *analytics.Store
	if cfg.ElasticsearchAddr != "" {
		store, err = analytics.NewStore(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
		if err != nil {
			log.Error("init analytics store", slog.Any("err", err))
			os.Exit(1)
		}
	}

	svc, err := bot.New(log, snap, nil, lookup, tracker, publisher, cfg.HubBaseURL)
	if err != nil {
		log.Error("init command service", slog.Any("err", err))
		os.Exit(1)
	}

	srv := &server{log: log, cfg: cfg, svc: svc, store: store}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(srv.requireToken)
		r.Post("/commands/wiki", srv.handleWiki)
		r.Post("/commands/rsa", srv.handleRSA)
		r.Post("/commands/select", srv.handleSelect)
		r.Get("/stats/top-queries", srv.handleTopQueries)
	})

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	go func() {
		log.Info("gateway starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

type server struct {
	log   *slog.Logger
	cfg   *config.Gateway
	svc   *bot.Service
	store *analytics.Store
}

type errorResponse struct {
	Error string `json:"error"`
}

type wikiRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
	Page   int    `json:"page"`
}

type rsaRequest struct {
	UserID string `json:"user_id"`
	Field  string `json:"field"`
	Query  string `json:"query"`
	Page   int    `json:"page"`
}

type selectRequest struct {
	UserID string `json:"user_id"`
	Target string `json:"target"`
	Index  int    `json:"index"`
}

func (s *server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token != s.cfg.Token {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleWiki(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var req wikiRequest
	if !decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id is required"})
		return
	}

	writeJSON(w, http.StatusOK, s.svc.HandleWiki(ctx, req.UserID, req.Query, req.Page))
}

func (s *server) handleRSA(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var req rsaRequest
	if !decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id is required"})
		return
	}

	writeJSON(w, http.StatusOK, s.svc.HandleRSA(ctx, req.UserID, req.Field, req.Query, req.Page))
}

func (s *server) handleSelect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var req selectRequest
	if !decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id is required"})
		return
	}

	writeJSON(w, http.StatusOK, s.svc.HandleSelect(ctx, req.UserID, req.Target, req.Index))
}

func (s *server) handleTopQueries(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "analytics store not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	size := 10
	if raw := r.URL.Query().Get("size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			size = parsed
		}
	}

	counts, err := s.store.TopQueries(ctx, size)
	if err != nil {
		s.log.Warn("top queries", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, counts)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// nothing better to do
	}
}
