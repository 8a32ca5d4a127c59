package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/application"
	"github.com/botmakerspc/Stars-magnat-bota/models"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Operations is the slice of the application layer exposed over HTTP
type Operations interface {
	CreateTournament(ctx context.Context, params service.CreateTournamentParams) (*models.Tournament, error)
	ListTournaments(ctx context.Context, limit int) ([]*models.Tournament, error)
	ActiveTournaments(ctx context.Context) ([]*models.Tournament, error)
	GetTournament(ctx context.Context, tournamentID int64) (*models.Tournament, error)
	EndTournament(ctx context.Context, name string) (*service.SettlementResult, error)
	SettleTournament(ctx context.Context, tournamentID int64, trigger string) (*service.SettlementResult, error)
	Leaderboard(ctx context.Context, tournamentID int64, limit int) ([]*models.Standing, error)
	RankOf(ctx context.Context, tournamentID, accountID int64) (int, int, error)
	ProcessReferral(ctx context.Context, req application.ReferralRequest) (*service.ReferralResult, error)
	GetBalance(ctx context.Context, accountID int64) (decimal.Decimal, error)
	ListTrophies(ctx context.Context, accountID int64) ([]*models.Trophy, error)
	TopAccounts(ctx context.Context, limit int) ([]*models.Account, error)
	AdjustBalance(ctx context.Context, accountID int64, amount decimal.Decimal, reason string) (*models.Account, error)
}

// Server is the operator HTTP API
type Server struct {
	ops   Operations
	token string
	mux   *chi.Mux
}

// New builds the router. An empty token disables every /v1 route.
func New(ops Operations, token string) *Server {
	s := &Server{
		ops:   ops,
		token: token,
		mux:   chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/tournaments", func(r chi.Router) {
			r.Post("/", s.handleCreateTournament)
			r.Get("/", s.handleListTournaments)
			r.Get("/active", s.handleActiveTournaments)
			r.Post("/end", s.handleEndTournament)
			r.Get("/{id}", s.handleGetTournament)
			r.Post("/{id}/settle", s.handleSettleTournament)
			r.Get("/{id}/leaderboard", s.handleLeaderboard)
			r.Get("/{id}/rank/{account_id}", s.handleRank)
		})

		r.Post("/referrals", s.handleReferral)

		r.Get("/accounts/top", s.handleTopAccounts)
		r.Route("/accounts/{account_id}", func(r chi.Router) {
			r.Get("/balance", s.handleBalance)
			r.Get("/trophies", s.handleTrophies)
			r.Post("/adjust", s.handleAdjust)
		})
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			writeError(w, http.StatusForbidden, "admin api is disabled")
			return
		}
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(started).String(),
		}).Debug("HTTP request")
	})
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
