package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/botmakerspc/Stars-magnat-bota/application"
	"github.com/botmakerspc/Stars-magnat-bota/infrastructure/observability"
	"github.com/botmakerspc/Stars-magnat-bota/models"
	"github.com/botmakerspc/Stars-magnat-bota/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type createTournamentRequest struct {
	Name          string               `json:"name"`
	StartTime     time.Time            `json:"start_time"`
	DurationDays  int                  `json:"duration_days"`
	PrizePlaces   int                  `json:"prize_places"`
	PrizeSchedule models.PrizeSchedule `json:"prize_schedule"`
	TrophyAssets  models.TrophyAssets  `json:"trophy_assets"`
	StartMessage  string               `json:"start_message"`
}

type endTournamentRequest struct {
	Name string `json:"name"`
}

type adjustRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

type winnerResponse struct {
	Rank        int                 `json:"rank"`
	AccountID   int64               `json:"account_id"`
	DisplayName string              `json:"display_name"`
	Score       int                 `json:"score"`
	Reward      decimal.NullDecimal `json:"reward"`
	AssetRef    string              `json:"asset_ref"`
}

type settlementResponse struct {
	Tournament     *models.Tournament `json:"tournament"`
	AlreadySettled bool               `json:"already_settled"`
	EndedEarly     bool               `json:"ended_early"`
	Winners        []winnerResponse   `json:"winners"`
}

func newSettlementResponse(result *service.SettlementResult) settlementResponse {
	resp := settlementResponse{
		Tournament:     result.Tournament,
		AlreadySettled: result.AlreadySettled,
		EndedEarly:     result.EndedEarly,
		Winners:        make([]winnerResponse, 0, len(result.Winners)),
	}
	for _, w := range result.Winners {
		resp.Winners = append(resp.Winners, winnerResponse{
			Rank:        w.Rank,
			AccountID:   w.AccountID,
			DisplayName: w.DisplayName,
			Score:       w.Score,
			Reward:      w.Reward,
			AssetRef:    w.AssetRef,
		})
	}
	return resp
}

// writeServiceError maps domain errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrTournamentNotFound), errors.Is(err, service.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTournament), errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrSelfReferral):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTournamentOverlap), errors.Is(err, service.ErrAlreadyReferred):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.WithField("path", r.URL.Path).Errorf("API request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

func (s *Server) handleCreateTournament(w http.ResponseWriter, r *http.Request) {
	var in createTournamentRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tournament, err := s.ops.CreateTournament(r.Context(), service.CreateTournamentParams{
		Name:          in.Name,
		StartTime:     in.StartTime,
		DurationDays:  in.DurationDays,
		PrizePlaces:   in.PrizePlaces,
		PrizeSchedule: in.PrizeSchedule,
		TrophyAssets:  in.TrophyAssets,
		StartMessage:  in.StartMessage,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tournament)
}

func (s *Server) handleListTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := s.ops.ListTournaments(r.Context(), queryLimit(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tournaments": tournaments})
}

func (s *Server) handleActiveTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := s.ops.ActiveTournaments(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tournaments": tournaments})
}

func (s *Server) handleGetTournament(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tournament id")
		return
	}
	tournament, err := s.ops.GetTournament(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament)
}

func (s *Server) handleEndTournament(w http.ResponseWriter, r *http.Request) {
	var in endTournamentRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.ops.EndTournament(r.Context(), in.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettlementResponse(result))
}

func (s *Server) handleSettleTournament(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tournament id")
		return
	}
	result, err := s.ops.SettleTournament(r.Context(), id, observability.TriggerManual)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettlementResponse(result))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tournament id")
		return
	}
	standings, err := s.ops.Leaderboard(r.Context(), id, queryLimit(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if standings == nil {
		standings = []*models.Standing{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tournament_id": id, "standings": standings})
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tournament id")
		return
	}
	accountID, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	rank, score, err := s.ops.RankOf(r.Context(), id, accountID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tournament_id": id,
		"account_id":    accountID,
		"rank":          rank,
		"score":         score,
	})
}

func (s *Server) handleReferral(w http.ResponseWriter, r *http.Request) {
	var in application.ReferralRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.NewAccountID == 0 || in.ReferrerID == 0 {
		writeError(w, http.StatusBadRequest, "new_account_id and referrer_id are required")
		return
	}

	result, err := s.ops.ProcessReferral(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := map[string]any{
		"new_account_id": result.NewAccountID,
		"referrer_id":    result.ReferrerID,
		"reward":         result.Reward,
		"referral_count": result.ReferralCount,
	}
	if result.Tournament != nil {
		resp["tournament_id"] = result.Tournament.ID
		resp["score"] = result.Score
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	balance, err := s.ops.GetBalance(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account_id": accountID, "balance": balance})
}

func (s *Server) handleTrophies(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	trophies, err := s.ops.ListTrophies(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if trophies == nil {
		trophies = []*models.Trophy{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"account_id": accountID, "trophies": trophies})
}

func (s *Server) handleTopAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ops.TopAccounts(r.Context(), queryLimit(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (s *Server) handleAdjust(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "account_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	var in adjustRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Amount.IsZero() {
		writeError(w, http.StatusBadRequest, "amount must be non-zero")
		return
	}

	account, err := s.ops.AdjustBalance(r.Context(), accountID, in.Amount, in.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}
