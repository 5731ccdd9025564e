package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bourse/models"
	"bourse/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Server exposes the competition over HTTP
type Server struct {
	sim             service.SimulationService
	trading         service.TradingService
	leaderboard     service.LeaderboardService
	scheduler       *service.Scheduler
	uowFactory      service.UnitOfWorkFactory
	startingBalance decimal.Decimal
	mux             *chi.Mux
}

// New creates the HTTP server and mounts all routes. startingBalance is
// the cash every newly registered participant begins with.
func New(sim service.SimulationService, trading service.TradingService, leaderboard service.LeaderboardService, scheduler *service.Scheduler, uowFactory service.UnitOfWorkFactory, startingBalance decimal.Decimal) *Server {
	s := &Server{
		sim:             sim,
		trading:         trading,
		leaderboard:     leaderboard,
		scheduler:       scheduler,
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
		mux:             chi.NewRouter(),
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
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/simulation", s.handleSimulationState)
		r.Post("/simulation/start", s.handleStart)
		r.Post("/simulation/advance", s.handleAdvance)
		r.Post("/simulation/pause", s.handlePause)
		r.Post("/simulation/resume", s.handleResume)
		r.Post("/simulation/end", s.handleEnd)
		r.Post("/simulation/reset", s.handleReset)

		r.Get("/scheduler", s.handleSchedulerStatus)
		r.Put("/scheduler", s.handleSchedulerConfigure)

		r.Get("/companies", s.handleCompanies)
		r.Get("/prices", s.handleActivePrices)

		r.Post("/participants", s.handleCreateParticipant)
		r.Post("/participants/{id}/trades", s.handleTrades)
		r.Get("/participants/{id}/portfolio", s.handlePortfolio)
		r.Get("/participants/{id}/transactions", s.handleTransactions)
		r.Get("/participants/{id}/interest", s.handleInterestPayments)

		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

func (s *Server) handleSimulationState(w http.ResponseWriter, r *http.Request) {
	dayControl, err := s.sim.GetDayControl(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if dayControl == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"state":       models.SimulationStateNotStarted,
			"current_day": 0,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state":       dayControl.State(),
		"current_day": dayControl.CurrentDay,
		"total_days":  dayControl.TotalDays,
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	day, err := s.sim.StartSimulation(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.scheduler.ResetTimer()
	writeJSON(w, http.StatusOK, map[string]any{"current_day": day})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	day, err := s.sim.AdvanceDay(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.scheduler.ResetTimer()
	writeJSON(w, http.StatusOK, map[string]any{"current_day": day})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.Pause(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.scheduler.Status())
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.Resume(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.scheduler.Status())
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	if err := s.sim.EndSimulation(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	s.scheduler.Disable(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"state": models.SimulationStateEnded})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirmation string `json:"confirmation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.sim.ResetSimulation(r.Context(), req.Confirmation); err != nil {
		writeServiceError(w, err)
		return
	}
	s.scheduler.ResetTimer()
	writeJSON(w, http.StatusOK, map[string]any{"state": models.SimulationStateNotStarted})
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.scheduler.Status())
}

func (s *Server) handleSchedulerConfigure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled         bool `json:"enabled"`
		IntervalMinutes int  `json:"interval_minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status, err := s.scheduler.Configure(r.Context(), req.Enabled, req.IntervalMinutes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer uow.Rollback()

	companies, err := uow.CompanyRepository().GetAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := uow.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"companies": companies})
}

// handleActivePrices returns the prices visible for the current day
func (s *Server) handleActivePrices(w http.ResponseWriter, r *http.Request) {
	dayControl, err := s.sim.GetDayControl(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if dayControl == nil || dayControl.CurrentDay == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"day": 0, "prices": []*models.StockPrice{}})
		return
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer uow.Rollback()

	prices, err := uow.StockPriceRepository().GetActiveForDay(r.Context(), dayControl.CurrentDay)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := uow.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"day": dayControl.CurrentDay, "prices": prices})
}

// handleCreateParticipant registers a competitor with the configured
// starting balance
func (s *Server) handleCreateParticipant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		BrokerID *int64 `json:"broker_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer uow.Rollback()

	participant, err := uow.ParticipantRepository().Create(r.Context(), req.Name, req.BrokerID, s.startingBalance)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := uow.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, participant)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	participantID, err := participantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Orders []models.TradeOrder `json:"orders"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.trading.ExecuteTrades(r.Context(), participantID, req.Orders)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	participantID, err := participantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := s.leaderboard.GetPortfolio(r.Context(), participantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	participantID, err := participantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := queryLimit(r, 50)

	uow := s.uowFactory.Create()
	if err := uow.Begin(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer uow.Rollback()

	transactions, err := uow.TransactionRepository().GetByParticipant(r.Context(), participantID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := uow.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

func (s *Server) handleInterestPayments(w http.ResponseWriter, r *http.Request) {
	participantID, err := participantIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := queryLimit(r, 50)

	uow := s.uowFactory.Create()
	if err := uow.Begin(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer uow.Rollback()

	payments, err := uow.InterestPaymentRepository().GetByParticipant(r.Context(), participantID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := uow.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"interest_payments": payments})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 0)
	entries, err := s.leaderboard.GetLeaderboard(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

func participantIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid participant id")
	}
	return id, nil
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return fallback
	}
	return limit
}

// writeServiceError maps the service error taxonomy onto HTTP codes
func writeServiceError(w http.ResponseWriter, err error) {
	var stockErr *service.InvalidStockError
	var priceErr *service.PriceUnavailableError
	var sharesErr *service.InsufficientSharesError
	var balanceErr *service.InsufficientBalanceError

	switch {
	case errors.Is(err, service.ErrNotConfigured),
		errors.Is(err, service.ErrParticipantNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrBadConfirmation):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAlreadyStarted),
		errors.Is(err, service.ErrNotActive),
		errors.Is(err, service.ErrLimitReached),
		errors.Is(err, service.ErrDayConflict),
		errors.Is(err, service.ErrTradingClosed),
		errors.Is(err, service.ErrDailyLimitReached):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &stockErr),
		errors.As(err, &priceErr),
		errors.As(err, &sharesErr),
		errors.As(err, &balanceErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.WithError(err).Error("Unhandled request error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
