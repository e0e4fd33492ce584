package recommend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/Alazca/official-coach/internal/coach/targets"
	"github.com/Alazca/official-coach/internal/coach/uservector"
	"github.com/Alazca/official-coach/internal/metrics"
	"github.com/Alazca/official-coach/internal/telemetry/tracing"
	"github.com/Alazca/official-coach/pkg"
)

type Handler struct {
	engine  *Engine
	metrics *metrics.Manager
}

func NewHandler(engine *Engine, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		engine:  engine,
		metrics: metricsManager,
	}
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.recommend.generate")
	defer span.End()

	userID, err := strconv.Atoi(mux.Vars(r)["userID"])
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	recommendations, err := h.engine.Generate(ctx, userID, r.URL.Query().Get("profile"))
	if errors.Is(err, uservector.ErrUserVectorNotFound) {
		http.Error(w, "user vector not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("generate recommendations for user %d: %s", userID, err)
		http.Error(w, "generate recommendations failed", http.StatusInternalServerError)
		return
	}
	h.metrics.CounterRecommendations.Inc()

	recommendationsJson, err := json.Marshal(recommendations)
	if err != nil {
		log.Errorf("failed to marshal recommendations: %s", err)
		http.Error(w, "generate recommendations failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, recommendationsJson, http.StatusOK)
}

type createGoalRequest struct {
	DurationDays int    `json:"duration_days"`
	Profile      string `json:"profile"`
}

func (h *Handler) HandleCreateGoal(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.recommend.createGoal")
	defer span.End()

	vars := mux.Vars(r)
	userID, err := strconv.Atoi(vars["userID"])
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	recommendationID, err := uuid.Parse(vars["recommendationID"])
	if err != nil {
		http.Error(w, "invalid recommendation id", http.StatusBadRequest)
		return
	}

	var req createGoalRequest
	// empty body means recommended defaults
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("create goal from recommendation, no json params: %s", err)
	}

	target, err := h.engine.CreateGoal(ctx, userID, req.Profile, recommendationID, req.DurationDays)
	switch {
	case errors.Is(err, ErrRecommendationNotFound):
		http.Error(w, "recommendation not found", http.StatusNotFound)
		return
	case errors.Is(err, uservector.ErrUserVectorNotFound):
		http.Error(w, "user vector not found", http.StatusNotFound)
		return
	case errors.Is(err, targets.ErrInvalidDate):
		http.Error(w, "invalid goal duration", http.StatusBadRequest)
		return
	case err != nil:
		log.Errorf("create goal from recommendation %s: %s", recommendationID, err)
		http.Error(w, "create goal failed", http.StatusInternalServerError)
		return
	}
	h.metrics.CounterGoalsInitialized.Inc()

	targetJson, err := json.Marshal(target)
	if err != nil {
		log.Errorf("failed to marshal target: %s", err)
		http.Error(w, "create goal failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, targetJson, http.StatusCreated)
}
