package progress

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

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
	calculator *Calculator
	metrics    *metrics.Manager
}

func NewHandler(calculator *Calculator, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		calculator: calculator,
		metrics:    metricsManager,
	}
}

func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.calculate")
	defer span.End()

	vars := mux.Vars(r)
	userID, err := strconv.Atoi(vars["userID"])
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	targetID, err := uuid.Parse(vars["targetID"])
	if err != nil {
		http.Error(w, "invalid target id", http.StatusBadRequest)
		return
	}

	defer func(begin time.Time) {
		h.metrics.HistProgressCalcDuration.Observe(time.Since(begin).Seconds())
	}(time.Now())

	report, err := h.calculator.Calculate(ctx, userID, targetID)
	switch {
	case errors.Is(err, targets.ErrTargetNotFound):
		http.Error(w, "target not found", http.StatusNotFound)
		return
	case errors.Is(err, uservector.ErrUserVectorNotFound):
		http.Error(w, "user vector not found", http.StatusNotFound)
		return
	case err != nil:
		log.Errorf("calculate progress for user %d, target %s: %s", userID, targetID, err)
		http.Error(w, "calculate progress failed", http.StatusInternalServerError)
		return
	}

	reportJson, err := json.Marshal(report)
	if err != nil {
		log.Errorf("failed to marshal progress report: %s", err)
		http.Error(w, "calculate progress failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, reportJson, http.StatusOK)
}

func (h *Handler) HandleCurrentMilestone(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.currentMilestone")
	defer span.End()

	targetID, err := uuid.Parse(mux.Vars(r)["targetID"])
	if err != nil {
		http.Error(w, "invalid target id", http.StatusBadRequest)
		return
	}

	milestone, err := h.calculator.CurrentMilestone(ctx, targetID)
	if errors.Is(err, targets.ErrTargetNotFound) {
		http.Error(w, "target not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("current milestone for target %s: %s", targetID, err)
		http.Error(w, "current milestone failed", http.StatusInternalServerError)
		return
	}

	milestoneJson, err := json.Marshal(milestone)
	if err != nil {
		log.Errorf("failed to marshal milestone: %s", err)
		http.Error(w, "current milestone failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, milestoneJson, http.StatusOK)
}
