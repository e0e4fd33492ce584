package targets

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/Alazca/official-coach/internal/coach/uservector"
	"github.com/Alazca/official-coach/internal/metrics"
	"github.com/Alazca/official-coach/internal/telemetry/tracing"
	"github.com/Alazca/official-coach/pkg"
)

type Handler struct {
	generator *Generator
	metrics   *metrics.Manager
}

func NewHandler(generator *Generator, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		generator: generator,
		metrics:   metricsManager,
	}
}

type initializeRequest struct {
	GoalType         string             `json:"goal_type"`
	TargetDate       string             `json:"target_date"`
	Profile          string             `json:"profile"`
	CustomDimensions map[string]float64 `json:"custom_dimensions"`
	Description      string             `json:"description"`
}

func parseTargetDate(raw string) (time.Time, error) {
	if date, err := time.Parse(time.DateOnly, raw); err == nil {
		return date, nil
	}
	date, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: malformed date %q", ErrInvalidDate, raw)
	}
	return date, nil
}

func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.targets.initialize")
	defer span.End()

	userID, err := strconv.Atoi(mux.Vars(r)["userID"])
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("initialize goal, unmarshal json params: %s", err)
		http.Error(w, "initialize goal failed", http.StatusBadRequest)
		return
	}

	targetDate, err := parseTargetDate(req.TargetDate)
	if err != nil {
		http.Error(w, "invalid target date", http.StatusBadRequest)
		return
	}

	target, err := h.generator.Initialize(ctx, InitializeParams{
		UserID:           userID,
		GoalType:         GoalType(req.GoalType),
		Profile:          req.Profile,
		TargetDate:       targetDate,
		CustomDimensions: req.CustomDimensions,
		Description:      req.Description,
	})
	switch {
	case errors.Is(err, ErrInvalidDate):
		http.Error(w, "target date must be in the future", http.StatusBadRequest)
		return
	case errors.Is(err, uservector.ErrUserVectorNotFound):
		http.Error(w, "no user vector to base the goal on", http.StatusNotFound)
		return
	case err != nil:
		log.Errorf("initialize goal for user %d: %s", userID, err)
		http.Error(w, "initialize goal failed", http.StatusInternalServerError)
		return
	}
	h.metrics.CounterGoalsInitialized.Inc()

	targetJson, err := json.Marshal(target)
	if err != nil {
		log.Errorf("failed to marshal target: %s", err)
		http.Error(w, "initialize goal failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, targetJson, http.StatusCreated)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.targets.get")
	defer span.End()

	targetID, err := uuid.Parse(mux.Vars(r)["targetID"])
	if err != nil {
		http.Error(w, "invalid target id", http.StatusBadRequest)
		return
	}

	target, err := h.generator.Get(ctx, targetID)
	if errors.Is(err, ErrTargetNotFound) {
		http.Error(w, "target not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get target %s: %s", targetID, err)
		http.Error(w, "get target failed", http.StatusInternalServerError)
		return
	}

	targetJson, err := json.Marshal(target)
	if err != nil {
		log.Errorf("failed to marshal target: %s", err)
		http.Error(w, "get target failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, targetJson, http.StatusOK)
}

type updateRequest struct {
	CustomDimensions map[string]float64 `json:"custom_dimensions"`
	ExtendDays       int                `json:"extend_days"`
	Description      *string            `json:"description"`
	Status           *string            `json:"status"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.targets.update")
	defer span.End()

	targetID, err := uuid.Parse(mux.Vars(r)["targetID"])
	if err != nil {
		http.Error(w, "invalid target id", http.StatusBadRequest)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("update goal, unmarshal json params: %s", err)
		http.Error(w, "update goal failed", http.StatusBadRequest)
		return
	}

	params := UpdateParams{
		CustomDimensions: req.CustomDimensions,
		ExtendDays:       req.ExtendDays,
		Description:      req.Description,
	}
	if req.Status != nil {
		status := Status(*req.Status)
		params.Status = &status
	}

	target, err := h.generator.Update(ctx, targetID, params)
	switch {
	case errors.Is(err, ErrTargetNotFound):
		http.Error(w, "target not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrGoalFinalized):
		http.Error(w, "goal is finalized", http.StatusConflict)
		return
	case errors.Is(err, ErrInvalidDate):
		http.Error(w, "invalid target date", http.StatusBadRequest)
		return
	case errors.Is(err, ErrInvalidStatus):
		http.Error(w, "invalid goal status", http.StatusBadRequest)
		return
	case err != nil:
		log.Errorf("update target %s: %s", targetID, err)
		http.Error(w, "update goal failed", http.StatusInternalServerError)
		return
	}

	targetJson, err := json.Marshal(target)
	if err != nil {
		log.Errorf("failed to marshal target: %s", err)
		http.Error(w, "update goal failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, targetJson, http.StatusOK)
}

func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.targets.archive")
	defer span.End()

	userID, err := strconv.Atoi(mux.Vars(r)["userID"])
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	archived, err := h.generator.ArchiveCompleted(ctx, userID)
	if err != nil && archived == 0 {
		log.Errorf("archive goals for user %d: %s", userID, err)
		http.Error(w, "archive goals failed", http.StatusInternalServerError)
		return
	}
	if archived > 0 {
		h.metrics.CounterGoalsArchived.Add(float64(archived))
	}
	if err != nil {
		// partial failure, report the goals that did archive
		failed := len(multierr.Errors(err))
		log.Errorf("archive goals for user %d, %d goal(s) failed: %s", userID, failed, err)
		pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"archived":%d,"failed":%d}`, archived, failed))
		return
	}

	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"archived":%d}`, archived))
}
