package uservector

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/Alazca/official-coach/internal/metrics"
	"github.com/Alazca/official-coach/internal/telemetry/tracing"
	"github.com/Alazca/official-coach/pkg"
)

type Handler struct {
	builder *Builder
	metrics *metrics.Manager

	defaultLookbackDays int
}

func NewHandler(builder *Builder, metricsManager *metrics.Manager, defaultLookbackDays int) *Handler {
	return &Handler{
		builder:             builder,
		metrics:             metricsManager,
		defaultLookbackDays: defaultLookbackDays,
	}
}

type buildRequest struct {
	Profile string `json:"profile"`
	Days    int    `json:"days"`
}

func (h *Handler) HandleBuild(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.uservector.build")
	defer span.End()

	userID, err := strconv.Atoi(mux.Vars(r)["userID"])
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	var req buildRequest
	// empty body means defaults
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("build vector, no json params: %s", err)
	}
	if req.Days <= 0 {
		req.Days = h.defaultLookbackDays
	}

	uv, err := h.builder.Build(ctx, userID, req.Profile, req.Days)
	if err != nil {
		log.Errorf("build vector for user %d: %s", userID, err)
		http.Error(w, "build vector failed", http.StatusInternalServerError)
		return
	}
	h.metrics.CounterVectorBuilds.Inc()

	uvJson, err := json.Marshal(uv)
	if err != nil {
		log.Errorf("failed to marshal user vector: %s", err)
		http.Error(w, "build vector failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, uvJson, http.StatusCreated)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.uservector.get")
	defer span.End()

	userID, err := strconv.Atoi(mux.Vars(r)["userID"])
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	uv, err := h.builder.Get(ctx, userID, r.URL.Query().Get("profile"))
	if errors.Is(err, ErrUserVectorNotFound) {
		http.Error(w, "user vector not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get vector for user %d: %s", userID, err)
		http.Error(w, "get vector failed", http.StatusInternalServerError)
		return
	}

	uvJson, err := json.Marshal(uv)
	if err != nil {
		log.Errorf("failed to marshal user vector: %s", err)
		http.Error(w, "get vector failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, uvJson, http.StatusOK)
}

func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.uservector.snapshot")
	defer span.End()

	userID, err := strconv.Atoi(mux.Vars(r)["userID"])
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	snapshot, err := h.builder.Snapshot(ctx, userID, r.URL.Query().Get("profile"))
	if errors.Is(err, ErrUserVectorNotFound) {
		http.Error(w, "user vector not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("snapshot vector for user %d: %s", userID, err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	h.metrics.CounterVectorSnapshots.Inc()

	snapshotJson, err := json.Marshal(snapshot)
	if err != nil {
		log.Errorf("failed to marshal snapshot: %s", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, snapshotJson, http.StatusCreated)
}

func (h *Handler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.uservector.trends")
	defer span.End()

	userID, err := strconv.Atoi(mux.Vars(r)["userID"])
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	days := 30
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		days, err = strconv.Atoi(daysParam)
		if err != nil || days <= 0 {
			http.Error(w, "invalid days param", http.StatusBadRequest)
			return
		}
	}

	report, err := h.builder.Trend(ctx, userID, r.URL.Query().Get("profile"), days)
	if err != nil {
		log.Errorf("trend for user %d: %s", userID, err)
		http.Error(w, "trend analysis failed", http.StatusInternalServerError)
		return
	}

	reportJson, err := json.Marshal(report)
	if err != nil {
		log.Errorf("failed to marshal trend report: %s", err)
		http.Error(w, "trend analysis failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, reportJson, http.StatusOK)
}
