package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/Alazca/official-coach/internal/coach/progress"
	"github.com/Alazca/official-coach/internal/coach/recommend"
	"github.com/Alazca/official-coach/internal/coach/scalars"
	"github.com/Alazca/official-coach/internal/coach/targets"
	"github.com/Alazca/official-coach/internal/coach/users"
	"github.com/Alazca/official-coach/internal/coach/uservector"
	"github.com/Alazca/official-coach/internal/coach/workouts"
	"github.com/Alazca/official-coach/internal/config"
	"github.com/Alazca/official-coach/internal/db"
	"github.com/Alazca/official-coach/internal/metrics"
	"github.com/Alazca/official-coach/internal/middleware"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config *config.Config
	dbPool *pgxpool.Pool

	vectorBuilder      *uservector.Builder
	goalGenerator      *targets.Generator
	progressCalculator *progress.Calculator
	recommendEngine    *recommend.Engine

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
}

type NewServerParams struct {
	Config *config.Config
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbParams := db.NewDBPoolParams{
		DBHost:         params.Config.DBHost,
		DBPort:         params.Config.DBPort,
		DBName:         params.Config.DBName,
		TracingEnabled: params.Config.TracingEnabled,
	}

	dbPool, err := db.NewDBPool(ctx, dbParams)
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	if err := db.RunMigrations(ctx, dbParams); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	promRegistry := metrics.SetupPrometheus()
	metricsNamespace := params.Config.MetricsNamespace
	if metricsNamespace == "" {
		metricsNamespace = "coach"
	}
	metricsSubsystem := params.Config.MetricsSubsystem
	if metricsSubsystem == "" {
		metricsSubsystem = "main"
	}
	metricsManager := metrics.NewManager(metricsNamespace, metricsSubsystem, promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	engineCfg := params.Config.Engine.WithDefaults()

	workoutsRepo := workouts.NewRepo(dbPool)
	usersRepo := users.NewRepo(dbPool)
	vectorRepo := uservector.NewRepo(dbPool)
	targetsRepo := targets.NewRepo(dbPool)

	scalarsCfg := scalars.DefaultConfig()
	scalarsCfg.StrengthWeight = engineCfg.StrengthWeight
	scalarsCfg.ActivityWeight = engineCfg.ActivityWeight
	computer, err := scalars.NewComputer(scalarsCfg, workoutsRepo, usersRepo)
	if err != nil {
		return nil, fmt.Errorf("new scalars computer: %w", err)
	}

	vectorBuilder := uservector.NewBuilder(computer, vectorRepo)
	goalGenerator := targets.NewGenerator(targetsRepo, vectorRepo, usersRepo)
	progressCalculator := progress.NewCalculator(targetsRepo, vectorRepo)
	goalGenerator.SetProgressReporter(progressCalculator)

	recommendEngine := recommend.NewEngine(
		vectorRepo,
		goalGenerator,
		engineCfg.RecommendationCacheSizeBytes,
		time.Duration(engineCfg.RecommendationCacheTTLSeconds)*time.Second,
	)

	return &Server{
		config: params.Config,
		dbPool: dbPool,

		vectorBuilder:      vectorBuilder,
		goalGenerator:      goalGenerator,
		progressCalculator: progressCalculator,
		recommendEngine:    recommendEngine,

		metricsManager: metricsManager,
		promRegistry:   promRegistry,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()

	lookbackDays := s.config.Engine.WithDefaults().LookbackDays

	vectorHandler := uservector.NewHandler(s.vectorBuilder, s.metricsManager, lookbackDays)
	r.HandleFunc("/vector/{userID}/build", vectorHandler.HandleBuild).Methods("POST", "OPTIONS").Name("build-vector")
	r.HandleFunc("/vector/{userID}", vectorHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-vector")
	r.HandleFunc("/vector/{userID}/snapshot", vectorHandler.HandleSnapshot).Methods("POST", "OPTIONS").Name("snapshot-vector")
	r.HandleFunc("/vector/{userID}/trends", vectorHandler.HandleTrends).Methods("GET", "OPTIONS").Name("vector-trends")

	goalsHandler := targets.NewHandler(s.goalGenerator, s.metricsManager)
	r.HandleFunc("/goals/{userID}/initialize", goalsHandler.HandleInitialize).Methods("POST", "OPTIONS").Name("initialize-goal")
	r.HandleFunc("/goals/target/{targetID}", goalsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-goal")
	r.HandleFunc("/goals/target/{targetID}", goalsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-goal")
	r.HandleFunc("/goals/{userID}/archive", goalsHandler.HandleArchive).Methods("POST", "OPTIONS").Name("archive-goals")

	progressHandler := progress.NewHandler(s.progressCalculator, s.metricsManager)
	r.HandleFunc("/progress/milestone/{targetID}", progressHandler.HandleCurrentMilestone).Methods("GET", "OPTIONS").Name("current-milestone")
	r.HandleFunc("/progress/{userID}/{targetID}", progressHandler.HandleCalculate).Methods("GET", "OPTIONS").Name("calculate-progress")

	recommendHandler := recommend.NewHandler(s.recommendEngine, s.metricsManager)
	r.HandleFunc("/recommendations/{userID}", recommendHandler.HandleGenerate).Methods("GET", "OPTIONS").Name("get-recommendations")
	r.HandleFunc("/recommendations/{userID}/goal/{recommendationID}", recommendHandler.HandleCreateGoal).Methods("POST", "OPTIONS").Name("goal-from-recommendation")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	if s.config.HandlerRequestLog {
		r.Use(middleware.LogRequest())
	}
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(host, strconv.Itoa(s.config.PrometheusPort))
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
