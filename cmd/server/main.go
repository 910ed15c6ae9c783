package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"

	"pneumonet/internal/cache"
	"pneumonet/internal/classify"
	"pneumonet/internal/config"
	"pneumonet/internal/handler"
	"pneumonet/internal/inference"
	"pneumonet/internal/logging"
	"pneumonet/internal/metrics"
	"pneumonet/internal/middleware"
)

const serviceName = "pneumonet"

func main() {
	// Parse command-line flags
	port := flag.Int("port", 0, "HTTP server port (default: 8080)")
	modelPath := flag.String("model", "", "Path to ONNX model file (default: pneumonia_model.onnx)")
	redisAddr := flag.String("redis", "", "Redis address for the prediction cache (default: disabled)")
	metricsPort := flag.Int("metrics", 0, "Prometheus metrics port (default: 9100)")
	configFile := flag.String("config", "", "Path to config file (optional)")
	threshold := flag.Float64("threshold", -1, "Classification threshold in [0,1] (default: 0.5)")
	useMock := flag.Bool("mock", false, "Use mock inference engine (for testing)")
	flag.Parse()

	// Load configuration from file and environment
	var cfg *config.Config
	var err error
	if *configFile != "" {
		cfg, err = config.LoadWithConfigFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Override with flags if provided
	if *port > 0 {
		cfg.Port = *port
	}
	if *modelPath != "" {
		cfg.Model = *modelPath
	}
	if *redisAddr != "" {
		cfg.Redis = *redisAddr
	}
	if *metricsPort > 0 {
		cfg.MetricsPort = *metricsPort
	}
	if *threshold >= 0 {
		cfg.Threshold = *threshold
	}
	if *useMock {
		cfg.UseMockInference = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Init(cfg.Mode); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()
	log := logging.Logger

	log.Info("starting pneumonet",
		zap.Int("port", cfg.Port),
		zap.Int("metrics_port", cfg.MetricsPort),
		zap.String("model", cfg.Model),
		zap.String("redis", cfg.Redis),
		zap.Float64("threshold", cfg.Threshold),
		zap.Bool("otel", cfg.OTELEnabled))

	// Initialize OpenTelemetry tracer
	var tracerShutdown func(context.Context) error
	if cfg.OTELEnabled {
		tracerShutdown, err = initTracer(cfg.OTELEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracer", zap.Error(err))
		} else {
			log.Info("OpenTelemetry tracing enabled", zap.String("endpoint", cfg.OTELEndpoint))
		}
	}

	// Load inference engine
	engine := loadEngine(cfg)
	if engine != nil {
		defer engine.Close()
	}

	// Initialize Redis prediction cache (optional)
	var cacheClient *cache.Cache
	if cfg.Redis != "" {
		log.Info("connecting to Redis", zap.String("addr", cfg.Redis))
		cacheClient, err = cache.New(cfg.Redis, time.Duration(cfg.CacheTTLHours)*time.Hour)
		if err != nil {
			log.Warn("failed to connect to Redis, continuing without cache", zap.Error(err))
		} else {
			defer cacheClient.Close()
			log.Info("redis connected successfully")
		}
	}

	thresholdStore, err := classify.NewThreshold(cfg.Threshold)
	if err != nil {
		log.Fatal("invalid threshold", zap.Error(err))
	}

	pipeline := classify.NewPipeline(engine, thresholdStore, classify.Options{
		ImageSize:    cfg.ImageSize,
		MinImageSize: cfg.MinImageSize,
	})

	// Start HTTP server for metrics and health checks
	metricsServer := startMetricsServer(cfg.MetricsPort, pipeline)

	gin.SetMode(cfg.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS())
	router.Use(middleware.BodyLimit(cfg.MaxUploadBytes))

	h := handler.New(cfg, pipeline, cacheClient)
	h.Register(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	metrics.SetHealthy()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info("received signal, shutting down gracefully", zap.String("signal", sig.String()))

		metrics.SetUnhealthy()

		// Give load balancers time to notice the unhealthy status
		time.Sleep(5 * time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Warn("server shutdown error", zap.Error(err))
		}
		metricsServer.Shutdown(ctx)

		if tracerShutdown != nil {
			tracerShutdown(ctx)
		}
	}()

	log.Info("pneumonet is ready to accept requests", zap.String("addr", server.Addr))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server failed", zap.Error(err))
	}

	log.Info("server shutdown complete")
}

// loadEngine loads the configured inference engine. A model that fails
// to load is not fatal: the server still starts, /health reports
// model_loaded=false and predict routes answer 503 until a restart with
// a working model.
func loadEngine(cfg *config.Config) inference.Engine {
	log := logging.Logger

	if cfg.UseMockInference {
		log.Info("using mock inference engine")
		return inference.NewMock()
	}

	log.Info("loading ONNX model", zap.String("path", cfg.Model))
	engine, err := inference.New(cfg.Model)
	if err != nil {
		log.Warn("failed to load ONNX model, predictions will be unavailable", zap.Error(err))
		return nil
	}
	log.Info("ONNX model loaded successfully")
	return engine
}

func startMetricsServer(port int, pipeline *classify.Pipeline) *http.Server {
	mux := http.NewServeMux()

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Readiness check: not ready until a model is loaded
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !pipeline.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Not Ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Ready"))
	})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logging.Logger.Info("metrics server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Logger.Warn("metrics server error", zap.Error(err))
		}
	}()

	return server
}

func initTracer(endpoint string) (func(context.Context) error, error) {
	// The stdout exporter keeps the dependency surface small; swap in
	// otlptrace when an OTLP collector is available.
	if endpoint != "" {
		logging.Logger.Info("using stdout trace exporter", zap.String("otlp_endpoint", endpoint))
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
