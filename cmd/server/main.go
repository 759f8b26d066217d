package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/yourorg/vending-reconciler/internal/config"
	"github.com/yourorg/vending-reconciler/internal/monitor"
	"github.com/yourorg/vending-reconciler/internal/policy"
	"github.com/yourorg/vending-reconciler/internal/present"
	"github.com/yourorg/vending-reconciler/internal/reporting"
	"github.com/yourorg/vending-reconciler/internal/session"
	"github.com/yourorg/vending-reconciler/internal/vending"
	vendingmock "github.com/yourorg/vending-reconciler/internal/vending/mock"
)

//go:embed purchase_schema.json
var purchaseSchema []byte

// initialResponseTimeout bounds how long the purchase handler waits for the
// purchase call's own classification before answering with the polling state.
const initialResponseTimeout = 30 * time.Second

type server struct {
	engine   *session.Engine
	monitor  *monitor.ContractMonitor
	recorder *reporting.Recorder
}

func newServer(cfg *config.Config) (*server, error) {
	var client vending.Client
	if cfg.Provider.Mock {
		client = vendingmock.NewMockClient()
	} else {
		client = vending.NewHTTPClient(vending.HTTPClientConfig{
			BaseURL:      cfg.Provider.BaseURL,
			APIKey:       cfg.Provider.APIKey,
			SecretKey:    cfg.Provider.SecretKey,
			QueryTimeout: cfg.Provider.QueryTimeout,
		})
	}

	enforcer, err := policy.NewServiceRuleEnforcer(cfg.ClassificationRules)
	if err != nil {
		return nil, err
	}
	mon, err := monitor.NewContractMonitorFromBytes(purchaseSchema)
	if err != nil {
		return nil, err
	}

	recorder := reporting.NewRecorder()
	engine := session.NewEngine(session.Config{
		Client:   client,
		Schedule: cfg.Schedule(),
		Classify: enforcer.Classify,
		Recorder: recorder,
	})
	return &server{engine: engine, monitor: mon, recorder: recorder}, nil
}

func (s *server) setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("vending-reconciler"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/purchases", s.startPurchaseHandler)
	router.GET("/purchases/:requestId", s.snapshotHandler)
	router.POST("/purchases/:requestId/refresh", s.refreshHandler)
	router.DELETE("/purchases/:requestId", s.cancelHandler)
	router.GET("/reports/retrospective", s.reportHandler)
	return router
}

func (s *server) startPurchaseHandler(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}

	valid, validationErrors, err := s.monitor.Validate(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request is not valid JSON"})
		return
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": monitor.FormatErrors(validationErrors)})
		return
	}

	var req session.StartRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format: " + err.Error()})
		return
	}

	requestID, stream, err := s.engine.StartPurchase(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Answer once the purchase call itself has been classified; if the
	// session is still pending the client follows up via GET.
	snap := waitForInitialOutcome(stream, requestID, s.engine)
	c.JSON(http.StatusOK, present.Present(snap))
}

// waitForInitialOutcome reads the stream past the awaiting-initial snapshot.
func waitForInitialOutcome(stream <-chan session.Snapshot, requestID string, engine *session.Engine) session.Snapshot {
	deadline := time.After(initialResponseTimeout)
	var last session.Snapshot
	for {
		select {
		case snap, ok := <-stream:
			if !ok {
				// Stream closed; report whatever the engine last saw.
				if final, found := engine.Snapshot(requestID); found {
					return final
				}
				return last
			}
			last = snap
			if snap.State != session.StateAwaitingInitial {
				return snap
			}
		case <-deadline:
			log.Printf("server: purchase %s still awaiting initial response after %s", requestID, initialResponseTimeout)
			return last
		}
	}
}

func (s *server) snapshotHandler(c *gin.Context) {
	snap, ok := s.engine.Snapshot(c.Param("requestId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown request id"})
		return
	}
	c.JSON(http.StatusOK, present.Present(snap))
}

func (s *server) refreshHandler(c *gin.Context) {
	snap, err := s.engine.ManualRefresh(c.Request.Context(), c.Param("requestId"))
	switch {
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown request id"})
	case errors.Is(err, session.ErrBadState), errors.Is(err, session.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "view": present.Present(snap)})
	default:
		c.JSON(http.StatusOK, present.Present(snap))
	}
}

func (s *server) cancelHandler(c *gin.Context) {
	s.engine.Cancel(c.Param("requestId"))
	c.Status(http.StatusNoContent)
}

func (s *server) reportHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.recorder.GenerateRetrospective())
}

// initTracer installs a stdout span exporter; the returned func flushes and
// shuts the provider down.
func initTracer() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

var (
	configPath string
	listenAddr string
)

func newServerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconciler",
		Short: "Transaction-status reconciliation service for vending purchases",
		Long:  "Accepts purchase requests, submits them to the vending provider and reconciles their final status through bounded backoff polling.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	pflag.StringVar(&configPath, "config", "", "path to yaml config file")
	pflag.StringVar(&listenAddr, "listen", "", "listen address override")
	cmd.Flags().AddFlagSet(pflag.CommandLine)
	return cmd
}

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}

	shutdown, err := initTracer()
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	srv, err := newServer(cfg)
	if err != nil {
		return err
	}

	log.Printf("Starting server on %s (mock provider: %t)", cfg.Listen, cfg.Provider.Mock)
	return srv.setupRouter().Run(cfg.Listen)
}

func main() {
	if err := newServerCommand().Execute(); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
