package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Onebillie/onebillconvo-sub004/internal/classifier"
	_ "github.com/Onebillie/onebillconvo-sub004/internal/classifier/claude"
	_ "github.com/Onebillie/onebillconvo-sub004/internal/classifier/openai"
	"github.com/Onebillie/onebillconvo-sub004/internal/config"
	"github.com/Onebillie/onebillconvo-sub004/internal/email/noop"
	"github.com/Onebillie/onebillconvo-sub004/internal/email/ses"
	"github.com/Onebillie/onebillconvo-sub004/internal/fetch"
	"github.com/Onebillie/onebillconvo-sub004/internal/gateway/utility"
	"github.com/Onebillie/onebillconvo-sub004/internal/handler"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
	"github.com/Onebillie/onebillconvo-sub004/internal/repository/postgres"
	"github.com/Onebillie/onebillconvo-sub004/internal/router"
	"github.com/Onebillie/onebillconvo-sub004/internal/service"
	s3storage "github.com/Onebillie/onebillconvo-sub004/internal/storage/s3"
	"github.com/Onebillie/onebillconvo-sub004/internal/webhook"
	"github.com/Onebillie/onebillconvo-sub004/internal/workflow"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	businessRepo := postgres.NewBusinessRepo(db)
	customerRepo := postgres.NewCustomerRepo(db)
	parseRepo := postgres.NewParseResultRepo(db)
	subRepo := postgres.NewSubmissionRepo(db)
	workflowRepo := postgres.NewWorkflowRepo(db)
	execRepo := postgres.NewExecutionRepo(db)
	auditRepo := postgres.NewAuditRepo(db)
	profileRepo := postgres.NewProfileRepo(db)
	endpointRepo := postgres.NewWebhookEndpointRepo(db)

	// Attachment storage. S3 is optional; without a bucket only
	// http(s) source URLs can be fetched.
	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}
	fetcher := fetch.NewFetcher(storage, 60*time.Second)

	// Classifier chain plus a per-provider map for explicit overrides.
	defaultClassifier, err := classifier.NewFromConfig(&cfg.Classifier)
	if err != nil {
		return fmt.Errorf("failed to initialize classifier: %w", err)
	}
	byProvider := make(map[string]port.DocumentClassifier)
	for _, pc := range cfg.Classifier.Chain() {
		c, err := classifier.NewProvider(pc)
		if err != nil {
			return fmt.Errorf("failed to initialize classifier provider %s: %w", pc.Provider, err)
		}
		byProvider[pc.Provider] = c
	}

	// Downstream integrations
	gw := utility.NewGateway(&cfg.Integration)
	emitter := webhook.NewEmitter(endpointRepo, time.Duration(cfg.Webhook.TimeoutSecs)*time.Second)

	var emailSender port.EmailSender
	if cfg.Email.Provider == "ses" {
		emailSender, err = ses.NewSESSender(&cfg.Email)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	} else {
		emailSender = noop.NewNoopSender()
	}

	// Initialize services
	parseRouter := service.NewParseRouterService(
		parseRepo, profileRepo, auditRepo, fetcher,
		defaultClassifier, byProvider, cfg.Queue.MaxAttempts,
	)
	pipeline := service.NewSubmissionPipeline(
		parseRouter, parseRepo, subRepo, customerRepo,
		profileRepo, auditRepo, gw, emitter, emailSender,
	)
	engine := workflow.NewEngine(
		workflowRepo, execRepo, auditRepo, parseRouter,
		&http.Client{Timeout: time.Duration(cfg.Engine.HTTPTimeoutSecs) * time.Second},
		cfg.Engine.MaxSteps,
	)
	workflowSvc := service.NewWorkflowService(workflowRepo, execRepo, engine, emitter)

	// Initialize handlers
	healthH := handler.NewHealthHandler(db)
	ingestH := handler.NewIngestHandler(pipeline, parseRouter, profileRepo)
	parseH := handler.NewParseResultHandler(parseRouter)
	submissionH := handler.NewSubmissionHandler(subRepo)
	workflowH := handler.NewWorkflowHandler(workflowSvc, auditRepo)
	endpointH := handler.NewWebhookEndpointHandler(endpointRepo)
	profileH := handler.NewProfileHandler(profileRepo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background requeue worker for rate-limited and stale parses
	worker := service.NewRequeueWorker(parseRepo, parseRouter, service.RequeueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		Concurrency:  cfg.Queue.Concurrency,
		StaleAfter:   time.Duration(cfg.Queue.StaleAfterSecs) * time.Second,
	})
	go worker.Start(ctx)

	// Setup router
	r := router.Setup(
		businessRepo, cfg.CORS.AllowedOrigins,
		healthH, ingestH, parseH, submissionH, workflowH, endpointH, profileH,
	)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
