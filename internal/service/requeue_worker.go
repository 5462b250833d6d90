package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

// RequeueConfig holds settings for the parse requeue worker.
type RequeueConfig struct {
	PollInterval time.Duration
	Concurrency  int
	// StaleAfter is how long a processing row may sit untouched before it is
	// presumed crashed and picked up again.
	StaleAfter time.Duration
	BatchLimit int
}

// RequeueWorker polls for queued parse rows whose retry window has passed,
// plus processing rows abandoned by a crash, and re-dispatches them.
type RequeueWorker struct {
	parseRepo port.ParseResultRepository
	router    ParseRouterService
	cfg       RequeueConfig
	wg        sync.WaitGroup
}

// NewRequeueWorker creates a new RequeueWorker.
func NewRequeueWorker(parseRepo port.ParseResultRepository, router ParseRouterService, cfg RequeueConfig) *RequeueWorker {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.StaleAfter == 0 {
		cfg.StaleAfter = 10 * time.Minute
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 10
	}
	return &RequeueWorker{parseRepo: parseRepo, router: router, cfg: cfg}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight parses have finished.
func (w *RequeueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("requeueWorker: started (poll=%s, concurrency=%d, staleAfter=%s)",
		w.cfg.PollInterval, w.cfg.Concurrency, w.cfg.StaleAfter)

	for {
		select {
		case <-ctx.Done():
			log.Printf("requeueWorker: shutting down, waiting for in-flight parses...")
			w.wg.Wait()
			log.Printf("requeueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}
			limit := w.cfg.BatchLimit
			if limit > available {
				limit = available
			}

			now := time.Now().UTC()
			rows, err := w.parseRepo.ListRequeueable(ctx, now, now.Add(-w.cfg.StaleAfter), limit)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("requeueWorker: ListRequeueable error: %v", err)
				continue
			}

			for i := range rows {
				pr := rows[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// A fresh context so an in-flight parse survives shutdown
					// of the poll loop.
					parseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
					defer cancel()

					log.Printf("requeueWorker: re-dispatching parse %s (attempt %d)", pr.ID, pr.Attempts+1)
					w.router.ProcessQueued(parseCtx, &pr)
				}()
			}
		}
	}
}
