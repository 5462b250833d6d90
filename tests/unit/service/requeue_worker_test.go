package service_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/service"
	"github.com/Onebillie/onebillconvo-sub004/mocks"
)

func TestRequeueWorker_DispatchesDueRows(t *testing.T) {
	parseRepo := new(mocks.MockParseResultRepo)
	router := new(mocks.MockParseRouterService)

	row := domain.ParseResult{
		ID:         uuid.New(),
		BusinessID: uuid.New(),
		Status:     domain.ParseStatusQueued,
		Attempts:   1,
	}

	dispatched := make(chan struct{})
	parseRepo.On("ListRequeueable", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.ParseResult{row}, nil).Once()
	parseRepo.On("ListRequeueable", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.ParseResult{}, nil)
	router.On("ProcessQueued", mock.Anything, mock.MatchedBy(func(pr *domain.ParseResult) bool {
		return pr.ID == row.ID
	})).Run(func(mock.Arguments) {
		close(dispatched)
	}).Return()

	worker := service.NewRequeueWorker(parseRepo, router, service.RequeueConfig{
		PollInterval: 10 * time.Millisecond,
		Concurrency:  2,
		BatchLimit:   5,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	select {
	case <-dispatched:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never dispatched the queued row")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not shut down")
	}

	router.AssertNumberOfCalls(t, "ProcessQueued", 1)
}

func TestRequeueWorker_StopsOnCancel(t *testing.T) {
	parseRepo := new(mocks.MockParseResultRepo)
	router := new(mocks.MockParseRouterService)
	parseRepo.On("ListRequeueable", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.ParseResult{}, nil)

	worker := service.NewRequeueWorker(parseRepo, router, service.RequeueConfig{
		PollInterval: 5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	router.AssertNotCalled(t, "ProcessQueued", mock.Anything, mock.Anything)
}

func TestRequeueWorker_BatchLimitCappedByFreeSlots(t *testing.T) {
	parseRepo := new(mocks.MockParseResultRepo)
	router := new(mocks.MockParseRouterService)

	var gotLimit atomic.Int32
	parseRepo.On("ListRequeueable", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			gotLimit.Store(int32(args.Int(3)))
		}).
		Return([]domain.ParseResult{}, nil)

	worker := service.NewRequeueWorker(parseRepo, router, service.RequeueConfig{
		PollInterval: 5 * time.Millisecond,
		Concurrency:  3,
		BatchLimit:   50,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return gotLimit.Load() == 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
