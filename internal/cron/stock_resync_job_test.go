package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/voltaria/voltaria-backend/pkg/logger"
)

type fakeStockResyncer struct {
	resynced int
	failed   int
	err      error
	called   int
}

func (f *fakeStockResyncer) ResyncAll(ctx context.Context) (int, int, error) {
	f.called++
	return f.resynced, f.failed, f.err
}

func newStockResyncJob(t *testing.T, resyncer *fakeStockResyncer) Job {
	t.Helper()
	job, err := NewStockResyncJob(StockResyncJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Aggregator: resyncer,
	})
	if err != nil {
		t.Fatalf("NewStockResyncJob: %v", err)
	}
	return job
}

func TestStockResyncJobRunsAggregator(t *testing.T) {
	resyncer := &fakeStockResyncer{resynced: 12}
	job := newStockResyncJob(t, resyncer)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resyncer.called != 1 {
		t.Fatalf("expected one resync call, got %d", resyncer.called)
	}
}

func TestStockResyncJobToleratesPartialFailures(t *testing.T) {
	resyncer := &fakeStockResyncer{resynced: 10, failed: 2}
	job := newStockResyncJob(t, resyncer)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestStockResyncJobPropagatesError(t *testing.T) {
	resyncer := &fakeStockResyncer{err: errors.New("db down")}
	job := newStockResyncJob(t, resyncer)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
