package cron

import (
	"context"
	"fmt"

	"github.com/voltaria/voltaria-backend/pkg/logger"
)

type StockResyncJobParams struct {
	Logger     *logger.Logger
	Aggregator stockResyncer
}

type stockResyncer interface {
	ResyncAll(ctx context.Context) (resynced int, failed int, err error)
}

// NewStockResyncJob rebuilds every product's derived stock counters from the
// unit store. Individual product failures are counted, not fatal.
func NewStockResyncJob(params StockResyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Aggregator == nil {
		return nil, fmt.Errorf("aggregator required")
	}
	return &stockResyncJob{
		logg:       params.Logger,
		aggregator: params.Aggregator,
	}, nil
}

type stockResyncJob struct {
	logg       *logger.Logger
	aggregator stockResyncer
}

func (j *stockResyncJob) Name() string { return "stock-resync" }

func (j *stockResyncJob) Run(ctx context.Context) error {
	resynced, failed, err := j.aggregator.ResyncAll(ctx)
	if err != nil {
		return fmt.Errorf("stock resync: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"products_resynced": resynced,
		"products_failed":   failed,
	})
	if failed > 0 {
		j.logg.Warn(logCtx, "stock resync finished with failures")
		return nil
	}
	j.logg.Info(logCtx, "stock resync complete")
	return nil
}
