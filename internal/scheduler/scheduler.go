package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/dlspeed/internal/output"
	"github.com/tanq16/dlspeed/internal/utils"
)

// Transferer measures a single request
type Transferer interface {
	Run(ctx context.Context, ordinal int, req utils.Request, rep output.Reporter) utils.TransferResult
}

// Run executes the requests one after another in input order. Live progress
// of two transfers never interleaves, and a failed transfer never stops the
// run: the result always holds one row per request, in input order.
func Run(ctx context.Context, requests []utils.Request, runner Transferer, rep output.Reporter) utils.RunResult {
	run := utils.RunResult{
		ID:      uuid.NewString(),
		Started: time.Now(),
		Results: make([]utils.TransferResult, 0, len(requests)),
	}
	logger := log.With().Str("op", "scheduler").Str("run", run.ID).Logger()
	logger.Debug().Int("requests", len(requests)).Msg("run started")

	for i, req := range requests {
		if ctx.Err() != nil {
			// not started, still needs its row
			run.Results = append(run.Results, utils.TransferResult{
				ID:            uuid.NewString(),
				Ordinal:       i,
				Request:       req,
				ExpectedTotal: -1,
				Err:           &utils.TransferError{Kind: utils.ErrorInterrupted, Op: "schedule", URL: req.URL, Err: context.Cause(ctx)},
			})
			continue
		}
		res := runner.Run(ctx, i, req, rep)
		run.Results = append(run.Results, res)
	}

	run.Elapsed = time.Since(run.Started)
	succeeded, failed := run.Counts()
	logger.Info().Int("succeeded", succeeded).Int("failed", failed).Dur("elapsed", run.Elapsed).Msg("run finished")
	return run
}
