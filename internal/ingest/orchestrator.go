package ingest

import (
	"context"
	"time"

	"github.com/montrack/montrack/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const maxErrorDetails = 10

// BatchResult summarizes a webhook batch for the caller's response.
type BatchResult struct {
	ProcessedSwaps int      `json:"processed_swaps"`
	ProcessedNFTs  int      `json:"processed_nfts"`
	Successful     int      `json:"successful"`
	Errors         int      `json:"errors"`
	ErrorDetails   []string `json:"error_details,omitempty"`
}

// Orchestrator fans a webhook batch out over the pipeline with bounded
// concurrency. Events are independent; one failing event never aborts the
// batch.
type Orchestrator struct {
	pipeline      *Pipeline
	maxConcurrent int
	logger        zerolog.Logger
}

// NewOrchestrator creates a batch orchestrator. maxConcurrent caps the
// number of events processed in parallel.
func NewOrchestrator(pipeline *Pipeline, maxConcurrent int, logger zerolog.Logger) *Orchestrator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Orchestrator{
		pipeline:      pipeline,
		maxConcurrent: maxConcurrent,
		logger:        logger.With().Str("component", "orchestrator").Logger(),
	}
}

// ProcessBatch runs every event in the payload through the pipeline and
// aggregates per-event outcomes. Applied and skipped events both count as
// successful; only real failures count as errors.
func (o *Orchestrator) ProcessBatch(ctx context.Context, payload Payload) BatchResult {
	start := time.Now()

	swapOutcomes := make([]Outcome, len(payload.Swaps))
	nftOutcomes := make([]Outcome, len(payload.NFTTrades))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrent)
	for i, event := range payload.Swaps {
		g.Go(func() error {
			swapOutcomes[i] = o.pipeline.ProcessSwap(gctx, event)
			return nil
		})
	}
	for i, event := range payload.NFTTrades {
		g.Go(func() error {
			nftOutcomes[i] = o.pipeline.ProcessNFTTrade(gctx, event)
			return nil
		})
	}
	// Workers never return errors; outcomes carry per-event failures.
	_ = g.Wait()

	result := BatchResult{
		ProcessedSwaps: len(payload.Swaps),
		ProcessedNFTs:  len(payload.NFTTrades),
	}
	o.tally(&result, "swap", swapOutcomes)
	o.tally(&result, "nft_trade", nftOutcomes)
	if result.Errors > maxErrorDetails {
		result.ErrorDetails = nil
	}

	elapsed := time.Since(start)
	metrics.RecordWebhookBatch(elapsed.Seconds())
	o.logger.Info().
		Int("swaps", result.ProcessedSwaps).
		Int("nft_trades", result.ProcessedNFTs).
		Int("successful", result.Successful).
		Int("errors", result.Errors).
		Dur("elapsed", elapsed).
		Msg("Webhook batch processed")

	return result
}

func (o *Orchestrator) tally(result *BatchResult, kind string, outcomes []Outcome) {
	for _, outcome := range outcomes {
		metrics.RecordEvent(kind, outcome.Status.String())
		switch outcome.Status {
		case StatusFailed:
			result.Errors++
			o.logger.Error().Err(outcome.Err).Str("tx_hash", outcome.TxHash).Str("kind", kind).Msg("Event processing failed")
			if len(result.ErrorDetails) < maxErrorDetails {
				result.ErrorDetails = append(result.ErrorDetails, outcome.TxHash+": "+outcome.Err.Error())
			}
		default:
			result.Successful++
		}
	}
}
