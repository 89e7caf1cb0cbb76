// Package pipeline provides the extraction orchestrator: the state machine
// that drives a deal from pending through extraction and validation to a
// terminal state.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/dealbrief/internal/extraction"
	"github.com/jonathan/dealbrief/internal/llm"
	"github.com/jonathan/dealbrief/internal/types"
)

// DefaultMaxAttempts bounds the validation attempts per run: the initial
// response plus one repaired response.
const DefaultMaxAttempts = 2

// DealStore is the persistence capability the orchestrator consumes.
// *db.DB satisfies it.
type DealStore interface {
	GetDealByID(ctx context.Context, id uuid.UUID) (*types.Deal, error)
	UpdateDealStatus(ctx context.Context, id uuid.UUID, status types.DealStatus, lastError *string) (*types.Deal, error)
	UpdateDealExtracted(ctx context.Context, id uuid.UUID, extracted *types.ExtractedDeal) (*types.Deal, error)
}

// Broadcaster publishes status transitions to live observers.
// *broadcast.Broadcaster satisfies it.
type Broadcaster interface {
	Publish(dealID string, status types.DealStatus, data any, errMsg string)
}

// Orchestrator drives deals through the extraction pipeline. All
// dependencies are injected at construction; it holds no hidden state
// beyond the per-deal single-flight group.
type Orchestrator struct {
	store       DealStore
	client      llm.Client
	broadcaster Broadcaster
	maxAttempts int

	group singleflight.Group
}

// New creates an Orchestrator. maxAttempts <= 0 selects DefaultMaxAttempts.
func New(store DealStore, client llm.Client, broadcaster Broadcaster, maxAttempts int) *Orchestrator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Orchestrator{
		store:       store,
		client:      client,
		broadcaster: broadcaster,
		maxAttempts: maxAttempts,
	}
}

// Run drives one deal to a terminal state. It never returns an error to the
// caller; every outcome is communicated through the persisted status and the
// broadcast events. Concurrent calls for the same deal id coalesce into a
// single run, so the persisted status has exactly one writer per deal.
func (o *Orchestrator) Run(ctx context.Context, dealID uuid.UUID) {
	o.group.Do(dealID.String(), func() (any, error) { //nolint:errcheck
		o.run(ctx, dealID)
		return nil, nil
	})
}

func (o *Orchestrator) run(ctx context.Context, dealID uuid.UUID) {
	deal, err := o.store.GetDealByID(ctx, dealID)
	if err != nil {
		o.fail(ctx, dealID, err)
		return
	}
	if deal == nil {
		o.fail(ctx, dealID, fmt.Errorf("deal %s not found", dealID))
		return
	}
	if deal.Status.IsTerminal() {
		// Terminal states never regress; a repeat Run is a no-op.
		log.Printf("[pipeline] deal %s already %s, skipping", dealID, deal.Status)
		return
	}

	if err := o.setStatus(ctx, dealID, types.StatusExtracting); err != nil {
		o.fail(ctx, dealID, err)
		return
	}

	prompt := llm.BuildExtractionPrompt(llm.DealSchema(), deal.RawText)
	response, err := o.client.GenerateJSON(ctx, prompt)
	if err != nil {
		o.fail(ctx, dealID, err)
		return
	}

	if err := o.setStatus(ctx, dealID, types.StatusValidating); err != nil {
		o.fail(ctx, dealID, err)
		return
	}

	// Bounded repair loop. The first response is treated as a draft; each
	// failed validation buys at most one corrective round-trip that names
	// the defect, until the attempt budget runs out.
	var lastErr error
	for attempt := 0; attempt < o.maxAttempts; attempt++ {
		extracted, parseErr := extraction.Parse(response)
		if parseErr == nil {
			o.complete(ctx, dealID, extracted)
			return
		}
		lastErr = parseErr
		log.Printf("[pipeline] deal %s attempt %d/%d invalid: %v", dealID, attempt+1, o.maxAttempts, parseErr)

		if attempt == o.maxAttempts-1 {
			break
		}

		repaired, repairErr := o.client.GenerateJSON(ctx, llm.BuildRepairPrompt(response, parseErr.Error()))
		if repairErr != nil {
			o.fail(ctx, dealID, repairErr)
			return
		}
		response = repaired
	}

	o.fail(ctx, dealID, lastErr)
}

// setStatus persists a non-terminal transition and publishes it.
func (o *Orchestrator) setStatus(ctx context.Context, dealID uuid.UUID, status types.DealStatus) error {
	deal, err := o.store.UpdateDealStatus(ctx, dealID, status, nil)
	if err != nil {
		return err
	}
	if deal == nil {
		return fmt.Errorf("deal %s not found", dealID)
	}
	o.broadcaster.Publish(dealID.String(), status, nil, "")
	return nil
}

// complete merges the extracted fields, marks the deal completed, and
// publishes the terminal event with the structured payload.
func (o *Orchestrator) complete(ctx context.Context, dealID uuid.UUID, extracted *types.ExtractedDeal) {
	deal, err := o.store.UpdateDealExtracted(ctx, dealID, extracted)
	if err != nil {
		o.fail(ctx, dealID, err)
		return
	}
	if deal == nil {
		o.fail(ctx, dealID, fmt.Errorf("deal %s not found", dealID))
		return
	}
	o.broadcaster.Publish(dealID.String(), types.StatusCompleted, extracted, "")
	log.Printf("[pipeline] deal %s completed", dealID)
}

// fail marks the deal failed with the last known error and publishes the
// terminal event. No structured fields are ever persisted on this path.
func (o *Orchestrator) fail(ctx context.Context, dealID uuid.UUID, cause error) {
	msg := cause.Error()
	if _, err := o.store.UpdateDealStatus(ctx, dealID, types.StatusFailed, &msg); err != nil {
		log.Printf("[pipeline] failed to persist failure for deal %s: %v", dealID, err)
	}
	o.broadcaster.Publish(dealID.String(), types.StatusFailed, nil, msg)
	log.Printf("[pipeline] deal %s failed: %s", dealID, msg)
}
