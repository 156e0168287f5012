package worker

import (
	"context"
	"log/slog"
	"sync"

	"claim-evaluation-service/internal/models"
)

// Evaluator is the single-claim evaluation the pool fans out over.
type Evaluator interface {
	Evaluate(ctx context.Context, req models.ClaimEvaluationRequest) (*models.Verdict, error)
}

// EvaluationPool runs batch claim evaluations over a bounded set of
// workers so one oversized batch cannot monopolize the service.
type EvaluationPool struct {
	NumWorkers int
	evaluator  Evaluator
}

func NewEvaluationPool(numWorkers int, evaluator Evaluator) *EvaluationPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &EvaluationPool{
		NumWorkers: numWorkers,
		evaluator:  evaluator,
	}
}

// Run evaluates every claim in the batch and returns one item per
// claim, ordered by input index. Claims fail independently: a bad claim
// yields an item with Error set and the rest of the batch proceeds.
func (p *EvaluationPool) Run(ctx context.Context, claims []models.ClaimEvaluationRequest) []models.BatchEvaluationItem {
	results := make([]models.BatchEvaluationItem, len(claims))
	jobChan := make(chan int, len(claims))

	var workerWg sync.WaitGroup
	workers := p.NumWorkers
	if workers > len(claims) {
		workers = len(claims)
	}
	for i := range workers {
		workerWg.Add(1)
		go p.worker(ctx, &workerWg, i+1, claims, results, jobChan)
	}

	for i := range claims {
		jobChan <- i
	}
	close(jobChan)

	workerWg.Wait()
	return results
}

// worker is the internal goroutine for a single worker
func (p *EvaluationPool) worker(ctx context.Context, wg *sync.WaitGroup, id int, claims []models.ClaimEvaluationRequest, results []models.BatchEvaluationItem, jobChan <-chan int) {
	defer wg.Done()

	for {
		select {
		case idx, ok := <-jobChan:
			if !ok {
				return
			}
			results[idx] = p.safeEvaluate(ctx, id, idx, claims[idx])

		case <-ctx.Done():
			// Exit immediately, even if the job channel is not closed.
			slog.Warn("evaluation worker stopping, context canceled", "worker", id)
			return
		}
	}
}

func (p *EvaluationPool) safeEvaluate(ctx context.Context, workerID, idx int, claim models.ClaimEvaluationRequest) (item models.BatchEvaluationItem) {
	item.Index = idx
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered in batch evaluation", "worker", workerID, "index", idx, "panic", r)
			item.Verdict = nil
			item.Error = "internal error during evaluation"
		}
	}()

	verdict, err := p.evaluator.Evaluate(ctx, claim)
	if err != nil {
		slog.Warn("batch claim evaluation failed", "worker", workerID, "index", idx, "error", err)
		item.Error = err.Error()
		return item
	}

	item.Verdict = verdict
	return item
}
