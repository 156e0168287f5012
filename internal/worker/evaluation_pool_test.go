package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"claim-evaluation-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

type stubEvaluator struct {
	calls int64
	fn    func(req models.ClaimEvaluationRequest) (*models.Verdict, error)
}

func (e *stubEvaluator) Evaluate(_ context.Context, req models.ClaimEvaluationRequest) (*models.Verdict, error) {
	atomic.AddInt64(&e.calls, 1)
	return e.fn(req)
}

func batchOf(n int) []models.ClaimEvaluationRequest {
	claims := make([]models.ClaimEvaluationRequest, n)
	for i := range claims {
		claims[i] = models.ClaimEvaluationRequest{
			ImageRef: "img.png",
			CropType: "rice",
			LandSize: "2 hectare",
		}
	}
	return claims
}

// ============================================================================
// TEST SUITE 1: BATCH EVALUATION
// ============================================================================

func TestRun_AllClaimsSucceed(t *testing.T) {
	evaluator := &stubEvaluator{fn: func(_ models.ClaimEvaluationRequest) (*models.Verdict, error) {
		return &models.Verdict{Approved: true}, nil
	}}
	pool := NewEvaluationPool(4, evaluator)

	results := pool.Run(context.Background(), batchOf(10))

	require.Len(t, results, 10)
	for i, item := range results {
		assert.Equal(t, i, item.Index, "results keep input order")
		require.NotNil(t, item.Verdict)
		assert.True(t, item.Verdict.Approved)
		assert.Empty(t, item.Error)
	}
	assert.Equal(t, int64(10), atomic.LoadInt64(&evaluator.calls))
}

func TestRun_FailuresAreIsolated(t *testing.T) {
	evaluator := &stubEvaluator{fn: func(req models.ClaimEvaluationRequest) (*models.Verdict, error) {
		if req.UserID == "bad" {
			return nil, errors.New("image unreadable")
		}
		return &models.Verdict{Approved: true}, nil
	}}
	pool := NewEvaluationPool(2, evaluator)

	claims := batchOf(3)
	claims[1].UserID = "bad"

	results := pool.Run(context.Background(), claims)

	require.Len(t, results, 3)
	assert.NotNil(t, results[0].Verdict)
	assert.Nil(t, results[1].Verdict)
	assert.Equal(t, "image unreadable", results[1].Error)
	assert.NotNil(t, results[2].Verdict, "a failed claim must not sink the rest of the batch")
}

func TestRun_PanicIsRecovered(t *testing.T) {
	evaluator := &stubEvaluator{fn: func(req models.ClaimEvaluationRequest) (*models.Verdict, error) {
		if req.UserID == "boom" {
			panic("unexpected")
		}
		return &models.Verdict{Approved: true}, nil
	}}
	pool := NewEvaluationPool(2, evaluator)

	claims := batchOf(2)
	claims[0].UserID = "boom"

	results := pool.Run(context.Background(), claims)

	require.Len(t, results, 2)
	assert.Nil(t, results[0].Verdict)
	assert.Equal(t, "internal error during evaluation", results[0].Error)
	assert.NotNil(t, results[1].Verdict)
}

func TestRun_EmptyBatch(t *testing.T) {
	evaluator := &stubEvaluator{fn: func(_ models.ClaimEvaluationRequest) (*models.Verdict, error) {
		return &models.Verdict{}, nil
	}}
	pool := NewEvaluationPool(4, evaluator)

	results := pool.Run(context.Background(), nil)

	assert.Empty(t, results)
	assert.Zero(t, atomic.LoadInt64(&evaluator.calls))
}

func TestNewEvaluationPool_MinimumOneWorker(t *testing.T) {
	pool := NewEvaluationPool(0, &stubEvaluator{fn: func(_ models.ClaimEvaluationRequest) (*models.Verdict, error) {
		return &models.Verdict{}, nil
	}})

	assert.Equal(t, 1, pool.NumWorkers)

	results := pool.Run(context.Background(), batchOf(2))
	require.Len(t, results, 2)
}
