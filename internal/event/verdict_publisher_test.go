package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST SUITE: PUBLISHER METRICS
// ============================================================================

func TestVerdictPublisher_MetricsSafeUnderConcurrentPublishes(t *testing.T) {
	p := NewVerdictPublisher(nil)

	// Batch evaluation publishes from many goroutines at once; the
	// counters must come out exact.
	const workers = 16
	const perWorker = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				p.messagesPublished.Add(1)
				p.messagesFailed.Add(1)
				p.lastPublishNano.Store(time.Now().UnixNano())
			}
		}()
	}
	wg.Wait()

	metrics := p.GetMetrics()
	assert.Equal(t, int64(workers*perWorker), metrics["messages_published"])
	assert.Equal(t, int64(workers*perWorker), metrics["messages_failed"])
	assert.Equal(t, ClaimEvaluatedQueue, metrics["queue"])
}

func TestVerdictPublisher_HealthCheckWithoutConnection(t *testing.T) {
	p := NewVerdictPublisher(nil)

	status := p.HealthCheck()

	assert.False(t, status.IsHealthy)
	assert.Equal(t, int64(0), status.MessagesPublished)
	assert.Equal(t, int64(0), status.MessagesFailed)
	assert.Equal(t, ClaimEvaluatedQueue, status.Queue)
	assert.False(t, status.LastPublishTime.IsZero())
}
