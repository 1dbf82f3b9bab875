package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/minikernel/service/messaging"
)

type testRecord struct {
	PID   int
	Event string
}

func TestQueue(t *testing.T) {
	queue := NewQueue[testRecord](DefaultConfig())
	ctx := context.Background()
	payload := testRecord{PID: 1, Event: "created"}

	err := queue.Publish(ctx, &payload)
	require.NoError(t, err)
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, queue.Size())
	assert.NotEmpty(t, message.ID())
	assert.Equal(t, payload, *message.T())

	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack())
	assert.Error(t, message.Nack(nil))
}

func TestQueue_DropWhenFull(t *testing.T) {
	var testCases = []struct {
		description string
		drop        bool
		expectErr   error
		expectSize  int
	}{
		{description: "drop on full buffer", drop: true, expectErr: messaging.ErrQueueFull, expectSize: 2},
		{description: "wait for room until context is done", drop: false, expectErr: context.DeadlineExceeded, expectSize: 2},
	}
	for _, testCase := range testCases {
		config := DefaultConfig()
		config.QueueBuffer = 2
		config.DropWhenFull = testCase.drop
		queue := NewQueue[testRecord](config)
		for i := 0; i < 2; i++ {
			require.NoError(t, queue.Publish(context.Background(), &testRecord{PID: i}), testCase.description)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		err := queue.Publish(ctx, &testRecord{PID: 3})
		cancel()
		assert.ErrorIs(t, err, testCase.expectErr, testCase.description)
		assert.Equal(t, testCase.expectSize, queue.Size(), testCase.description)
		if testCase.drop {
			assert.Equal(t, 1, queue.Dropped(), testCase.description)
		}
	}
}

func TestQueue_Offer(t *testing.T) {
	config := DefaultConfig()
	config.QueueBuffer = 1
	config.DropWhenFull = false
	queue := NewQueue[testRecord](config)
	assert.NoError(t, queue.Offer(&testRecord{PID: 1}))
	assert.ErrorIs(t, queue.Offer(&testRecord{PID: 2}), messaging.ErrQueueFull)
	assert.Equal(t, 1, queue.Size())
	assert.Equal(t, 1, queue.Dropped())
}

func TestQueue_Retries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 2
	config.RetryDelay = time.Millisecond
	queue := NewQueue[testRecord](config)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, queue.Publish(ctx, &testRecord{PID: 4}))
	var id string
	for attempt := 0; attempt < 3; attempt++ {
		message, err := queue.Consume(ctx)
		require.NoError(t, err)
		if id == "" {
			id = message.ID()
		}
		assert.Equal(t, id, message.ID())
		assert.NoError(t, message.Nack(fmt.Errorf("attempt %d", attempt)))
	}
	assert.Equal(t, 1, queue.DLQSize())
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_Concurrency(t *testing.T) {
	config := DefaultConfig()
	config.DropWhenFull = false
	queue := NewQueue[testRecord](config)
	ctx := context.Background()
	producers, perProducer := 5, 20

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				assert.NoError(t, queue.Publish(ctx, &testRecord{PID: pid, Event: fmt.Sprintf("e%d", j)}))
			}
		}(i)
	}
	consumed := 0
	timeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for consumed < producers*perProducer {
		message, err := queue.Consume(timeout)
		require.NoError(t, err)
		assert.NoError(t, message.Ack())
		consumed++
	}
	wg.Wait()
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_ContextCancellation(t *testing.T) {
	queue := NewQueue[testRecord](DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, queue.Publish(ctx, &testRecord{}))

	timeout, cancelTimeout := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancelTimeout()
	_, err := queue.Consume(timeout)
	assert.Error(t, err)

	require.NoError(t, queue.Publish(context.Background(), &testRecord{}))
	message, err := queue.Consume(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, message)
}
