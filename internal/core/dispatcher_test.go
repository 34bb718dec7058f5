// ABOUTME: Tests for the Dispatcher busy policies, retries, and shutdown
// ABOUTME: Uses a gated fake classifier and goleak to check background work ends

package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/harper/shape-classifier/internal/llm"
	"github.com/harper/shape-classifier/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type classifyFunc func(ctx context.Context, prompt string, call int) (*models.ClassificationResult, error)

// fakeClassifier records prompts and delegates to fn
type fakeClassifier struct {
	mu      sync.Mutex
	prompts []string
	fn      classifyFunc
}

func (f *fakeClassifier) Classify(ctx context.Context, prompt string) (*models.ClassificationResult, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	call := len(f.prompts)
	f.mu.Unlock()
	return f.fn(ctx, prompt, call)
}

func (f *fakeClassifier) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func circles(n int) *models.ClassificationResult {
	return &models.ClassificationResult{Valid: true, Shape: models.ShapeCircle, Count: int32(n)}
}

func closeDispatcher(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
}

func TestDispatcher_TriggerWritesOutcome(t *testing.T) {
	fake := &fakeClassifier{fn: func(context.Context, string, int) (*models.ClassificationResult, error) {
		return circles(3), nil
	}}
	d := NewDispatcher(fake, NewResultStore(), WithLogger(zap.NewNop()))

	_, ok := d.PollResult()
	assert.False(t, ok, "no result before any trigger")

	id, err := d.Trigger("  three circles  ")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	closeDispatcher(t, d)

	outcome, ok := d.PollResult()
	require.True(t, ok)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, id, outcome.AttemptID)
	assert.Equal(t, "three circles", outcome.Prompt)
	assert.Equal(t, *circles(3), outcome.Result)
	assert.Equal(t, []string{"three circles"}, fake.calls())
	assert.False(t, d.IsBusy())
}

func TestDispatcher_EmptyPrompt(t *testing.T) {
	fake := &fakeClassifier{fn: func(context.Context, string, int) (*models.ClassificationResult, error) {
		t.Error("classifier must not be called for empty prompts")
		return nil, nil
	}}
	d := NewDispatcher(fake, NewResultStore())
	defer closeDispatcher(t, d)

	for _, prompt := range []string{"", "   ", "\n\t"} {
		id, err := d.Trigger(prompt)
		assert.ErrorIs(t, err, ErrEmptyPrompt)
		assert.Empty(t, id)
	}
	assert.False(t, d.IsBusy())
}

func TestDispatcher_IgnoreWhileBusy(t *testing.T) {
	release := make(chan struct{})
	fake := &fakeClassifier{fn: func(_ context.Context, prompt string, _ int) (*models.ClassificationResult, error) {
		<-release
		return circles(len(prompt)), nil
	}}
	store := NewResultStore()
	d := NewDispatcher(fake, store, WithPolicy(PolicyIgnoreWhileBusy))

	firstID, err := d.Trigger("first")
	require.NoError(t, err)
	assert.True(t, d.IsBusy())

	_, err = d.Trigger("second")
	assert.ErrorIs(t, err, ErrBusy)

	_, ok := d.PollResult()
	assert.False(t, ok, "poll must not block or report while in flight")

	close(release)
	require.Eventually(t, func() bool { return !d.IsBusy() }, 5*time.Second, time.Millisecond)

	// !IsBusy implies the outcome is already visible
	outcome, ok := d.PollResult()
	require.True(t, ok)
	assert.Equal(t, firstID, outcome.AttemptID)

	secondID, err := d.Trigger("second")
	require.NoError(t, err)
	closeDispatcher(t, d)

	outcome, _ = d.PollResult()
	assert.Equal(t, secondID, outcome.AttemptID)
	assert.Equal(t, []string{"first", "second"}, fake.calls())
}

func TestDispatcher_AllowConcurrentLastCompletionWins(t *testing.T) {
	gates := map[string]chan struct{}{
		"early": make(chan struct{}),
		"late":  make(chan struct{}),
	}
	fake := &fakeClassifier{fn: func(_ context.Context, prompt string, _ int) (*models.ClassificationResult, error) {
		<-gates[prompt]
		return circles(len(prompt)), nil
	}}
	store := NewResultStore()
	d := NewDispatcher(fake, store, WithPolicy(PolicyAllowConcurrent))

	earlyID, err := d.Trigger("early")
	require.NoError(t, err)
	_, err = d.Trigger("late")
	require.NoError(t, err)
	assert.Equal(t, 2, d.InFlight())

	// Finish the later trigger first, then the earlier one
	close(gates["late"])
	require.Eventually(t, func() bool { return store.Version() == 1 }, 5*time.Second, time.Millisecond)
	close(gates["early"])
	closeDispatcher(t, d)

	outcome, ok := d.PollResult()
	require.True(t, ok)
	assert.Equal(t, earlyID, outcome.AttemptID)
	assert.Equal(t, uint64(2), store.Version())
}

func TestDispatcher_FailureOverwritesSuccess(t *testing.T) {
	fake := &fakeClassifier{fn: func(_ context.Context, _ string, call int) (*models.ClassificationResult, error) {
		if call == 1 {
			return circles(1), nil
		}
		return nil, &llm.DecodeError{RawText: "I cannot help with that.", Err: errors.New("invalid JSON")}
	}}
	d := NewDispatcher(fake, NewResultStore())

	_, err := d.Trigger("one circle")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return !d.IsBusy() }, 5*time.Second, time.Millisecond)

	outcome, _ := d.PollResult()
	require.True(t, outcome.Succeeded())

	_, err = d.Trigger("a horse")
	require.NoError(t, err)
	closeDispatcher(t, d)

	outcome, ok := d.PollResult()
	require.True(t, ok)
	assert.Equal(t, OutcomeDecodeFailed, outcome.Kind())
	var decodeErr *llm.DecodeError
	require.ErrorAs(t, outcome.Err, &decodeErr)
	assert.Equal(t, "I cannot help with that.", decodeErr.RawText)
}

func TestDispatcher_Retry(t *testing.T) {
	t.Run("request errors retried", func(t *testing.T) {
		fake := &fakeClassifier{fn: func(_ context.Context, _ string, call int) (*models.ClassificationResult, error) {
			if call < 3 {
				return nil, &llm.RequestError{Err: errors.New("429 rate limited")}
			}
			return circles(2), nil
		}}
		d := NewDispatcher(fake, NewResultStore(), WithRetry(2, time.Millisecond))

		_, err := d.Trigger("two circles")
		require.NoError(t, err)
		closeDispatcher(t, d)

		outcome, _ := d.PollResult()
		assert.True(t, outcome.Succeeded())
		assert.Len(t, fake.calls(), 3)
	})

	t.Run("retries exhausted", func(t *testing.T) {
		fake := &fakeClassifier{fn: func(context.Context, string, int) (*models.ClassificationResult, error) {
			return nil, &llm.RequestError{Err: errors.New("connection refused")}
		}}
		d := NewDispatcher(fake, NewResultStore(), WithRetry(1, time.Millisecond))

		_, err := d.Trigger("two circles")
		require.NoError(t, err)
		closeDispatcher(t, d)

		outcome, _ := d.PollResult()
		assert.Equal(t, OutcomeRequestFailed, outcome.Kind())
		assert.Len(t, fake.calls(), 2)
	})

	t.Run("decode errors not retried", func(t *testing.T) {
		fake := &fakeClassifier{fn: func(context.Context, string, int) (*models.ClassificationResult, error) {
			return nil, &llm.DecodeError{RawText: "nope"}
		}}
		d := NewDispatcher(fake, NewResultStore(), WithRetry(3, time.Millisecond))

		_, err := d.Trigger("two circles")
		require.NoError(t, err)
		closeDispatcher(t, d)

		assert.Len(t, fake.calls(), 1)
	})

	t.Run("no retries by default", func(t *testing.T) {
		fake := &fakeClassifier{fn: func(context.Context, string, int) (*models.ClassificationResult, error) {
			return nil, &llm.RequestError{Err: errors.New("boom")}
		}}
		d := NewDispatcher(fake, NewResultStore())

		_, err := d.Trigger("two circles")
		require.NoError(t, err)
		closeDispatcher(t, d)

		assert.Len(t, fake.calls(), 1)
	})
}

func TestDispatcher_NilResultBecomesFailure(t *testing.T) {
	fake := &fakeClassifier{fn: func(context.Context, string, int) (*models.ClassificationResult, error) {
		return nil, nil
	}}
	d := NewDispatcher(fake, NewResultStore())

	_, err := d.Trigger("something")
	require.NoError(t, err)
	closeDispatcher(t, d)

	outcome, ok := d.PollResult()
	require.True(t, ok)
	assert.Equal(t, OutcomeRequestFailed, outcome.Kind())
}

func TestDispatcher_Close(t *testing.T) {
	release := make(chan struct{})
	fake := &fakeClassifier{fn: func(context.Context, string, int) (*models.ClassificationResult, error) {
		<-release
		return circles(1), nil
	}}
	d := NewDispatcher(fake, NewResultStore())

	_, err := d.Trigger("one circle")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)

	_, err = d.Trigger("another")
	assert.ErrorIs(t, err, ErrClosed)

	// The in-flight attempt still completes and lands in the store
	close(release)
	closeDispatcher(t, d)
	outcome, ok := d.PollResult()
	require.True(t, ok)
	assert.True(t, outcome.Succeeded())
}

func TestDispatcher_UnreachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL + "/v1"
	server.Close()

	config := llm.DefaultConfig("test-key")
	config.BaseURL = baseURL
	config.Timeout = 5 * time.Second
	client, err := llm.NewClient(context.Background(), config, zap.NewNop())
	require.NoError(t, err)

	d := NewDispatcher(client, NewResultStore())
	_, err = d.Trigger("three circles")
	require.NoError(t, err)
	closeDispatcher(t, d)

	outcome, ok := d.PollResult()
	require.True(t, ok)
	assert.Equal(t, OutcomeRequestFailed, outcome.Kind())
	assert.ErrorIs(t, outcome.Err, llm.ErrRequest)
}

func TestParseBusyPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    BusyPolicy
		wantErr bool
	}{
		{"", PolicyIgnoreWhileBusy, false},
		{"ignore", PolicyIgnoreWhileBusy, false},
		{"Concurrent", PolicyAllowConcurrent, false},
		{"queue", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBusyPolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) BusyPolicy {
	t.Helper()
	p, err := ParseBusyPolicy(s)
	require.NoError(t, err)
	return p
}
