// ABOUTME: Dispatcher turning user triggers into background classification attempts
// ABOUTME: Owns a long-lived task group and writes each outcome to the ResultStore
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harper/shape-classifier/internal/llm"
	"github.com/harper/shape-classifier/internal/models"
	"github.com/harper/shape-classifier/internal/util"
)

var (
	// ErrBusy is returned by Trigger under PolicyIgnoreWhileBusy while an
	// attempt is in flight
	ErrBusy = errors.New("classification already in flight")
	// ErrEmptyPrompt is returned for empty or whitespace-only prompts
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("dispatcher is closed")
)

// Classifier performs one classification round trip
type Classifier interface {
	Classify(ctx context.Context, prompt string) (*models.ClassificationResult, error)
}

// BusyPolicy decides what happens to a trigger while another attempt runs
type BusyPolicy int

const (
	// PolicyIgnoreWhileBusy rejects triggers with ErrBusy until the in-flight
	// attempt has written its outcome
	PolicyIgnoreWhileBusy BusyPolicy = iota
	// PolicyAllowConcurrent starts every trigger; the attempt that finishes
	// last owns the store
	PolicyAllowConcurrent
)

func (p BusyPolicy) String() string {
	switch p {
	case PolicyIgnoreWhileBusy:
		return "ignore"
	case PolicyAllowConcurrent:
		return "concurrent"
	default:
		return fmt.Sprintf("BusyPolicy(%d)", int(p))
	}
}

// ParseBusyPolicy maps "ignore" or "concurrent" to a BusyPolicy
func ParseBusyPolicy(s string) (BusyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return PolicyIgnoreWhileBusy, nil
	case "concurrent":
		return PolicyAllowConcurrent, nil
	default:
		return 0, fmt.Errorf("unknown busy policy %q (want ignore or concurrent)", s)
	}
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithPolicy sets the busy policy
func WithPolicy(policy BusyPolicy) Option {
	return func(d *Dispatcher) {
		d.policy = policy
	}
}

// WithRetry re-runs attempts that fail with a request error up to maxRetries
// more times, backing off from baseDelay. Decode errors are never retried.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(d *Dispatcher) {
		d.maxRetries = max(maxRetries, 0)
		d.retryDelay = baseDelay
	}
}

// Dispatcher schedules classification attempts off the caller's goroutine.
// All attempts run on one task group owned by the Dispatcher.
type Dispatcher struct {
	classifier Classifier
	store      *ResultStore
	logger     *zap.Logger
	policy     BusyPolicy
	maxRetries int
	retryDelay time.Duration

	ctx      context.Context
	group    errgroup.Group
	inFlight atomic.Int32

	mu     sync.Mutex // orders group.Go against Close
	closed bool
}

// NewDispatcher creates a dispatcher writing outcomes into store
func NewDispatcher(classifier Classifier, store *ResultStore, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		classifier: classifier,
		store:      store,
		logger:     zap.NewNop(),
		policy:     PolicyIgnoreWhileBusy,
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.Named("dispatcher")
	return d
}

// Trigger snapshots prompt and starts one attempt in the background. It
// returns the attempt ID without waiting for the model.
func (d *Dispatcher) Trigger(prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return "", ErrClosed
	}

	if d.policy == PolicyAllowConcurrent {
		d.inFlight.Add(1)
	} else if !d.inFlight.CompareAndSwap(0, 1) {
		d.logger.Debug("trigger ignored while busy")
		return "", ErrBusy
	}

	attemptID := uuid.New().String()
	d.logger.Info("classification dispatched",
		zap.String("attempt_id", attemptID),
		zap.Int("prompt_len", len(prompt)))

	d.group.Go(func() error {
		// Released after the write so !IsBusy() implies the outcome is visible
		defer d.inFlight.Add(-1)
		d.run(attemptID, prompt)
		return nil
	})

	return attemptID, nil
}

func (d *Dispatcher) run(attemptID, prompt string) {
	logger := d.logger.With(zap.String("attempt_id", attemptID))
	start := time.Now()

	var (
		result *models.ClassificationResult
		err    error
	)
	for attempt := 0; ; attempt++ {
		result, err = d.classifier.Classify(d.ctx, prompt)
		if err == nil || !errors.Is(err, llm.ErrRequest) || attempt >= d.maxRetries {
			break
		}

		delay := util.CalculateBackoff(d.retryDelay, attempt+1)
		logger.Info("retrying classification",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))
		_ = util.Wait(d.ctx, delay)
	}

	if err == nil && result == nil {
		err = &llm.RequestError{Err: errors.New("classifier returned no result")}
	}

	if err != nil {
		d.store.Write(Failure(attemptID, prompt, err))
		logger.Warn("classification failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}

	d.store.Write(Success(attemptID, prompt, *result))
	logger.Info("classification completed",
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("valid", result.Valid),
		zap.Stringer("shape", result.Shape),
		zap.Int32("count", result.Count))
}

// IsBusy reports whether any attempt is in flight
func (d *Dispatcher) IsBusy() bool {
	return d.inFlight.Load() > 0
}

// InFlight returns the number of running attempts
func (d *Dispatcher) InFlight() int {
	return int(d.inFlight.Load())
}

// Policy returns the configured busy policy
func (d *Dispatcher) Policy() BusyPolicy {
	return d.policy
}

// PollResult is the non-blocking read used by the polling loop
func (d *Dispatcher) PollResult() (Outcome, bool) {
	return d.store.Read()
}

// Store returns the store this dispatcher writes to
func (d *Dispatcher) Store() *ResultStore {
	return d.store
}

// Close stops accepting triggers and waits for in-flight attempts to write
// their outcomes, or for ctx to end. Running attempts are never cancelled.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = d.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
