// ABOUTME: Tests for the single-slot ResultStore
// ABOUTME: Verifies empty reads, overwrite semantics, versions, and torn-read safety

package core

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/shape-classifier/internal/llm"
	"github.com/harper/shape-classifier/internal/models"
)

func TestResultStore_EmptyUntilWritten(t *testing.T) {
	store := NewResultStore()

	_, ok := store.Read()
	assert.False(t, ok)
	assert.Equal(t, uint64(0), store.Version())

	// Reads have no side effects
	for i := 0; i < 5; i++ {
		_, ok = store.Read()
		assert.False(t, ok)
	}
}

func TestResultStore_LatestWriteWins(t *testing.T) {
	store := NewResultStore()

	success := Success("a1", "two squares", models.ClassificationResult{Valid: true, Shape: models.ShapeSquare, Count: 2})
	store.Write(success)

	got, ok := store.Read()
	require.True(t, ok)
	assert.Equal(t, success, got)
	assert.Equal(t, uint64(1), store.Version())

	failure := Failure("a2", "three circles", &llm.RequestError{Err: errors.New("connection refused")})
	store.Write(failure)

	got, ok = store.Read()
	require.True(t, ok)
	assert.Equal(t, "a2", got.AttemptID)
	assert.False(t, got.Succeeded())
	assert.Equal(t, uint64(2), store.Version())
}

func TestResultStore_Snapshot(t *testing.T) {
	store := NewResultStore()
	_, version, ok := store.Snapshot()
	assert.False(t, ok)
	assert.Zero(t, version)

	store.Write(Success("a1", "one circle", models.ClassificationResult{Valid: true, Shape: models.ShapeCircle, Count: 1}))

	outcome, version, ok := store.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, uint64(1), version)
	assert.Equal(t, "a1", outcome.AttemptID)
}

// Every written outcome is internally consistent: the attempt ID, prompt and
// count all encode the same writer/sequence pair. A torn read would break that.
func TestResultStore_NoTornReads(t *testing.T) {
	store := NewResultStore()
	const writers, writesEach = 8, 500

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < writesEach; i++ {
				id := fmt.Sprintf("%d-%d", w, i)
				store.Write(Success(id, "prompt "+id, models.ClassificationResult{
					Valid: w%2 == 0,
					Error: "err " + id,
					Shape: models.AllShapeKinds()[w%4],
					Count: int32(w*writesEach + i),
				}))
			}
		}(w)
	}

	stop := make(chan struct{})
	readerDone := make(chan error, 1)
	go func() {
		for {
			select {
			case <-stop:
				readerDone <- nil
				return
			default:
			}
			o, ok := store.Read()
			if !ok {
				continue
			}
			var w, i int
			if _, err := fmt.Sscanf(o.AttemptID, "%d-%d", &w, &i); err != nil {
				readerDone <- err
				return
			}
			if o.Prompt != "prompt "+o.AttemptID || o.Result.Error != "err "+o.AttemptID ||
				o.Result.Count != int32(w*writesEach+i) || o.Result.Shape != models.AllShapeKinds()[w%4] {
				readerDone <- fmt.Errorf("torn read: %+v", o)
				return
			}
		}
	}()

	wg.Wait()
	close(stop)
	require.NoError(t, <-readerDone)
	assert.Equal(t, uint64(writers*writesEach), store.Version())
}
