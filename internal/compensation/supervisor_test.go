package compensation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/otusforge/resourced/internal/log"
)

func TestRunExecutesAndWaitDrains(t *testing.T) {
	log.Init(&log.LoggerConfig{Level: "info"})
	s := New(log.GetLogger())

	var ran int32
	s.Run("rollback", func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})
	s.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&ran))
}

func TestRunLogsErrorWithoutPanicking(t *testing.T) {
	log.Init(&log.LoggerConfig{Level: "info"})
	s := New(log.GetLogger())

	s.Run("rollback", func(ctx context.Context) error {
		return errors.New("boom")
	})
	s.Wait()
}

func TestCancelSignalsInFlightContexts(t *testing.T) {
	log.Init(&log.LoggerConfig{Level: "info"})
	s := New(log.GetLogger())

	started := make(chan struct{})
	canceled := make(chan struct{})
	s.Run("rollback", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(canceled)
		return nil
	})
	<-started
	s.Cancel()
	<-canceled
	s.Wait()
}
