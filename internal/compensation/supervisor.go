// Package compensation runs the fire-and-forget rollback operations the
// core schedules after a failed create (delete) or a failed start (stop):
// Rollback runs fire-and-forget: an explicit supervisor owns them and
// logs their errors rather than silently discarding them.
package compensation

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc"

	"github.com/otusforge/resourced/internal/log"
)

// Supervisor tracks in-flight rollback goroutines by a monotonic ID so
// Cancel can reach each one's context, and runs them on its own WaitGroup
// so Wait can drain them deterministically (used by tests and graceful
// shutdown) without the caller threading a WaitGroup through every
// ResourcesManager operation.
type Supervisor struct {
	logger log.Logger

	mu       sync.Mutex
	inFlight map[int64]context.CancelFunc
	nextID   int64
	wg       conc.WaitGroup
}

// New returns a Supervisor that logs rollback failures through logger.
func New(logger log.Logger) *Supervisor {
	return &Supervisor{
		logger:   logger,
		inFlight: make(map[int64]context.CancelFunc),
	}
}

// Run schedules fn as a rollback operation titled title. fn's error, if
// any, is logged, never returned or swallowed silently. Run does not
// block.
func (s *Supervisor) Run(title string, fn func(ctx context.Context) error) {
	id := atomic.AddInt64(&s.nextID, 1)
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.inFlight[id] = cancel
	s.mu.Unlock()

	s.wg.Go(func() {
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, id)
			s.mu.Unlock()
			cancel()
		}()
		if err := fn(ctx); err != nil {
			s.logger.WithError(err).Errorf("compensation %q failed", title)
		}
	})
}

// Cancel cancels every currently in-flight rollback's context. It does not
// wait for them to observe cancellation; call Wait afterward if needed.
func (s *Supervisor) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cancel := range s.inFlight {
		cancel()
	}
}

// Wait blocks until every scheduled rollback has returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
