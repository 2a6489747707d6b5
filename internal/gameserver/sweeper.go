package gameserver

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tilegame/internal/protocol"
)

// Sweeper periodically expires clients whose heartbeat deadline has passed.
// An expired client gets a disconnect run on its behalf, the same path an
// explicit disconnect takes, and then its socket is cut without a farewell.
type Sweeper struct {
	timeouts   *TimeoutQueue
	dispatcher *Dispatcher
	service    *Service
	interval   time.Duration
	logger     *zap.Logger
}

// NewSweeper creates a stopped sweeper.
//
// Precondition: interval > 0; all collaborators must be non-nil.
func NewSweeper(timeouts *TimeoutQueue, dispatcher *Dispatcher, service *Service, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		timeouts:   timeouts,
		dispatcher: dispatcher,
		service:    service,
		interval:   interval,
		logger:     logger,
	}
}

// Start launches the sweep goroutine and returns a stop function.
// Calling stop() is idempotent.
//
// Postcondition: The queue is swept once per interval until stop() is called.
func (s *Sweeper) Start() (stop func()) {
	done := make(chan struct{})
	var once sync.Once
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep(time.Now())
			case <-done:
				return
			}
		}
	}()
	return func() {
		once.Do(func() { close(done) })
	}
}

// Sweep expires every client whose deadline is at or before now. Exposed
// so tests can drive the clock directly.
func (s *Sweeper) Sweep(now time.Time) {
	for _, id := range s.timeouts.Expired(now) {
		s.logger.Info("heartbeat timeout",
			zap.Uint32("client_id", uint32(id)))

		if _, err := s.dispatcher.Dispatch(id, &protocol.DisconnectRequest{}); err != nil {
			s.logger.Error("timeout disconnect failed",
				zap.Uint32("client_id", uint32(id)),
				zap.Error(err))
		}
		s.service.Kick(id)
	}
}
