package client

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/frontdesk/checkin-backend/internal/session"
)

// Poller is the delivery fallback for when the WebSocket is down: after a
// grace period (so transient reconnects do not flap it on), it fetches a
// session snapshot on a fixed interval until connectivity returns. Polling
// and socket delivery may overlap in time; both feed the same full-snapshot
// reducer, so they are idempotent against each other.
type Poller struct {
	fetch    func(ctx context.Context) (*session.View, error)
	apply    func(*session.View)
	grace    time.Duration
	interval time.Duration
	logger   *zap.Logger

	conn chan bool
}

func NewPoller(fetch func(ctx context.Context) (*session.View, error), apply func(*session.View), grace, interval time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		fetch:    fetch,
		apply:    apply,
		grace:    grace,
		interval: interval,
		logger:   logger,
		conn:     make(chan bool, 8),
	}
}

// SetConnected reports WebSocket connectivity changes. Safe from any
// goroutine.
func (p *Poller) SetConnected(connected bool) {
	p.conn <- connected
}

// Run is the single supervised loop. It returns when ctx is done. Starts in
// the disconnected state: a client that never reports a live socket polls.
func (p *Poller) Run(ctx context.Context) {
	connected := false

	grace := time.NewTimer(p.grace)
	defer grace.Stop()
	var tick *time.Ticker
	var tickC <-chan time.Time
	stopTicker := func() {
		if tick != nil {
			tick.Stop()
			tick = nil
			tickC = nil
		}
	}
	defer stopTicker()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-p.conn:
			if c == connected {
				continue
			}
			connected = c
			if connected {
				// Socket is back: stop polling and disarm the grace timer.
				stopTicker()
				if !grace.Stop() {
					select {
					case <-grace.C:
					default:
					}
				}
			} else {
				grace.Reset(p.grace)
			}

		case <-grace.C:
			if connected {
				continue
			}
			tick = time.NewTicker(p.interval)
			tickC = tick.C
			p.poll(ctx)

		case <-tickC:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	snap, err := p.fetch(fetchCtx)
	if err != nil {
		// Transient by definition: the next tick retries, the user never
		// hears about it.
		p.logger.Debug("poll failed", zap.Error(err))
		return
	}
	p.apply(snap)
}
