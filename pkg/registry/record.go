package registry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hydrosim/hydrosim-go/pkg/meter"
)

// record is one registered device.
type record struct {
	key   DeviceKey
	meter *meter.Meter

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// start flips the record flag and launches its supervisor.
func (rec *record) start(interval time.Duration) {
	if rec.running.Swap(true) {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	rec.cancel = cancel
	rec.done = make(chan struct{})
	go rec.supervise(ctx, interval, rec.done)
}

// stop tears the record down: flag, meter, supervisor join. A permanent
// stop shuts the meter down for good.
func (rec *record) stop(permanent bool) {
	rec.running.Store(false)

	if permanent {
		rec.meter.Shutdown()
	} else {
		rec.meter.Stop()
	}

	if rec.cancel != nil {
		rec.cancel()
		<-rec.done
		rec.cancel = nil
		rec.done = nil
	}
}

// supervise idles until the record flag flips or ctx is cancelled.
func (rec *record) supervise(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !rec.running.Load() {
				return
			}
		}
	}
}

// supervising reports whether the supervisor goroutine exists.
func (rec *record) supervising() bool {
	return rec.done != nil
}
