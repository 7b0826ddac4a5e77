package simulator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hydrosim/hydrosim-go/pkg/log"
)

// ErrAlreadyRunning is returned by Run while a previous Run is active.
var ErrAlreadyRunning = errors.New("simulator already running")

// Simulator runs a FlowGenerator and a RenderLoop over a set of devices.
type Simulator struct {
	config    Config
	devices   Devices
	generator *FlowGenerator
	render    *RenderLoop
	logger    *slog.Logger
	events    log.Logger

	mu           sync.Mutex
	cancel       context.CancelFunc
	done         chan struct{}
	limitReached bool
}

// New creates a simulator over devices.
func New(devices Devices, cfg Config) *Simulator {
	cfg.applyDefaults()
	return &Simulator{
		config:    cfg,
		devices:   devices,
		generator: NewFlowGenerator(devices, cfg),
		render:    NewRenderLoop(devices, cfg),
		logger:    cfg.Logger,
		events:    log.OrNoop(cfg.EventLogger),
	}
}

// Run starts the generator, the render loop and the volume limit check, and
// blocks until ctx is cancelled, Stop is called or a meter reaches
// StopAtLiters. All goroutines have exited when Run returns.
func (s *Simulator) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.limitReached = false
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancel = nil
		s.done = nil
		s.mu.Unlock()
		close(done)
	}()

	s.infoLog("simulation started", "devices", len(s.devices.Devices()))
	s.emitLifecycle("STOPPED", "RUNNING", "")

	var wg sync.WaitGroup
	if !s.config.DisableGenerator {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.generator.Run(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.render.Run(ctx)
	}()
	if s.config.StopAtLiters > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.watchLimit(ctx, cancel)
		}()
	}

	<-ctx.Done()
	wg.Wait()

	reason := "stopped"
	if s.LimitReached() {
		reason = "volume limit reached"
	}
	s.infoLog("simulation stopped", "reason", reason)
	s.emitLifecycle("RUNNING", "STOPPED", reason)
	return nil
}

// Stop cancels a running Run and waits for it to return. It is idempotent.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// IsRunning reports whether Run is active.
func (s *Simulator) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// LimitReached reports whether the last Run ended at StopAtLiters.
func (s *Simulator) LimitReached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limitReached
}

func (s *Simulator) watchLimit(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(s.config.LimitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, d := range s.devices.Devices() {
				if c := d.Meter.Counter(); c >= s.config.StopAtLiters {
					s.infoLog("volume limit reached", "owner", d.Owner, "device", d.Key, "counter", c)
					s.mu.Lock()
					s.limitReached = true
					s.mu.Unlock()
					cancel()
					return
				}
			}
		}
	}
}

func (s *Simulator) emitLifecycle(oldState, newState, reason string) {
	s.events.Log(log.Event{
		Timestamp: time.Now(),
		Source:    log.SourceSimulator,
		Category:  log.CategoryLifecycle,
		Lifecycle: &log.LifecycleEvent{
			Entity:   log.EntitySimulator,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func (s *Simulator) infoLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}
