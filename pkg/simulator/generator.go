package simulator

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// FlowGenerator varies the inlet flow of every active meter. Each round
// picks a fraction in {0, 0.01, ..., 0.99} of the inlet's maximum.
type FlowGenerator struct {
	devices  Devices
	interval time.Duration
	rng      *rand.Rand
	logger   *slog.Logger
	rounds   uint64
}

// NewFlowGenerator creates a generator over devices.
func NewFlowGenerator(devices Devices, cfg Config) *FlowGenerator {
	cfg.applyDefaults()

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &FlowGenerator{
		devices:  devices,
		interval: cfg.GenerateInterval,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		logger:   cfg.Logger,
	}
}

// Generate runs one round and returns how many meters were updated.
// It must not be called concurrently with Run.
func (g *FlowGenerator) Generate() int {
	g.rounds++
	updated := 0
	for _, d := range g.devices.Devices() {
		if !d.Meter.IsActive() {
			continue
		}
		inlet := d.Meter.Inlet()
		flow := float64(g.rng.IntN(100)) / 100 * inlet.MaxFlowRate()
		inlet.SetFlowRate(flow)
		updated++

		if g.logger != nil {
			g.logger.Debug("flow generated",
				"round", g.rounds,
				"owner", d.Owner,
				"device", d.Key,
				"flow", flow,
				"utilization", inlet.Utilization())
		}
	}
	return updated
}

// Run generates a round every interval until ctx is cancelled.
func (g *FlowGenerator) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Generate()
		}
	}
}
