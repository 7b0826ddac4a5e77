// Package metrics exposes registry state as Prometheus metrics.
//
// The simulator has no network surface, so metrics are written to a
// node-exporter textfile rather than served over HTTP.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/floats"

	"github.com/hydrosim/hydrosim-go/pkg/meter"
	"github.com/hydrosim/hydrosim-go/pkg/registry"
)

// StatusSource provides device snapshots. *registry.Registry implements it.
type StatusSource interface {
	SnapshotStatus() []registry.OwnerStatus
}

var (
	litersDesc = prometheus.NewDesc(
		"hydrosim_meter_liters",
		"Accumulated volume of a meter in liters.",
		[]string{"owner", "device"}, nil,
	)
	inletFlowDesc = prometheus.NewDesc(
		"hydrosim_meter_inlet_flow_m3s",
		"Current inlet flow rate in cubic meters per second.",
		[]string{"owner", "device"}, nil,
	)
	outletFlowDesc = prometheus.NewDesc(
		"hydrosim_meter_outlet_flow_m3s",
		"Current outlet flow rate in cubic meters per second.",
		[]string{"owner", "device"}, nil,
	)
	activeDesc = prometheus.NewDesc(
		"hydrosim_meter_active",
		"Whether the meter is accumulating (1) or paused (0).",
		[]string{"owner", "device"}, nil,
	)
	ownerLitersDesc = prometheus.NewDesc(
		"hydrosim_owner_liters_total",
		"Accumulated volume of all meters of an owner in liters.",
		[]string{"owner"}, nil,
	)
	devicesDesc = prometheus.NewDesc(
		"hydrosim_devices",
		"Number of registered devices.",
		nil, nil,
	)
)

// Collector turns registry snapshots into metrics on every scrape.
type Collector struct {
	source StatusSource
}

// NewCollector creates a Collector reading from source.
func NewCollector(source StatusSource) *Collector {
	return &Collector{source: source}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- litersDesc
	ch <- inletFlowDesc
	ch <- outletFlowDesc
	ch <- activeDesc
	ch <- ownerLitersDesc
	ch <- devicesDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	devices := 0
	for _, owner := range c.source.SnapshotStatus() {
		ownerLabel := strconv.Itoa(int(owner.Owner))
		liters := make([]float64, 0, len(owner.Devices))

		for _, d := range owner.Devices {
			key := string(d.Key)
			active := 0.0
			if d.Status == meter.StatusActive {
				active = 1
			}

			ch <- prometheus.MustNewConstMetric(litersDesc, prometheus.GaugeValue, float64(d.Counter), ownerLabel, key)
			ch <- prometheus.MustNewConstMetric(inletFlowDesc, prometheus.GaugeValue, d.InletFlow, ownerLabel, key)
			ch <- prometheus.MustNewConstMetric(outletFlowDesc, prometheus.GaugeValue, d.OutletFlow, ownerLabel, key)
			ch <- prometheus.MustNewConstMetric(activeDesc, prometheus.GaugeValue, active, ownerLabel, key)

			liters = append(liters, float64(d.Counter))
		}
		devices += len(owner.Devices)

		ch <- prometheus.MustNewConstMetric(ownerLitersDesc, prometheus.GaugeValue, floats.Sum(liters), ownerLabel)
	}
	ch <- prometheus.MustNewConstMetric(devicesDesc, prometheus.GaugeValue, float64(devices))
}

var _ prometheus.Collector = (*Collector)(nil)
