// Package metrics exposes canvas activity as prometheus collectors. The
// collectors are fed by engine hooks, so every host gets them by adding
// Collectors.Hooks() to its engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
)

const namespace = "branchcanvas"

type Collectors struct {
	Mutations     *prometheus.CounterVec
	MutationTime  *prometheus.HistogramVec
	NodeEvents    *prometheus.CounterVec
	Nodes         prometheus.Gauge
	Version       prometheus.Gauge
	RepliesQueued prometheus.Counter
}

func New() *Collectors {
	return &Collectors{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Mutations applied to the canvas, by outcome",
			},
			[]string{"mutation", "result"},
		),
		MutationTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mutation_duration_seconds",
				Help:      "Time spent applying a mutation",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
			[]string{"mutation"},
		),
		NodeEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_events_total",
				Help:      "Node lifecycle events, including writes to nodes that no longer exist",
			},
			[]string{"type"},
		),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes",
			Help:      "Nodes currently on the canvas",
		}),
		Version: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "version",
			Help:      "Canvas version counter",
		}),
		RepliesQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_requested_total",
			Help:      "Requests handed to the responder",
		}),
	}
}

func (c *Collectors) Register(r prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{
		c.Mutations, c.MutationTime, c.NodeEvents, c.Nodes, c.Version, c.RepliesQueued,
	} {
		if err := r.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry with the collectors and the go runtime collectors registered.
func (c *Collectors) NewRegistry() (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := c.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func result(ev *canvas.MutationEvent) string {
	switch {
	case ev.Err != nil:
		return "rejected"
	case !ev.Changed:
		return "unchanged"
	default:
		return "applied"
	}
}

func (c *Collectors) Hooks() canvas.Hooks {
	node := func(ev *canvas.NodeEvent) {
		c.NodeEvents.WithLabelValues(string(ev.Type)).Inc()
		c.Nodes.Set(float64(ev.NodeCount))
	}
	return canvas.Hooks{
		OnMutation: func(ev *canvas.MutationEvent) {
			c.Mutations.WithLabelValues(ev.Name, result(ev)).Inc()
			c.MutationTime.WithLabelValues(ev.Name).Observe(ev.Duration.Seconds())
			c.Version.Set(float64(ev.Version))
		},
		OnNodeCreated:     node,
		OnNodeRemoved:     node,
		OnPayloadAppended: node,
		OnStaleUpdate:     node,
	}
}
