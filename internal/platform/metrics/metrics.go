package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"
)

const job = "personnel"

// Registry owns the process collectors and pushes them to a Pushgateway at
// the end of a run. A CLI invocation is too short-lived to be scraped.
type Registry struct {
	*prometheus.Registry
	gatewayURL string
}

// New returns a registry with Go runtime collectors. An empty gatewayURL
// makes Push a no-op.
func New(gatewayURL string) *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{Registry: reg, gatewayURL: gatewayURL}
}

func (r *Registry) Enabled() bool {
	return r.gatewayURL != ""
}

// Push replaces the metrics previously pushed for this job and mode.
func (r *Registry) Push(ctx context.Context, mode string) error {
	if !r.Enabled() {
		return nil
	}
	err := push.New(r.gatewayURL, job).
		Gatherer(r.Registry).
		Grouping("mode", mode).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
