package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Значения label "status" для шагов.
const (
	StepDeployed = "deployed"
	StepReused   = "reused"
	StepFailed   = "failed"
)

// Step metrics
var (
	StepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodus_deploy_steps_total",
			Help: "Total number of deployment steps by outcome",
		},
		[]string{"network", "status"},
	)

	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nodus_deploy_step_duration_seconds",
			Help:    "Time from submission to confirmation of a single deployment",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"network", "contract"},
	)

	GasUsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodus_deploy_gas_used_total",
			Help: "Total gas used by confirmed deployments",
		},
		[]string{"network"},
	)
)

// Run metrics
var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodus_deploy_runs_total",
			Help: "Total number of plan runs by final status",
		},
		[]string{"network", "status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nodus_deploy_run_duration_seconds",
			Help:    "Wall time of a plan run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"network"},
	)
)

// ObserveStep записывает метрики одного шага.
func ObserveStep(network, contract, status string, duration time.Duration, gasUsed uint64) {
	StepsTotal.WithLabelValues(network, status).Inc()
	if status != StepDeployed {
		return
	}
	StepDuration.WithLabelValues(network, contract).Observe(duration.Seconds())
	GasUsedTotal.WithLabelValues(network).Add(float64(gasUsed))
}

// ObserveRun записывает метрики завершённого run.
func ObserveRun(network, status string, duration time.Duration) {
	RunsTotal.WithLabelValues(network, status).Inc()
	RunDuration.WithLabelValues(network).Observe(duration.Seconds())
}

// PushMetrics отправляет метрики процесса в Prometheus Pushgateway.
//
// CLI живёт меньше интервала scrape, поэтому в конце run
// метрики отправляются явно. Сеть идёт в grouping key "instance":
// label "network" уже есть у самих метрик, а Pushgateway
// не принимает метрики, содержащие label группировки.
func PushMetrics(ctx context.Context, url, job, network string) error {
	err := push.New(url, job).
		Gatherer(prometheus.DefaultGatherer).
		Grouping("instance", network).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
