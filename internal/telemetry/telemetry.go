// Package telemetry exposes live loop signals over Prometheus for the
// real-time serve mode.
package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Telemetry struct {
	registry *prometheus.Registry

	setpoint     prometheus.Gauge
	measurement  prometheus.Gauge
	output       prometheus.Gauge
	trackingErr  prometheus.Gauge
	updateErrors prometheus.Counter
	tickDuration prometheus.Histogram
}

func New(plantName string) *Telemetry {
	labels := prometheus.Labels{"plant": plantName}
	t := &Telemetry{
		registry: prometheus.NewRegistry(),
		setpoint: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "pidlab_setpoint",
			Help:        "Current loop setpoint",
			ConstLabels: labels,
		}),
		measurement: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "pidlab_measurement",
			Help:        "Current plant output",
			ConstLabels: labels,
		}),
		output: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "pidlab_control_output",
			Help:        "Current clamped controller output",
			ConstLabels: labels,
		}),
		trackingErr: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "pidlab_tracking_error",
			Help:        "Setpoint minus measurement",
			ConstLabels: labels,
		}),
		updateErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "pidlab_update_errors_total",
			Help:        "Controller updates rejected with an error",
			ConstLabels: labels,
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "pidlab_tick_duration_seconds",
			Help:        "Wall time spent per control tick",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}

	t.registry.MustRegister(
		t.setpoint, t.measurement, t.output, t.trackingErr,
		t.updateErrors, t.tickDuration,
	)
	return t
}

// OnTick implements the loop observer.
func (t *Telemetry) OnTick(_, setpoint, measurement, output float64) {
	t.setpoint.Set(setpoint)
	t.measurement.Set(measurement)
	t.output.Set(output)
	t.trackingErr.Set(setpoint - measurement)
}

func (t *Telemetry) RecordUpdateError() {
	t.updateErrors.Inc()
}

func (t *Telemetry) ObserveTickDuration(d time.Duration) {
	t.tickDuration.Observe(d.Seconds())
}

// Serve blocks on an HTTP listener exposing /metrics and /health.
func (t *Telemetry) Serve(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
