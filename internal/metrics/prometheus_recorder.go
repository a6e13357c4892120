package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dextracker"

// Result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultChanged = "changed"
	ResultSame    = "unchanged"
)

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	requests        *prom.CounterVec
	requestDuration *prom.HistogramVec
	stateWrites     prom.Counter
	persistFailures prom.Counter
	caught          *prom.GaugeVec
	backups         *prom.CounterVec
	reloads         *prom.CounterVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates the collectors and registers them on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prom.DefBuckets,
		}, []string{"route"}),
		stateWrites: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "state_writes_total",
			Help:      "Caught-state mutations accepted",
		}),
		persistFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Failed attempts to write the caught state to its backend",
		}),
		caught: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "caught",
			Help:      "Current number of records, normal catches and shiny catches",
		}, []string{"kind"}),
		backups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Scheduled state backups by result",
		}, []string{"result"}),
		reloads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "State reloads triggered by file changes, by result",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.requests, pr.requestDuration, pr.stateWrites, pr.persistFailures, pr.caught, pr.backups, pr.reloads)
	return pr
}

func (p *PrometheusRecorder) ObserveRequest(route, method string, status int, d time.Duration) {
	p.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	p.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStateWrite() { p.stateWrites.Inc() }

func (p *PrometheusRecorder) IncPersistFailure() { p.persistFailures.Inc() }

func (p *PrometheusRecorder) SetCaught(records, normal, shiny int) {
	p.caught.WithLabelValues("records").Set(float64(records))
	p.caught.WithLabelValues("normal").Set(float64(normal))
	p.caught.WithLabelValues("shiny").Set(float64(shiny))
}

func (p *PrometheusRecorder) IncBackup(result string) { p.backups.WithLabelValues(result).Inc() }

func (p *PrometheusRecorder) IncReload(result string) { p.reloads.WithLabelValues(result).Inc() }

// HTTPHandler serves the metrics gathered by g.
func HTTPHandler(g prom.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
