package metrics

import (
	"net/http"
	"strconv"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "assembly"

// Recorder exports voting-rights counters to Prometheus.
type Recorder struct {
	registry *prometheus.Registry

	ballotsCast      *prometheus.CounterVec
	ballotWeight     *prometheus.CounterVec
	otpDispatched    *prometheus.CounterVec
	delegations      *prometheus.CounterVec
	quorumPercentage *prometheus.GaugeVec
}

// New builds a Recorder on a private registry that also carries the Go and
// process collectors.
func New() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		ballotsCast: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ballots_cast_total",
			Help:      "Ballots recorded, one per represented unit.",
		}, []string{"assembly_id"}),
		ballotWeight: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ballot_weight_total",
			Help:      "Sum of coefficients carried by recorded ballots.",
		}, []string{"assembly_id"}),
		otpDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_dispatch_total",
			Help:      "Verification code deliveries by channel and outcome.",
		}, []string{"channel", "success"}),
		delegations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delegation_transitions_total",
			Help:      "Proxy state transitions by target status.",
		}, []string{"status"}),
		quorumPercentage: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quorum_percentage",
			Help:      "Last observed present coefficient as a percentage of the total.",
		}, []string{"assembly_id"}),
	}
}

func (r *Recorder) BallotsCast(assemblyID string, ballots int, weight float64) {
	r.ballotsCast.WithLabelValues(assemblyID).Add(float64(ballots))
	r.ballotWeight.WithLabelValues(assemblyID).Add(weight)
}

func (r *Recorder) OTPDispatched(channel string, success bool) {
	r.otpDispatched.WithLabelValues(channel, strconv.FormatBool(success)).Inc()
}

func (r *Recorder) DelegationTransitioned(status entities.ProxyStatus) {
	r.delegations.WithLabelValues(string(status)).Inc()
}

func (r *Recorder) QuorumObserved(assemblyID string, percentage float64) {
	r.quorumPercentage.WithLabelValues(assemblyID).Set(percentage)
}

// Registry exposes the underlying registry for tests and custom collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
