package application

import (
	"log/slog"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"
	"assembly/contexts/assembly-governance/voting-rights/ports"
)

// ResolveLogger guarantees a non-nil logger for application/worker code paths.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// ResolveMetrics returns a no-op recorder when metrics are not wired.
func ResolveMetrics(metrics ports.Metrics) ports.Metrics {
	if metrics == nil {
		return noopMetrics{}
	}
	return metrics
}

type noopMetrics struct{}

func (noopMetrics) BallotsCast(string, int, float64) {}
func (noopMetrics) OTPDispatched(string, bool) {}
func (noopMetrics) DelegationTransitioned(entities.ProxyStatus) {}
func (noopMetrics) QuorumObserved(string, float64) {}
