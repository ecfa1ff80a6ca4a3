package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"assembly/contexts/assembly-governance/voting-rights/domain/entities"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounters(t *testing.T) {
	recorder := New()

	recorder.BallotsCast("asm-1", 2, 0.35)
	recorder.BallotsCast("asm-1", 1, 0.10)
	recorder.OTPDispatched("sms", true)
	recorder.OTPDispatched("email", false)
	recorder.DelegationTransitioned(entities.ProxyStatusApproved)
	recorder.QuorumObserved("asm-1", 60)

	if got := testutil.ToFloat64(recorder.ballotsCast.WithLabelValues("asm-1")); got != 3 {
		t.Fatalf("expected 3 ballots, got %v", got)
	}
	if got := testutil.ToFloat64(recorder.otpDispatched.WithLabelValues("email", "false")); got != 1 {
		t.Fatalf("expected 1 failed email dispatch, got %v", got)
	}
	if got := testutil.ToFloat64(recorder.quorumPercentage.WithLabelValues("asm-1")); got != 60 {
		t.Fatalf("expected quorum gauge 60, got %v", got)
	}
}

func TestRecorderHandlerExposesMetrics(t *testing.T) {
	recorder := New()
	recorder.DelegationTransitioned(entities.ProxyStatusRevoked)

	rr := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `assembly_delegation_transitions_total{status="REVOKED"} 1`) {
		t.Fatalf("expected delegation counter in exposition, got:\n%s", rr.Body.String())
	}
}
