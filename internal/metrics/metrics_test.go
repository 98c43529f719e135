package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/LeventeLantos/sms-faas/internal/model"
)

func TestObserveLog(t *testing.T) {
	m := New()

	m.ObserveLog(model.Sent)
	m.ObserveLog(model.Sent)
	m.ObserveLog(model.Failed)

	if got := testutil.ToFloat64(m.SmsLogged.WithLabelValues("SENT")); got != 2 {
		t.Fatalf("expected 2 SENT, got %v", got)
	}
	if got := testutil.ToFloat64(m.SmsLogged.WithLabelValues("FAILED")); got != 1 {
		t.Fatalf("expected 1 FAILED, got %v", got)
	}
}

func TestHandler_ExposesCounters(t *testing.T) {
	m := New()
	m.ObserveLog(model.Sent)
	m.GraphQLRequests.WithLabelValues("200").Inc()

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	for _, want := range []string{
		`sms_logged_total{status="SENT"} 1`,
		`graphql_requests_total{code="200"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected metrics output to contain %q", want)
		}
	}
}
