package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewIsolatedRegistries(t *testing.T) {
	a := New()
	b := New()

	a.Lookups.WithLabelValues(ResultFound).Inc()

	if got := testutil.ToFloat64(a.Lookups.WithLabelValues(ResultFound)); got != 1 {
		t.Errorf("a lookups = %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.Lookups.WithLabelValues(ResultFound)); got != 0 {
		t.Errorf("b lookups = %v, want 0", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.AdminWrites.WithLabelValues("upsert_domain", "ok").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `rollcall_admin_writes_total{op="upsert_domain",outcome="ok"} 1`) {
		t.Errorf("metrics output missing admin write counter:\n%s", body)
	}
}

func TestOutcome(t *testing.T) {
	if Outcome(nil) != "ok" {
		t.Error("Outcome(nil) should be ok")
	}
	if Outcome(errors.New("x")) != "error" {
		t.Error("Outcome(err) should be error")
	}
}
