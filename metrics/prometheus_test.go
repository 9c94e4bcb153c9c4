package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExposesPricingMetrics(t *testing.T) {
	m := NewMetrics("mcpricer-test")
	m.PathsSimulated.Add(100)
	m.PricingRuns.WithLabelValues("ok").Inc()
	m.PriceEstimate.WithLabelValues("lookback_call").Set(12.5)
	m.RegisterBuildInfo("mcpricer", "v0.1.0")
	m.RegisterBuildInfo("mcpricer", "v0.2.0")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		"mc_paths_simulated_total 100",
		`mc_pricing_runs_total{status="ok"} 1`,
		`mc_price_estimate{variant="lookback_call"} 12.5`,
		`build_info{service="mcpricer",version="v0.1.0"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
	if strings.Contains(body, "v0.2.0") {
		t.Errorf("build info must only be registered once")
	}
}
