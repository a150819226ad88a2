package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollectorRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordExpenseWrite("create")
	c.RecordHTTPRequest(200, 15*time.Millisecond)
	c.RecordBroadcast(2)
	c.RecordExport(true)
	c.RecordExport(false)
	c.SetActiveSubscriptions(3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"kharcha_expense_writes_total",
		"kharcha_http_status_total",
		"kharcha_http_latency_seconds",
		"kharcha_snapshot_broadcasts_total",
		"kharcha_export_success_total",
		"kharcha_export_fail_total",
		"kharcha_active_subscriptions",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordExpenseWrite("delete")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "kharcha_expense_writes_total") {
		t.Error("response should contain kharcha_expense_writes_total")
	}
}

func TestNoopIsRecorder(t *testing.T) {
	var r Recorder = Noop{}
	r.RecordExpenseWrite("create")
	r.RecordHTTPRequest(500, time.Millisecond)
	r.RecordBroadcast(0)
	r.RecordExport(false)
	r.SetActiveSubscriptions(0)
}
