package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"

	authengine "github.com/clinicore/authengine"
)

type staticSource struct {
	snapshot authengine.MetricsSnapshot
	dropped  uint64
}

func (s staticSource) MetricsSnapshot() authengine.MetricsSnapshot { return s.snapshot }
func (s staticSource) AuditDropped() uint64                        { return s.dropped }

func TestRenderExposesAllCounters(t *testing.T) {
	source := staticSource{
		snapshot: authengine.MetricsSnapshot{
			Counters: map[authengine.MetricID]uint64{
				authengine.MetricLoginSuccess: 7,
				authengine.MetricCacheHit:     42,
			},
		},
		dropped: 3,
	}

	out := NewExporter(source).Render()

	for _, want := range []string{
		"authengine_login_success_total 7\n",
		"authengine_cache_hit_total 42\n",
		"authengine_login_failure_total 0\n",
		"authengine_audit_dropped_total 3\n",
		"# TYPE authengine_login_success_total counter\n",
		"# HELP authengine_login_success_total ",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in rendered output:\n%s", want, out)
		}
	}
}

func TestRenderNilSafe(t *testing.T) {
	var p *Exporter
	if out := p.Render(); out != "" {
		t.Fatalf("nil exporter must render empty, got %q", out)
	}
	if out := NewExporter(nil).Render(); out != "" {
		t.Fatalf("nil source must render empty, got %q", out)
	}
}

func TestHandlerServesTextFormat(t *testing.T) {
	source := staticSource{
		snapshot: authengine.MetricsSnapshot{
			Counters: map[authengine.MetricID]uint64{
				authengine.MetricTokenIssued: 5,
			},
		},
	}

	rec := httptest.NewRecorder()
	NewExporter(source).Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "authengine_token_issued_total 5\n") {
		t.Fatalf("body missing counter:\n%s", rec.Body.String())
	}
}

func TestEscapeHelp(t *testing.T) {
	got := escapeHelp("line one\nline \\ two")
	if strings.Contains(got, "\n") {
		t.Fatalf("newline not escaped: %q", got)
	}
	if !strings.Contains(got, `\\`) {
		t.Fatalf("backslash not escaped: %q", got)
	}
}
