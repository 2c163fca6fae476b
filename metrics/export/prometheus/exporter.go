package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	authengine "github.com/clinicore/authengine"
)

// MetricsSource is the read surface the exporter needs; *authengine.Engine
// satisfies it.
type MetricsSource interface {
	MetricsSnapshot() authengine.MetricsSnapshot
	AuditDropped() uint64
}

type counterDef struct {
	id   authengine.MetricID
	name string
	help string
}

var counterDefs = []counterDef{
	{id: authengine.MetricLoginSuccess, name: "authengine_login_success_total", help: "Successful login attempts."},
	{id: authengine.MetricLoginFailure, name: "authengine_login_failure_total", help: "Failed login attempts."},
	{id: authengine.MetricRegisterSuccess, name: "authengine_register_success_total", help: "Successful registrations."},
	{id: authengine.MetricRegisterDuplicate, name: "authengine_register_duplicate_total", help: "Registrations rejected as duplicate."},
	{id: authengine.MetricTokenIssued, name: "authengine_token_issued_total", help: "Issued tokens."},
	{id: authengine.MetricTokenRejected, name: "authengine_token_rejected_total", help: "Tokens rejected during validation."},
	{id: authengine.MetricValidateSuccess, name: "authengine_validate_success_total", help: "Successful token validations."},
	{id: authengine.MetricCacheHit, name: "authengine_cache_hit_total", help: "Record cache hits."},
	{id: authengine.MetricCacheMiss, name: "authengine_cache_miss_total", help: "Record cache misses."},
	{id: authengine.MetricCacheEviction, name: "authengine_cache_eviction_total", help: "Record cache LRU evictions."},
}

// Exporter renders authengine metrics in Prometheus text exposition format.
type Exporter struct {
	source MetricsSource
}

// NewExporter creates an exporter that reads from the given source,
// typically an [authengine.Engine].
func NewExporter(source MetricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler returns an http.Handler that serves the current metrics.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render writes the current metrics in Prometheus text exposition format.
func (p *Exporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()

	var b strings.Builder
	b.Grow(4096)

	for _, def := range counterDefs {
		writeCounter(&b, def.name, def.help, snapshot.Counters[def.id])
	}
	writeCounter(&b, "authengine_audit_dropped_total", "Dropped audit events due to dispatcher backpressure.", dropped)

	return b.String()
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" counter\n")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, `\`, `\\`)
	return strings.ReplaceAll(help, "\n", `\n`)
}
