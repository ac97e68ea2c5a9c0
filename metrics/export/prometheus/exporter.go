// Package prometheus renders engine metrics in Prometheus text exposition
// format without pulling in a client library.
package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	clubauth "github.com/flightclubhq/clubauth"
)

type metricsSource interface {
	MetricsSnapshot() clubauth.MetricsSnapshot
	AuditDropped() uint64
}

type counterDef struct {
	id   clubauth.MetricID
	name string
	help string
}

var counterDefs = []counterDef{
	{clubauth.MetricLoginSuccess, "clubauth_login_success_total", "Successful logins."},
	{clubauth.MetricLoginFailure, "clubauth_login_failure_total", "Failed logins."},
	{clubauth.MetricSessionIssued, "clubauth_session_issued_total", "Pilot session pairs minted."},
	{clubauth.MetricClubAdminSessionIssued, "clubauth_club_admin_session_issued_total", "Club-admin session pairs minted."},
	{clubauth.MetricVerifySuccess, "clubauth_verify_success_total", "Access credentials that verified."},
	{clubauth.MetricVerifyExpired, "clubauth_verify_expired_total", "Access credentials rejected for expiry."},
	{clubauth.MetricVerifyRejected, "clubauth_verify_rejected_total", "Access credentials rejected for non-expiry reasons."},
	{clubauth.MetricAuthzAllow, "clubauth_authz_allow_total", "Allowed authorization decisions."},
	{clubauth.MetricAuthzDeny, "clubauth_authz_deny_total", "Denied authorization decisions."},
	{clubauth.MetricRefreshSuccess, "clubauth_refresh_success_total", "Successful refresh rotations."},
	{clubauth.MetricRefreshFailure, "clubauth_refresh_failure_total", "Refresh rejections other than revocation."},
	{clubauth.MetricRefreshRevoked, "clubauth_refresh_revoked_total", "Refreshes rejected by the revocation recheck."},
	{clubauth.MetricRefreshRateLimited, "clubauth_refresh_rate_limited_total", "Throttled refresh attempts."},
	{clubauth.MetricStoreUnavailable, "clubauth_store_unavailable_total", "Membership store timeouts and failures."},
}

type histogramDef struct {
	id   clubauth.MetricID
	name string
	help string
}

var histogramDefs = []histogramDef{
	{clubauth.MetricVerifyLatency, "clubauth_verify_latency_seconds", "Verification latency histogram."},
}

var histogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// Exporter renders engine metrics for Prometheus scrapes.
type Exporter struct {
	source metricsSource
}

// NewExporter creates an Exporter that reads from the given engine.
func NewExporter(engine *clubauth.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewExporterFromSource creates an Exporter from a custom source, for tests
// and wrappers.
func NewExporterFromSource(source metricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler returns an http.Handler serving the exposition endpoint.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render writes the current metrics in text exposition format.
func (p *Exporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range counterDefs {
		writeCounter(&b, def.name, def.help, snapshot.Counters[def.id])
	}

	for _, def := range histogramDefs {
		cumulative := cumulativeBuckets(snapshot.Histograms[def.id])
		writeHistogram(&b, def.name, def.help, cumulative)
	}

	writeCounter(&b, "clubauth_audit_dropped_total", "Dropped audit events due to dispatcher backpressure.", dropped)

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

func writeHistogram(b *strings.Builder, name, help string, cumulative [8]uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" histogram\n")

	for i, le := range histogramBounds {
		b.WriteString(name)
		b.WriteString("_bucket{le=\"")
		b.WriteString(le)
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(cumulative[i], 10))
		b.WriteByte('\n')
	}

	count := cumulative[len(cumulative)-1]
	b.WriteString(name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(count, 10))
	b.WriteByte('\n')

	// Sum is not tracked in core snapshots; keep a stable field anyway.
	b.WriteString(name)
	b.WriteString("_sum 0\n")
}

func cumulativeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(out); i++ {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
