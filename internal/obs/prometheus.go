package obs

import "github.com/prometheus/client_golang/prometheus"

// PrometheusExporter adapts a Metrics' atomic counters to
// prometheus.Collector, so they can be registered with any
// prometheus.Registerer (the reference CLI registers it on a registry of
// its own and serves that over HTTP).
type PrometheusExporter struct {
	m *Metrics

	framesParsed         *prometheus.Desc
	garbageBytesDropped  *prometheus.Desc
	framesAborted        *prometheus.Desc
	transactionsSent     *prometheus.Desc
	transactionsResolved *prometheus.Desc
	transactionsTimedOut *prometheus.Desc
	transactionsFailed   *prometheus.Desc
	reopenAttempts       *prometheus.Desc
	handlerPanics        *prometheus.Desc
}

// NewPrometheusExporter wraps m as a prometheus.Collector.
func NewPrometheusExporter(m *Metrics) *PrometheusExporter {
	ns := "serialio"
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(ns+"_"+name, help, nil, nil)
	}
	return &PrometheusExporter{
		m:                    m,
		framesParsed:         desc("frames_parsed_total", "Frames successfully parsed and dispatched."),
		garbageBytesDropped:  desc("garbage_bytes_dropped_total", "Bytes discarded while resynchronizing on garbage."),
		framesAborted:        desc("frames_aborted_total", "Partial frames abandoned mid-parse."),
		transactionsSent:     desc("transactions_sent_total", "Requests and pings registered."),
		transactionsResolved: desc("transactions_resolved_total", "Inbound REPLY and ERROR frames received."),
		transactionsTimedOut: desc("transactions_timed_out_total", "Transactions resolved by timeout."),
		transactionsFailed:   desc("transactions_failed_total", "Requests answered with a remote ERROR reply."),
		reopenAttempts:       desc("reopen_attempts_total", "Port reopen attempts after unexpected close."),
		handlerPanics:        desc("handler_panics_total", "Recovered panics from user-supplied callbacks."),
	}
}

// Describe implements prometheus.Collector.
func (e *PrometheusExporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.framesParsed
	ch <- e.garbageBytesDropped
	ch <- e.framesAborted
	ch <- e.transactionsSent
	ch <- e.transactionsResolved
	ch <- e.transactionsTimedOut
	ch <- e.transactionsFailed
	ch <- e.reopenAttempts
	ch <- e.handlerPanics
}

// Collect implements prometheus.Collector.
func (e *PrometheusExporter) Collect(ch chan<- prometheus.Metric) {
	snap := e.m.Snapshot()
	ch <- prometheus.MustNewConstMetric(e.framesParsed, prometheus.CounterValue, float64(snap.FramesParsed))
	ch <- prometheus.MustNewConstMetric(e.garbageBytesDropped, prometheus.CounterValue, float64(snap.GarbageBytesDropped))
	ch <- prometheus.MustNewConstMetric(e.framesAborted, prometheus.CounterValue, float64(snap.FramesAborted))
	ch <- prometheus.MustNewConstMetric(e.transactionsSent, prometheus.CounterValue, float64(snap.TransactionsSent))
	ch <- prometheus.MustNewConstMetric(e.transactionsResolved, prometheus.CounterValue, float64(snap.TransactionsResolved))
	ch <- prometheus.MustNewConstMetric(e.transactionsTimedOut, prometheus.CounterValue, float64(snap.TransactionsTimedOut))
	ch <- prometheus.MustNewConstMetric(e.transactionsFailed, prometheus.CounterValue, float64(snap.TransactionsFailed))
	ch <- prometheus.MustNewConstMetric(e.reopenAttempts, prometheus.CounterValue, float64(snap.ReopenAttempts))
	ch <- prometheus.MustNewConstMetric(e.handlerPanics, prometheus.CounterValue, float64(snap.HandlerPanics))
}
