package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics exposes application-level instruments for the voucher pipeline.
type Metrics struct {
	registry *prometheus.Registry

	vouchersCreated   prometheus.Counter
	vouchersFinalized prometheus.Counter
	budgetRejections  *prometheus.CounterVec
	numbersIssued     prometheus.Counter
	httpRequests      *prometheus.CounterVec
}

// New registers the voucher pipeline instruments on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		vouchersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bludpay_vouchers_created_total",
			Help: "Payment vouchers created in DRAFT.",
		}),
		vouchersFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bludpay_vouchers_finalized_total",
			Help: "Payment vouchers transitioned to FINAL.",
		}),
		budgetRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bludpay_budget_rejections_total",
			Help: "Budget validations that rejected a requested amount.",
		}, []string{"reason"}),
		numbersIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bludpay_document_numbers_issued_total",
			Help: "Document numbers issued by the sequencer.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bludpay_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "status"}),
	}
	registry.MustRegister(
		m.vouchersCreated,
		m.vouchersFinalized,
		m.budgetRejections,
		m.numbersIssued,
		m.httpRequests,
	)
	return m
}

// Registry returns the registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) RecordVoucherCreated() {
	if m == nil {
		return
	}
	m.vouchersCreated.Inc()
}

func (m *Metrics) RecordVoucherFinalized() {
	if m == nil {
		return
	}
	m.vouchersFinalized.Inc()
}

func (m *Metrics) RecordBudgetRejection(reason string) {
	if m == nil {
		return
	}
	m.budgetRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordNumberIssued() {
	if m == nil {
		return
	}
	m.numbersIssued.Inc()
}

func (m *Metrics) RecordHTTPRequest(route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, status).Inc()
}
