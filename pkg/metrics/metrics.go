// Package metrics 提供 Prometheus 指标集合，包含传输层与业务指标
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "llcformation"

// Metrics 指标集合，所有记录方法在 nil 接收者上为空操作
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	GRPCRequestsTotal   *prometheus.CounterVec
	GRPCRequestDuration *prometheus.HistogramVec

	ApplicationsCreated  prometheus.Counter
	DocumentsUploaded    *prometheus.CounterVec
	TransitionsApplied   *prometheus.CounterVec
	TransitionsRejected  *prometheus.CounterVec
	NotificationsTotal   *prometheus.CounterVec
	TrackingLookupsTotal *prometheus.CounterVec
}

// New 创建指标实例并注册到独立 registry
func New(serviceName string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		GRPCRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "grpc_requests_total",
			Help:      "Total gRPC requests",
		}, []string{"method", "code"}),
		GRPCRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "grpc_request_duration_seconds",
			Help:      "gRPC request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		ApplicationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "applications_created_total",
			Help:      "Applications accepted at intake",
		}),
		DocumentsUploaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "documents_uploaded_total",
			Help:      "Documents bound to applications",
		}, []string{"kind"}),
		TransitionsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "transitions_applied_total",
			Help:      "Status transitions that changed state",
		}, []string{"track", "target"}),
		TransitionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "transitions_rejected_total",
			Help:      "Status transitions rejected by the state machine",
		}, []string{"track", "reason"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "notifications_total",
			Help:      "Notification deliveries by kind and result",
		}, []string{"kind", "result"}),
		TrackingLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "tracking_lookups_total",
			Help:      "Client tracking lookups by result",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.GRPCRequestsTotal,
		m.GRPCRequestDuration,
		m.ApplicationsCreated,
		m.DocumentsUploaded,
		m.TransitionsApplied,
		m.TransitionsRejected,
		m.NotificationsTotal,
		m.TrackingLookupsTotal,
	)
	return m
}

// Registry 返回底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 暴露 /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// RecordGRPCRequest 记录 gRPC 请求
func (m *Metrics) RecordGRPCRequest(method, code string, seconds float64) {
	if m == nil {
		return
	}
	m.GRPCRequestsTotal.WithLabelValues(method, code).Inc()
	m.GRPCRequestDuration.WithLabelValues(method).Observe(seconds)
}

// RecordApplicationCreated 记录新申请
func (m *Metrics) RecordApplicationCreated() {
	if m == nil {
		return
	}
	m.ApplicationsCreated.Inc()
}

// RecordDocumentUploaded 记录文件上传
func (m *Metrics) RecordDocumentUploaded(kind string) {
	if m == nil {
		return
	}
	m.DocumentsUploaded.WithLabelValues(kind).Inc()
}

// RecordTransition 记录状态流转
func (m *Metrics) RecordTransition(track, target string) {
	if m == nil {
		return
	}
	m.TransitionsApplied.WithLabelValues(track, target).Inc()
}

// RecordTransitionRejected 记录被拒绝的状态流转
func (m *Metrics) RecordTransitionRejected(track, reason string) {
	if m == nil {
		return
	}
	m.TransitionsRejected.WithLabelValues(track, reason).Inc()
}

// RecordNotification 记录通知发送结果
func (m *Metrics) RecordNotification(kind, result string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(kind, result).Inc()
}

// RecordTrackingLookup 记录客户追踪查询
func (m *Metrics) RecordTrackingLookup(result string) {
	if m == nil {
		return
	}
	m.TrackingLookupsTotal.WithLabelValues(result).Inc()
}
