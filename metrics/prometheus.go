// Package metrics 封装了基于 Prometheus 的指标注册表以及定价引擎与 HTTP 服务的标准指标。
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 封装了基于 Prometheus 的指标采集注册表及预定义的标准监控指标。
type Metrics struct {
	registry *prometheus.Registry // 内部独立的 Prometheus 注册中心

	// 蒙特卡洛定价指标
	PathsSimulated     prometheus.Counter       // 已生成的路径总数
	SimulationDuration prometheus.Histogram     // 单次批量模拟耗时
	PricingRuns        *prometheus.CounterVec   // 定价请求次数 (维度: status)
	PriceEstimate      *prometheus.GaugeVec     // 最近一次估值 (维度: variant)
	PayoffEvaluations  *prometheus.CounterVec   // 收益函数调用次数 (维度: variant)
	SinkErrors         *prometheus.CounterVec   // 报告输出失败次数 (维度: sink)
	CacheRequests      *prometheus.CounterVec   // 结果缓存访问 (维度: result=hit|miss)
	HTTPRequestsTotal  *prometheus.CounterVec   // HTTP 请求总量 (维度: method, path, status)
	HTTPRequestLatency *prometheus.HistogramVec // HTTP 请求耗时分布
	HTTPInFlight       *prometheus.GaugeVec     // 正在处理的 HTTP 请求

	buildInfo *prometheus.GaugeVec
}

// NewMetrics 初始化并返回一个新的指标采集器。
// 它会自动注册 Go 运行时指标和进程指标。
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.PathsSimulated = m.NewCounter(prometheus.CounterOpts{
		Name: "mc_paths_simulated_total",
		Help: "Total number of simulated GBM paths",
	})
	m.SimulationDuration = m.NewHistogram(prometheus.HistogramOpts{
		Name:    "mc_simulation_duration_seconds",
		Help:    "Wall time of one path batch simulation",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
	})
	m.PricingRuns = m.NewCounterVec(prometheus.CounterOpts{
		Name: "mc_pricing_runs_total",
		Help: "Total number of pricing runs by outcome",
	}, []string{"status"})
	m.PriceEstimate = m.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mc_price_estimate",
		Help: "Most recent discounted price estimate per option variant",
	}, []string{"variant"})
	m.PayoffEvaluations = m.NewCounterVec(prometheus.CounterOpts{
		Name: "mc_payoff_evaluations_total",
		Help: "Total number of per-path payoff evaluations",
	}, []string{"variant"})
	m.SinkErrors = m.NewCounterVec(prometheus.CounterOpts{
		Name: "mc_report_sink_errors_total",
		Help: "Total number of failed report deliveries",
	}, []string{"sink"})

	m.CacheRequests = m.NewCounterVec(prometheus.CounterOpts{
		Name: "mc_result_cache_requests_total",
		Help: "Pricing result cache lookups by result",
	}, []string{"result"})

	m.HTTPRequestsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "http_server_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	m.HTTPRequestLatency = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_server_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
	m.HTTPInFlight = m.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_server_requests_in_flight",
		Help: "Number of HTTP requests being served",
	}, []string{"method", "path"})

	slog.Info("unified metrics registry initialized", "service", serviceName)
	return m
}

// NewCounter 创建并注册一个新的计数器。
func (m *Metrics) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	m.registry.MustRegister(c)
	return c
}

// NewHistogram 创建并注册一个新的直方图。
func (m *Metrics) NewHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	m.registry.MustRegister(h)
	return h
}

// NewCounterVec 创建并注册一个新的计数器指标。
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec 创建并注册一个新的仪表盘指标。
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewHistogramVec 创建并注册一个新的直方图指标。
func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Registry 返回底层注册表，主要用于测试时读取指标。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回用于暴露指标的 HTTP 处理器。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ExposeHTTP 在指定端口启动一个独立的 HTTP 服务器用于暴露指标数据。
// 返回一个清理函数用于优雅关闭该服务器。
func (m *Metrics) ExposeHTTP(port string) func() {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown metrics server", "error", err)
		}
	}
}
