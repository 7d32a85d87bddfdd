// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集 HTTP、音频入库与时长任务指标.
//
// Example:
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.IngestTotal.WithLabelValues(metrics.OutcomeStored).Inc()
//	metrics.IngestBytes.Observe(float64(size))
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/soundvault/pkg/configs"
)

// 入库结果标签.
const (
	OutcomeStored     = "stored"
	OutcomeRejected   = "rejected"
	OutcomeFailed     = "failed"
	JobOutcomeSuccess = "success"
	JobOutcomeRetry   = "retry"
	JobOutcomeFatal   = "fatal"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// IngestTotal 音频入库次数，按结果区分.
	IngestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundvault_ingest_total",
			Help: "Audio ingestions by outcome",
		},
		[]string{"outcome"},
	)

	// IngestBytes 成功入库的音频大小分布.
	IngestBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "soundvault_ingest_bytes",
			Help:    "Size of stored audio uploads in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 2, 10),
		},
	)

	// DurationJobs 时长任务处理次数.
	DurationJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "soundvault_duration_jobs_total",
			Help: "Duration extraction job attempts by outcome",
		},
		[]string{"outcome"},
	)

	// StreamedBytes 流式输出的字节数.
	StreamedBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "soundvault_streamed_bytes_total",
			Help: "Bytes written to audio stream responses",
		},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()

	initOnce sync.Once
)

// InitMetrics 初始化Metrics，重复调用只注册一次.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	initOnce.Do(func() {
		if config.RuntimeMetrics {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		registry.MustRegister(RequestCounter, RequestDuration, IngestTotal, IngestBytes, DurationJobs, StreamedBytes)
	})

	return nil
}

// StartMetricsServer 在引擎上挂载 /metrics 与可选的 pprof.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
