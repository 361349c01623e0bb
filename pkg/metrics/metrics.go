package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 扫描 tick 耗时（秒）
	ScanTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scan_tick_duration_seconds",
			Help:    "Duration of one due-task scan tick in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~400ms
		},
	)

	// 到期任务计数
	DueTaskCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "due_tasks_total",
			Help: "Total number of tasks detected as newly due",
		},
	)

	// 告警会话计数
	AlertSessionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_sessions_total",
			Help: "Total number of alert sessions started",
		},
		[]string{"mode"}, // mode: bell, tts, custom
	)

	// 自定义音频解码失败回退计数
	AlertFallbackCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_fallback_total",
			Help: "Total number of alert sessions that fell back to the bell tone",
		},
	)

	// 同步推送/拉取计数
	SyncPushCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_push_total",
			Help: "Total number of debounced snapshot pushes",
		},
		[]string{"status"}, // status: success, failed
	)
	SyncPullCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_pull_total",
			Help: "Total number of inbound snapshot replacements",
		},
		[]string{"status"}, // status: applied, skipped, failed
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

// ObserveScanTick 记录一次扫描耗时
func ObserveScanTick(duration time.Duration) {
	ScanTickDuration.Observe(duration.Seconds())
}

// IncrementDueTasks 增加到期任务计数
func IncrementDueTasks(n int) {
	DueTaskCount.Add(float64(n))
}

// IncrementAlertSession 增加告警会话计数
func IncrementAlertSession(mode string) {
	AlertSessionCount.WithLabelValues(mode).Inc()
}

// IncrementAlertFallback 增加回退计数
func IncrementAlertFallback() {
	AlertFallbackCount.Inc()
}

// IncrementSyncPush 记录一次快照推送
func IncrementSyncPush(status string) {
	SyncPushCount.WithLabelValues(status).Inc()
}

// IncrementSyncPull 记录一次快照替换
func IncrementSyncPull(status string) {
	SyncPullCount.WithLabelValues(status).Inc()
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
