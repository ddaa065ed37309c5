// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector は同期エンジンのPrometheusメトリクスを収集する。
// syncer.MetricsRecorderインターフェースを実装する。
type Collector struct {
	syncSuccess      prometheus.Counter
	syncFail         prometheus.Counter
	parseFail        prometheus.Counter
	articlesInserted prometheus.Counter
	syncDuration     prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		syncSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feedhub_sync_success_total",
			Help: "フィード同期成功の合計数",
		}),
		syncFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feedhub_sync_fail_total",
			Help: "フィード同期失敗の合計数",
		}),
		parseFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feedhub_parse_fail_total",
			Help: "フィードパース失敗の合計数",
		}),
		articlesInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feedhub_articles_inserted_total",
			Help: "新規挿入された記事の合計数",
		}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "feedhub_sync_duration_seconds",
			Help:    "フィード同期1件あたりの所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.syncSuccess,
		c.syncFail,
		c.parseFail,
		c.articlesInserted,
		c.syncDuration,
	)

	return c
}

// RecordSyncSuccess は同期成功を記録する。
func (c *Collector) RecordSyncSuccess() {
	c.syncSuccess.Inc()
}

// RecordSyncFailure は同期失敗を記録する。
func (c *Collector) RecordSyncFailure() {
	c.syncFail.Inc()
}

// RecordParseFailure はパース失敗を記録する。
func (c *Collector) RecordParseFailure() {
	c.parseFail.Inc()
}

// RecordArticlesInserted は新規挿入された記事数を記録する。
func (c *Collector) RecordArticlesInserted(count int) {
	c.articlesInserted.Add(float64(count))
}

// RecordSyncDuration は同期1件あたりの所要時間を記録する。
func (c *Collector) RecordSyncDuration(d time.Duration) {
	c.syncDuration.Observe(d.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
