// Package metrics 定义批量上传相关的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 批次结果标签
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeFiltered = "filtered"
	OutcomeSkipped  = "skipped"
)

// 文件被排除的原因标签
const (
	ReasonUnsupported    = "unsupported"
	ReasonDuplicateBatch = "duplicate_batch"
	ReasonDuplicateSeen  = "duplicate_seen"
)

// Upload 批量上传指标集合
type Upload struct {
	BatchesTotal   *prometheus.CounterVec
	RejectedTotal  *prometheus.CounterVec
	SubmittedTotal prometheus.Counter
	Duration       prometheus.Histogram
}

// NewUpload 在给定的注册器上注册指标，nil 时使用默认注册器
func NewUpload(reg prometheus.Registerer) *Upload {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Upload{
		// intake_batches_total 按结果统计批次数
		BatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_batches_total",
			Help: "按结果统计的上传批次数",
		}, []string{"outcome"}),
		RejectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_files_rejected_total",
			Help: "上传前被排除的文件数",
		}, []string{"reason"}),
		SubmittedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "intake_files_submitted_total",
			Help: "实际提交到后端的文件数",
		}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "intake_upload_duration_seconds",
			Help:    "单次批量上传请求耗时（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveBatch 记录一个批次的结果
func (m *Upload) ObserveBatch(outcome string) {
	if m == nil {
		return
	}
	m.BatchesTotal.WithLabelValues(outcome).Inc()
}

// ObserveRejected 记录被排除的文件
func (m *Upload) ObserveRejected(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RejectedTotal.WithLabelValues(reason).Add(float64(n))
}

// ObserveSubmitted 记录提交的文件数与请求耗时
func (m *Upload) ObserveSubmitted(n int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SubmittedTotal.Add(float64(n))
	m.Duration.Observe(elapsed.Seconds())
}
