// Package uploader 实现批量上传流程：类型过滤、指纹去重、单次提交、进度模拟与结果规范化。
package uploader

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-intake/internal/client"
	"resume-intake/internal/events"
	"resume-intake/internal/filter"
	"resume-intake/internal/fingerprint"
	"resume-intake/internal/ingest"
	"resume-intake/internal/logger"
	"resume-intake/internal/metrics"
	"resume-intake/internal/source"
	"resume-intake/internal/tracing"
	"resume-intake/internal/types"
)

var tracer = otel.Tracer("resume-intake/uploader")

// 面向用户的提示文案
const (
	msgFiltered      = "已过滤 %d 个不支持的文件，仅支持 PDF、DOC、DOCX"
	msgDuplicates    = "检测到 %d 个重复文件，已跳过"
	msgUploaded      = "文件已上传，正在解析中..."
	msgUploadFailed  = "上传失败：%s"
	msgUnknownReason = "未知错误"
)

// Backend 批量上传的后端
type Backend interface {
	Upload(ctx context.Context, files []source.File) (*client.UploadResponse, error)
}

// State 当前上传状态快照
type State struct {
	BatchID   string   `json:"batch_id,omitempty"`
	Uploading bool     `json:"uploading"`
	Progress  float64  `json:"progress"`
	Files     []string `json:"files"`
}

func (s State) clone() State {
	s.Files = append([]string(nil), s.Files...)
	return s
}

// Processor 批量上传处理器。同一时刻只允许一个批次在途。
type Processor struct {
	backend  Backend
	filter   *filter.Filter
	registry fingerprint.Registry
	notifier Notifier
	settings Settings
	random   func() float64

	onComplete func([]types.IngestionResult)
	onState    func(State)
	onReset    func()

	metrics   *metrics.Upload
	publisher *events.BatchPublisher
	sessionID string

	gate  atomic.Bool
	mu    sync.Mutex
	state State
}

// NewProcessor 创建处理器，默认使用内存指纹表和日志通知
func NewProcessor(backend Backend, opts ...Option) *Processor {
	p := &Processor{
		backend:  backend,
		filter:   filter.Default(),
		registry: fingerprint.NewMemoryRegistry(),
		notifier: LogNotifier{},
		settings: DefaultSettings(),
		random:   rand.Float64,
		state:    State{Files: []string{}},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State 返回当前状态快照
func (p *Processor) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.clone()
}

// Busy 是否有批次在途
func (p *Processor) Busy() bool {
	return p.gate.Load()
}

// Submit 处理一批文件。空输入直接返回 (nil, nil)；已有批次在途时返回 ErrUploadInProgress。
// 过滤和去重同步完成，网络提交在后台进行，结果通过返回的 Batch 和回调获得。
// 提交过程不受 ctx 取消影响。
func (p *Processor) Submit(ctx context.Context, files []source.File) (*Batch, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if !p.gate.CompareAndSwap(false, true) {
		return nil, ErrUploadInProgress
	}

	batch := newBatch(newBatchID())
	ctx, span := tracer.Start(ctx, "uploader.Submit", trace.WithAttributes(
		attribute.String("batch.id", batch.ID),
		attribute.Int("batch.received", len(files)),
	))
	log := logger.Logger.With().Str("batch_id", batch.ID).Logger()
	batch.summary.Received = len(files)

	finish := func(outcome string) {
		span.SetAttributes(attribute.String("batch.outcome", outcome))
		span.End()
		p.metrics.ObserveBatch(outcome)
		batch.summary.Outcome = outcome
		p.finishBatch(batch)
	}

	allowed, rejected := p.filter.Partition(files)
	batch.summary.Rejected = len(rejected)
	if len(rejected) > 0 {
		p.metrics.ObserveRejected(metrics.ReasonUnsupported, len(rejected))
		p.notify(batch, LevelError, fmt.Sprintf(msgFiltered, len(rejected)))
	}
	if len(allowed) == 0 {
		log.Info().Int("rejected", len(rejected)).Msg("批次中没有支持的文件")
		finish(metrics.OutcomeFiltered)
		return batch, nil
	}

	pending, keys := p.dedup(ctx, batch, allowed)
	if len(pending) == 0 {
		log.Info().Msg("批次中的文件均为重复文件")
		finish(metrics.OutcomeSkipped)
		return batch, nil
	}

	names := make([]string, len(pending))
	for i, f := range pending {
		names[i] = f.Name()
	}
	batch.summary.Submitted = len(pending)
	span.SetAttributes(attribute.Int("batch.submitted", len(pending)))

	p.mu.Lock()
	p.state = State{BatchID: batch.ID, Uploading: true, Progress: 0, Files: names}
	snapshot := p.state.clone()
	p.mu.Unlock()
	p.emitState(snapshot)

	netCtx := context.WithoutCancel(ctx)
	go func() {
		outcome := metrics.OutcomeFailed
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("上传协程异常")
				outcome = metrics.OutcomeFailed
			}
			finish(outcome)
		}()
		outcome = p.upload(netCtx, span, batch, pending, keys)
	}()
	return batch, nil
}

// dedup 先做批次内去重，再对照登记表去重，只发一条合并提示
func (p *Processor) dedup(ctx context.Context, batch *Batch, files []source.File) ([]source.File, []fingerprint.Key) {
	seen := make(map[fingerprint.Key]struct{}, len(files))
	unique := make([]source.File, 0, len(files))
	uniqueKeys := make([]fingerprint.Key, 0, len(files))
	for _, f := range files {
		key := fingerprint.Compute(f)
		if _, dup := seen[key]; dup {
			batch.summary.DuplicatesInBatch++
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, f)
		uniqueKeys = append(uniqueKeys, key)
	}

	pending := make([]source.File, 0, len(unique))
	keys := make([]fingerprint.Key, 0, len(unique))
	for i, f := range unique {
		known, err := p.registry.Has(ctx, uniqueKeys[i])
		if err != nil {
			logger.Warn().Err(err).Str("file", f.Name()).Msg("查询指纹登记表失败，按未上传处理")
			known = false
		}
		if known {
			batch.summary.DuplicatesSeen++
			continue
		}
		pending = append(pending, f)
		keys = append(keys, uniqueKeys[i])
	}

	p.metrics.ObserveRejected(metrics.ReasonDuplicateBatch, batch.summary.DuplicatesInBatch)
	p.metrics.ObserveRejected(metrics.ReasonDuplicateSeen, batch.summary.DuplicatesSeen)
	if n := batch.summary.DuplicatesInBatch + batch.summary.DuplicatesSeen; n > 0 {
		p.notify(batch, LevelError, fmt.Sprintf(msgDuplicates, n))
	}
	return pending, keys
}

// upload 执行唯一一次网络提交。进度协程在写入最终进度前必须已经退出。
func (p *Processor) upload(ctx context.Context, span trace.Span, batch *Batch, files []source.File, keys []fingerprint.Key) string {
	stop := p.startProgress(batch.ID)
	defer stop()
	start := time.Now()
	resp, err := p.backend.Upload(ctx, files)
	stop()
	p.metrics.ObserveSubmitted(len(files), time.Since(start))

	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		batch.summary.Err = &BatchError{BatchID: batch.ID, Err: err}
		reason := client.Message(err)
		if reason == "" {
			reason = msgUnknownReason
		}
		logger.Error().Err(err).Str("batch_id", batch.ID).Msg("批量上传失败")
		p.notify(batch, LevelError, fmt.Sprintf(msgUploadFailed, reason))
		return metrics.OutcomeFailed
	}

	p.setProgress(batch.ID, 100)
	results := ingest.Normalize(resp.Items)
	batch.summary.Results = results

	p.notify(batch, LevelSuccess, msgUploaded)
	if p.onComplete != nil {
		callSafely("上传完成回调", func() { p.onComplete(results) })
	}
	if err := p.registry.Remember(ctx, keys...); err != nil {
		logger.Warn().Err(err).Str("batch_id", batch.ID).Msg("登记文件指纹失败")
	}
	p.publish(ctx, batch.ID, results)

	logger.Info().Str("batch_id", batch.ID).Int("files", len(files)).Int("results", len(results)).Msg("批量上传完成")
	return metrics.OutcomeSuccess
}

func (p *Processor) publish(ctx context.Context, batchID string, results []types.IngestionResult) {
	if p.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	evt := events.NewBatchUploaded(batchID, p.sessionID, results)
	if err := p.publisher.PublishBatchUploaded(pubCtx, evt); err != nil {
		logger.Warn().Err(err).Str("batch_id", batchID).Msg("发布批次事件失败")
	}
}

func (p *Processor) setProgress(batchID string, progress float64) {
	p.mu.Lock()
	if p.state.BatchID != batchID {
		p.mu.Unlock()
		return
	}
	p.state.Progress = progress
	snapshot := p.state.clone()
	p.mu.Unlock()
	p.emitState(snapshot)
}

// finishBatch 无论结果如何都清空上传状态、重置输入并释放闸门
func (p *Processor) finishBatch(batch *Batch) {
	p.mu.Lock()
	p.state = State{Files: []string{}}
	snapshot := p.state.clone()
	p.mu.Unlock()
	p.emitState(snapshot)

	if p.onReset != nil {
		callSafely("重置回调", p.onReset)
	}
	p.gate.Store(false)
	batch.complete()
}

func (p *Processor) notify(batch *Batch, level Level, message string) {
	n := Notification{Level: level, Message: message}
	batch.summary.Notifications = append(batch.summary.Notifications, n)
	p.notifier.Notify(n)
}

func (p *Processor) emitState(s State) {
	if p.onState != nil {
		callSafely("状态回调", func() { p.onState(s) })
	}
}

// callSafely 调用方回调 panic 时只记录日志，不影响批次收尾
func callSafely(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn().Interface("panic", r).Str("callback", name).Msg("回调异常")
		}
	}()
	fn()
}

func newBatchID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Must(uuid.NewV4()).String()
	}
	return id.String()
}
