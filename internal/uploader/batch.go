package uploader

import (
	"context"

	"resume-intake/internal/types"
)

// Summary 一个批次的处理结果
type Summary struct {
	BatchID           string                  `json:"batch_id"`
	Outcome           string                  `json:"outcome"`
	Received          int                     `json:"received"`
	Rejected          int                     `json:"rejected"`
	DuplicatesInBatch int                     `json:"duplicates_in_batch"`
	DuplicatesSeen    int                     `json:"duplicates_seen"`
	Submitted         int                     `json:"submitted"`
	Results           []types.IngestionResult `json:"results"`
	Notifications     []Notification          `json:"notifications"`
	Err               error                   `json:"-"`
}

// Batch 在途批次的句柄
type Batch struct {
	ID      string
	done    chan struct{}
	summary Summary
}

func newBatch(id string) *Batch {
	return &Batch{
		ID:      id,
		done:    make(chan struct{}),
		summary: Summary{BatchID: id, Results: []types.IngestionResult{}, Notifications: []Notification{}},
	}
}

func (b *Batch) complete() {
	close(b.done)
}

// Done 批次结束时关闭
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Wait 等待批次结束。ctx 先结束时返回 ctx.Err()，批次本身不受影响。
func (b *Batch) Wait(ctx context.Context) (Summary, error) {
	select {
	case <-b.done:
		return b.summary, nil
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	}
}

// Summary 批次结束后的结果，未结束时返回零值
func (b *Batch) Summary() Summary {
	select {
	case <-b.done:
		return b.summary
	default:
		return Summary{BatchID: b.ID}
	}
}
