package uploader

import (
	"context"
	"sync"
	"time"
)

// startProgress 启动进度模拟，返回的 stop 会取消并等待协程退出。
// stop 返回后不会再有进度写入。
func (p *Processor) startProgress(batchID string) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(p.settings.ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.advanceProgress(batchID)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}

func (p *Processor) advanceProgress(batchID string) {
	p.mu.Lock()
	if !p.state.Uploading || p.state.BatchID != batchID {
		p.mu.Unlock()
		return
	}
	p.state.Progress = nextProgress(p.state.Progress, p.random()*p.settings.ProgressMaxIncrement, p.settings.ProgressCeiling)
	snapshot := p.state.clone()
	p.mu.Unlock()

	p.emitState(snapshot)
}

// nextProgress 推进进度但始终低于上限：越界时只前进剩余距离的一半
func nextProgress(prev, increment, ceiling float64) float64 {
	next := prev + increment
	if next < ceiling {
		return next
	}
	next = prev + (ceiling-prev)/2
	if next >= ceiling {
		return prev
	}
	return next
}
