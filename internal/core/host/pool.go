package host

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/weisyn/zkreceipt/internal/core/logic"
	"github.com/weisyn/zkreceipt/pkg/types"
)

// ============================================================================
// 证明工作池
// ============================================================================
//
// 🎯 **设计目的**：
// 限制并发证明数（Groth16 证明本身占满多核，且内存峰值高）。
//
// ⚠️ **注意**：
// - 每个任务使用自己的沙箱实例与见证，任务之间不共享可变状态
// - 取消只放弃等待：排队中的任务直接返回，运行中的证明在后台结束
//
// ============================================================================

// Prover 证明入口，Driver 与 Pool 都实现
type Prover interface {
	Prove(ctx context.Context, image types.GuestImage, witness *logic.Witness) (*ProveInfo, error)
}

var (
	_ Prover = (*Driver)(nil)
	_ Prover = (*Pool)(nil)
)

// Pool 有界并发的证明工作池
type Pool struct {
	driver *Driver
	slots  chan struct{}

	running   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// NewPool 创建工作池，size<=0 时为 1
func NewPool(driver *Driver, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{driver: driver, slots: make(chan struct{}, size)}
}

// Size 并发上限
func (p *Pool) Size() int { return cap(p.slots) }

// Prove 等待空闲槽位后同步证明
func (p *Pool) Prove(ctx context.Context, image types.GuestImage, witness *logic.Witness) (*ProveInfo, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.slots }()

	p.running.Add(1)
	defer p.running.Add(-1)

	info, err := p.driver.Prove(ctx, image, witness)
	if err != nil {
		p.failed.Add(1)
		return nil, err
	}
	p.completed.Add(1)
	return info, nil
}

// Job 异步证明任务
type Job struct {
	ID string

	done chan struct{}
	once sync.Once
	info *ProveInfo
	err  error
}

// Done 任务结束时关闭
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait 等待任务结果；ctx 取消时只放弃等待
func (j *Job) Wait(ctx context.Context) (*ProveInfo, error) {
	select {
	case <-j.done:
		return j.info, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (j *Job) finish(info *ProveInfo, err error) {
	j.once.Do(func() {
		j.info, j.err = info, err
		close(j.done)
	})
}

// Submit 异步提交证明任务
func (p *Pool) Submit(ctx context.Context, image types.GuestImage, witness *logic.Witness) *Job {
	job := &Job{ID: uuid.NewString(), done: make(chan struct{})}
	go func() {
		info, err := p.Prove(ctx, image, witness)
		job.finish(info, err)
	}()
	return job
}

// PoolStats 工作池统计
type PoolStats struct {
	Size      int   `json:"size"`
	Running   int64 `json:"running"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Stats 返回统计快照
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Size:      p.Size(),
		Running:   p.running.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}
