package playback

import (
	"context"
	"sync"
	"time"

	"playpod/logger"
)

// seedTimeout 单次补充任务的超时
const seedTimeout = 30 * time.Second

// Radio 后台补充队列的工作池。
// 同一用户在排队或执行期间重复调度会被丢弃，队列满时也直接丢弃。
type Radio struct {
	svc     *Service
	workers int
	jobs    chan string
	pending sync.Map

	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewRadio 创建工作池，workers 至少为 1
func NewRadio(svc *Service, workers int) *Radio {
	if workers < 1 {
		workers = 1
	}
	return &Radio{
		svc:      svc,
		workers:  workers,
		jobs:     make(chan string, workers*16),
		stopChan: make(chan struct{}),
	}
}

// Schedule 提交一个用户的补充任务，返回是否入队
func (r *Radio) Schedule(userID string) bool {
	if _, loaded := r.pending.LoadOrStore(userID, struct{}{}); loaded {
		return false
	}
	select {
	case r.jobs <- userID:
		return true
	default:
		r.pending.Delete(userID)
		logger.Warn("[Radio] 任务队列已满，丢弃补充请求", logger.String("user", userID))
		return false
	}
}

// Start 启动工作协程，ctx 取消或调用 Stop 后退出
func (r *Radio) Start(ctx context.Context) {
	logger.Info("[Radio] 自动补充服务启动", logger.Int("workers", r.workers))
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.loop(ctx)
	}
}

// Stop 停止并等待正在执行的任务结束
func (r *Radio) Stop() {
	r.once.Do(func() { close(r.stopChan) })
	r.wg.Wait()
	logger.Info("[Radio] 自动补充服务已停止")
}

func (r *Radio) loop(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case userID := <-r.jobs:
			r.run(ctx, userID)
		}
	}
}

func (r *Radio) run(ctx context.Context, userID string) {
	defer r.pending.Delete(userID)

	jobCtx, cancel := context.WithTimeout(ctx, seedTimeout)
	defer cancel()

	if _, err := r.svc.SeedQueue(jobCtx, userID); err != nil {
		logger.Warn("[Radio] 自动补充队列失败", logger.String("user", userID), logger.ErrorField(err))
	}
}
