package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/qgrid-team/qgrid/core"
	"go.uber.org/zap"
)

const (
	taskQueued int32 = iota
	taskStarted
	taskWithdrawn
)

type taskInScheduler struct {
	id    string
	ctx   context.Context
	task  core.Task
	done  chan error
	state atomic.Int32
}

func newTaskInScheduler(ctx context.Context, task core.Task) *taskInScheduler {
	return &taskInScheduler{
		id:   uuid.NewString(),
		ctx:  ctx,
		task: task,
		done: make(chan error, 1),
	}
}

func (t *taskInScheduler) finish(err error) {
	t.done <- err
}

func (t *taskInScheduler) start() bool {
	return t.state.CompareAndSwap(taskQueued, taskStarted)
}

func (t *taskInScheduler) withdraw() bool {
	return t.state.CompareAndSwap(taskQueued, taskWithdrawn)
}

// NormalScheduler runs submitted backend tasks one at a time in FIFO order.
type NormalScheduler struct {
	queue  *NormalQueue
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (n *NormalScheduler) Setup(conf *core.Conf) error {
	n.queue = &NormalQueue{}
	if err := n.queue.Setup(conf); err != nil {
		return err
	}
	n.ctx, n.cancel = context.WithCancel(context.Background())
	return nil
}

func (n *NormalScheduler) Start() error {
	if n.queue == nil {
		return fmt.Errorf("scheduler is not set up")
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for {
			zap.L().Debug("checking the queue...")
			tis, err := n.queue.Dequeue(n.ctx, true)
			if err != nil {
				if n.ctx.Err() != nil {
					zap.L().Debug("scheduler stopped")
					return
				}
				zap.L().Error(fmt.Sprintf("failed to get task from queue/reason:%s", err))
				continue
			}
			n.process(tis)
		}
	}()
	return nil
}

func (n *NormalScheduler) process(tis *taskInScheduler) {
	if err := tis.ctx.Err(); err != nil {
		zap.L().Debug(fmt.Sprintf("skip task:%s/reason:%s", tis.id, err))
		tis.finish(err)
		return
	}
	zap.L().Debug(fmt.Sprintf("processing task:%s", tis.id))
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error(fmt.Sprintf("task:%s panicked/reason:%v", tis.id, r))
				err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		err = tis.task(tis.ctx)
	}()
	zap.L().Debug(fmt.Sprintf("finished to process task:%s", tis.id))
	tis.finish(err)
}

// Submit queues task and waits for it to finish. If ctx is done first a task
// that has not started is withdrawn and never runs.
func (n *NormalScheduler) Submit(ctx context.Context, task core.Task) error {
	tis := newTaskInScheduler(ctx, task)
	select {
	case n.queue.queueChan <- tis:
	case <-ctx.Done():
		return core.ExternalError(ctx, ctx.Err(), "submit task")
	}
	select {
	case err := <-tis.done:
		return err
	case <-ctx.Done():
		if !n.queue.Withdraw(tis) {
			zap.L().Debug(fmt.Sprintf("task:%s already started", tis.id))
		}
		return core.ExternalError(ctx, ctx.Err(), "wait for task")
	}
}

func (n *NormalScheduler) GetCurrentQueueSize() int {
	if n.queue == nil {
		return 0
	}
	return n.queue.GetCurrentSize()
}

func (n *NormalScheduler) TearDown() {
	if n.cancel != nil {
		n.cancel()
	}
	n.wg.Wait()
	if n.queue != nil {
		n.queue.TearDown()
	}
}
