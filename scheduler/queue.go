package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"

	conq "github.com/enriquebris/goconcurrentqueue"
	"github.com/go-faster/errors"
	"github.com/qgrid-team/qgrid/core"
	"go.uber.org/zap"
)

var ErrorQueueFull = errors.New("scheduler queue is full")

type queueChan chan *taskInScheduler

type fifo interface {
	Enqueue(*taskInScheduler) error
	Dequeue() (*taskInScheduler, error)
	DequeueOrWaitForNextElementContext(context.Context) (*taskInScheduler, error)
	GetLen() int
}

type conqFIFO struct {
	conq.FIFO
}

func newConqFIFO() *conqFIFO {
	return &conqFIFO{
		FIFO: *conq.NewFIFO(),
	}
}

func (c *conqFIFO) Enqueue(tis *taskInScheduler) error {
	return c.FIFO.Enqueue(tis)
}

func (c *conqFIFO) Dequeue() (*taskInScheduler, error) {
	tmp, err := c.FIFO.Dequeue()
	if err != nil {
		return nil, err
	}
	return tmp.(*taskInScheduler), nil
}

func (c *conqFIFO) DequeueOrWaitForNextElementContext(ctx context.Context) (*taskInScheduler, error) {
	tmp, err := c.FIFO.DequeueOrWaitForNextElementContext(ctx)
	if err != nil {
		return nil, err
	}
	return tmp.(*taskInScheduler), nil
}

func (c *conqFIFO) GetLen() int {
	return c.FIFO.GetLen()
}

// NormalQueue serializes enqueue requests through a single goroutine so the
// size limit is checked and applied atomically.
type NormalQueue struct {
	fifo       fifo
	maxSize    int
	queueChan  queueChan
	cancelChan chan struct{}
	// withdrawn counts tasks still in fifo whose submitter gave up.
	withdrawn atomic.Int64
}

func (n *NormalQueue) Setup(conf *core.Conf) error {
	if conf.QueueMaxSize <= 0 {
		return fmt.Errorf("queue max size must be positive, got %d", conf.QueueMaxSize)
	}
	n.maxSize = conf.QueueMaxSize
	n.fifo = newConqFIFO()
	n.queueChan = make(queueChan)
	n.cancelChan = make(chan struct{})
	go func() {
		defer close(n.cancelChan)
		for {
			var tis *taskInScheduler
			select {
			case <-n.cancelChan:
				return
			case tis = <-n.queueChan:
			}
			if n.maxSize <= n.GetCurrentSize() {
				zap.L().Info(fmt.Sprintf("failed to put task:%s. Normal Queue is full", tis.id))
				n.reject(tis, ErrorQueueFull)
				continue
			}
			zap.L().Debug(fmt.Sprintf("putting task:%s to normalQueue", tis.id))
			if err := n.fifo.Enqueue(tis); err != nil {
				zap.L().Error(
					fmt.Sprintf("failed to put task:%s to normalQueue/reason:%s", tis.id, err))
				n.reject(tis, err)
			}
		}
	}()
	return nil
}

func (n *NormalQueue) TearDown() {
	n.cancelChan <- struct{}{}
}

// Dequeue returns the next task and marks it started. Withdrawn tasks are
// dropped on the way. Dequeue blocks until a task is queued when wait is true.
// A blocked call returns once ctx is done.
func (n *NormalQueue) Dequeue(ctx context.Context, wait bool) (tis *taskInScheduler, err error) {
	for {
		if wait {
			tis, err = n.fifo.DequeueOrWaitForNextElementContext(ctx)
		} else {
			tis, err = n.fifo.Dequeue()
		}
		if err != nil {
			zap.L().Debug("no task in NormalQueue", zap.Error(err))
			return nil, err
		}
		if tis.start() {
			zap.L().Debug(fmt.Sprintf("dequeued task:%s", tis.id))
			return tis, nil
		}
		n.withdrawn.Add(-1)
		zap.L().Debug(fmt.Sprintf("dropped withdrawn task:%s", tis.id))
		tis.finish(tis.ctx.Err())
	}
}

// Withdraw gives up a queued task. It reports false when the task has
// already been dequeued.
func (n *NormalQueue) Withdraw(tis *taskInScheduler) bool {
	n.withdrawn.Add(1)
	if !tis.withdraw() {
		n.withdrawn.Add(-1)
		return false
	}
	zap.L().Debug(fmt.Sprintf("withdrew task:%s from normalQueue", tis.id))
	return true
}

// reject finishes a task that never made it into fifo.
func (n *NormalQueue) reject(tis *taskInScheduler, err error) {
	if !tis.start() {
		n.withdrawn.Add(-1)
	}
	tis.finish(err)
}

// GetCurrentSize counts queued tasks that are still wanted.
func (n *NormalQueue) GetCurrentSize() int {
	return n.fifo.GetLen() - int(n.withdrawn.Load())
}
