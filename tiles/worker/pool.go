package worker

import (
	"context"
	"sync"
)

// Pool runs tasks on at most maxWorkers goroutines. After the first task
// error, queued tasks are skipped and Wait reports that error.
type Pool struct {
	workers chan struct{}
	wg      sync.WaitGroup

	errMu sync.Mutex
	err   error
}

type Task struct {
	Ctx  context.Context
	Work func() error
}

func NewPool(maxWorkers int) *Pool {
	return &Pool{
		workers: make(chan struct{}, max(1, maxWorkers)),
	}
}

// Submit blocks until a worker slot is free, then runs task in the background.
func (p *Pool) Submit(task Task) {
	p.workers <- struct{}{}
	p.wg.Add(1)
	go func() {
		defer func() {
			<-p.workers
			p.wg.Done()
		}()

		if p.Err() != nil {
			return
		}
		if task.Ctx != nil {
			if err := task.Ctx.Err(); err != nil {
				p.setErr(err)
				return
			}
		}
		if err := task.Work(); err != nil {
			p.setErr(err)
		}
	}()
}

// Wait blocks until every submitted task has finished.
func (p *Pool) Wait() error {
	p.wg.Wait()
	return p.Err()
}

func (p *Pool) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.err
}

func (p *Pool) setErr(err error) {
	p.errMu.Lock()
	if p.err == nil {
		p.err = err
	}
	p.errMu.Unlock()
}
