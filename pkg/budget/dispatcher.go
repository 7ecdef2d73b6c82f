package budget

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Dispatcher runs evaluations off the request path. Work is bounded by a
// weighted semaphore and evaluations for the same category are serialized so
// two concurrent expense writes cannot both observe a clear alert flag.
// Failures are logged inside the task and never reach the submitter.
type Dispatcher struct {
	eval *Evaluator
	sem  *semaphore.Weighted
	wg   sync.WaitGroup

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewDispatcher(eval *Evaluator, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		eval:  eval,
		sem:   semaphore.NewWeighted(int64(workers)),
		locks: make(map[uint]*sync.Mutex),
	}
}

func (d *Dispatcher) categoryLock(categoryID uint) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[categoryID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[categoryID] = l
	}
	return l
}

// Dispatch schedules a threshold evaluation for categoryID and returns
// immediately; the triggering request never waits on it.
func (d *Dispatcher) Dispatch(categoryID uint) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("budget alert: panic evaluating category %d: %v", categoryID, r)
			}
		}()
		if err := d.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer d.sem.Release(1)

		l := d.categoryLock(categoryID)
		l.Lock()
		defer l.Unlock()

		if err := d.eval.Check(categoryID); err != nil {
			log.Printf("budget alert: category %d: %v", categoryID, err)
		}
	}()
}

// Wait blocks until every dispatched evaluation has finished. Used on
// shutdown and by tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
