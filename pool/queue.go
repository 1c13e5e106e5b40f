package pool

import (
	"sync"
	"time"

	"github.com/echoghi/v5/common/logging"
	"github.com/getsentry/sentry-go"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

type Queue struct {
	pool *ants.Pool
	name string
	wg   sync.WaitGroup
}

func NewQueue(workers int, name string) (*Queue, error) {
	p, err := ants.NewPool(workers, ants.WithOptions(ants.Options{
		ExpiryDuration:   1 * time.Minute, // worker lifespan when unused
		PreAlloc:         false,
		MaxBlockingTasks: 0, // no limit on tasks we can submit
		Nonblocking:      false,
		PanicHandler: func(err interface{}) {
			logrus.Errorf("Panic from internal queue %s", name)
			logrus.Error(err)
			//goland:noinspection GoTypeAssertionOnErrors
			if e, ok := err.(error); ok {
				sentry.CaptureException(e)
			}
		},
		Logger: &logging.SendToDebugLogger{},
	}))
	if err != nil {
		return nil, err
	}
	return &Queue{pool: p, name: name}, nil
}

func (p *Queue) Schedule(task func()) error {
	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		task()
	})
	if err != nil {
		p.wg.Done()
	}
	return err
}

// Wait blocks until every scheduled task has returned, panicking ones included.
func (p *Queue) Wait() {
	p.wg.Wait()
}

func (p *Queue) Release() {
	p.pool.Release()
}
