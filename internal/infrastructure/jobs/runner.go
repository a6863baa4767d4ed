package jobs

import (
	"context"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/panics"

	"github.com/avelier/club-ladder/internal/platform/logging"
)

// Runner executes background tasks on a bounded worker pool. Tasks get
// a context detached from the submitting request, so a replay outlives
// the HTTP call that started it.
type Runner struct {
	pool    *ants.Pool
	logger  *logging.Logger
	baseCtx context.Context
}

func NewRunner(workerCount int, logger *logging.Logger) (*Runner, error) {
	if workerCount <= 0 {
		workerCount = 4
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, crerr.Wrap(err, "create worker pool")
	}

	return &Runner{
		pool:    pool,
		logger:  logger,
		baseCtx: context.Background(),
	}, nil
}

// Submit schedules fn on the pool. A panicking task is recovered and
// logged; it must not take the process down with it.
func (r *Runner) Submit(name string, fn func(ctx context.Context)) error {
	err := r.pool.Submit(func() {
		var catcher panics.Catcher
		catcher.Try(func() {
			fn(r.baseCtx)
		})
		if recovered := catcher.Recovered(); recovered != nil {
			r.logger.Error("background task panicked",
				"task", name,
				"panic", recovered.String(),
			)
		}
	})
	if err != nil {
		return crerr.Wrapf(err, "submit task %s", name)
	}
	return nil
}

// Release stops the pool. Queued tasks are dropped; running tasks
// finish.
func (r *Runner) Release() {
	r.pool.Release()
}
