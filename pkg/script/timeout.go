package script

import (
	"fmt"
	"sync"
	"time"
)

// EvalTimeout is the hard limit for a single script run.
const EvalTimeout = 5 * time.Second

// evalResult is the internal type used to pass run results through
// channels.
type evalResult struct {
	res    *Result
	errors []EvalError
	err    error
}

// waitWithTimeout waits for a result from ch, but returns a timeout
// error if the run exceeds EvalTimeout. It uses a generation counter to
// discard stale results from previous runs.
//
// On timeout, the goroutine may still be running; the generation check
// ensures its result is discarded when it eventually completes.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (*Result, []EvalError, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			// A newer run was started; discard this result.
			return nil, nil, fmt.Errorf("run superseded by newer request")
		}

		return res.res, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("run timed out after %s", EvalTimeout)
	}
}
