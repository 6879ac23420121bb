package batch

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// EffectiveWorkers returns the pool size for a requested count n on a
// machine with hw CPUs: 0 means hw, anything else is clamped to [1, hw].
func EffectiveWorkers(n, hw int) int {
	hw = max(1, hw)
	if n == 0 {
		return hw
	}
	return max(1, min(n, hw))
}

// Scheduler runs tasks on a fixed pool of workers.
type Scheduler struct {
	Workers int

	// NewDriver builds the Driver owned by worker (numbered from 1).
	NewDriver func(worker int) (*Driver, error)

	// OnOutcome, if set, is called for each finished task from the
	// goroutine that called Run.
	OnOutcome func(Outcome)
}

// Run processes tasks and returns one Outcome per dispatched task, in
// completion order. Task failures do not stop the batch. Cancelling ctx
// stops dispatching; tasks already running finish and are reported.
func (s *Scheduler) Run(ctx context.Context, tasks []Task) ([]Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	workers := max(1, s.Workers)
	if len(tasks) > 0 {
		workers = min(workers, len(tasks))
	}

	drivers := make([]*Driver, workers)
	for i := range drivers {
		d, err := s.NewDriver(i + 1)
		if err != nil {
			return nil, fmt.Errorf("worker %d: %w", i+1, err)
		}
		drivers[i] = d
	}

	workCh := make(chan Task)
	doneCh := make(chan Outcome, workers)

	var wg sync.WaitGroup
	for _, d := range drivers {
		wg.Add(1)
		go func(d *Driver) {
			defer wg.Done()
			for t := range workCh {
				doneCh <- d.Process(t)
			}
		}(d)
	}

	go func() {
		defer close(workCh)
		for _, t := range tasks {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case workCh <- t:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(doneCh)
	}()

	outcomes := make([]Outcome, 0, len(tasks))
	for o := range doneCh {
		if s.OnOutcome != nil {
			s.OnOutcome(o)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, ctx.Err()
}

// Summary counts outcomes by status.
type Summary struct {
	Total     int
	Processed int
	Skipped   int
	Failed    int
	Elapsed   time.Duration
}

// Summarize counts outcomes. elapsed is the wall time of the whole batch.
func Summarize(outcomes []Outcome, elapsed time.Duration) Summary {
	s := Summary{Total: len(outcomes), Elapsed: elapsed}
	for _, o := range outcomes {
		switch o.Status {
		case Processed:
			s.Processed++
		case Skipped:
			s.Skipped++
		case Failed:
			s.Failed++
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d processed, %d skipped, %d failed", s.Processed, s.Skipped, s.Failed)
}
