package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Run processes all jobs using a worker pool of workers sessions.
func Run(ctx context.Context, env Env, jobs []Job, workers int) []Outcome {
	total := len(jobs)
	results := make([]Outcome, total)
	if workers <= 0 {
		workers = 1
	}
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if p := processed.Load(); p > 0 {
					env.logger().Info("batch progress",
						zap.Int64("done", p),
						zap.Int("total", total),
						zap.Duration("elapsed", time.Since(start).Round(time.Second)),
					)
				}
			}
		}
	}()

	// Worker pool
	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				out, err := RunSession(ctx, env, jobs[idx])
				if err != nil {
					env.logger().Warn("session failed", zap.String("job", jobs[idx].Name), zap.Error(err))
				}
				results[idx] = out
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}
