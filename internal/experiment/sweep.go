package experiment

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
)

// SweepPoint is the outcome of one configuration in a sweep.
type SweepPoint struct {
	Key             string
	Value           string
	Config          Config
	Report          *Report
	Reward          Stat
	PredictionError Stat
	Err             error
}

// IntRange returns from, from+step, ... up to and including to.
func IntRange(from, to, step int) []string {
	if step <= 0 {
		step = 1
	}
	var out []string
	for v := from; v <= to; v += step {
		out = append(out, strconv.Itoa(v))
	}
	return out
}

// Sweep runs base once per value of parameter key on a pool of workers. Each
// run executes its repetitions sequentially. Points come back in value order;
// a failed point carries its error.
func Sweep(ctx context.Context, base Config, key string, values []string, workers int, opts ...Option) ([]SweepPoint, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	points := make([]SweepPoint, len(values))
	for i, v := range values {
		cfg, err := FromMap(base, map[string]string{key: v})
		if err != nil {
			return nil, err
		}
		cfg.Workers = 1
		cfg.Visual = false
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%s: %w", key, v, err)
		}
		points[i] = SweepPoint{Key: key, Value: v, Config: cfg}
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				p := &points[idx]
				e, err := New(p.Config, opts...)
				if err != nil {
					p.Err = err
					continue
				}
				p.Report, p.Err = e.Run(ctx)
				if p.Report != nil {
					p.Reward, p.PredictionError = p.Report.Overall()
				}
			}
		}()
	}

	for i := range points {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return points, ctx.Err()
}
