package baseline

import (
	"fmt"
	"time"
)

// Stages under which query latencies are recorded.
const (
	StageQuery     = "query"
	StageOptimized = "optimized"
)

// Entry is one recorded query latency.
type Entry struct {
	RunID      string        `json:"run_id"`
	Stage      string        `json:"stage"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Rows       int           `json:"rows"`
	RecordedAt time.Time     `json:"recorded_at"`
}

func (e Entry) validate() error {
	if e.Stage == "" {
		return fmt.Errorf("baseline entry: stage is required")
	}
	if e.Elapsed < 0 {
		return fmt.Errorf("baseline entry: negative elapsed %s", e.Elapsed)
	}
	return nil
}
