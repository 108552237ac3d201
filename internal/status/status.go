// Package status holds the progress snapshot of the in-flight auto-publish
// cycle. It is a side channel for the admin UI, never consulted for
// correctness decisions.
package status

import (
	"sync"
	"time"
)

// Steps of a publish cycle, in rough order of appearance.
const (
	StepIdle          = "idle"
	StepInit          = "init"
	StepAI            = "ai"
	StepImage         = "image"
	StepImageFallback = "image-fallback"
	StepHTML          = "html"
	StepIndex         = "index"
	StepRevalidate    = "revalidate"
	StepDone          = "done"
	StepError         = "error"
)

// Snapshot is the observable state. Running is derived from Step: only the
// terminal steps leave it false.
type Snapshot struct {
	Step    string    `json:"step"`
	Detail  string    `json:"detail,omitempty"`
	Time    time.Time `json:"time"`
	Running bool      `json:"running"`
}

// Reporter is a single overwritable slot. Every Set replaces the previous
// snapshot; only the latest one is observable.
type Reporter struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewReporter() *Reporter {
	return &Reporter{snap: Snapshot{
		Step: StepIdle,
		Time: time.Now(),
	}}
}

func (r *Reporter) Set(step, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap = Snapshot{
		Step:    step,
		Detail:  detail,
		Time:    time.Now(),
		Running: step != StepDone && step != StepError && step != StepIdle,
	}
}

func (r *Reporter) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}
