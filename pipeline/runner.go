// Package pipeline sequences stages through a run window with retries and
// a persisted summary.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"pov-pipeline/stages"
	"pov-pipeline/store"
	"pov-pipeline/types"
)

// Options control one run.
type Options struct {
	StartStage    string
	EndStage      string
	RetryCount    int
	RetryDelay    time.Duration
	StopOnError   bool
	KeepArtifacts bool
}

// Runner executes an ordered stage list against an artifact store.
type Runner struct {
	store  *store.Store
	stages []stages.Stage
}

func New(s *store.Store, stageList []stages.Stage) *Runner {
	return &Runner{store: s, stages: stageList}
}

func (r *Runner) index(name string) int {
	for i, s := range r.stages {
		if s.Name() == name {
			return i
		}
	}
	return -1
}

// Run executes the stages from StartStage through EndStage inclusive.
// Every stage gets RetryCount attempts with linear backoff. The summary is
// always written, even when the run fails partway.
func (r *Runner) Run(ctx context.Context, opts Options) (*types.RunSummary, error) {
	if len(r.stages) == 0 {
		return nil, fmt.Errorf("no stages configured")
	}
	if opts.StartStage == "" {
		opts.StartStage = r.stages[0].Name()
	}
	if opts.EndStage == "" {
		opts.EndStage = r.stages[len(r.stages)-1].Name()
	}
	start := r.index(opts.StartStage)
	end := r.index(opts.EndStage)
	if start < 0 {
		return nil, fmt.Errorf("unknown stage %q", opts.StartStage)
	}
	if end < 0 {
		return nil, fmt.Errorf("unknown stage %q", opts.EndStage)
	}
	if start > end {
		return nil, fmt.Errorf("start stage %q comes after end stage %q", opts.StartStage, opts.EndStage)
	}
	if opts.RetryCount <= 0 {
		opts.RetryCount = 1
	}

	// A fresh full run starts from a clean slate; a window resuming
	// mid-pipeline must keep the upstream artifacts it depends on.
	if start == 0 && !opts.KeepArtifacts {
		if err := r.store.Clear(); err != nil {
			return nil, err
		}
	}

	summary := &types.RunSummary{
		RunID:      uuid.NewString()[:8],
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		StartStage: opts.StartStage,
		EndStage:   opts.EndStage,
		Results:    make(map[string]bool),
	}
	began := time.Now()
	log.Printf("[pipeline] run %s: %s -> %s", summary.RunID, opts.StartStage, opts.EndStage)

	for _, stage := range r.stages[start : end+1] {
		summary.StepsTotal++
		r.warnMissingUpstream(stage)

		if r.runStage(ctx, stage, opts) {
			summary.StepsSuccess++
			summary.Results[stage.Name()] = true
			continue
		}
		summary.Results[stage.Name()] = false
		if opts.StopOnError {
			log.Printf("[pipeline] stopping run after %s failed", stage.Name())
			break
		}
	}

	summary.Duration = time.Since(began)
	if err := r.store.WriteSummary(summary); err != nil {
		log.Printf("[pipeline] could not write run summary: %v", err)
	}
	log.Printf("[pipeline] run %s finished: %d/%d stages succeeded in %s",
		summary.RunID, summary.StepsSuccess, summary.StepsTotal, summary.Duration.Round(time.Millisecond))
	return summary, nil
}

// warnMissingUpstream flags stages whose upstream artifacts are absent.
// Advisory only: a stage may legitimately start from ledger state alone.
func (r *Runner) warnMissingUpstream(stage stages.Stage) {
	for _, dep := range stage.DependsOn() {
		if !r.store.Has(dep) {
			log.Printf("[pipeline] warning: %s expects an artifact from %s, none found", stage.Name(), dep)
		}
	}
}

func (r *Runner) runStage(ctx context.Context, stage stages.Stage, opts Options) bool {
	for attempt := 1; attempt <= opts.RetryCount; attempt++ {
		log.Printf("[pipeline] stage %s (attempt %d/%d)", stage.Name(), attempt, opts.RetryCount)

		artifact, err := stage.Run(ctx)
		if err == nil {
			if putErr := r.store.Put(stage.Name(), artifact); putErr != nil {
				log.Printf("[pipeline] stage %s succeeded but artifact write failed: %v", stage.Name(), putErr)
				return false
			}
			return true
		}
		log.Printf("[pipeline] stage %s failed: %v", stage.Name(), err)

		if attempt < opts.RetryCount {
			delay := time.Duration(attempt) * opts.RetryDelay
			log.Printf("[pipeline] retrying %s in %s", stage.Name(), delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				log.Printf("[pipeline] run cancelled: %v", ctx.Err())
				return false
			}
		}
	}
	return false
}
