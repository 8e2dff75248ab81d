package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// StepReport records the outcome of one executed step.
type StepReport struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Report covers one pipeline run. Steps after the first failure are
// absent because they never ran.
type Report struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Steps      []StepReport `json:"steps"`
	Failed     bool         `json:"failed"`
	FailedStep string       `json:"failed_step,omitempty"`
}

// OK reports whether every executed step succeeded or skipped.
func (r Report) OK() bool { return !r.Failed }

// Pipeline executes steps in registration order.
type Pipeline struct {
	steps []Step
}

// New validates step identities and returns a pipeline over them.
func New(steps ...Step) (*Pipeline, error) {
	seen := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		if step == nil {
			return nil, ErrStepNil
		}
		meta := step.Metadata()
		if err := ValidateMetadata(meta); err != nil {
			return nil, err
		}
		if _, ok := seen[meta.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrStepExists, meta.ID)
		}
		seen[meta.ID] = struct{}{}
	}
	return &Pipeline{steps: steps}, nil
}

// Run executes every step in order and stops at the first failure.
// The report always describes the steps that were attempted, whether or
// not the run succeeded.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	report := Report{StartedAt: time.Now()}
	var runErr error

	for _, step := range p.steps {
		meta := step.Metadata()
		if err := ctx.Err(); err != nil {
			report.Failed = true
			report.FailedStep = meta.ID
			report.Steps = append(report.Steps, StepReport{
				ID:     meta.ID,
				Name:   meta.Name,
				Status: StatusFailed,
				Reason: err.Error(),
			})
			runErr = fmt.Errorf("pipeline: cancelled before step %s: %w", meta.ID, err)
			break
		}

		log.Info().Str("step", meta.ID).Msg(meta.Name)
		start := time.Now()
		result, err := step.Run(ctx)
		entry := StepReport{ID: meta.ID, Name: meta.Name, Duration: time.Since(start)}

		if err == nil && result.Status == StatusFailed {
			err = fmt.Errorf("pipeline: step reported failure: %s", result.Reason)
		}
		if err != nil {
			entry.Status = StatusFailed
			entry.Reason = err.Error()
			report.Steps = append(report.Steps, entry)
			report.Failed = true
			report.FailedStep = meta.ID
			runErr = fmt.Errorf("step %s: %w", meta.ID, err)
			log.Error().Str("step", meta.ID).Err(err).Msg("step failed")
			break
		}

		if result.Status == "" {
			result.Status = StatusSucceeded
		}
		entry.Status = result.Status
		entry.Reason = result.Reason
		report.Steps = append(report.Steps, entry)

		if result.Status == StatusSkipped {
			log.Info().Str("step", meta.ID).Str("reason", result.Reason).Msg("step skipped")
		} else {
			log.Info().Str("step", meta.ID).Dur("took", entry.Duration).Msg("step complete")
		}
	}

	report.FinishedAt = time.Now()
	return report, runErr
}
