package saga

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Step is one write of a multi-step operation. Undo may be nil for steps
// that need no compensation.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

type Status string

const (
	StepCompleted   Status = "completed"
	StepFailed      Status = "failed"
	StepCompensated Status = "compensated"
	StepUndoFailed  Status = "undo_failed"
)

// Marker records what happened to a step during a run.
type Marker struct {
	Step   string `json:"step"`
	Status Status `json:"status"`
	Err    string `json:"error,omitempty"`
}

// Error is returned when a step fails. Log holds every marker of the run.
type Error struct {
	Saga   string
	Step   string
	Err    error
	Log    []Marker
	Intact bool // every completed step was compensated
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: step %s failed: %v", e.Saga, e.Step, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Saga struct {
	name   string
	steps  []Step
	logger *zap.Logger
}

func New(name string, logger *zap.Logger, steps ...Step) *Saga {
	return &Saga{name: name, steps: steps, logger: logger}
}

// Run executes the steps in order. When one fails the completed steps are
// undone in reverse order and an *Error carrying the run log is returned.
func (s *Saga) Run(ctx context.Context) ([]Marker, error) {
	log := make([]Marker, 0, len(s.steps))
	for i, step := range s.steps {
		err := step.Do(ctx)
		if err == nil {
			log = append(log, Marker{Step: step.Name, Status: StepCompleted})
			continue
		}

		log = append(log, Marker{Step: step.Name, Status: StepFailed, Err: err.Error()})
		s.logger.Warn("saga step failed",
			zap.String("saga", s.name),
			zap.String("step", step.Name),
			zap.Error(err))

		intact := true
		for j := i - 1; j >= 0; j-- {
			done := s.steps[j]
			if done.Undo == nil {
				continue
			}
			// Compensation must run even when the caller's context is gone.
			if undoErr := done.Undo(context.WithoutCancel(ctx)); undoErr != nil {
				intact = false
				log = append(log, Marker{Step: done.Name, Status: StepUndoFailed, Err: undoErr.Error()})
				s.logger.Error("saga compensation failed",
					zap.String("saga", s.name),
					zap.String("step", done.Name),
					zap.Error(undoErr))
				continue
			}
			log = append(log, Marker{Step: done.Name, Status: StepCompensated})
		}

		s.logger.Info("saga rolled back",
			zap.String("saga", s.name),
			zap.String("trail", trail(log)),
			zap.Bool("intact", intact))
		return log, &Error{Saga: s.name, Step: step.Name, Err: err, Log: log, Intact: intact}
	}
	return log, nil
}

func trail(log []Marker) string {
	parts := make([]string, 0, len(log))
	for _, m := range log {
		parts = append(parts, m.Step+"="+string(m.Status))
	}
	return strings.Join(parts, ",")
}
