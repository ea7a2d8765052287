package site

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkpages/mkpages/internal/logfields"
	"github.com/mkpages/mkpages/internal/metrics"
)

// Stage is a discrete unit of work in the site build.
type Stage struct {
	Name string
	Fn   func(ctx context.Context, bs *buildState) error
}

// StageErrorKind classifies a stage failure.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // build must abort
	StageErrorWarning  StageErrorKind = "warning"  // record and continue
	StageErrorCanceled StageErrorKind = "canceled" // context cancellation
)

// StageError carries the stage name and classification with the cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func warnStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

// runStages executes stages in order, timing each into the report and
// stopping on the first fatal error. Warning-classified errors are recorded
// and the run continues.
func runStages(ctx context.Context, bs *buildState, stages []Stage) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := &StageError{Kind: StageErrorCanceled, Stage: st.Name, Err: ctx.Err()}
			bs.report.Errors = append(bs.report.Errors, se)
			bs.builder.recorder.IncStageResult(st.Name, metrics.ResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.report.StageDurations[st.Name] = dur
		bs.builder.recorder.ObserveStageDuration(st.Name, dur)
		bs.builder.logger.Debug("stage finished",
			logfields.BuildID(bs.report.BuildID),
			logfields.Stage(st.Name),
			logfields.DurationMS(float64(dur.Milliseconds())))

		if err == nil {
			bs.builder.recorder.IncStageResult(st.Name, metrics.ResultSuccess)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			se = &StageError{Kind: StageErrorFatal, Stage: st.Name, Err: err}
		}
		switch se.Kind {
		case StageErrorWarning:
			bs.report.Warnings = append(bs.report.Warnings, se.Error())
			bs.builder.recorder.IncStageResult(st.Name, metrics.ResultWarning)
			bs.builder.logger.Warn("stage warning",
				logfields.Stage(st.Name), logfields.Error(se.Err))
		default:
			bs.report.Errors = append(bs.report.Errors, se)
			bs.builder.recorder.IncStageResult(st.Name, metrics.ResultFatal)
			return se
		}
	}
	return nil
}
