package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type undoStep struct {
	name string
	fn   func(ctx context.Context) error
}

// Compensator records undo steps for a multi-table write sequence that runs without a
// database transaction. On failure the steps run in reverse order.
type Compensator struct {
	steps  []undoStep
	logger *zap.Logger
}

// NewCompensator creates an empty compensator
func NewCompensator(logger *zap.Logger) *Compensator {
	return &Compensator{logger: logger}
}

// Add registers the undo of a write that just succeeded
func (c *Compensator) Add(name string, fn func(ctx context.Context) error) {
	c.steps = append(c.steps, undoStep{name: name, fn: fn})
}

// Len returns the number of registered steps
func (c *Compensator) Len() int {
	return len(c.steps)
}

// Commit forgets every step. Call it once the sequence has fully succeeded.
func (c *Compensator) Commit() {
	c.steps = nil
}

// Rollback runs every step newest first, even when some fail, and returns the joined
// errors. The caller's cancellation does not stop the undo.
func (c *Compensator) Rollback(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(c.steps) - 1; i >= 0; i-- {
		step := c.steps[i]
		if err := step.fn(ctx); err != nil {
			c.logger.Error("compensation step failed", zap.String("step", step.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("undo %s: %w", step.name, err))
			continue
		}
		c.logger.Debug("compensation step completed", zap.String("step", step.name))
	}
	c.steps = nil
	return errors.Join(errs...)
}

// Fail rolls back and returns cause, logging any rollback error alongside it
func (c *Compensator) Fail(ctx context.Context, cause error) error {
	if c.Len() == 0 {
		return cause
	}
	if err := c.Rollback(ctx); err != nil {
		c.logger.Error("rollback incomplete", zap.NamedError("cause", cause), zap.Error(err))
	}
	return cause
}
