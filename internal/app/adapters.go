package app

import "context"

// checkerFunc adapts a ping function to handlers.HealthChecker.
type checkerFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (c checkerFunc) Name() string { return c.name }

func (c checkerFunc) Check(ctx context.Context) error { return c.fn(ctx) }
