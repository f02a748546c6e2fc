package log

import (
	"context"

	"github.com/go-logr/logr"
)

// verbosity levels shared by the packages of this module.
const (
	LevelTraversal = 1
	LevelNode      = 2
)

func FromContext(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}

func WithLogger(ctx context.Context, logger logr.Logger) context.Context {
	return logr.NewContext(ctx, logger)
}

// Named returns the context logger with name appended, and a context carrying it.
func Named(ctx context.Context, name string) (context.Context, logr.Logger) {
	logger := FromContext(ctx).WithName(name)
	return WithLogger(ctx, logger), logger
}
