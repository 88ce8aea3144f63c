// Package logger builds the structured logger every Ignite subsystem
// receives via its Config.
package logger

import "go.uber.org/zap"

// New returns a production-configured SugaredLogger tagged with service,
// the conventional zap bootstrap for a Go service: JSON encoding, level
// sampling, and stack traces on error-and-above.
func New(service string) *zap.SugaredLogger {
	base, err := zap.NewProduction()
	if err != nil {
		base = zap.NewNop()
	}
	return base.Sugar().With("service", service)
}
