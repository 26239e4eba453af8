package utils

import "go.uber.org/zap"

// NewProductionLogger returns a production zap logger for long-running
// server processes, or an error when the sink cannot be opened.
func NewProductionLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

// NewLogger returns the service logger. When debug is true, uses development
// config (human-readable console output, debug level); otherwise production
// config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
