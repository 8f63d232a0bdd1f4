// Package logging builds the structured logger shared by the stores and the
// gateway. Logging is off unless a file path is given; a CLI's stdout
// belongs to the user.
package logging

import "go.uber.org/zap"

// New returns a production zap logger writing to path, or a no-op logger
// when path is empty.
func New(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}
