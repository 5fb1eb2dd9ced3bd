package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New builds the process-wide zap logger. Production config for prod-like
// environments, human-readable development config otherwise.
func New(env string) (*zap.Logger, error) {
	switch strings.ToLower(env) {
	case "prod", "production":
		return zap.NewProduction()
	default:
		return zap.NewDevelopment()
	}
}
