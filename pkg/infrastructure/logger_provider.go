package infrastructure

import (
	"fmt"

	"github.com/coreidentity/authcore/pkg/config"
	"github.com/coreidentity/authcore/pkg/domain"
	"github.com/coreidentity/authcore/pkg/infralog"
)

// NewLogger builds the process-wide domain.Logger per
// config.LoggingConfig.Backend.
func NewLogger(cfg config.LoggingConfig) (domain.Logger, error) {
	switch cfg.Backend {
	case "zap":
		return infralog.NewZapLogger(cfg.Level, cfg.Format)
	case "text", "":
		return infralog.NewTextLogger(cfg.Level, cfg.Format), nil
	default:
		return nil, fmt.Errorf("unsupported logging backend: %s", cfg.Backend)
	}
}
