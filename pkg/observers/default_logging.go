package observers

import "github.com/anggasct/hsm/pkg/logger"

// NewDefaultLoggingObserver creates a logging observer on the global logger,
// configured from LOGGING_LEVEL and LOGGING_FORMAT
func NewDefaultLoggingObserver() *LoggingObserver {
	return NewLoggingObserver(logger.For(logger.ComponentObserver).Desugar())
}
