package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cfdops/su2ctl/internal/logging"
)

// InitLogger builds the process-wide console logger for a binary and
// registers it as the zerolog global. Level, timestamp, and color honor the
// SU2CTL_LOG_* environment knobs.
func InitLogger(app string) zerolog.Logger {
	cfg := logging.Resolve(logging.ProfileRuntime)
	zerolog.SetGlobalLevel(cfg.Level)

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}
	builder := zerolog.New(output).With().Str("app", app)
	if cfg.Timestamp {
		builder = builder.Timestamp()
	}
	logger := builder.Logger()
	log.Logger = logger
	return logger
}
