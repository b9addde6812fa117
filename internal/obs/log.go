package obs

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	loggerOnce sync.Once
	logger     zerolog.Logger
)

// Logger returns the shared structured logger used across the service.
func Logger() zerolog.Logger {
	loggerOnce.Do(func() {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	})
	return logger
}
