package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

var (
	appLogger arbor.ILogger
	loggerMu  sync.RWMutex
)

// SetupLogger initializes the application logger from configuration.
// The returned logger is also installed as the package-level logger
// returned by GetLogger.
func SetupLogger(config *Config) (arbor.ILogger, error) {
	logger := arbor.NewLogger()

	timeFormat := config.Logging.TimeFormat
	if timeFormat == "" {
		timeFormat = "15:04:05"
	}

	for _, output := range config.Logging.Output {
		switch strings.ToLower(output) {
		case "stdout", "console":
			logger = logger.WithConsoleWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeConsole,
				TimeFormat: timeFormat,
				TextOutput: true,
			})
		case "file":
			logDir := "logs"
			if err := os.MkdirAll(logDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				TimeFormat: timeFormat,
				FileName:   filepath.Join(logDir, "dealsense.log"),
				MaxSize:    10 * 1024 * 1024,
				MaxBackups: 5,
			})
		default:
			return nil, fmt.Errorf("unknown log output: %s", output)
		}
	}

	logger = logger.WithLevelFromString(config.Logging.Level)

	loggerMu.Lock()
	appLogger = logger
	loggerMu.Unlock()

	return logger, nil
}

// GetLogger returns the application logger. Falls back to a console
// logger when SetupLogger has not run, so library code can always log.
func GetLogger() arbor.ILogger {
	loggerMu.RLock()
	logger := appLogger
	loggerMu.RUnlock()

	if logger != nil {
		return logger
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if appLogger == nil {
		appLogger = arbor.NewLogger().
			WithConsoleWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeConsole,
				TimeFormat: "15:04:05",
				TextOutput: true,
			}).
			WithLevelFromString("info")
	}
	return appLogger
}
