package logger_test

import (
	"errors"
	"os"

	"github.com/wonny/crisis-audit/pkg/logger"
)

// Example_withFields tags log entries with run metadata
func Example_withFields() {
	log := logger.NewWithOptions(logger.Options{Level: "info", Format: "console", Out: os.Stderr})

	log.WithComponent("scheduler").WithFields(map[string]interface{}{
		"job":     "evaluate",
		"overall": "WARNING",
	}).Info("run complete")
}

// Example_withError attaches an error to an entry
func Example_withError() {
	log := logger.NewWithOptions(logger.Options{Out: os.Stderr})

	log.WithError(errors.New("timeout")).Warn("treasury fetch failed")
}
