package lib

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger builds the service logger. DEBUG=true switches to the
// development encoder with debug level enabled.
func NewLogger() *zap.SugaredLogger {
	var logger *zap.Logger
	var err error
	if os.Getenv("DEBUG") == "true" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}
