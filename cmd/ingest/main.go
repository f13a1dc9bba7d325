package main

import (
	"fmt"
	"os"

	"github.com/temirov/ingest/internal/cli"
	"github.com/temirov/ingest/internal/utils"
)

const (
	loggerInitializationFailedFormat = "logger initialization failed: %v\n"
	applicationExecutionFailed       = "ingest failed"
)

// main is the entry point for the ingest command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(false)
	if loggerInitializationError != nil {
		fmt.Fprintf(os.Stderr, loggerInitializationFailedFormat, loggerInitializationError)
		os.Exit(1)
	}
	defer func() {
		_ = loggerInstance.Sync()
	}()
	if applicationExecutionError := cli.Execute(); applicationExecutionError != nil {
		loggerInstance.Error(applicationExecutionFailed + ": " + applicationExecutionError.Error())
		_ = loggerInstance.Sync()
		os.Exit(1)
	}
}
