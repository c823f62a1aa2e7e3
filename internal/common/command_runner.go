package common

import (
	"context"
	"time"

	"resumescreen/internal/errors"
)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc func(cfg CommandConfig)

// OperationFunc produces the value a command prints.
type OperationFunc[Output any] func(context.Context) (Output, error)

// RunCommand runs operation and hands its result to the output handler in the
// format and destination cmdConfig names.
func RunCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	operation OperationFunc[Output],
	logDetails LogDetailsFunc,
) error {
	outputHandler := NewOutputHandler(logger)

	if err := outputHandler.fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	if logDetails != nil {
		logDetails(cmdConfig)
	}

	start := time.Now()
	result, err := operation(ctx)
	if err != nil {
		return err
	}
	logger.Debug("Operation completed", "duration", time.Since(start))

	return outputHandler.HandleOutput(result, cmdConfig)
}
