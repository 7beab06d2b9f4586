package common

import (
	"context"
	"fmt"
	"os"

	"resumeforge/internal/ai"
	"resumeforge/internal/errors"
)

// CreateInputFunc defines how to create the specific input from file contents.
type CreateInputFunc[Input any] func(contents []string) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// AIOperationFunc is any pipeline operation that reports token usage.
type AIOperationFunc[Input, Output any] func(context.Context, Input) (Output, *ai.TokenUsage, error)

// RunAICommand reads each argument as a document, builds the operation input from their
// text, runs the operation and writes the formatted result.
func RunAICommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	fileProcessor *FileProcessor,
	cmdConfig CommandConfig,
	args []string,
	createInput CreateInputFunc[Input],
	aiOperation AIOperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	outputHandler := NewOutputHandler(fileProcessor, logger)

	contents, err := fileProcessor.ValidateAndReadFiles(ctx, args...)
	if err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	if logDetails != nil {
		logDetails(input, cmdConfig)
	}

	result, tokenUsage, err := aiOperation(ctx, input)
	if err != nil {
		return err
	}

	reportUsage(logger, tokenUsage)
	return outputHandler.HandleOutput(result, cmdConfig)
}

func reportUsage(logger *errors.Logger, usage *ai.TokenUsage) {
	if usage == nil {
		return
	}
	if logger != nil {
		logger.Info("AI token usage", "input_tokens", usage.InputTokens, "output_tokens", usage.OutputTokens, "total_tokens", usage.TotalTokens)
		return
	}
	fmt.Fprintf(os.Stderr, "AI token usage: input=%d, output=%d, total=%d\n", usage.InputTokens, usage.OutputTokens, usage.TotalTokens)
}
