package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danieljhkim/reorg/internal/clock"
	"github.com/danieljhkim/reorg/internal/config"
	"github.com/danieljhkim/reorg/internal/engine"
	"github.com/danieljhkim/reorg/internal/fsops"
	"github.com/danieljhkim/reorg/internal/history"
	"github.com/danieljhkim/reorg/internal/logging"
	"github.com/danieljhkim/reorg/internal/model"
)

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine() (*engine.Engine, error) {
	// Get default paths
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}

	// Ensure directories exist
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	settings, err := config.LoadSettings(paths.Config)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}
	logger, err := logging.New(os.Stderr, settings.LogLevel, settings.LogFormat)
	if err != nil {
		return nil, err
	}

	// Create real implementations
	fs := fsops.NewRealFS()
	clk := clock.RealClock{}
	store := history.NewFileStore(fs, paths.History, clk)

	// Create engine
	return engine.New(store, model.Load, *settings, logger), nil
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputResultJSON outputs a result together with the outcome of the command.
// The command error is returned after the output is written.
func outputResultJSON(result any, err error) error {
	output := map[string]any{
		"success": err == nil,
	}
	if result != nil {
		output["result"] = result
	}
	if err != nil {
		output["error"] = err.Error()
	}
	if encErr := outputJSON(output); encErr != nil {
		return encErr
	}
	return err
}
