package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/relmatrix/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("relmatrix", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
relmatrix - A declarative release-matrix orchestrator.

Usage:
  relmatrix [options] [MATRIX_PATH]

Arguments:
  MATRIX_PATH
    Path to a matrix file (.hcl, .yaml) or a directory of .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	matrixFlag := flagSet.String("matrix", "", "Path to the matrix file or directory.")
	mFlag := flagSet.String("m", "", "Path to the matrix file or directory (shorthand).")
	versionFlag := flagSet.String("release-version", "", "Version stamped on every published package. Required.")
	sourceFlag := flagSet.String("source", ".", "Root of the source tree to build.")
	outputFlag := flagSet.String("output", "dist", "Directory for job workspaces and aggregated artifacts.")
	deadlineFlag := flagSet.Duration("deadline", 0, "Overall deadline for the run. 0 disables it.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *matrixFlag != "" {
		path = *matrixFlag
	} else if *mFlag != "" {
		path = *mFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	if *versionFlag == "" {
		return nil, false, &ExitError{Code: 2, Message: "missing required flag: -release-version"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *deadlineFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid deadline: must not be negative"}
	}

	config, err := app.NewConfig(app.Config{
		MatrixPath:      path,
		Version:         *versionFlag,
		SourceDir:       *sourceFlag,
		OutputDir:       *outputFlag,
		Deadline:        *deadlineFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
