package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/relmatrix/internal/app"
	"github.com/vk/relmatrix/internal/cli"
	"github.com/vk/relmatrix/internal/config"
	"github.com/vk/relmatrix/internal/hcl"
	"github.com/vk/relmatrix/internal/yaml"
)

// main is the entrypoint for the relmatrix release orchestrator.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, parseErr := cli.Parse(args, outW)
	if parseErr != nil {
		return parseErr
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical configuration errors (bad matrix,
	// unparseable file); recover here to give the user a clean exit.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("a critical startup error occurred: %v", r)
		}
	}()

	relApp := app.NewApp(outW, appConfig, loaderFor(appConfig.MatrixPath), nil)
	return relApp.Run(context.Background(), appConfig)
}

// loaderFor picks the configuration loader by file extension. Directories
// hold .hcl files; a single file may be either format.
func loaderFor(path string) config.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.NewLoader()
	default:
		return hcl.NewLoader()
	}
}
