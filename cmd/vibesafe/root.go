// Package main is the vibesafe CLI entrypoint: it composes the Spec
// Extractor, Hasher, Prompt Renderer, Provider Client, Validator,
// Checkpoint Store, and Verification Harness through the Orchestrator into
// the scan / compile / test / save / diff / status / check / watch verbs
//.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vibesafe/vibesafe/internal/vbconfig"
	"github.com/vibesafe/vibesafe/internal/vbdisplay"
	"github.com/vibesafe/vibesafe/internal/vberrors"
	"github.com/vibesafe/vibesafe/internal/vbintrospect"
	"github.com/vibesafe/vibesafe/internal/vborchestrator"
)

// Exit codes.
const (
	exitSuccess        = 0
	exitFailure        = 1
	exitUsage          = 2
	exitProviderError  = 3
	exitIntegrityError = 4
)

var (
	configPath string
	sourceRoot string
	noColor    bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		useColor := vbdisplay.ShouldUseColor(noColor)
		vbdisplay.FormatError(os.Stderr, err, useColor)
		os.Exit(exitCodeFor(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vibesafe",
		Short:         "Hash-verified LLM code generation pipeline",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to vibesafe.toml (default: search upward from cwd)")
	root.PersistentFlags().StringVar(&sourceRoot, "source", ".", "root directory to scan for decorated units")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newScanCmd(),
		newCompileCmd(),
		newTestCmd(),
		newSaveCmd(),
		newDiffCmd(),
		newStatusCmd(),
		newCheckCmd(),
		newWatchCmd(),
	)
	return root
}

// newOrchestrator loads vibesafe.toml and wires a fresh Orchestrator
// rooted at the current directory, the way every verb needs it.
func newOrchestrator() (*vborchestrator.Orchestrator, error) {
	cfg, err := vbconfig.Load(configPath)
	if err != nil {
		return nil, err
	}

	root, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	introspector := vbintrospect.NewGoAdapter()

	// Template ids in vibesafe.toml ("prompts/function.tmpl", ...) are
	// project-root-relative, so the renderer is rooted at the project root.
	return vborchestrator.New(root, sourceRoot, root, cfg, introspector, log)
}

// exitCodeFor maps a returned error to its process exit code.
func exitCodeFor(err error) int {
	if isUsageError(err) {
		return exitUsage
	}
	if isProviderError(err) {
		return exitProviderError
	}
	if isIntegrityError(err) {
		return exitIntegrityError
	}
	return exitFailure
}

func usage(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func isUsageError(err error) bool {
	_, ok := err.(*usageError)
	if ok {
		return true
	}
	_, ok = err.(*vborchestrator.TargetNotFoundError)
	return ok
}

func isProviderError(err error) bool {
	_, ok := err.(*vberrors.ProviderError)
	return ok
}

func isIntegrityError(err error) bool {
	_, ok := err.(*vberrors.IntegrityError)
	return ok
}
