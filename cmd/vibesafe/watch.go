package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/vibesafe/vibesafe/internal/vborchestrator"
	"github.com/vibesafe/vibesafe/internal/vbspec"
)

// newWatchCmd watches --source for changes to .vibesafe stub files and
// recompiles and re-verifies the units of each changed file, for an iterate-locally
// workflow alongside the one-shot scan / compile / test / save / diff /
// status / check verbs.
func newWatchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompile and re-verify units on source change",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := newOrchestrator()
			if err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			if err := addWatchDirs(watcher, sourceRoot); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s for changes (ctrl-c to stop)\n", sourceRoot)

			pending := map[string]time.Time{}
			ticker := time.NewTicker(pollInterval(debounce))
			defer ticker.Stop()

			ctx := cmd.Context()
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if !isUnitSource(ev.Name) {
						continue
					}
					pending[ev.Name] = time.Now()
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
				case <-ticker.C:
					now := time.Now()
					for path, seen := range pending {
						if now.Sub(seen) < debounce {
							continue
						}
						delete(pending, path)
						recompileChanged(cmd, o, path)
					}
				}
			}
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "settle time before recompiling after a change")
	return cmd
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

// minPollInterval bounds the debounce poll ticker so a zero or
// sub-millisecond --debounce (both valid DurationVar values) never reaches
// time.NewTicker, which panics on a non-positive interval.
const minPollInterval = 10 * time.Millisecond

func pollInterval(debounce time.Duration) time.Duration {
	interval := debounce / 2
	if interval < minPollInterval {
		return minPollInterval
	}
	return interval
}

// isUnitSource reports whether path is a stub file that Scan reads.
func isUnitSource(path string) bool {
	return strings.HasSuffix(path, ".vibesafe")
}

func recompileChanged(cmd *cobra.Command, o *vborchestrator.Orchestrator, changedPath string) {
	all, err := o.Scan()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "scan failed: %v\n", err)
		return
	}
	var specs []vbspec.Spec
	for _, s := range all {
		if filepath.Clean(s.SourceLocation.Path) == filepath.Clean(changedPath) {
			specs = append(specs, s)
		}
	}
	results, err := o.CompileAll(cmd.Context(), specs, false)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "compile failed: %v\n", err)
		return
	}
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.UnitID, r.Err)
			continue
		}
		reports, err := o.Test(cmd.Context(), r.UnitID)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.UnitID, err)
			continue
		}
		printGateReports(cmd, r.UnitID, reports)
	}
}
