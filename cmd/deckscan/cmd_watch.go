package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ramonehamilton/MTGA-DeckScanner/internal/ocr"
)

const defaultSettle = 500 * time.Millisecond

var (
	watchSettle   time.Duration
	watchExisting bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Scan OCR dumps as they appear in a directory",
	Long: `Watches a directory for new or rewritten OCR dumps and scans each one once
it has not been written to for --settle. Exports go to --output, or to
stdout when no output directory is given. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	var outMu sync.Mutex
	handle := func(path string) {
		result, err := a.scanFile(ctx, path, true)
		if err != nil {
			logger.Error("Scan failed", "source", path, "error", err)
			return
		}
		if scanOutput != "" {
			if err := writeExport(scanOutput, result); err != nil {
				logger.Error("Failed to write export", "source", path, "error", err)
			}
			return
		}
		outMu.Lock()
		defer outMu.Unlock()
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", path, result.ExportText)
	}

	if watchExisting {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if path := filepath.Join(dir, e.Name()); !e.IsDir() && ocr.Supported(path) {
				handle(path)
			}
		}
	}

	logger.Info("Watching for OCR dumps", "dir", dir, "settle", watchSettle)
	err = watchDir(ctx, dir, watchSettle, handle)
	logger.Info("Stopped watching", "dir", dir)
	return err
}

// watchDir calls handle for every supported file created or written in dir,
// once the file has been quiet for settle. It blocks until ctx is done.
func watchDir(ctx context.Context, dir string, settle time.Duration, handle func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
		wg      sync.WaitGroup
	)
	defer func() {
		mu.Lock()
		for path, t := range pending {
			if t.Stop() {
				wg.Done()
			}
			delete(pending, path)
		}
		mu.Unlock()
		wg.Wait()
	}()

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := pending[path]; ok {
			// Still being written: restart the quiet period.
			if t.Stop() {
				t.Reset(settle)
				return
			}
		}
		wg.Add(1)
		var timer *time.Timer
		timer = time.AfterFunc(settle, func() {
			defer wg.Done()
			mu.Lock()
			if pending[path] == timer {
				delete(pending, path)
			}
			mu.Unlock()
			if ctx.Err() == nil {
				handle(path)
			}
		})
		pending[path] = timer
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !ocr.Supported(event.Name) {
				continue
			}
			schedule(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error", "error", err)
		}
	}
}
