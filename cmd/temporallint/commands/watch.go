package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bfv/temporallint/internal/source"
)

// debounce is how long the watcher waits for a burst of writes to settle.
const debounce = 150 * time.Millisecond

// NewWatchCmd builds and returns the 'watch' cobra command.
func NewWatchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <path...>",
		Short: "Re-lint DDL files whenever they change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(v, cmd.Flags(), "format", "strict", "workers", "evidence", "disable"); err != nil {
				return err
			}
			cfg, err := LoadConfig(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, args, cfg, cmd.OutOrStdout())
		},
	}

	addLintFlags(cmd.Flags())
	return cmd
}

// runWatch lints paths once, then again after every settled change, until
// ctx is cancelled.
func runWatch(ctx context.Context, paths []string, cfg *ConfigFile, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	provider := source.NewProvider(nil)
	for _, path := range paths {
		if err := watchPath(provider.Fs, watcher, path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
	}

	var (
		mu   sync.Mutex
		last uint64
	)
	relint := func() {
		mu.Lock()
		defer mu.Unlock()
		sources := provider.Collect(paths)
		fp := source.Fingerprint(sources)
		if fp == last {
			log.Debug().Msg("sources unchanged, skipping")
			return
		}
		last = fp
		if _, err := lintSources(ctx, sources, cfg, w); err != nil {
			log.Error().Err(err).Msg("lint failed")
		}
	}

	relint()
	log.Info().Strs("paths", paths).Msg("watching for changes, press Ctrl+C to stop")
	watchLoop(ctx, watcher, provider, relint)
	return nil
}

// watchPath adds a directory tree, or the parent directory of a file.
// Editors often replace files on save, which only the parent sees.
func watchPath(fs afero.Fs, watcher *fsnotify.Watcher, path string) error {
	info, err := fs.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return watcher.Add(filepath.Dir(path))
	}
	return afero.Walk(fs, path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if p != path && len(fi.Name()) > 0 && fi.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return watcher.Add(p)
		}
		return nil
	})
}

// watchLoop handles file system events until ctx is done.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, provider *source.Provider, relint func()) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !provider.Matches(event.Name) {
				continue
			}
			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("change detected")
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, relint)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}
