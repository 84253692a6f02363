// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package topics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const sweepInterval = 500 * time.Millisecond

// Watcher runs a callback for topic directories as new transcripts land in
// them. Rapid writes to the same topic collapse into one callback after
// Debounce of quiet time.
type Watcher struct {
	// Process handles one settled topic directory. It is called from the
	// watch loop; events arriving during a run queue up behind it.
	Process func(ctx context.Context, topicDir string)

	Debounce time.Duration
	Logger   *zap.Logger
}

// Run watches dataDir and its topic subdirectories until ctx is cancelled.
// Topic directories created while watching are picked up. Events for the
// engine's own artifacts and read-marked files are ignored so a debrief
// write does not retrigger the topic that produced it.
func (w *Watcher) Run(ctx context.Context, dataDir string) error {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dataDir); err != nil {
		return fmt.Errorf("watching %s: %w", dataDir, err)
	}
	list, err := List(dataDir)
	if err != nil {
		return err
	}
	for _, topic := range list {
		if err := fw.Add(topic.Dir); err != nil {
			return fmt.Errorf("watching %s: %w", topic.Dir, err)
		}
	}

	logger.Info("watching for transcripts",
		zap.String("dir", dataDir),
		zap.Int("topics", len(list)))

	// pending maps a topic dir to its last transcript event; the sweep
	// processes dirs whose events have settled past the debounce window.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, dataDir, event, pending, logger)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))

		case <-ticker.C:
			now := time.Now()
			for dir, last := range pending {
				if now.Sub(last) >= debounce {
					delete(pending, dir)
					logger.Info("processing topic", zap.String("dir", dir))
					w.Process(ctx, dir)
				}
			}
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, dataDir string, event fsnotify.Event, pending map[string]time.Time, logger *zap.Logger) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	// Directories created directly under the data dir are new topics.
	if filepath.Dir(event.Name) == filepath.Clean(dataDir) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.Add(event.Name); err != nil {
				logger.Warn("watching new topic failed",
					zap.String("dir", event.Name), zap.Error(err))
				return
			}
			logger.Info("watching new topic", zap.String("dir", event.Name))
		}
		return
	}

	name := filepath.Base(event.Name)
	if !isTranscript(name) || isRead(name) {
		return
	}
	pending[filepath.Dir(event.Name)] = time.Now()
}
