package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// watchDebounce coalesces bursts of filesystem events into one rescan.
const watchDebounce = 2 * time.Second

type folderWatcher struct {
	notifier *fsnotify.Watcher
	folder   string
	trigger  func(folder string)

	mu    sync.Mutex
	timer *time.Timer
	quit  chan struct{}
	wg    sync.WaitGroup
}

// StartWatching begins observing folder for changes; any event schedules a
// debounced incremental rescan. A previous watch is stopped first.
func (s *Service) StartWatching(folder string) error {
	s.StopWatching()

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	watcher := &folderWatcher{
		notifier: notifier,
		folder:   folder,
		quit:     make(chan struct{}),
		trigger: func(watchedFolder string) {
			if err := s.TriggerScan(watchedFolder, true); err != nil {
				log.Debug().Err(err).Msg("watcher: rescan not started")
			}
		},
	}

	if err := watcher.addTree(folder); err != nil {
		notifier.Close()
		return err
	}

	watcher.wg.Add(1)
	go watcher.loop()

	s.watchMu.Lock()
	s.watcher = watcher
	s.watchMu.Unlock()

	return nil
}

func (s *Service) StopWatching() {
	s.watchMu.Lock()
	watcher := s.watcher
	s.watcher = nil
	s.watchMu.Unlock()

	if watcher != nil {
		watcher.stop()
	}
}

func (w *folderWatcher) addTree(root string) error {
	if err := w.notifier.Add(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		log.Warn().Err(err).Str("dir", root).Msg("watcher: unreadable root")
		return nil
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		subdir := filepath.Join(root, entry.Name())
		if err := w.notifier.Add(subdir); err != nil {
			log.Debug().Err(err).Str("dir", subdir).Msg("watcher: skip subdirectory")
		}
	}

	return nil
}

func (w *folderWatcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.quit:
			return
		case event, ok := <-w.notifier.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.notifier.Add(event.Name); err != nil {
						log.Debug().Err(err).Str("dir", event.Name).Msg("watcher: add new directory")
					}
				}
			}
			w.schedule()
		case err, ok := <-w.notifier.Errors:
			if !ok {
				return
			}
			log.Debug().Err(err).Msg("watcher: event error")
		}
	}
}

func (w *folderWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(watchDebounce, func() {
		w.trigger(w.folder)
	})
}

func (w *folderWatcher) stop() {
	close(w.quit)
	w.notifier.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
}
