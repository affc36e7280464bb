package catalog

import (
	"context"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"
)

const pollInterval = 30 * time.Second

// StartWatcher monitors the preset directory for changes and reloads.
// Falls back to polling when fsnotify is unavailable.
func (m *Manager) StartWatcher(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	usePolling := false

	if err != nil {
		log.Printf("Catalog Watcher: fsnotify failed (%v), falling back to polling", err)
		usePolling = true
	} else if err := watcher.Add(m.dir); err != nil {
		log.Printf("Catalog Watcher: failed to watch %s (%v), falling back to polling", m.dir, err)
		usePolling = true
		watcher.Close()
	}

	go func() {
		if usePolling {
			ticker := time.NewTicker(pollInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					_ = m.Reload()
				}
			}
		}

		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					log.Printf("Catalog Watcher: %s changed, reloading", event.Name)
					// Editors write in bursts; let the last write settle.
					time.Sleep(100 * time.Millisecond)
					_ = m.Reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Catalog Watcher Error: %v", err)
			}
		}
	}()
}
