package catalog

import (
	"log"
	"sync"
)

// Manager owns the current catalog snapshot and swaps it atomically on
// reload. Calculations keep whichever snapshot they grabbed; a reload
// never mutates a snapshot in flight.
type Manager struct {
	mu      sync.RWMutex
	dir     string
	current *Catalog
}

func NewManager(dir string) (*Manager, error) {
	c, err := Load(dir)
	if err != nil {
		return nil, err
	}
	return &Manager{dir: dir, current: c}, nil
}

// Current returns the active snapshot.
func (m *Manager) Current() *Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reload re-reads the preset directory. On parse failure the previous
// snapshot stays active.
func (m *Manager) Reload() error {
	c, err := Load(m.dir)
	if err != nil {
		log.Printf("Catalog Reload: keeping previous snapshot: %v", err)
		return err
	}
	m.mu.Lock()
	m.current = c
	m.mu.Unlock()
	log.Printf("Catalog Reload: presets reloaded from %s", m.dir)
	return nil
}
