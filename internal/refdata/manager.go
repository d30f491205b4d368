package refdata

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/labtriage/internal/core/ports/driven"
	"github.com/custodia-labs/labtriage/internal/logger"
)

// Manager owns the active Snapshot. Current is lock-free; reloads are
// serialised and swap the pointer only after the new data validates.
type Manager struct {
	source  driven.ReferenceSource
	current atomic.Pointer[Snapshot]

	mu        sync.Mutex
	listeners []func(*Snapshot)
}

// NewManager loads the initial snapshot from source.
func NewManager(ctx context.Context, source driven.ReferenceSource) (*Manager, error) {
	if source == nil {
		source = EmbeddedSource{}
	}
	m := &Manager{source: source}
	if _, err := m.Reload(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// NewStaticManager wraps an already built snapshot. Reload re-reads the
// embedded defaults.
func NewStaticManager(s *Snapshot) *Manager {
	m := &Manager{source: EmbeddedSource{}}
	m.current.Store(s)
	return m
}

// Current returns the active snapshot.
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}

// Source returns the source reloads read from.
func (m *Manager) Source() driven.ReferenceSource {
	return m.source
}

// OnReload registers fn to run after every successful swap.
func (m *Manager) OnReload(fn func(*Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Reload reads the source, validates it and swaps it in. On error the
// previous snapshot stays active.
func (m *Manager) Reload(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference data from %s: %w", m.source.Name(), err)
	}
	s, err := Build(data)
	if err != nil {
		return nil, fmt.Errorf("reference data from %s: %w", m.source.Name(), err)
	}

	prev := m.current.Swap(s)
	if prev == nil {
		logger.Debug("refdata: loaded version %s from %s (%d markers, %d thresholds)",
			s.Version(), m.source.Name(), s.Vocabulary.Len(), s.Critical.Len())
	} else {
		logger.Info("refdata: reloaded version %s from %s (was %s)", s.Version(), m.source.Name(), prev.Version())
	}

	for _, fn := range m.listeners {
		fn(s)
	}
	return s, nil
}
