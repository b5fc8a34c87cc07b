package session

import (
	"fmt"
	"sync"

	"github.com/go-faster/errors"
	"github.com/qgrid-team/qgrid/core"
	"github.com/qgrid-team/qgrid/grid"
	"go.uber.org/zap"
)

// MemoryStore keeps open sessions in memory. Sessions do not survive a restart.
type MemoryStore struct {
	sessions map[string]*Session
	wires    int
	layers   int
	gridConf grid.Config
	mu       sync.RWMutex
}

func (m *MemoryStore) Setup(conf *core.Conf) error {
	m.gridConf = core.GridConfig(conf)
	m.wires = conf.GridDefaultRows
	m.layers = conf.GridDefaultColumns
	if _, err := grid.New(m.wires, m.layers, m.gridConf); err != nil {
		return fmt.Errorf("invalid default grid/reason:%s", err)
	}
	m.sessions = make(map[string]*Session)
	return nil
}

func (m *MemoryStore) TearDown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*Session)
	sessionsActive.Set(0)
}

func (m *MemoryStore) Create() (*Session, error) {
	g, err := grid.New(m.wires, m.layers, m.gridConf)
	if err != nil {
		return nil, err
	}
	s := newSession(g)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	sessionsActive.Set(float64(len(m.sessions)))
	zap.L().Info(fmt.Sprintf("[MemoryStore] created session %s", s.ID))
	return s, nil
}

func (m *MemoryStore) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, errors.Wrapf(ErrorSessionNotFound, "id:%s", id)
}

func (m *MemoryStore) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		err := errors.Wrapf(ErrorSessionNotFound, "id:%s", id)
		zap.L().Info("[MemoryStore]", zap.Error(err))
		return err
	}
	delete(m.sessions, id)
	sessionsActive.Set(float64(len(m.sessions)))
	zap.L().Info(fmt.Sprintf("[MemoryStore] closed session %s", id))
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
