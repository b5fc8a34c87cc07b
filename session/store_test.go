//go:build unit
// +build unit

package session

import (
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/qgrid-team/qgrid/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	m := &MemoryStore{}
	require.Nil(t, m.Setup(testConf()))
	defer m.TearDown()

	s, err := m.Create()
	require.Nil(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 2, s.Snapshot().NumWires())
	assert.Equal(t, 10, s.Snapshot().NumLayers())
	assert.NotEmpty(t, s.CreatedAt.String())

	got, err := m.Get(s.ID)
	require.Nil(t, err)
	assert.Same(t, s, got)

	require.Nil(t, m.Close(s.ID))
	assert.Equal(t, 0, m.Len())
	_, err = m.Get(s.ID)
	assert.True(t, errors.Is(err, ErrorSessionNotFound))
	assert.True(t, errors.Is(m.Close(s.ID), ErrorSessionNotFound))
}

func TestMemoryStoreConcurrentCreate(t *testing.T) {
	m := &MemoryStore{}
	require.Nil(t, m.Setup(testConf()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Create()
			assert.Nil(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, m.Len())
	m.TearDown()
	assert.Equal(t, 0, m.Len())
}

func TestMemoryStoreSetup(t *testing.T) {
	tests := []struct {
		name    string
		conf    *core.Conf
		wantErr bool
	}{
		{name: "default", conf: testConf()},
		{
			name:    "default rows above max",
			conf:    &core.Conf{GridDefaultRows: 9, GridDefaultColumns: 10, GridMaxRows: 8, GridMaxColumns: 20, GridMinColumns: 1},
			wantErr: true,
		},
		{
			name:    "default columns below min",
			conf:    &core.Conf{GridDefaultRows: 2, GridDefaultColumns: 0, GridMaxRows: 8, GridMaxColumns: 20, GridMinColumns: 1},
			wantErr: true,
		},
		{
			name:    "zero min columns",
			conf:    &core.Conf{GridDefaultRows: 2, GridDefaultColumns: 0, GridMaxRows: 8, GridMaxColumns: 20, GridMinColumns: 0},
			wantErr: true,
		},
		{
			name:    "min columns above max",
			conf:    &core.Conf{GridDefaultRows: 2, GridDefaultColumns: 10, GridMaxRows: 8, GridMaxColumns: 5, GridMinColumns: 6},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&MemoryStore{}).Setup(tt.conf)
			assert.Equal(t, tt.wantErr, err != nil, "got %v", err)
		})
	}
}
