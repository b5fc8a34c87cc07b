//go:build unit
// +build unit

package core

import (
	"context"
	"testing"
	"time"

	"github.com/qgrid-team/qgrid/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemComponentsSetup(t *testing.T) {
	s := SCWithUnimplementedContainer()
	assert.Equal(t, s, GetSystemComponents())
	assert.Nil(t, s.StartContainer())
	assert.Equal(t, 0, s.GetCurrentQueueSize())
	assert.Equal(t, 0, s.GetSessionCount())

	err := s.Invoke(func(sc Scheduler, p Propagator) error {
		return sc.Submit(context.Background(), func(ctx context.Context) error {
			doc, err := p.Propagate(ctx, ir.Document{})
			require.Nil(t, err)
			assert.Equal(t, ir.Document{}, doc)
			return nil
		})
	})
	assert.Nil(t, err)
	s.TearDown()
}

func TestBackendTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, BackendTimeout(&Conf{BackendTimeoutSec: 30}))
}

func TestGridConfig(t *testing.T) {
	c := GridConfig(&Conf{GridMaxRows: 8, GridMaxColumns: 20, GridMinColumns: 1})
	assert.Equal(t, 8, c.MaxRows)
	assert.Equal(t, 20, c.MaxColumns)
	assert.Equal(t, 1, c.MinColumns)
}
