//go:build unit
// +build unit

package backend

import (
	"context"
	"fmt"
	"testing"

	gomock "github.com/golang/mock/gomock"
	"github.com/qgrid-team/qgrid/backend/mock"
	"github.com/qgrid-team/qgrid/core"
	"github.com/qgrid-team/qgrid/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachingPropagator(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	in := ir.Document{
		{Gates: []ir.Op{ir.Single("X", 0)}, Type: "error", NumRows: 1},
		{Gates: []ir.Op{ir.Single("H", 0)}, Type: "normal", NumRows: 1},
	}
	out := ir.Document{
		{Gates: []ir.Op{ir.Single("H", 0)}, Type: "normal", NumRows: 1},
		{Gates: []ir.Op{ir.Single("Z", 0)}, Type: "error", NumRows: 1},
	}
	inner := mock.NewMockPropagator(mockCtrl)
	inner.EXPECT().Setup(gomock.Any()).Return(nil)
	inner.EXPECT().Propagate(gomock.Any(), in).Return(out, nil).Times(1)
	inner.EXPECT().TearDown()

	c := NewCachingPropagator(inner)
	require.Nil(t, c.Setup(&core.Conf{PropagateCacheSize: 4}))
	defer c.TearDown()

	for i := 0; i < 3; i++ {
		got, err := c.Propagate(context.Background(), in)
		require.Nil(t, err)
		assert.Equal(t, out, got)
	}
	assert.Equal(t, 1, c.Len())

	got, _ := c.Propagate(context.Background(), in)
	got[0].Gates[0] = ir.Single("S", 0)
	again, _ := c.Propagate(context.Background(), in)
	assert.Equal(t, out, again)
}

func TestCachingPropagatorDoesNotCacheFailures(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	in := ir.Document{{Gates: []ir.Op{ir.Single("X", 0)}, Type: "error", NumRows: 1}}
	inner := mock.NewMockPropagator(mockCtrl)
	inner.EXPECT().Setup(gomock.Any()).Return(nil)
	gomock.InOrder(
		inner.EXPECT().Propagate(gomock.Any(), in).
			Return(nil, fmt.Errorf("%w/reason:exit status 1", core.ErrorExternalServiceFailure)),
		inner.EXPECT().Propagate(gomock.Any(), in).Return(in, nil),
	)

	c := NewCachingPropagator(inner)
	require.Nil(t, c.Setup(&core.Conf{PropagateCacheSize: 4}))

	_, err := c.Propagate(context.Background(), in)
	assert.NotNil(t, err)
	assert.Equal(t, 0, c.Len())
	got, err := c.Propagate(context.Background(), in)
	assert.Nil(t, err)
	assert.Equal(t, in, got)
}

func TestCachingPropagatorSetup(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	inner := mock.NewMockPropagator(mockCtrl)
	inner.EXPECT().Setup(gomock.Any()).Return(nil)
	c := NewCachingPropagator(inner)
	assert.NotNil(t, c.Setup(&core.Conf{PropagateCacheSize: 0}))

	failing := mock.NewMockPropagator(mockCtrl)
	failing.EXPECT().Setup(gomock.Any()).Return(fmt.Errorf("no script"))
	assert.EqualError(t, NewCachingPropagator(failing).Setup(&core.Conf{PropagateCacheSize: 4}), "no script")
}
